package core

import (
	"context"
	"sync"
	"time"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/cache"
	"attendance.service/internal/ports/messaging"
	"github.com/rs/zerolog/log"
)

// Broadcaster pushes advisory UI refresh signals to connected viewers.
type Broadcaster interface {
	Broadcast(name string, data any)
}

// EffectsConfig tunes the advisory side effects.
type EffectsConfig struct {
	CacheTTL        time.Duration
	AdvisoryTimeout time.Duration
}

// Effects runs the steps that follow an authoritative write: cache
// invalidation, audit and email publishing and realtime broadcast. None of
// them can fail the operation that triggered them. Any collaborator may be nil.
type Effects struct {
	cache       cache.Cache
	producer    messaging.EventProducer
	broadcaster Broadcaster
	ttl         time.Duration
	timeout     time.Duration
	inflight    sync.WaitGroup
}

func NewEffects(c cache.Cache, p messaging.EventProducer, b Broadcaster, cfg EffectsConfig) *Effects {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Hour
	}
	if cfg.AdvisoryTimeout <= 0 {
		cfg.AdvisoryTimeout = 2 * time.Second
	}
	return &Effects{cache: c, producer: p, broadcaster: b, ttl: cfg.CacheTTL, timeout: cfg.AdvisoryTimeout}
}

// Drain waits for in-flight publishes, or until ctx is done.
func (e *Effects) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		e.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// invalidate removes keys and prefixes synchronously so that reads started
// after the caller returns cannot hit stale entries.
func (e *Effects) invalidate(ctx context.Context, prefixes []string, keys ...string) {
	if e.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	for _, p := range prefixes {
		if err := e.cache.DeletePrefix(ctx, p); err != nil {
			log.Ctx(ctx).Error().Err(err).Str("prefix", p).Msg("Cache invalidation failed")
		}
	}
	if len(keys) > 0 {
		if err := e.cache.Delete(ctx, keys...); err != nil {
			log.Ctx(ctx).Error().Err(err).Strs("keys", keys).Msg("Cache invalidation failed")
		}
	}
}

// async runs fn detached from the request's cancellation but bounded by the
// advisory timeout.
func (e *Effects) async(ctx context.Context, fn func(ctx context.Context)) {
	ctx = context.WithoutCancel(ctx)
	e.inflight.Add(1)
	go func() {
		defer e.inflight.Done()
		ctx, cancel := context.WithTimeout(ctx, e.timeout)
		defer cancel()
		fn(ctx)
	}()
}

func (e *Effects) audit(ctx context.Context, employeeID string, entity model.AuditEntity, action model.AuditAction, payload any) {
	if e.producer == nil {
		return
	}
	// Snapshot now, send later.
	event, err := messaging.NewAuditEvent(employeeID, entity, action, payload, time.Now())
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to build audit event")
		return
	}
	e.async(ctx, func(ctx context.Context) {
		if err := e.producer.PublishAudit(ctx, event); err != nil {
			log.Ctx(ctx).Error().Err(err).Str("employee_id", employeeID).Str("action", string(action)).Msg("Failed to publish audit event")
		}
	})
}

func (e *Effects) email(ctx context.Context, event messaging.EmailEvent) {
	if e.producer == nil {
		return
	}
	e.async(ctx, func(ctx context.Context) {
		if err := e.producer.PublishEmail(ctx, event); err != nil {
			log.Ctx(ctx).Error().Err(err).Str("employee_id", event.EmployeeID).Msg("Failed to publish email event")
		}
	})
}

func (e *Effects) broadcast(ctx context.Context, name string, data any) {
	if e.broadcaster == nil {
		return
	}
	e.async(ctx, func(context.Context) {
		e.broadcaster.Broadcast(name, data)
	})
}

// readThrough serves key from the cache, or loads and stores it on a miss.
// Cache failures degrade to a database read.
func readThrough[T any](ctx context.Context, e *Effects, key string, load func(ctx context.Context) (T, error)) (T, error) {
	if e.cache != nil {
		var cached T
		hit, err := e.cache.Get(ctx, key, &cached)
		switch {
		case err != nil:
			log.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("Cache read failed")
		case hit:
			log.Ctx(ctx).Debug().Str("key", key).Msg("Cache HIT")
			return cached, nil
		default:
			log.Ctx(ctx).Debug().Str("key", key).Msg("Cache MISS")
		}
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}

	if e.cache != nil {
		if err := e.cache.Set(ctx, key, v, e.ttl); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("Cache write failed")
		}
	}
	return v, nil
}
