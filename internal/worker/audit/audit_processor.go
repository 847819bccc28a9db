package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/messaging"
	"attendance.service/internal/ports/repository"
	"attendance.service/internal/worker"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var errMalformed = errors.New("malformed audit event")

// AuditProcessor persists audit events from the audit queue.
type AuditProcessor struct {
	repo repository.AuditRepository
	now  func() time.Time
}

// NewProcessor creates a processor that writes audit events into repo.
func NewProcessor(repo repository.AuditRepository) *AuditProcessor {
	return &AuditProcessor{repo: repo, now: time.Now}
}

// Process stores one event. Malformed events are dropped; store failures
// are retried with exponential backoff. A redelivered event is stored again.
func (p *AuditProcessor) Process(ctx context.Context, msg types.Message) (bool, int32, error) {
	if msg.Body == nil {
		return false, 0, fmt.Errorf("%w: empty body", errMalformed)
	}

	var event messaging.AuditEvent
	if err := json.Unmarshal([]byte(*msg.Body), &event); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to unmarshal audit event")
		return false, 0, fmt.Errorf("%w: %v", errMalformed, err)
	}
	if err := validate(event); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("event_id", event.ID).Msg("Rejecting audit event")
		return false, 0, err
	}

	if event.Entity == "" {
		// Events from older producers only described employees.
		event.Entity = model.EntityEmployee
	}

	row := model.AuditTrail{
		ID:         uuid.NewString(),
		EventID:    event.ID,
		EmployeeID: event.EmployeeID,
		Entity:     event.Entity,
		Action:     event.Action,
		Payload:    event.Payload,
		Timestamp:  event.Timestamp,
		CreatedAt:  p.now().UTC(),
	}
	if err := p.repo.Insert(ctx, row); err != nil {
		return true, worker.Backoff(worker.ReceiveCount(msg)), fmt.Errorf("failed to store audit event: %w", err)
	}

	log.Ctx(ctx).Info().
		Str("event_id", event.ID).
		Str("employee_id", event.EmployeeID).
		Str("entity", string(event.Entity)).
		Str("action", string(event.Action)).
		Msg("Audit event stored")
	return false, 0, nil
}

func validate(e messaging.AuditEvent) error {
	switch {
	case e.ID == "":
		return fmt.Errorf("%w: missing id", errMalformed)
	case e.EmployeeID == "":
		return fmt.Errorf("%w: missing employeeId", errMalformed)
	case e.Timestamp.IsZero():
		return fmt.Errorf("%w: missing timestamp", errMalformed)
	}
	switch e.Action {
	case model.AuditCreate, model.AuditUpdate, model.AuditDelete:
	default:
		return fmt.Errorf("%w: unknown action %q", errMalformed, e.Action)
	}
	switch e.Entity {
	case model.EntityEmployee, model.EntityAttendance, "":
	default:
		return fmt.Errorf("%w: unknown entity %q", errMalformed, e.Entity)
	}
	return nil
}
