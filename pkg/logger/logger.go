package logger

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

// Setup configures the global zerolog logger.
func Setup(isLocalDev bool) {
	// Use Unix timestamps for performance and consistency
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if isLocalDev {
		// Pretty printing for local development
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		// Default to JSON output for production
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	// log.Ctx falls back to the global logger for contexts without one.
	zerolog.DefaultContextLogger = &log.Logger
}

// EnrichContextWithLogger adds a zerolog logger to the context, tagged
// with the trace and span ids when ctx carries a sampled span.
func EnrichContextWithLogger(ctx context.Context) context.Context {
	l := log.With()

	if sCtx := trace.SpanFromContext(ctx).SpanContext(); sCtx.HasTraceID() {
		l = l.Str("trace_id", sCtx.TraceID().String()).
			Str("span_id", sCtx.SpanID().String())
	}

	logger := l.Logger()
	return logger.WithContext(ctx)
}
