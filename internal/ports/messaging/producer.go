package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Producer publishes domain events. Sends go through a circuit breaker so
// an unavailable queue fails fast instead of costing every request a timeout.
type Producer struct {
	sender        MessageSender
	auditQueueURL string
	emailQueueURL string
	cb            *gobreaker.CircuitBreaker
}

func NewProducer(sender MessageSender, auditQueueURL, emailQueueURL string) *Producer {
	settings := gobreaker.Settings{
		Name:        "SQS-Publish",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}

	return &Producer{
		sender:        sender,
		auditQueueURL: auditQueueURL,
		emailQueueURL: emailQueueURL,
		cb:            gobreaker.NewCircuitBreaker(settings),
	}
}

func NewSQSProducer(client SQSClient, auditQueueURL, emailQueueURL string) *Producer {
	return NewProducer(NewSQSSender(client), auditQueueURL, emailQueueURL)
}

// PublishAudit sends an audit event. On a FIFO queue events are grouped per
// employee so one employee's mutations are consumed in order.
func (p *Producer) PublishAudit(ctx context.Context, event AuditEvent) error {
	return p.publish(ctx, p.auditQueueURL, event.EmployeeID, event.ID, event)
}

// PublishEmail sends an email event. It is a no-op when no email queue is configured.
func (p *Producer) PublishEmail(ctx context.Context, event EmailEvent) error {
	if p.emailQueueURL == "" {
		return nil
	}
	return p.publish(ctx, p.emailQueueURL, event.EmployeeID, event.AttendanceID, event)
}

func (p *Producer) publish(ctx context.Context, destination, employeeID, dedupID string, body any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal body: %w", err)
	}

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() && employeeID != "" {
		span.SetAttributes(attribute.String("app.employeeId", employeeID))
	}

	msg := Message{Body: b, GroupID: employeeID, DeduplicationID: dedupID}
	_, err = p.cb.Execute(func() (interface{}, error) {
		return nil, p.sender.SendMessage(ctx, destination, msg)
	})
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}
