package messaging

import (
	"encoding/json"
	"fmt"
	"time"

	"attendance.service/internal/core/model"
	"github.com/google/uuid"
)

// AuditEvent is the JSON payload sent via SQS for the audit queue.
type AuditEvent struct {
	ID         string            `json:"id"`
	EmployeeID string            `json:"employeeId"`
	Entity     model.AuditEntity `json:"entity"`
	Action     model.AuditAction `json:"action"`
	Payload    json.RawMessage   `json:"payload"`
	Timestamp  time.Time         `json:"timestamp"`
}

// NewAuditEvent snapshots payload into a new event.
func NewAuditEvent(employeeID string, entity model.AuditEntity, action model.AuditAction, payload any, at time.Time) (AuditEvent, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return AuditEvent{}, fmt.Errorf("failed to marshal audit payload: %w", err)
	}
	return AuditEvent{
		ID:         uuid.NewString(),
		EmployeeID: employeeID,
		Entity:     entity,
		Action:     action,
		Payload:    b,
		Timestamp:  at,
	}, nil
}

// EmailEvent is the JSON payload sent via SQS for the email queue.
type EmailEvent struct {
	AttendanceID string    `json:"attendanceId"`
	EmployeeID   string    `json:"employeeId"`
	HoursWorked  float64   `json:"hoursWorked"`
	OccurredAt   time.Time `json:"occurredAt"`
}
