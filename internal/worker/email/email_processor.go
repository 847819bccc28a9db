package email

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"attendance.service/internal/core"
	"attendance.service/internal/ports/messaging"
	"attendance.service/internal/ports/repository"
	"attendance.service/internal/worker"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog/log"
)

// EmailProcessor sends the shift summary for check-out events.
type EmailProcessor struct {
	emailService core.EmailService
	employees    repository.EmployeeRepository
}

// NewProcessor sets up a processor for the email queue. The employee store
// provides the recipient address.
func NewProcessor(emailService core.EmailService, employees repository.EmployeeRepository) *EmailProcessor {
	return &EmailProcessor{
		emailService: emailService,
		employees:    employees,
	}
}

// Process sends one shift summary and asks the worker to retry on failure.
func (p *EmailProcessor) Process(ctx context.Context, msg types.Message) (bool, int32, error) {
	if msg.Body == nil {
		return false, 0, errors.New("empty email event")
	}

	var event messaging.EmailEvent
	if err := json.Unmarshal([]byte(*msg.Body), &event); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to unmarshal email event")
		return false, 0, err
	}

	employee, err := p.employees.FindByID(ctx, event.EmployeeID)
	if errors.Is(err, repository.ErrNotFound) {
		log.Ctx(ctx).Warn().Str("employee_id", event.EmployeeID).Msg("Employee no longer exists. Skipping email.")
		return false, 0, nil
	}
	if err != nil {
		return true, worker.Backoff(worker.ReceiveCount(msg)), fmt.Errorf("failed to load employee for email: %w", err)
	}

	if err := p.emailService.SendShiftSummary(ctx, employee.Email, employee.Name, event.HoursWorked); err != nil {
		return true, worker.Backoff(worker.ReceiveCount(msg)), fmt.Errorf("failed to send shift summary: %w", err)
	}

	log.Ctx(ctx).Info().
		Str("employee_id", event.EmployeeID).
		Str("attendance_id", event.AttendanceID).
		Float64("hours_worked", event.HoursWorked).
		Msg("Shift summary sent")
	return false, 0, nil
}
