package core

import (
	"context"
	"fmt"

	"attendance.service/pkg/telemetry"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type EmailService interface {
	SendShiftSummary(ctx context.Context, to, name string, hours float64) error
}

// SESClient is the subset of the SES API used to send mail.
type SESClient interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SESEmailService struct {
	client SESClient
	sender string
}

func NewSESEmailService(client SESClient, sender string) *SESEmailService {
	return &SESEmailService{client: client, sender: sender}
}

func (s *SESEmailService) SendShiftSummary(ctx context.Context, to, name string, hours float64) error {
	tracer := otel.Tracer("ses-email-service")
	ctx, span := tracer.Start(ctx, "send_email", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	if empID := telemetry.GetEmployeeIDFromContext(ctx); empID != "" {
		span.SetAttributes(attribute.String("app.employeeId", empID))
	}

	input := &ses.SendEmailInput{
		Source: aws.String(s.sender),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String("Work Shift Summary"),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data: aws.String(shiftSummaryBody(name, hours)),
				},
			},
		},
	}

	_, err := s.client.SendEmail(ctx, input)
	return err
}

func shiftSummaryBody(name string, hours float64) string {
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf("Hello %s,\n\nYou have successfully checked out. Total hours worked today: %.2f hours.", name, hours)
}
