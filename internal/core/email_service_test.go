package core

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSES struct {
	input *ses.SendEmailInput
}

func (f *fakeSES) SendEmail(_ context.Context, params *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.input = params
	return &ses.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSendShiftSummary(t *testing.T) {
	client := &fakeSES{}
	svc := NewSESEmailService(client, "hr@example.com")

	require.NoError(t, svc.SendShiftSummary(context.Background(), "ada@example.com", "Ada", 8.5))

	require.NotNil(t, client.input)
	assert.Equal(t, "hr@example.com", aws.ToString(client.input.Source))
	assert.Equal(t, []string{"ada@example.com"}, client.input.Destination.ToAddresses)
	assert.Equal(t, "Work Shift Summary", aws.ToString(client.input.Message.Subject.Data))
	assert.Contains(t, aws.ToString(client.input.Message.Body.Text.Data), "Hello Ada")
	assert.Contains(t, aws.ToString(client.input.Message.Body.Text.Data), "8.50 hours")
}

func TestShiftSummaryBodyWithoutName(t *testing.T) {
	assert.Contains(t, shiftSummaryBody("", 1), "Hello there")
}
