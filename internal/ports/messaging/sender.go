package messaging

import (
	"context"
	"strings"

	"attendance.service/pkg/telemetry"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// SQSSender implements MessageSender for AWS SQS.
type SQSSender struct {
	client SQSClient
}

func NewSQSSender(client SQSClient) *SQSSender {
	return &SQSSender{client: client}
}

func (s *SQSSender) SendMessage(ctx context.Context, destination string, msg Message) error {
	// Inject trace context into message attributes
	attributes := telemetry.InjectTraceContext(ctx)

	input := &sqs.SendMessageInput{
		QueueUrl:          aws.String(destination),
		MessageBody:       aws.String(string(msg.Body)),
		MessageAttributes: attributes,
	}
	// Standard queues reject these fields.
	if isFIFO(destination) {
		if msg.GroupID != "" {
			input.MessageGroupId = aws.String(msg.GroupID)
		}
		if msg.DeduplicationID != "" {
			input.MessageDeduplicationId = aws.String(msg.DeduplicationID)
		}
	}

	_, err := s.client.SendMessage(ctx, input)
	return err
}

func isFIFO(queueURL string) bool {
	return strings.HasSuffix(queueURL, ".fifo")
}
