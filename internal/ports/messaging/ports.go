package messaging

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// EventProducer defines the output port for publishing domain events.
type EventProducer interface {
	PublishAudit(ctx context.Context, event AuditEvent) error
	PublishEmail(ctx context.Context, event EmailEvent) error
}

// Message is one outgoing message. GroupID and DeduplicationID are only
// honoured by FIFO destinations.
type Message struct {
	Body            []byte
	GroupID         string
	DeduplicationID string
}

// MessageSender defines the interface for sending raw messages to a messaging system.
type MessageSender interface {
	SendMessage(ctx context.Context, destination string, msg Message) error
}

// SQSClient defines the interface for the AWS SQS client.
type SQSClient interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}
