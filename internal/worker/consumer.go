package worker

import (
	"context"
	"math"
	"strconv"
	"sync"
	"time"

	"attendance.service/pkg/logger"
	"attendance.service/pkg/telemetry"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog/log"
)

type SQSClient interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
	ChangeMessageVisibility(ctx context.Context, params *sqs.ChangeMessageVisibilityInput, optFns ...func(*sqs.Options)) (*sqs.ChangeMessageVisibilityOutput, error)
}

// Processor handles one message from a queue. A nil error deletes the
// message. A retryable error hides it for retryDelay seconds; any other
// error drops it.
type Processor interface {
	Process(ctx context.Context, msg types.Message) (shouldRetry bool, retryDelay int32, err error)
}

// Worker polls a queue and hands messages to a pool of processors.
type Worker struct {
	client    SQSClient
	queueURL  string
	processor Processor
	// Concurrency controls how many messages can be processed at the same time.
	Concurrency int
	// MaxReceives drops a message that keeps failing after this many
	// deliveries. Zero retries forever.
	MaxReceives int
	// WaitTimeSeconds is the long-poll duration of each receive.
	WaitTimeSeconds int32
	// PollErrorDelay is how long the poller backs off after a failed receive.
	PollErrorDelay time.Duration
}

// NewWorker creates a new SQS worker, ready to be started.
func NewWorker(client SQSClient, url string, proc Processor) *Worker {
	return &Worker{
		client:          client,
		queueURL:        url,
		processor:       proc,
		Concurrency:     10,
		WaitTimeSeconds: 20,
		PollErrorDelay:  5 * time.Second,
	}
}

// Start runs the poll loop until ctx is canceled, then waits for in-flight
// messages to finish.
func (w *Worker) Start(ctx context.Context) {
	log.Info().Str("queue_url", w.queueURL).Int("concurrency", w.Concurrency).Msg("SQS Worker started. Polling for messages...")

	messagesCh := make(chan types.Message, w.Concurrency)

	var wg sync.WaitGroup
	for i := 0; i < w.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.processMessages(ctx, messagesCh)
		}()
	}

	w.pollMessages(ctx, messagesCh)
	wg.Wait()
	log.Info().Msg("SQS Worker stopped")
}

func (w *Worker) pollMessages(ctx context.Context, messagesCh chan<- types.Message) {
	defer close(messagesCh)

	batch := int32(w.Concurrency)
	if batch > 10 {
		batch = 10 // SQS limit
	}

	for {
		if ctx.Err() != nil {
			log.Info().Msg("Poller shutting down...")
			return
		}

		output, err := w.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:                    &w.queueURL,
			MaxNumberOfMessages:         batch,
			WaitTimeSeconds:             w.WaitTimeSeconds,
			MessageAttributeNames:       []string{"All"},
			MessageSystemAttributeNames: []types.MessageSystemAttributeName{types.MessageSystemAttributeNameApproximateReceiveCount},
		})
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			log.Error().Err(err).Msg("Error receiving messages")
			select {
			case <-ctx.Done():
			case <-time.After(w.PollErrorDelay):
			}
			continue
		}
		if len(output.Messages) > 0 {
			log.Debug().Int("count", len(output.Messages)).Msg("Received messages")
		}
		for _, msg := range output.Messages {
			messagesCh <- msg
		}
	}
}

func (w *Worker) processMessages(ctx context.Context, messagesCh <-chan types.Message) {
	for msg := range messagesCh {
		w.handleSingleMessage(ctx, msg)
	}
}

// handleSingleMessage calls the processor and then deletes the message or
// changes its visibility for a retry. Processing is detached from ctx so a
// shutdown lets the current message finish.
func (w *Worker) handleSingleMessage(ctx context.Context, msg types.Message) {
	ctx, span := telemetry.StartSpanFromSQSMessage(context.WithoutCancel(ctx), msg)
	defer span.End()

	ctx = logger.EnrichContextWithLogger(ctx)

	shouldRetry, retryDelay, err := w.processor.Process(ctx, msg)

	if err != nil && shouldRetry {
		receives := ReceiveCount(msg)
		if w.MaxReceives > 0 && receives >= w.MaxReceives {
			log.Ctx(ctx).Error().Err(err).Int("receive_count", receives).Msg("Giving up on message after max receives")
			w.delete(ctx, msg)
			return
		}

		log.Ctx(ctx).Warn().Err(err).Int32("retry_delay", retryDelay).Int("receive_count", receives).Msg("Processing failed, will retry")
		if _, err := w.client.ChangeMessageVisibility(ctx, &sqs.ChangeMessageVisibilityInput{
			QueueUrl:          &w.queueURL,
			ReceiptHandle:     msg.ReceiptHandle,
			VisibilityTimeout: retryDelay,
		}); err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("Failed to change message visibility")
		}
		return
	}

	if err != nil {
		// Unrecoverable, e.g. a malformed body. Redelivering it cannot help.
		log.Ctx(ctx).Error().Err(err).Msg("Unrecoverable error processing message, dropping")
	}
	w.delete(ctx, msg)
}

func (w *Worker) delete(ctx context.Context, msg types.Message) {
	if _, err := w.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      &w.queueURL,
		ReceiptHandle: msg.ReceiptHandle,
	}); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to delete message")
	}
}

// ReceiveCount is the number of times msg has been delivered, starting at 1.
func ReceiveCount(msg types.Message) int {
	v, ok := msg.Attributes[string(types.MessageSystemAttributeNameApproximateReceiveCount)]
	if !ok {
		return 1
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Backoff is the visibility delay in seconds before the next attempt of a
// message that has been received receives times. It doubles from 10s and
// caps at one hour.
func Backoff(receives int) int32 {
	backoff := math.Pow(2, float64(receives)) * 10
	if backoff > 3600 {
		return 3600
	}
	return int32(backoff)
}
