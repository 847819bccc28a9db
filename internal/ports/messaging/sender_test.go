package messaging

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSQS struct {
	inputs []*sqs.SendMessageInput
}

func (f *fakeSQS) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.inputs = append(f.inputs, params)
	return &sqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil
}

func TestSQSSenderStandardQueue(t *testing.T) {
	client := &fakeSQS{}
	s := NewSQSSender(client)

	err := s.SendMessage(context.Background(), "http://localstack:4566/000000000000/employee-audit",
		Message{Body: []byte(`{"a":1}`), GroupID: "emp-1", DeduplicationID: "ev-1"})
	require.NoError(t, err)

	require.Len(t, client.inputs, 1)
	in := client.inputs[0]
	assert.Equal(t, `{"a":1}`, aws.ToString(in.MessageBody))
	assert.Nil(t, in.MessageGroupId)
	assert.Nil(t, in.MessageDeduplicationId)
}

func TestSQSSenderFIFOQueue(t *testing.T) {
	client := &fakeSQS{}
	s := NewSQSSender(client)

	err := s.SendMessage(context.Background(), "http://localstack:4566/000000000000/employee-audit.fifo",
		Message{Body: []byte(`{}`), GroupID: "emp-1", DeduplicationID: "ev-1"})
	require.NoError(t, err)

	in := client.inputs[0]
	assert.Equal(t, "emp-1", aws.ToString(in.MessageGroupId))
	assert.Equal(t, "ev-1", aws.ToString(in.MessageDeduplicationId))
}
