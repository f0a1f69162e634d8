package queue

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"legalassist-backend/internal/conversation"
)

type fakeSendAPI struct {
	inputs []*sqs.SendMessageInput
	err    error
}

func (f *fakeSendAPI) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("sqs-1")}, nil
}

func TestSQSClientSendsBodyAndAttributes(t *testing.T) {
	api := &fakeSendAPI{}
	client := NewSQSClientWith(api, "https://sqs.example/feedback")

	err := client.Send(context.Background(), Message{
		Type:     TypeFeedback,
		EventID:  "event-1",
		Version:  MessageVersion,
		Feedback: conversation.Feedback{DocumentID: "doc-1", Positive: true},
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(api.inputs) != 1 {
		t.Fatalf("expected one send, got %d", len(api.inputs))
	}
	in := api.inputs[0]
	if aws.ToString(in.QueueUrl) != "https://sqs.example/feedback" {
		t.Fatalf("unexpected queue %q", aws.ToString(in.QueueUrl))
	}
	decoded, err := DecodeMessage([]byte(aws.ToString(in.MessageBody)))
	if err != nil || decoded.Feedback.DocumentID != "doc-1" {
		t.Fatalf("unexpected body %q (%v)", aws.ToString(in.MessageBody), err)
	}
	if got := aws.ToString(in.MessageAttributes["eventId"].StringValue); got != "event-1" {
		t.Fatalf("expected eventId attribute, got %q", got)
	}
	if got := aws.ToString(in.MessageAttributes["type"].StringValue); got != TypeFeedback {
		t.Fatalf("expected type attribute, got %q", got)
	}
}

func TestSQSClientSkipsEmptyAttributesAndWrapsErrors(t *testing.T) {
	api := &fakeSendAPI{err: errors.New("throttled")}
	client := NewSQSClientWith(api, "q")

	err := client.Send(context.Background(), Message{Type: TypeFeedback})
	if err == nil || !strings.Contains(err.Error(), "throttled") {
		t.Fatalf("expected wrapped error, got %v", err)
	}
	if _, ok := api.inputs[0].MessageAttributes["eventId"]; ok {
		t.Fatalf("expected empty eventId to be omitted")
	}
}
