package queue

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"legalassist-backend/internal/conversation"
)

func TestMessageRoundTrip(t *testing.T) {
	msg := Message{
		Type:       TypeFeedback,
		EventID:    "event-123",
		EnqueuedAt: "2026-01-30T22:00:00Z",
		Version:    1,
		Feedback: conversation.Feedback{
			SessionID:  "s1",
			UserID:     "guest:1",
			DocumentID: "doc-1",
			Positive:   true,
			CreatedAt:  time.Date(2026, 1, 30, 22, 0, 0, 0, time.UTC),
		},
	}

	payload, err := EncodeMessage(msg)
	if err != nil {
		t.Fatalf("encode message: %v", err)
	}

	got, err := DecodeMessage(payload)
	if err != nil {
		t.Fatalf("decode message: %v", err)
	}

	if !reflect.DeepEqual(got, msg) {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, msg)
	}
}

type fakeBodySendAPI struct {
	bodies []string
	err    error
}

func (f *fakeBodySendAPI) SendMessage(_ context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.bodies = append(f.bodies, aws.ToString(in.MessageBody))
	return &sqs.SendMessageOutput{}, nil
}

func TestFeedbackSinkEnqueues(t *testing.T) {
	api := &fakeBodySendAPI{}
	sink := &FeedbackSink{
		Client: NewSQSClientWith(api, "https://sqs.example/queue"),
		Now:    func() time.Time { return time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC) },
	}

	if err := sink.SubmitFeedback(context.Background(), conversation.Feedback{DocumentID: "doc-9", Positive: false}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(api.bodies) != 1 {
		t.Fatalf("expected one message, got %d", len(api.bodies))
	}
	msg, err := DecodeMessage([]byte(api.bodies[0]))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Type != TypeFeedback || msg.Feedback.DocumentID != "doc-9" || msg.EnqueuedAt != "2026-02-01T10:00:00Z" || msg.EventID == "" {
		t.Fatalf("unexpected message %+v", msg)
	}
}

func TestFeedbackSinkPropagatesSendError(t *testing.T) {
	boom := errors.New("boom")
	sink := &FeedbackSink{Client: NewSQSClientWith(&fakeBodySendAPI{err: boom}, "q")}

	err := sink.SubmitFeedback(context.Background(), conversation.Feedback{DocumentID: "doc-1"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped send error, got %v", err)
	}
}
