package workerproc

import (
	"context"
	"errors"
	"testing"

	"legalassist-backend/internal/assistant"
	"legalassist-backend/internal/conversation"
	"legalassist-backend/internal/queue"
)

type sinkFunc func(ctx context.Context, fb conversation.Feedback) error

func (f sinkFunc) SubmitFeedback(ctx context.Context, fb conversation.Feedback) error {
	return f(ctx, fb)
}

func encode(t *testing.T, msg queue.Message) string {
	t.Helper()
	b, err := queue.EncodeMessage(msg)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return string(b)
}

func TestParseMessage(t *testing.T) {
	valid := encode(t, queue.Message{Type: queue.TypeFeedback, EventID: "e1", Feedback: conversation.Feedback{DocumentID: "d1"}})

	tests := []struct {
		name    string
		body    string
		wantErr any
	}{
		{name: "valid", body: valid},
		{name: "empty", body: "  ", wantErr: ErrEmptyBody{}},
		{name: "bad json", body: "{bad", wantErr: ErrDecode{}},
		{name: "wrong type", body: encode(t, queue.Message{Type: "other", Feedback: conversation.Feedback{DocumentID: "d1"}}), wantErr: ErrInvalidEvent{}},
		{name: "missing document", body: encode(t, queue.Message{Type: queue.TypeFeedback}), wantErr: ErrInvalidEvent{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, meta, err := ParseMessage(tt.body)
			switch tt.wantErr.(type) {
			case nil:
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if meta.BodyLen != len(tt.body) || meta.BodySHA == "" {
					t.Fatalf("unexpected meta %+v", meta)
				}
			case ErrEmptyBody:
				if _, ok := err.(ErrEmptyBody); !ok {
					t.Fatalf("expected ErrEmptyBody, got %v", err)
				}
			case ErrDecode:
				if _, ok := err.(ErrDecode); !ok {
					t.Fatalf("expected ErrDecode, got %v", err)
				}
			case ErrInvalidEvent:
				if _, ok := err.(ErrInvalidEvent); !ok {
					t.Fatalf("expected ErrInvalidEvent, got %v", err)
				}
			}
		})
	}
}

func TestDeliver(t *testing.T) {
	var got conversation.Feedback
	ok := sinkFunc(func(_ context.Context, fb conversation.Feedback) error {
		got = fb
		return nil
	})
	msg := queue.Message{EventID: "e1", Feedback: conversation.Feedback{DocumentID: "d1", Positive: true}}

	if err := Deliver(context.Background(), ok, msg); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if got.DocumentID != "d1" || !got.Positive {
		t.Fatalf("unexpected feedback %+v", got)
	}

	boom := errors.New("boom")
	failing := sinkFunc(func(context.Context, conversation.Feedback) error { return boom })
	err := Deliver(context.Background(), failing, msg)
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
	if !Retryable(err) {
		t.Fatalf("delivery failures should be retryable")
	}
	rejected := sinkFunc(func(context.Context, conversation.Feedback) error {
		return &assistant.APIError{Status: 400, Code: "validation_error"}
	})
	if Retryable(Deliver(context.Background(), rejected, msg)) {
		t.Fatalf("client errors should not be retryable")
	}
	if Retryable(ErrDecode{}) {
		t.Fatalf("decode failures should not be retryable")
	}
	if err := Deliver(context.Background(), nil, msg); err == nil {
		t.Fatalf("expected error for nil sink")
	}
}
