package workerproc

import (
	"context"
	"errors"
	"strings"

	"legalassist-backend/internal/assistant"
	"legalassist-backend/internal/conversation"
	"legalassist-backend/internal/queue"
	"legalassist-backend/internal/shared/util"
)

// MessageMeta captures details useful for logging and diagnostics.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

// ComputeMeta returns the body length and SHA-256 hash.
func ComputeMeta(body string) MessageMeta {
	if body == "" {
		return MessageMeta{}
	}
	return MessageMeta{BodyLen: len(body), BodySHA: util.Digest(body)}
}

// ErrEmptyBody indicates an empty queue payload.
type ErrEmptyBody struct {
	Meta MessageMeta
}

func (e ErrEmptyBody) Error() string { return "empty message body" }

// ErrDecode indicates a JSON decode failure.
type ErrDecode struct {
	Meta MessageMeta
	Err  error
}

func (e ErrDecode) Error() string {
	if e.Err == nil {
		return "decode message"
	}
	return "decode message: " + e.Err.Error()
}

func (e ErrDecode) Unwrap() error { return e.Err }

// ErrInvalidEvent indicates a decoded message that cannot be delivered.
type ErrInvalidEvent struct {
	Meta    MessageMeta
	EventID string
	Reason  string
}

func (e ErrInvalidEvent) Error() string { return "invalid event: " + e.Reason }

// ErrDeliver indicates delivery failed after successful parsing.
type ErrDeliver struct {
	EventID    string
	DocumentID string
	Err        error
}

func (e ErrDeliver) Error() string {
	if e.Err == nil {
		return "deliver feedback"
	}
	return "deliver feedback: " + e.Err.Error()
}

func (e ErrDeliver) Unwrap() error { return e.Err }

// ParseMessage validates and decodes the queue payload.
func ParseMessage(body string) (queue.Message, MessageMeta, error) {
	meta := ComputeMeta(body)
	if strings.TrimSpace(body) == "" {
		return queue.Message{}, meta, ErrEmptyBody{Meta: meta}
	}

	msg, err := queue.DecodeMessage([]byte(body))
	if err != nil {
		return queue.Message{}, meta, ErrDecode{Meta: meta, Err: err}
	}
	switch {
	case msg.Type != queue.TypeFeedback:
		return msg, meta, ErrInvalidEvent{Meta: meta, EventID: msg.EventID, Reason: "unknown type " + msg.Type}
	case strings.TrimSpace(msg.Feedback.DocumentID) == "":
		return msg, meta, ErrInvalidEvent{Meta: meta, EventID: msg.EventID, Reason: "missing document id"}
	}
	return msg, meta, nil
}

// Deliver hands a parsed feedback event to the sink.
func Deliver(ctx context.Context, sink conversation.FeedbackSink, msg queue.Message) error {
	if sink == nil {
		return errors.New("feedback sink not configured")
	}
	if err := sink.SubmitFeedback(ctx, msg.Feedback); err != nil {
		return ErrDeliver{EventID: msg.EventID, DocumentID: msg.Feedback.DocumentID, Err: err}
	}
	return nil
}

// Retryable reports whether a message that failed with err should stay on
// the queue for another attempt.
func Retryable(err error) bool {
	var deliver ErrDeliver
	if !errors.As(err, &deliver) {
		return false
	}
	var apiErr *assistant.APIError
	if errors.As(deliver.Err, &apiErr) {
		return apiErr.Status >= 500 || apiErr.Status == 429
	}
	return true
}
