package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"legalassist-backend/internal/conversation"
)

// Client publishes feedback messages. SQSClient is the production
// implementation; the worker consumes what it sends.
type Client interface {
	Send(ctx context.Context, msg Message) error
}

// FeedbackSink enqueues document ratings for asynchronous delivery.
type FeedbackSink struct {
	Client Client
	Now    func() time.Time
}

// SubmitFeedback implements conversation.FeedbackSink.
func (s *FeedbackSink) SubmitFeedback(ctx context.Context, fb conversation.Feedback) error {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	msg := Message{
		Type:       TypeFeedback,
		EventID:    uuid.NewString(),
		EnqueuedAt: now().UTC().Format(time.RFC3339),
		Version:    MessageVersion,
		Feedback:   fb,
	}
	if err := s.Client.Send(ctx, msg); err != nil {
		return fmt.Errorf("enqueue feedback document=%s: %w", fb.DocumentID, err)
	}
	return nil
}

var _ conversation.FeedbackSink = (*FeedbackSink)(nil)
