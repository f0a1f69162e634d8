package usage

import (
	"context"
	"errors"
	"time"

	"legalassist-backend/internal/conversation"
)

type store interface {
	Get(ctx context.Context, userID string) (Usage, error)
	Put(ctx context.Context, userID string, u Usage) error
}

// Service keeps the per-user quota mirror.
type Service struct {
	store store
	Now   func() time.Time
}

// NewService constructs a Service with in-memory store.
func NewService() *Service {
	return &Service{store: newMemoryStore()}
}

// NewPostgresService constructs a Service backed by Postgres.
func NewPostgresService(pgStore store) *Service {
	return &Service{store: pgStore}
}

// Get returns the last reported usage. Users without reports get an empty
// snapshot.
func (s *Service) Get(ctx context.Context, userID string) (Usage, error) {
	u, err := s.store.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return Usage{}, nil
	}
	return u, err
}

// Record implements conversation.UsageRecorder. Fields missing from report
// keep their previous value; an exhausted report pins remaining to zero.
func (s *Service) Record(ctx context.Context, userID string, report conversation.UsageReport) error {
	prev, err := s.store.Get(ctx, userID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	next := prev
	if report.Remaining != nil {
		n := *report.Remaining
		next.RemainingMessages = &n
	}
	if report.SubscriptionStatus != "" {
		next.SubscriptionStatus = report.SubscriptionStatus
	}
	next.Exhausted = report.Exhausted
	if report.Exhausted {
		zero := 0
		next.RemainingMessages = &zero
	}
	next.UpdatedAt = s.now().UTC()
	return s.store.Put(ctx, userID, next)
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

var _ conversation.UsageRecorder = (*Service)(nil)
