package preferences

import (
	"context"
	"sync"
)

// Repo persists preferences per user.
type Repo interface {
	Get(ctx context.Context, userID string) (Preferences, error)
	Put(ctx context.Context, userID string, p Preferences) error
}

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Preferences
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Preferences)}
}

func (r *MemoryRepo) Get(ctx context.Context, userID string) (Preferences, error) {
	if err := ctx.Err(); err != nil {
		return Preferences{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.data[userID]
	if !ok {
		return Preferences{}, ErrNotFound
	}
	return p, nil
}

func (r *MemoryRepo) Put(ctx context.Context, userID string, p Preferences) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[userID] = p
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
