package usage

import (
	"context"
	"sync"
)

type memoryStore struct {
	mu   sync.RWMutex
	data map[string]Usage
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: make(map[string]Usage)}
}

func (s *memoryStore) Get(ctx context.Context, userID string) (Usage, error) {
	if err := ctx.Err(); err != nil {
		return Usage{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.data[userID]
	if !ok {
		return Usage{}, ErrNotFound
	}
	return clone(u), nil
}

func (s *memoryStore) Put(ctx context.Context, userID string, u Usage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[userID] = clone(u)
	return nil
}

func clone(u Usage) Usage {
	if u.RemainingMessages != nil {
		n := *u.RemainingMessages
		u.RemainingMessages = &n
	}
	return u
}
