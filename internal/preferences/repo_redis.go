package preferences

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"legalassist-backend/internal/shared/util"
)

const defaultKeyPrefix = "prefs:"

// RedisRepo stores preferences as JSON values keyed by hashed user ID.
type RedisRepo struct {
	Client redis.Cmdable
	Prefix string
}

// NewRedisRepo constructs a RedisRepo.
func NewRedisRepo(client redis.Cmdable) *RedisRepo {
	return &RedisRepo{Client: client, Prefix: defaultKeyPrefix}
}

func (r *RedisRepo) key(userID string) string {
	prefix := r.Prefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return prefix + util.HashUserKey(userID)
}

func (r *RedisRepo) Get(ctx context.Context, userID string) (Preferences, error) {
	raw, err := r.Client.Get(ctx, r.key(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return Preferences{}, ErrNotFound
	}
	if err != nil {
		return Preferences{}, fmt.Errorf("redis get preferences: %w", err)
	}
	var p Preferences
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Preferences{}, fmt.Errorf("decode preferences: %w", err)
	}
	return p, nil
}

func (r *RedisRepo) Put(ctx context.Context, userID string, p Preferences) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	if err := r.Client.Set(ctx, r.key(userID), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set preferences: %w", err)
	}
	return nil
}

var _ Repo = (*RedisRepo)(nil)
