package usage

import (
	"context"
	"database/sql"
	"errors"
)

type pgStore struct {
	DB *sql.DB
}

// NewPGStore constructs a Postgres-backed usage store.
func NewPGStore(db *sql.DB) *pgStore {
	return &pgStore{DB: db}
}

func (s *pgStore) Get(ctx context.Context, userID string) (Usage, error) {
	var u Usage
	var remaining sql.NullInt64
	var status sql.NullString
	err := s.DB.QueryRowContext(ctx, `
SELECT remaining_messages, subscription_status, exhausted, updated_at
FROM usage_snapshots WHERE user_id = $1`, userID).Scan(&remaining, &status, &u.Exhausted, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Usage{}, ErrNotFound
		}
		return Usage{}, err
	}
	if remaining.Valid {
		n := int(remaining.Int64)
		u.RemainingMessages = &n
	}
	u.SubscriptionStatus = status.String
	return u, nil
}

func (s *pgStore) Put(ctx context.Context, userID string, u Usage) error {
	var remaining sql.NullInt64
	if u.RemainingMessages != nil {
		remaining = sql.NullInt64{Int64: int64(*u.RemainingMessages), Valid: true}
	}
	var status sql.NullString
	if u.SubscriptionStatus != "" {
		status = sql.NullString{String: u.SubscriptionStatus, Valid: true}
	}
	_, err := s.DB.ExecContext(ctx, `
INSERT INTO usage_snapshots (user_id, remaining_messages, subscription_status, exhausted, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (user_id) DO UPDATE SET
    remaining_messages = EXCLUDED.remaining_messages,
    subscription_status = EXCLUDED.subscription_status,
    exhausted = EXCLUDED.exhausted,
    updated_at = EXCLUDED.updated_at`,
		userID, remaining, status, u.Exhausted, u.UpdatedAt)
	return err
}
