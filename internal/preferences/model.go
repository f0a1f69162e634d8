package preferences

import (
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("preferences not found")
	ErrInvalidInput = errors.New("invalid input")
)

// Preferences is the only per-user state that outlives a conversation.
type Preferences struct {
	Language       string    `json:"language"`
	IntroDismissed bool      `json:"introDismissed"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Update carries a partial preferences change.
type Update struct {
	Language       *string `json:"language"`
	IntroDismissed *bool   `json:"introDismissed"`
}
