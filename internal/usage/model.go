package usage

import "time"

// Usage mirrors the quota state last reported by the assistant backend.
type Usage struct {
	RemainingMessages  *int      `json:"remainingMessages"`
	SubscriptionStatus string    `json:"subscriptionStatus,omitempty"`
	Exhausted          bool      `json:"exhausted"`
	UpdatedAt          time.Time `json:"updatedAt"`
}
