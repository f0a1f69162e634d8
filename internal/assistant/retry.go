package assistant

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"legalassist-backend/internal/shared/telemetry"
)

const retryBaseDelay = 300 * time.Millisecond

// withRetry runs fn and retries it once after a short delay when the failure
// looks transient. Only idempotent reads go through here.
func withRetry[T any](ctx context.Context, op string, fn func() (T, error)) (T, error) {
	res, err := fn()
	if err == nil || !shouldRetry(err) {
		return res, err
	}

	telemetry.Info("assistant.retry", map[string]any{
		"op":      op,
		"attempt": 1,
		"err":     err.Error(),
	})
	select {
	case <-time.After(retryBaseDelay):
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
	return fn()
}

func shouldRetry(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= 500
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "tls handshake timeout") ||
		strings.Contains(msg, "eof")
}
