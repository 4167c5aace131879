package wrapcore

import (
	"context"
	"strings"
	"time"
)

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "Too Many Requests") || strings.Contains(s, "-32005")
}

// readWithRetry runs a read-only RPC call with small exponential backoff.
// Transactions never go through here: a failed submission is not resent.
func readWithRetry[T any](ctx context.Context, call func(context.Context) (T, error)) (T, error) {
	const maxAttempts = 3
	backoff := 200 * time.Millisecond
	var zero T
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		v, err := call(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err
		if attempt < maxAttempts {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(backoff):
			}
			if isRateLimitError(err) {
				backoff *= 2
			}
		}
	}
	return zero, lastErr
}

// revertReason trims node errors down to the revert message when there is one.
func revertReason(e error) string {
	s := e.Error()
	if i := strings.Index(s, "execution reverted"); i >= 0 {
		return s[i:]
	}
	return s
}
