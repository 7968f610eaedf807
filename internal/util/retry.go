package util

import (
	"context"
	"time"
)

// Retry runs op up to maxAttempts times, doubling the wait between attempts
// from baseDelay. The first nil error wins; otherwise the last error is
// returned. Cancelling the context aborts the wait between attempts.
func Retry(ctx context.Context, maxAttempts int, baseDelay time.Duration, op func() error) error {
	var err error
	delay := baseDelay

	for attempt := 0; attempt < maxAttempts; attempt++ {
		err = op()
		if err == nil {
			return nil
		}

		if attempt == maxAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}

	return err
}
