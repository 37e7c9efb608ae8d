package utils

import (
	"context"
	"fmt"
	"time"
)

// Retry runs fn up to maxRetries times, waiting 1s, 2s, 4s... between attempts.
// It is only used for opening the database at startup; scraping itself never retries.
//
// Usage:
//
//	err := utils.Retry(ctx, 3, time.Second, func() error {
//	    return store.Ping(ctx)
//	})
func Retry(ctx context.Context, maxRetries int, base time.Duration, fn func() error) error {
	if maxRetries < 1 {
		maxRetries = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if attempt < maxRetries {
			wait := base * time.Duration(1<<uint(attempt-1))
			Warn("Attempt %d/%d failed: %v, retrying in %v", attempt, maxRetries, lastErr, wait)

			select {
			case <-ctx.Done():
				return fmt.Errorf("retry aborted after %d attempts: %w", attempt, ctx.Err())
			case <-time.After(wait):
			}
		}
	}

	return fmt.Errorf("all %d attempts failed, last error: %w", maxRetries, lastErr)
}
