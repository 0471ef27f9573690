package misc

import (
	"context"
	"time"
)

// DefaultBackoff is the wait before each retry of a transient failure.
var DefaultBackoff = []time.Duration{
	1 * time.Second,
	3 * time.Second,
	5 * time.Second,
}

// RetryFunc observes a failed attempt that is about to be retried after wait.
type RetryFunc func(attempt int, wait time.Duration, err error)

// Retry runs op until it succeeds, returns an error isRetryable rejects, or the delays run
// out. Every delay buys one more attempt. A nil isRetryable retries every error.
func Retry(ctx context.Context, delays []time.Duration, isRetryable func(error) bool, op func() error) error {
	return RetryNotify(ctx, delays, isRetryable, op, nil)
}

// RetryNotify is Retry with notify called before every wait.
func RetryNotify(ctx context.Context, delays []time.Duration, isRetryable func(error) bool, op func() error, notify RetryFunc) error {
	for attempt := 0; ; attempt++ {
		err := op()
		if err == nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if attempt >= len(delays) || (isRetryable != nil && !isRetryable(err)) {
			return err
		}
		if notify != nil {
			notify(attempt+1, delays[attempt], err)
		}
		if err := sleep(ctx, delays[attempt]); err != nil {
			return err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
