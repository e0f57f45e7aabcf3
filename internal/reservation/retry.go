package reservation

import (
	"context"
	"errors"
	"time"

	"agrirent/internal/domain/bookings"
)

// retryInsert runs fn until it succeeds, fails with a non-transient error or
// runs out of attempts. Backoff grows linearly.
func (e *Engine) retryInsert(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 1; attempt <= e.cfg.InsertAttempts; attempt++ {
		err = fn()
		if err == nil || !errors.Is(err, bookings.ErrTransient) {
			return err
		}
		if attempt == e.cfg.InsertAttempts {
			break
		}

		e.logger.Warnw("transient store failure, retrying", "attempt", attempt, "error", err)
		t := time.NewTimer(time.Duration(attempt) * e.cfg.RetryBackoff)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
	return err
}
