package reservation

import (
	"context"
	"errors"

	"agrirent/internal/domain/accesscontrol"
	"agrirent/internal/domain/bookings"
)

// ExpirePending cancels up to limit PENDING bookings whose start date has
// passed. It acts as the system admin through the regular transition path.
func (e *Engine) ExpirePending(ctx context.Context, limit int) (int, error) {
	stale, err := e.store.ListPendingStartingBefore(ctx, e.Today(), limit)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, b := range stale {
		if err := ctx.Err(); err != nil {
			return expired, err
		}
		_, err := e.transition(ctx, accesscontrol.System(), b.ID, bookings.StatusCancelled, &b.Status)
		switch {
		case err == nil:
			expired++
		case errors.Is(err, bookings.ErrInvalidTransition), errors.Is(err, bookings.ErrStatusChanged):
			// moved on since it was listed
		default:
			e.logger.Errorw("expire pending booking", "booking_id", b.ID, "error", err)
		}
	}
	return expired, nil
}
