package reservation

import (
	"context"
	"errors"
	"fmt"

	"agrirent/internal/domain/accesscontrol"
	"agrirent/internal/domain/bookings"
	"agrirent/internal/lifecycle"
)

// casAttempts bounds how often a transition re-reads after losing a race.
const casAttempts = 3

// Transition moves a booking to target on behalf of caller. The status update
// is a compare-and-swap, so an owner and an admin racing on the same booking
// cannot both win; the loser re-reads and is judged against the new status.
func (e *Engine) Transition(ctx context.Context, caller accesscontrol.Caller, bookingID int64, target bookings.Status) (*bookings.Booking, error) {
	return e.transition(ctx, caller, bookingID, target, nil)
}

func (e *Engine) Confirm(ctx context.Context, caller accesscontrol.Caller, bookingID int64) (*bookings.Booking, error) {
	return e.Transition(ctx, caller, bookingID, bookings.StatusConfirmed)
}

func (e *Engine) Cancel(ctx context.Context, caller accesscontrol.Caller, bookingID int64) (*bookings.Booking, error) {
	return e.Transition(ctx, caller, bookingID, bookings.StatusCancelled)
}

func (e *Engine) Complete(ctx context.Context, caller accesscontrol.Caller, bookingID int64) (*bookings.Booking, error) {
	return e.Transition(ctx, caller, bookingID, bookings.StatusCompleted)
}

// Reject cancels a booking that is still awaiting confirmation.
func (e *Engine) Reject(ctx context.Context, caller accesscontrol.Caller, bookingID int64) (*bookings.Booking, error) {
	from := bookings.StatusPending
	return e.transition(ctx, caller, bookingID, bookings.StatusCancelled, &from)
}

func (e *Engine) transition(ctx context.Context, caller accesscontrol.Caller, bookingID int64, target bookings.Status, only *bookings.Status) (*bookings.Booking, error) {
	var lastErr error
	for attempt := 0; attempt < casAttempts; attempt++ {
		b, err := e.store.GetByID(ctx, bookingID)
		if err != nil {
			return nil, err
		}
		// strangers learn nothing about the booking, not even its status
		if !lifecycle.CanView(b, caller) {
			return nil, &bookings.Error{Kind: bookings.ErrForbidden, BookingID: b.ID, Msg: fmt.Sprintf("user %d is not a party to this booking", caller.ID)}
		}
		if only != nil && b.Status != *only {
			return nil, &bookings.Error{
				Kind:      bookings.ErrInvalidTransition,
				BookingID: b.ID,
				Msg:       fmt.Sprintf("booking is %s, expected %s", b.Status, *only),
			}
		}
		if err := e.guard.Check(b, target, caller, e.Today()); err != nil {
			return nil, err
		}

		updated, err := e.store.UpdateStatus(ctx, b.ID, b.Status, target)
		if errors.Is(err, bookings.ErrStatusChanged) {
			e.logger.Infow("booking changed underneath transition, re-reading",
				"booking_id", b.ID, "from", b.Status, "to", target)
			lastErr = err
			continue
		}
		if err != nil {
			return nil, err
		}

		e.logger.Infow("booking status changed",
			"booking_id", updated.ID,
			"equipment_id", updated.EquipmentID,
			"from", b.Status,
			"status", updated.Status,
			"actor_id", caller.ID,
		)
		e.emit(bookings.Event{Kind: bookings.EventFor(updated.Status), Booking: *updated, ActorID: caller.ID})
		return updated, nil
	}
	e.logger.Warnw("booking kept changing underneath transition, giving up",
		"booking_id", bookingID, "to", target, "attempts", casAttempts)
	return nil, &bookings.Error{
		Kind:      bookings.ErrUnavailable,
		BookingID: bookingID,
		Msg:       fmt.Sprintf("status changed concurrently %d times", casAttempts),
		Err:       lastErr,
	}
}
