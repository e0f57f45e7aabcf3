package bookings

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidInput            = errors.New("invalid input")
	ErrResourceNotFound        = errors.New("equipment not found")
	ErrOutOfAvailabilityWindow = errors.New("outside equipment availability window")
	ErrResourceUnavailable     = fmt.Errorf("%w: equipment is not approved or not available", ErrOutOfAvailabilityWindow)
	ErrSlotConflict            = errors.New("time slot is already booked")
	ErrNotFound                = errors.New("booking not found")
	ErrForbidden               = errors.New("forbidden")
	ErrInvalidTransition       = errors.New("invalid status transition")
	ErrPreconditionFailed      = errors.New("precondition failed")
	ErrUnavailable             = errors.New("booking store unavailable")

	// ErrStatusChanged is returned by Store.UpdateStatus when a concurrent
	// writer moved the booking first.
	ErrStatusChanged = errors.New("booking status changed concurrently")
	// ErrTransient marks store failures that may succeed on retry.
	ErrTransient = errors.New("transient store failure")
)

// Error carries the decision context of a failed booking operation. Kind is
// one of the sentinels above, so callers match with errors.Is.
type Error struct {
	Kind        error
	BookingID   int64
	EquipmentID int64
	Period      *Period
	Msg         string
	Err         error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.BookingID != 0 {
		fmt.Fprintf(&b, " booking=%d", e.BookingID)
	}
	if e.EquipmentID != 0 {
		fmt.Fprintf(&b, " equipment=%d", e.EquipmentID)
	}
	if e.Period != nil {
		fmt.Fprintf(&b, " range=%s", e.Period)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
