// Package availability answers whether a rental period collides with the
// bookings that currently hold an equipment's calendar.
package availability

import (
	"context"
	"fmt"
	"strings"
	"time"

	"agrirent/internal/domain/bookings"
)

type Policy int

const (
	// ClosedInterval treats both ends of a range as booked, so back-to-back
	// bookings sharing an end date conflict.
	ClosedInterval Policy = iota
	// HalfOpen treats the end of a range as free. A single-day range still
	// occupies its whole day.
	HalfOpen
)

// DefaultPolicy is the overlap policy used when none is configured.
const DefaultPolicy = ClosedInterval

func (p Policy) String() string {
	switch p {
	case ClosedInterval:
		return "closed"
	case HalfOpen:
		return "half-open"
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "closed":
		return ClosedInterval, nil
	case "half-open", "halfopen", "open":
		return HalfOpen, nil
	}
	return 0, fmt.Errorf("unknown overlap policy %q", s)
}

// Overlaps reports whether two periods intersect under policy. Two hourly
// periods compare by time; anything else compares by calendar day.
func Overlaps(a, b bookings.Period, policy Policy) bool {
	if a.Hourly() && b.Hourly() {
		if !a.StartDate.Equal(b.StartDate) {
			return false
		}
		if policy == HalfOpen {
			return a.StartTime.Before(*b.EndTime) && b.StartTime.Before(*a.EndTime)
		}
		return !a.StartTime.After(*b.EndTime) && !b.StartTime.After(*a.EndTime)
	}

	if policy == HalfOpen {
		aFrom, aTo := dayBounds(a)
		bFrom, bTo := dayBounds(b)
		return aFrom.Before(bTo) && bFrom.Before(aTo)
	}
	return !a.FirstDay().After(b.LastDay()) && !b.FirstDay().After(a.LastDay())
}

// dayBounds returns [first, end) with single-day periods widened to one day.
func dayBounds(p bookings.Period) (time.Time, time.Time) {
	first, last := p.FirstDay(), p.LastDay()
	if !last.After(first) {
		last = first.AddDate(0, 0, 1)
	}
	return first, last
}

type Index struct {
	store  bookings.Store
	policy Policy
}

func NewIndex(store bookings.Store, policy Policy) *Index {
	return &Index{store: store, policy: policy}
}

func (ix *Index) Policy() Policy {
	return ix.policy
}

// HasConflict is an advisory read. Inserts must go through Check inside the
// store's critical section to be race free.
func (ix *Index) HasConflict(ctx context.Context, equipmentID int64, p bookings.Period) (bool, error) {
	candidates, err := ix.store.Blocking(ctx, equipmentID, p.FirstDay(), p.LastDay())
	if err != nil {
		return false, err
	}
	_, found := ix.firstConflict(candidates, p)
	return found, nil
}

// Check builds the callback handed to Store.Create for a new booking.
func (ix *Index) Check(equipmentID int64, p bookings.Period) bookings.ConflictCheck {
	return func(candidates []bookings.Booking) error {
		hit, found := ix.firstConflict(candidates, p)
		if !found {
			return nil
		}
		return &bookings.Error{
			Kind:        bookings.ErrSlotConflict,
			EquipmentID: equipmentID,
			Period:      &p,
			Msg:         fmt.Sprintf("overlaps booking %d (%s, %s)", hit.ID, hit.Period, hit.Status),
		}
	}
}

func (ix *Index) firstConflict(candidates []bookings.Booking, p bookings.Period) (bookings.Booking, bool) {
	for _, c := range candidates {
		if !c.Status.Blocking() {
			continue
		}
		if Overlaps(c.Period, p, ix.policy) {
			return c, true
		}
	}
	return bookings.Booking{}, false
}
