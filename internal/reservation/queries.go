package reservation

import (
	"context"
	"fmt"

	"agrirent/internal/domain/accesscontrol"
	"agrirent/internal/domain/bookings"
	"agrirent/internal/lifecycle"

	"github.com/shopspring/decimal"
)

// GetBooking returns a booking its parties or an admin may see.
func (e *Engine) GetBooking(ctx context.Context, caller accesscontrol.Caller, bookingID int64) (*bookings.Booking, error) {
	b, err := e.store.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !lifecycle.CanView(b, caller) {
		return nil, &bookings.Error{Kind: bookings.ErrForbidden, BookingID: b.ID, Msg: fmt.Sprintf("user %d is not a party to this booking", caller.ID)}
	}
	return b, nil
}

// Actions lists the statuses caller may currently move the booking to.
func (e *Engine) Actions(b *bookings.Booking, caller accesscontrol.Caller) []bookings.Status {
	return e.guard.Targets(b, caller, e.Today())
}

func (e *Engine) ListBookingsFor(ctx context.Context, requesterID int64, filter bookings.Filter) ([]bookings.Booking, error) {
	return e.store.ListByRequester(ctx, requesterID, filter)
}

func (e *Engine) ListBookingsForResources(ctx context.Context, equipmentIDs []int64, filter bookings.Filter) ([]bookings.Booking, error) {
	if len(equipmentIDs) == 0 {
		return []bookings.Booking{}, nil
	}
	return e.store.ListByEquipment(ctx, equipmentIDs, filter)
}

// ListBookingsForEquipment lists the bookings of one piece of equipment for
// its owner or an admin.
func (e *Engine) ListBookingsForEquipment(ctx context.Context, caller accesscontrol.Caller, equipmentID int64, filter bookings.Filter) ([]bookings.Booking, error) {
	eq, err := e.loadEquipment(ctx, equipmentID)
	if err != nil {
		return nil, err
	}
	if eq.OwnerID != caller.ID && !caller.IsAdmin() {
		return nil, &bookings.Error{Kind: bookings.ErrForbidden, EquipmentID: eq.ID, Msg: fmt.Sprintf("user %d does not own this equipment", caller.ID)}
	}
	return e.store.ListByEquipment(ctx, []int64{eq.ID}, filter)
}

// IsFree reports whether the requested slot has no blocking booking right
// now. The answer is advisory: CreateBooking re-checks under the lock.
func (e *Engine) IsFree(ctx context.Context, req CreateRequest) (bool, error) {
	rt, err := bookings.ParseRentalType(req.RentalType)
	if err != nil {
		return false, err
	}
	period, err := req.period(rt, e.cfg.Location)
	if err != nil {
		return false, withEquipment(err, req.EquipmentID)
	}
	if _, err := e.loadEquipment(ctx, req.EquipmentID); err != nil {
		return false, err
	}
	conflict, err := e.index.HasConflict(ctx, req.EquipmentID, period)
	if err != nil {
		return false, err
	}
	return !conflict, nil
}

// ListBookingsForOwner lists bookings across every piece of equipment the
// owner has in the catalog.
func (e *Engine) ListBookingsForOwner(ctx context.Context, ownerID int64, filter bookings.Filter) ([]bookings.Booking, error) {
	ids, err := e.ownedEquipment(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return e.ListBookingsForResources(ctx, ids, filter)
}

func (e *Engine) ownedEquipment(ctx context.Context, ownerID int64) ([]int64, error) {
	items, err := e.catalog.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list equipment of owner %d: %w", ownerID, err)
	}
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	return ids, nil
}

type Earnings struct {
	OwnerID        int64                   `json:"owner_id"`
	EquipmentCount int                     `json:"equipment_count"`
	Total          decimal.Decimal         `json:"total_earnings"`
	ByStatus       map[bookings.Status]int `json:"bookings_by_status"`
}

// Earnings sums confirmed and completed bookings over the owner's equipment.
func (e *Engine) Earnings(ctx context.Context, ownerID int64) (*Earnings, error) {
	ids, err := e.ownedEquipment(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	all, err := e.ListBookingsForResources(ctx, ids, bookings.Filter{})
	if err != nil {
		return nil, err
	}

	out := &Earnings{
		OwnerID:        ownerID,
		EquipmentCount: len(ids),
		Total:          decimal.Zero,
		ByStatus:       countByStatus(all),
	}
	for _, b := range all {
		if b.Status == bookings.StatusConfirmed || b.Status == bookings.StatusCompleted {
			out.Total = out.Total.Add(b.TotalAmount)
		}
	}
	return out, nil
}

// recentLimit caps the recent bookings shown on the admin overview.
const recentLimit = 10

type AdminOverview struct {
	bookings.Overview
	RecentBookings []bookings.Booking `json:"recent_bookings"`
}

func requireAdmin(caller accesscontrol.Caller) error {
	if caller.IsAdmin() {
		return nil
	}
	return &bookings.Error{Kind: bookings.ErrForbidden, Msg: fmt.Sprintf("user %d is not an admin", caller.ID)}
}

// ListAllBookings lists bookings across the platform. Admins only.
func (e *Engine) ListAllBookings(ctx context.Context, caller accesscontrol.Caller, filter bookings.Filter) ([]bookings.Booking, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	return e.store.ListAll(ctx, filter)
}

// ListPendingBookings is the admin review queue: every booking still
// awaiting a decision, newest first.
func (e *Engine) ListPendingBookings(ctx context.Context, caller accesscontrol.Caller, filter bookings.Filter) ([]bookings.Booking, error) {
	pending := bookings.StatusPending
	filter.Status = &pending
	return e.ListAllBookings(ctx, caller, filter)
}

// AdminOverview tallies bookings by status, sums revenue over CONFIRMED and
// COMPLETED bookings and lists the newest few.
func (e *Engine) AdminOverview(ctx context.Context, caller accesscontrol.Caller) (*AdminOverview, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	o, err := e.store.Overview(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := e.store.ListAll(ctx, bookings.Filter{Limit: recentLimit})
	if err != nil {
		return nil, err
	}
	if recent == nil {
		recent = []bookings.Booking{}
	}
	return &AdminOverview{Overview: *o, RecentBookings: recent}, nil
}

type Summary struct {
	RequesterID int64                   `json:"requester_id"`
	Active      int                     `json:"active_bookings"`
	ByStatus    map[bookings.Status]int `json:"bookings_by_status"`
}

// Summary counts a requester's bookings. Active means PENDING or CONFIRMED.
func (e *Engine) Summary(ctx context.Context, requesterID int64) (*Summary, error) {
	all, err := e.store.ListByRequester(ctx, requesterID, bookings.Filter{})
	if err != nil {
		return nil, err
	}
	out := &Summary{RequesterID: requesterID, ByStatus: countByStatus(all)}
	out.Active = out.ByStatus[bookings.StatusPending] + out.ByStatus[bookings.StatusConfirmed]
	return out, nil
}

func countByStatus(in []bookings.Booking) map[bookings.Status]int {
	out := map[bookings.Status]int{
		bookings.StatusPending:   0,
		bookings.StatusConfirmed: 0,
		bookings.StatusCancelled: 0,
		bookings.StatusCompleted: 0,
	}
	for _, b := range in {
		out[b.Status]++
	}
	return out
}
