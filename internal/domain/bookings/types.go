package bookings

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type RentalType string

const (
	Hourly RentalType = "HOURLY"
	Daily  RentalType = "DAILY"
	Weekly RentalType = "WEEKLY"
)

// ParseRentalType accepts any casing. An empty string means DAILY.
func ParseRentalType(s string) (RentalType, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return Daily, nil
	}
	switch rt := RentalType(s); rt {
	case Hourly, Daily, Weekly:
		return rt, nil
	}
	return "", &Error{Kind: ErrInvalidInput, Msg: fmt.Sprintf("unknown rental type %q", s)}
}

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToUpper(strings.TrimSpace(s))); st {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return st, nil
	}
	return "", &Error{Kind: ErrInvalidInput, Msg: fmt.Sprintf("unknown booking status %q", s)}
}

// Blocking reports whether a booking in this status holds its slot.
func (s Status) Blocking() bool {
	return s == StatusPending || s == StatusConfirmed
}

func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// Period is the booked time range. Date rentals carry StartDate and EndDate;
// hourly rentals carry StartDate plus StartTime and EndTime on that date.
// Dates are civil dates stored as midnight UTC.
type Period struct {
	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
}

func NewDatePeriod(start, end time.Time) Period {
	s, e := Day(start), Day(end)
	return Period{StartDate: s, EndDate: &e}
}

func NewHourlyPeriod(date, start, end time.Time) Period {
	s, e := start.UTC(), end.UTC()
	return Period{StartDate: Day(date), StartTime: &s, EndTime: &e}
}

// Day truncates t to its calendar date, keeping the date as seen in t's location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (p Period) Hourly() bool {
	return p.StartTime != nil
}

func (p Period) FirstDay() time.Time {
	return p.StartDate
}

// LastDay is inclusive. For hourly periods it equals FirstDay.
func (p Period) LastDay() time.Time {
	if p.EndDate == nil {
		return p.StartDate
	}
	return *p.EndDate
}

// Matches reports whether the period uses the representation required by rt.
func (p Period) Matches(rt RentalType) bool {
	if rt == Hourly {
		return p.StartTime != nil && p.EndTime != nil && p.EndDate == nil
	}
	return p.EndDate != nil && p.StartTime == nil && p.EndTime == nil
}

func (p Period) String() string {
	if p.Hourly() {
		return fmt.Sprintf("%s %s-%s", p.StartDate.Format(time.DateOnly),
			p.StartTime.Format("15:04"), p.EndTime.Format("15:04"))
	}
	return fmt.Sprintf("%s..%s", p.StartDate.Format(time.DateOnly), p.LastDay().Format(time.DateOnly))
}

// Booking is a rental request for one piece of equipment. Equipment and owner
// are identifier snapshots; rate and amount are frozen at creation.
type Booking struct {
	ID          int64      `json:"id"`
	RequesterID int64      `json:"requester_id"`
	EquipmentID int64      `json:"equipment_id"`
	OwnerID     int64      `json:"owner_id"`
	RentalType  RentalType `json:"rental_type"`
	Period
	Duration    int             `json:"total_duration"`
	UnitRate    decimal.Decimal `json:"unit_rate"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      Status          `json:"status"`
	Notes       *string         `json:"notes,omitempty"`
	BookingDate time.Time       `json:"booking_date"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Filter narrows list queries. A zero Limit means no limit.
type Filter struct {
	Status *Status
	Limit  int
	Offset int
}

func (f Filter) apply(in []Booking) []Booking {
	out := in[:0:0]
	for _, b := range in {
		if f.Status != nil && b.Status != *f.Status {
			continue
		}
		out = append(out, b)
	}
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out
}

// Overview is the platform-wide booking tally. Revenue counts CONFIRMED and
// COMPLETED bookings only.
type Overview struct {
	TotalBookings  int64           `json:"total_bookings"`
	TotalPending   int64           `json:"total_pending_bookings"`
	TotalConfirmed int64           `json:"total_confirmed_bookings"`
	TotalCancelled int64           `json:"total_cancelled_bookings"`
	TotalCompleted int64           `json:"total_completed_bookings"`
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
}

// ConflictCheck inspects the blocking bookings that share days with a new
// booking and returns an error to abort the insert.
type ConflictCheck func(candidates []Booking) error

type Store interface {
	// Create persists b only if check accepts the blocking bookings of the
	// same equipment. Both run in one critical section per equipment.
	Create(ctx context.Context, b *Booking, check ConflictCheck) error
	GetByID(ctx context.Context, id int64) (*Booking, error)
	// UpdateStatus moves a booking from one status to another. It fails with
	// ErrStatusChanged when the stored status is no longer from.
	UpdateStatus(ctx context.Context, id int64, from, to Status) (*Booking, error)
	// Blocking lists PENDING and CONFIRMED bookings of the equipment whose
	// days intersect [from, to].
	Blocking(ctx context.Context, equipmentID int64, from, to time.Time) ([]Booking, error)
	ListByRequester(ctx context.Context, requesterID int64, filter Filter) ([]Booking, error)
	ListByEquipment(ctx context.Context, equipmentIDs []int64, filter Filter) ([]Booking, error)
	// ListAll lists every booking, newest first.
	ListAll(ctx context.Context, filter Filter) ([]Booking, error)
	Overview(ctx context.Context) (*Overview, error)
	// ListPendingStartingBefore returns PENDING bookings whose first day is
	// before day, oldest first.
	ListPendingStartingBefore(ctx context.Context, day time.Time, limit int) ([]Booking, error)
}
