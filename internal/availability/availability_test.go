package availability

import (
	"context"
	"testing"
	"time"

	"agrirent/internal/domain/bookings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func dates(from, to string) bookings.Period {
	return bookings.NewDatePeriod(day(from), day(to))
}

func hours(d, from, to string) bookings.Period {
	start, _ := time.Parse("2006-01-02 15:04", d+" "+from)
	end, _ := time.Parse("2006-01-02 15:04", d+" "+to)
	return bookings.NewHourlyPeriod(day(d), start, end)
}

func TestOverlaps(t *testing.T) {
	cases := []struct {
		name     string
		a, b     bookings.Period
		closed   bool
		halfOpen bool
	}{
		{"disjoint", dates("2024-06-01", "2024-06-03"), dates("2024-06-05", "2024-06-07"), false, false},
		{"contained", dates("2024-06-01", "2024-06-10"), dates("2024-06-03", "2024-06-04"), true, true},
		{"partial", dates("2024-06-01", "2024-06-05"), dates("2024-06-04", "2024-06-08"), true, true},
		{"shared end date", dates("2024-06-01", "2024-06-05"), dates("2024-06-05", "2024-06-08"), true, false},
		{"same single day", dates("2024-06-05", "2024-06-05"), dates("2024-06-05", "2024-06-05"), true, true},
		{"single day at start of other", dates("2024-06-05", "2024-06-05"), dates("2024-06-05", "2024-06-08"), true, true},
		{"single day at end of other", dates("2024-06-01", "2024-06-05"), dates("2024-06-05", "2024-06-05"), true, false},
		{"hourly disjoint", hours("2024-06-01", "09:00", "10:00"), hours("2024-06-01", "11:00", "12:00"), false, false},
		{"hourly touching", hours("2024-06-01", "09:00", "10:00"), hours("2024-06-01", "10:00", "12:00"), true, false},
		{"hourly partial", hours("2024-06-01", "09:00", "11:00"), hours("2024-06-01", "10:00", "12:00"), true, true},
		{"hourly other day", hours("2024-06-01", "09:00", "11:00"), hours("2024-06-02", "09:00", "11:00"), false, false},
		{"hourly inside daily", dates("2024-06-01", "2024-06-03"), hours("2024-06-02", "09:00", "11:00"), true, true},
		{"hourly on daily end", dates("2024-06-01", "2024-06-03"), hours("2024-06-03", "09:00", "11:00"), true, false},
		{"hourly before daily", dates("2024-06-02", "2024-06-03"), hours("2024-06-01", "09:00", "11:00"), false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.closed, Overlaps(tc.a, tc.b, ClosedInterval), "closed")
			assert.Equal(t, tc.closed, Overlaps(tc.b, tc.a, ClosedInterval), "closed, swapped")
			assert.Equal(t, tc.halfOpen, Overlaps(tc.a, tc.b, HalfOpen), "half-open")
			assert.Equal(t, tc.halfOpen, Overlaps(tc.b, tc.a, HalfOpen), "half-open, swapped")
		})
	}
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, ClosedInterval, p)

	p, err = ParsePolicy("Half-Open")
	require.NoError(t, err)
	assert.Equal(t, HalfOpen, p)

	_, err = ParsePolicy("sometimes")
	assert.Error(t, err)
}

func seed(t *testing.T, s *bookings.MemoryStore, equipmentID int64, p bookings.Period, status bookings.Status) bookings.Booking {
	t.Helper()
	rt := bookings.Daily
	if p.Hourly() {
		rt = bookings.Hourly
	}
	b := bookings.Booking{EquipmentID: equipmentID, RentalType: rt, Period: p, Status: status}
	require.NoError(t, s.Create(context.Background(), &b, func([]bookings.Booking) error { return nil }))
	return b
}

func TestHasConflictIgnoresTerminalBookingsAndOtherEquipment(t *testing.T) {
	ctx := context.Background()
	store := bookings.NewMemoryStore()
	ix := NewIndex(store, DefaultPolicy)

	seed(t, store, 1, dates("2024-06-01", "2024-06-05"), bookings.StatusCancelled)
	seed(t, store, 1, dates("2024-06-01", "2024-06-05"), bookings.StatusCompleted)
	seed(t, store, 2, dates("2024-06-01", "2024-06-05"), bookings.StatusConfirmed)

	found, err := ix.HasConflict(ctx, 1, dates("2024-06-03", "2024-06-04"))
	require.NoError(t, err)
	assert.False(t, found)

	seed(t, store, 1, dates("2024-06-05", "2024-06-06"), bookings.StatusPending)
	found, err = ix.HasConflict(ctx, 1, dates("2024-06-03", "2024-06-05"))
	require.NoError(t, err)
	assert.True(t, found)
}

func TestCheckReportsConflictingBooking(t *testing.T) {
	existing := bookings.Booking{ID: 7, EquipmentID: 3, Period: dates("2024-06-01", "2024-06-05"), Status: bookings.StatusConfirmed}
	ix := NewIndex(bookings.NewMemoryStore(), ClosedInterval)

	err := ix.Check(3, dates("2024-06-04", "2024-06-08"))([]bookings.Booking{existing})
	require.ErrorIs(t, err, bookings.ErrSlotConflict)
	assert.Contains(t, err.Error(), "booking 7")
	assert.Contains(t, err.Error(), "equipment=3")

	assert.NoError(t, ix.Check(3, dates("2024-06-06", "2024-06-08"))([]bookings.Booking{existing}))

	existing.Status = bookings.StatusCancelled
	assert.NoError(t, ix.Check(3, dates("2024-06-04", "2024-06-08"))([]bookings.Booking{existing}))
}
