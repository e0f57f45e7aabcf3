package bookings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDay(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func accept([]Booking) error { return nil }

func put(t *testing.T, s *MemoryStore, b Booking) Booking {
	t.Helper()
	if b.Status == "" {
		b.Status = StatusPending
	}
	require.NoError(t, s.Create(context.Background(), &b, accept))
	return b
}

func TestMemoryStoreCreateRunsCheckAgainstBlockingBookings(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	put(t, s, Booking{EquipmentID: 1, Period: NewDatePeriod(mustDay("2024-06-01"), mustDay("2024-06-05"))})
	put(t, s, Booking{EquipmentID: 1, Period: NewDatePeriod(mustDay("2024-06-03"), mustDay("2024-06-04")), Status: StatusCancelled})
	put(t, s, Booking{EquipmentID: 2, Period: NewDatePeriod(mustDay("2024-06-01"), mustDay("2024-06-05"))})

	var seen []Booking
	refuse := errors.New("refused")
	b := Booking{EquipmentID: 1, Period: NewDatePeriod(mustDay("2024-06-04"), mustDay("2024-06-06")), Status: StatusPending}
	err := s.Create(ctx, &b, func(c []Booking) error {
		seen = c
		return refuse
	})
	require.ErrorIs(t, err, refuse)
	require.Len(t, seen, 1)
	assert.Equal(t, int64(1), seen[0].EquipmentID)
	assert.Zero(t, b.ID)

	_, err = s.GetByID(ctx, 4)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreUpdateStatusIsCompareAndSwap(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	b := put(t, s, Booking{EquipmentID: 1, Period: NewDatePeriod(mustDay("2024-06-01"), mustDay("2024-06-02"))})

	updated, err := s.UpdateStatus(ctx, b.ID, StatusPending, StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, updated.Status)

	_, err = s.UpdateStatus(ctx, b.ID, StatusPending, StatusCancelled)
	require.ErrorIs(t, err, ErrStatusChanged)

	_, err = s.UpdateStatus(ctx, 999, StatusPending, StatusCancelled)
	require.ErrorIs(t, err, ErrNotFound)

	got, err := s.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, got.Status)
}

func TestMemoryStoreListFilters(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		start := mustDay("2024-06-01").AddDate(0, 0, i*3)
		put(t, s, Booking{RequesterID: 7, EquipmentID: int64(1 + i%2), Period: NewDatePeriod(start, start.AddDate(0, 0, 1))})
	}
	_, err := s.UpdateStatus(ctx, 2, StatusPending, StatusConfirmed)
	require.NoError(t, err)

	all, err := s.ListByRequester(ctx, 7, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, int64(5), all[0].ID)

	page, err := s.ListByRequester(ctx, 7, Filter{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, []int64{4, 3}, []int64{page[0].ID, page[1].ID})

	confirmed := StatusConfirmed
	only, err := s.ListByEquipment(ctx, []int64{2}, Filter{Status: &confirmed})
	require.NoError(t, err)
	require.Len(t, only, 1)
	assert.Equal(t, int64(2), only[0].ID)

	none, err := s.ListByRequester(ctx, 7, Filter{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryStoreListPendingStartingBefore(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	put(t, s, Booking{EquipmentID: 1, Period: NewDatePeriod(mustDay("2024-06-03"), mustDay("2024-06-04"))})
	put(t, s, Booking{EquipmentID: 1, Period: NewDatePeriod(mustDay("2024-06-01"), mustDay("2024-06-02"))})
	put(t, s, Booking{EquipmentID: 1, Period: NewDatePeriod(mustDay("2024-06-10"), mustDay("2024-06-11"))})

	got, err := s.ListPendingStartingBefore(ctx, mustDay("2024-06-05"), 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(2), got[0].ID, "oldest start first")

	got, err = s.ListPendingStartingBefore(ctx, mustDay("2024-06-05"), 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestMemoryStoreListAllAndOverview(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	amounts := []string{"100.50", "200", "300", "400"}
	for i, amt := range amounts {
		start := mustDay("2024-06-01").AddDate(0, 0, i)
		put(t, s, Booking{RequesterID: int64(i), EquipmentID: int64(i), Period: NewDatePeriod(start, start), TotalAmount: decimal.RequireFromString(amt)})
	}
	_, err := s.UpdateStatus(ctx, 1, StatusPending, StatusConfirmed)
	require.NoError(t, err)
	_, err = s.UpdateStatus(ctx, 2, StatusPending, StatusCompleted)
	require.NoError(t, err)
	_, err = s.UpdateStatus(ctx, 3, StatusPending, StatusCancelled)
	require.NoError(t, err)

	all, err := s.ListAll(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, int64(4), all[0].ID, "newest first")

	pending := StatusPending
	only, err := s.ListAll(ctx, Filter{Status: &pending})
	require.NoError(t, err)
	require.Len(t, only, 1)
	assert.Equal(t, int64(4), only[0].ID)

	o, err := s.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), o.TotalBookings)
	assert.Equal(t, int64(1), o.TotalPending)
	assert.Equal(t, int64(1), o.TotalConfirmed)
	assert.Equal(t, int64(1), o.TotalCancelled)
	assert.Equal(t, int64(1), o.TotalCompleted)
	assert.Equal(t, "300.50", o.TotalRevenue.StringFixed(2))
}

func TestErrorMatchesKindAndCarriesContext(t *testing.T) {
	p := NewDatePeriod(mustDay("2024-06-01"), mustDay("2024-06-05"))
	cause := errors.New("boom")
	err := error(&Error{Kind: ErrSlotConflict, BookingID: 3, EquipmentID: 9, Period: &p, Msg: "taken", Err: cause})

	assert.ErrorIs(t, err, ErrSlotConflict)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "time slot is already booked: taken booking=3 equipment=9 range=2024-06-01..2024-06-05: boom", err.Error())

	unavailable := &Error{Kind: ErrResourceUnavailable}
	assert.ErrorIs(t, unavailable, ErrOutOfAvailabilityWindow)
}

func TestParseRentalTypeAndStatus(t *testing.T) {
	rt, err := ParseRentalType("")
	require.NoError(t, err)
	assert.Equal(t, Daily, rt)

	rt, err = ParseRentalType(" weekly ")
	require.NoError(t, err)
	assert.Equal(t, Weekly, rt)

	_, err = ParseRentalType("yearly")
	assert.ErrorIs(t, err, ErrInvalidInput)

	st, err := ParseStatus("confirmed")
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, st)
	assert.True(t, st.Blocking())
	assert.False(t, st.Terminal())
	assert.True(t, StatusCompleted.Terminal())

	_, err = ParseStatus("archived")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestPeriodRepresentation(t *testing.T) {
	d := NewDatePeriod(mustDay("2024-06-01"), mustDay("2024-06-03"))
	assert.True(t, d.Matches(Daily))
	assert.True(t, d.Matches(Weekly))
	assert.False(t, d.Matches(Hourly))
	assert.True(t, mustDay("2024-06-03").Equal(d.LastDay()))

	loc := time.FixedZone("IST", 5*3600+1800)
	start := time.Date(2024, 6, 1, 9, 0, 0, 0, loc)
	h := NewHourlyPeriod(start, start, start.Add(2*time.Hour))
	assert.True(t, h.Matches(Hourly))
	assert.False(t, h.Matches(Daily))
	assert.True(t, mustDay("2024-06-01").Equal(h.LastDay()))
	assert.Equal(t, time.UTC, h.StartTime.Location())
}
