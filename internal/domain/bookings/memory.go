package bookings

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// MemoryStore keeps bookings in process. Creates are serialized per equipment
// with one mutex each, mirroring the row lock taken by Repository.
type MemoryStore struct {
	mu       sync.RWMutex
	bookings map[int64]Booking
	nextID   int64

	locksMu sync.Mutex
	locks   map[int64]*sync.Mutex

	now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		bookings: make(map[int64]Booking),
		locks:    make(map[int64]*sync.Mutex),
		now:      time.Now,
	}
}

func (s *MemoryStore) equipmentLock(id int64) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

func (s *MemoryStore) Create(ctx context.Context, b *Booking, check ConflictCheck) error {
	l := s.equipmentLock(b.EquipmentID)
	l.Lock()
	defer l.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	candidates, err := s.Blocking(ctx, b.EquipmentID, b.FirstDay(), b.LastDay())
	if err != nil {
		return err
	}
	if err := check(candidates); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	now := s.now().UTC()
	b.ID = s.nextID
	b.CreatedAt = now
	b.UpdatedAt = now
	s.bookings[b.ID] = *b
	return nil
}

func (s *MemoryStore) GetByID(_ context.Context, id int64) (*Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, &Error{Kind: ErrNotFound, BookingID: id}
	}
	return &b, nil
}

func (s *MemoryStore) UpdateStatus(_ context.Context, id int64, from, to Status) (*Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, &Error{Kind: ErrNotFound, BookingID: id}
	}
	if b.Status != from {
		return nil, &Error{Kind: ErrStatusChanged, BookingID: id, Msg: "expected " + string(from)}
	}
	b.Status = to
	b.UpdatedAt = s.now().UTC()
	s.bookings[id] = b
	return &b, nil
}

func (s *MemoryStore) Blocking(_ context.Context, equipmentID int64, from, to time.Time) ([]Booking, error) {
	return s.selectSorted(func(b Booking) bool {
		return b.EquipmentID == equipmentID &&
			b.Status.Blocking() &&
			!b.FirstDay().After(to) &&
			!b.LastDay().Before(from)
	}, byStart), nil
}

func (s *MemoryStore) ListByRequester(_ context.Context, requesterID int64, filter Filter) ([]Booking, error) {
	out := s.selectSorted(func(b Booking) bool { return b.RequesterID == requesterID }, newestFirst)
	return filter.apply(out), nil
}

func (s *MemoryStore) ListByEquipment(_ context.Context, equipmentIDs []int64, filter Filter) ([]Booking, error) {
	ids := make(map[int64]struct{}, len(equipmentIDs))
	for _, id := range equipmentIDs {
		ids[id] = struct{}{}
	}
	out := s.selectSorted(func(b Booking) bool {
		_, ok := ids[b.EquipmentID]
		return ok
	}, newestFirst)
	return filter.apply(out), nil
}

func (s *MemoryStore) ListAll(_ context.Context, filter Filter) ([]Booking, error) {
	out := s.selectSorted(func(Booking) bool { return true }, newestFirst)
	return filter.apply(out), nil
}

func (s *MemoryStore) Overview(_ context.Context) (*Overview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o := &Overview{TotalRevenue: decimal.Zero}
	for _, b := range s.bookings {
		o.TotalBookings++
		switch b.Status {
		case StatusPending:
			o.TotalPending++
		case StatusConfirmed:
			o.TotalConfirmed++
			o.TotalRevenue = o.TotalRevenue.Add(b.TotalAmount)
		case StatusCancelled:
			o.TotalCancelled++
		case StatusCompleted:
			o.TotalCompleted++
			o.TotalRevenue = o.TotalRevenue.Add(b.TotalAmount)
		}
	}
	return o, nil
}

func (s *MemoryStore) ListPendingStartingBefore(_ context.Context, day time.Time, limit int) ([]Booking, error) {
	out := s.selectSorted(func(b Booking) bool {
		return b.Status == StatusPending && b.FirstDay().Before(day)
	}, byStart)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) selectSorted(keep func(Booking) bool, less func(a, b Booking) bool) []Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Booking
	for _, b := range s.bookings {
		if keep(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func byStart(a, b Booking) bool {
	if !a.StartDate.Equal(b.StartDate) {
		return a.StartDate.Before(b.StartDate)
	}
	return a.ID < b.ID
}

func newestFirst(a, b Booking) bool {
	return a.ID > b.ID
}
