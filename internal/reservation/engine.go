// Package reservation creates bookings and moves them through their
// lifecycle. It is the only writer of booking records.
package reservation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"agrirent/internal/availability"
	"agrirent/internal/domain/accesscontrol"
	"agrirent/internal/domain/bookings"
	"agrirent/internal/domain/equipment"
	"agrirent/internal/lifecycle"
	"agrirent/internal/pricing"

	"go.uber.org/zap"
)

// Notifier receives booking events after they are committed.
type Notifier interface {
	Notify(ctx context.Context, ev bookings.Event) error
}

type Config struct {
	Policy   availability.Policy
	Location *time.Location
	Now      func() time.Time

	// InsertAttempts bounds retries of transient store failures on create.
	InsertAttempts int
	RetryBackoff   time.Duration

	// AsyncNotify hands events to the notifier on a separate goroutine.
	AsyncNotify   bool
	NotifyTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.Location == nil {
		c.Location = time.UTC
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.InsertAttempts <= 0 {
		c.InsertAttempts = 3
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 50 * time.Millisecond
	}
	if c.NotifyTimeout <= 0 {
		c.NotifyTimeout = 10 * time.Second
	}
}

type Engine struct {
	store    bookings.Store
	catalog  equipment.Catalog
	index    *availability.Index
	guard    *lifecycle.Guard
	notifier Notifier
	logger   *zap.SugaredLogger
	cfg      Config

	pending sync.WaitGroup
}

// New wires an engine. notifier may be nil.
func New(store bookings.Store, catalog equipment.Catalog, notifier Notifier, logger *zap.SugaredLogger, cfg Config) *Engine {
	cfg.applyDefaults()
	return &Engine{
		store:    store,
		catalog:  catalog,
		index:    availability.NewIndex(store, cfg.Policy),
		guard:    lifecycle.NewGuard(),
		notifier: notifier,
		logger:   logger,
		cfg:      cfg,
	}
}

// Index exposes the read side of the availability index.
func (e *Engine) Index() *availability.Index {
	return e.index
}

// Today is the current civil date in the engine's location.
func (e *Engine) Today() time.Time {
	return bookings.Day(e.cfg.Now().In(e.cfg.Location))
}

// CreateBooking validates the request against the equipment, prices it and
// stores it as PENDING. The conflict check and the insert run as one
// critical section per equipment inside the store.
func (e *Engine) CreateBooking(ctx context.Context, caller accesscontrol.Caller, req CreateRequest) (*bookings.Booking, error) {
	if caller.Role != accesscontrol.RoleFarmer && !caller.IsAdmin() {
		return nil, &bookings.Error{Kind: bookings.ErrForbidden, EquipmentID: req.EquipmentID, Msg: fmt.Sprintf("role %q cannot request bookings", caller.Role)}
	}

	eq, err := e.loadEquipment(ctx, req.EquipmentID)
	if err != nil {
		return nil, err
	}
	if eq.OwnerID == caller.ID {
		return nil, &bookings.Error{Kind: bookings.ErrForbidden, EquipmentID: eq.ID, Msg: "owners cannot book their own equipment"}
	}

	rt, err := bookings.ParseRentalType(req.RentalType)
	if err != nil {
		return nil, err
	}
	period, err := req.period(rt, e.cfg.Location)
	if err != nil {
		return nil, withEquipment(err, eq.ID)
	}

	if !eq.Bookable() {
		return nil, &bookings.Error{Kind: bookings.ErrResourceUnavailable, EquipmentID: eq.ID, Period: &period}
	}
	if !eq.Covers(period.FirstDay(), period.LastDay()) {
		return nil, &bookings.Error{
			Kind:        bookings.ErrOutOfAvailabilityWindow,
			EquipmentID: eq.ID,
			Period:      &period,
			Msg: fmt.Sprintf("window is %s..%s",
				eq.AvailableFrom.Format(DateLayout), eq.AvailableTo.Format(DateLayout)),
		}
	}

	quote, err := pricing.Price(rateCard(eq), rt, period)
	if err != nil {
		return nil, withEquipment(err, eq.ID)
	}

	b := &bookings.Booking{
		RequesterID: caller.ID,
		EquipmentID: eq.ID,
		OwnerID:     eq.OwnerID,
		RentalType:  rt,
		Period:      period,
		Duration:    quote.Units,
		UnitRate:    quote.Rate,
		TotalAmount: quote.Amount,
		Status:      bookings.StatusPending,
		Notes:       req.notes(),
		BookingDate: e.Today(),
	}

	check := e.index.Check(eq.ID, period)
	err = e.retryInsert(ctx, func() error { return e.store.Create(ctx, b, check) })
	if err != nil {
		if errors.Is(err, bookings.ErrTransient) {
			e.logger.Errorw("booking insert gave up", "equipment_id", eq.ID, "range", period.String(), "error", err)
			return nil, &bookings.Error{Kind: bookings.ErrUnavailable, EquipmentID: eq.ID, Period: &period, Err: err}
		}
		return nil, err
	}

	e.logger.Infow("booking created",
		"booking_id", b.ID,
		"equipment_id", b.EquipmentID,
		"requester_id", b.RequesterID,
		"rental_type", b.RentalType,
		"range", b.Period.String(),
		"amount", b.TotalAmount.StringFixed(pricing.Scale),
	)
	e.emit(bookings.Event{Kind: bookings.EventCreated, Booking: *b, ActorID: caller.ID})
	return b, nil
}

func (e *Engine) loadEquipment(ctx context.Context, id int64) (*equipment.Equipment, error) {
	eq, err := e.catalog.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, equipment.ErrEquipmentNotFound) {
			return nil, &bookings.Error{Kind: bookings.ErrResourceNotFound, EquipmentID: id}
		}
		return nil, fmt.Errorf("load equipment %d: %w", id, err)
	}
	return eq, nil
}

func rateCard(eq *equipment.Equipment) pricing.RateCard {
	return pricing.RateCard{PerHour: eq.PricePerHour, PerDay: eq.PricePerDay, PerWeek: eq.PricePerWeek}
}

func withEquipment(err error, equipmentID int64) error {
	var bErr *bookings.Error
	if errors.As(err, &bErr) && bErr.EquipmentID == 0 {
		bErr.EquipmentID = equipmentID
	}
	return err
}

// emit hands ev to the notifier. Notification failures never fail the
// operation that produced the event.
func (e *Engine) emit(ev bookings.Event) {
	if e.notifier == nil {
		return
	}
	send := func() {
		ctx, cancel := context.WithTimeout(context.Background(), e.cfg.NotifyTimeout)
		defer cancel()
		if err := e.notifier.Notify(ctx, ev); err != nil {
			e.logger.Warnw("booking notification failed",
				"booking_id", ev.Booking.ID,
				"event", ev.Kind,
				"error", err,
			)
		}
	}
	if !e.cfg.AsyncNotify {
		send()
		return
	}
	e.pending.Add(1)
	go func() {
		defer e.pending.Done()
		send()
	}()
}

// Wait blocks until in-flight notifications are delivered.
func (e *Engine) Wait() {
	e.pending.Wait()
}
