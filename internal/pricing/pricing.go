// Package pricing turns an equipment rate card and a rental period into a
// duration and a fixed-point amount. It has no side effects.
package pricing

import (
	"fmt"
	"time"

	"agrirent/internal/domain/bookings"

	"github.com/shopspring/decimal"
)

const (
	// HoursPerBusinessDay derives an hourly rate when the card has none.
	HoursPerBusinessDay = 8
	// DaysChargedPerWeek derives a weekly rate when the card has none.
	DaysChargedPerWeek = 6
	// Scale is the number of fractional digits kept on money.
	Scale = 2
)

// RateCard is the set of rates in force when a booking is priced. PerDay is
// mandatory.
type RateCard struct {
	PerHour *decimal.Decimal
	PerDay  decimal.Decimal
	PerWeek *decimal.Decimal
}

type Quote struct {
	Rate   decimal.Decimal
	Units  int
	Amount decimal.Decimal
}

// Amount recomputes a total from a stored rate and unit count.
func Amount(rate decimal.Decimal, units int) decimal.Decimal {
	return rate.Mul(decimal.NewFromInt(int64(units))).Round(Scale)
}

// Price quotes period for the given rental type.
func Price(card RateCard, rt bookings.RentalType, p bookings.Period) (Quote, error) {
	if err := card.validate(); err != nil {
		return Quote{}, err
	}
	if !p.Matches(rt) {
		return Quote{}, invalidRange(p, fmt.Sprintf("range does not match %s rental", rt))
	}

	switch rt {
	case bookings.Hourly:
		span := p.EndTime.Sub(*p.StartTime)
		if span <= 0 {
			return Quote{}, invalidRange(p, "end time must be after start time")
		}
		hours := max(int(span/time.Hour), 1)
		rate := card.hourly()
		return Quote{Rate: rate, Units: hours, Amount: Amount(rate, hours)}, nil

	case bookings.Daily:
		days, err := daysBetween(p)
		if err != nil {
			return Quote{}, err
		}
		days = max(days, 1)
		rate := card.PerDay.Round(Scale)
		return Quote{Rate: rate, Units: days, Amount: Amount(rate, days)}, nil

	case bookings.Weekly:
		days, err := daysBetween(p)
		if err != nil {
			return Quote{}, err
		}
		weeks := max((days+6)/7, 1)
		rate := card.weekly()
		return Quote{Rate: rate, Units: weeks, Amount: Amount(rate, weeks)}, nil
	}
	return Quote{}, &bookings.Error{Kind: bookings.ErrInvalidInput, Msg: fmt.Sprintf("unknown rental type %q", rt)}
}

func (c RateCard) validate() error {
	if !c.PerDay.IsPositive() {
		return &bookings.Error{Kind: bookings.ErrInvalidInput, Msg: "rate card has no per-day rate"}
	}
	if c.PerHour != nil && c.PerHour.IsNegative() {
		return &bookings.Error{Kind: bookings.ErrInvalidInput, Msg: "negative hourly rate"}
	}
	if c.PerWeek != nil && c.PerWeek.IsNegative() {
		return &bookings.Error{Kind: bookings.ErrInvalidInput, Msg: "negative weekly rate"}
	}
	return nil
}

func (c RateCard) hourly() decimal.Decimal {
	if c.PerHour != nil {
		return c.PerHour.Round(Scale)
	}
	return c.PerDay.DivRound(decimal.NewFromInt(HoursPerBusinessDay), Scale)
}

func (c RateCard) weekly() decimal.Decimal {
	if c.PerWeek != nil {
		return c.PerWeek.Round(Scale)
	}
	return c.PerDay.Mul(decimal.NewFromInt(DaysChargedPerWeek)).Round(Scale)
}

// daysBetween counts whole days from the first to the last day, end exclusive.
func daysBetween(p bookings.Period) (int, error) {
	first, last := p.FirstDay(), p.LastDay()
	if last.Before(first) {
		return 0, invalidRange(p, "end date is before start date")
	}
	return int(last.Sub(first) / (24 * time.Hour)), nil
}

func invalidRange(p bookings.Period, msg string) error {
	return &bookings.Error{Kind: bookings.ErrInvalidInput, Period: &p, Msg: msg}
}
