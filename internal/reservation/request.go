package reservation

import (
	"strings"
	"time"

	"agrirent/internal/domain/bookings"
)

const (
	DateLayout = time.DateOnly
	TimeLayout = "15:04"
)

// CreateRequest is a booking request as it arrives from a client. Dates use
// DateLayout and times of day use TimeLayout, both read in the engine's
// location.
type CreateRequest struct {
	EquipmentID int64
	RentalType  string
	StartDate   string
	EndDate     string
	StartTime   string
	EndTime     string
	Notes       string
}

func (r CreateRequest) notes() *string {
	n := strings.TrimSpace(r.Notes)
	if n == "" {
		return nil
	}
	return &n
}

// period parses the request into the representation rt requires.
func (r CreateRequest) period(rt bookings.RentalType, loc *time.Location) (bookings.Period, error) {
	start, err := parseDate("start_date", r.StartDate, loc)
	if err != nil {
		return bookings.Period{}, err
	}

	if rt == bookings.Hourly {
		if r.EndDate != "" {
			end, err := parseDate("end_date", r.EndDate, loc)
			if err != nil {
				return bookings.Period{}, err
			}
			if !end.Equal(start) {
				return bookings.Period{}, invalid("hourly rentals must start and end on the same date")
			}
		}
		from, err := parseClock("start_time", r.StartTime, start)
		if err != nil {
			return bookings.Period{}, err
		}
		to, err := parseClock("end_time", r.EndTime, start)
		if err != nil {
			return bookings.Period{}, err
		}
		p := bookings.NewHourlyPeriod(start, from, to)
		if !to.After(from) {
			return bookings.Period{}, &bookings.Error{Kind: bookings.ErrInvalidInput, Period: &p, Msg: "end time must be after start time"}
		}
		return p, nil
	}

	if r.StartTime != "" || r.EndTime != "" {
		return bookings.Period{}, invalid("start_time and end_time are only accepted for HOURLY rentals")
	}
	end, err := parseDate("end_date", r.EndDate, loc)
	if err != nil {
		return bookings.Period{}, err
	}
	p := bookings.NewDatePeriod(start, end)
	if end.Before(start) {
		return bookings.Period{}, &bookings.Error{Kind: bookings.ErrInvalidInput, Period: &p, Msg: "end date is before start date"}
	}
	return p, nil
}

func parseDate(field, v string, loc *time.Location) (time.Time, error) {
	if v == "" {
		return time.Time{}, invalid(field + " is required")
	}
	t, err := time.ParseInLocation(DateLayout, v, loc)
	if err != nil {
		return time.Time{}, &bookings.Error{Kind: bookings.ErrInvalidInput, Msg: field + " must be YYYY-MM-DD", Err: err}
	}
	return t, nil
}

// parseClock places a time of day on date, in date's location.
func parseClock(field, v string, date time.Time) (time.Time, error) {
	if v == "" {
		return time.Time{}, invalid(field + " is required for HOURLY rentals")
	}
	c, err := time.Parse(TimeLayout, v)
	if err != nil {
		return time.Time{}, &bookings.Error{Kind: bookings.ErrInvalidInput, Msg: field + " must be HH:MM", Err: err}
	}
	return time.Date(date.Year(), date.Month(), date.Day(), c.Hour(), c.Minute(), 0, 0, date.Location()), nil
}

func invalid(msg string) error {
	return &bookings.Error{Kind: bookings.ErrInvalidInput, Msg: msg}
}
