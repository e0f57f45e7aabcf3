package pricing

import (
	"errors"
	"testing"
	"time"

	"agrirent/internal/domain/bookings"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func date(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func hourly(day, from, to string) bookings.Period {
	d := date(day)
	start, _ := time.Parse("2006-01-02 15:04", day+" "+from)
	end, _ := time.Parse("2006-01-02 15:04", day+" "+to)
	return bookings.NewHourlyPeriod(d, start, end)
}

func TestPriceHourlyFallsBackToEighthOfDailyRate(t *testing.T) {
	card := RateCard{PerDay: dec("1500")}

	q, err := Price(card, bookings.Hourly, hourly("2024-06-01", "09:00", "11:00"))
	require.NoError(t, err)

	assert.Equal(t, 2, q.Units)
	assert.True(t, q.Rate.Equal(dec("187.50")), "rate %s", q.Rate)
	assert.Equal(t, "375.00", q.Amount.StringFixed(2))
}

func TestPriceHourlyRoundsDerivedRateHalfUp(t *testing.T) {
	// 1001 / 8 = 125.125 -> 125.13
	q, err := Price(RateCard{PerDay: dec("1001")}, bookings.Hourly, hourly("2024-06-01", "08:00", "09:00"))
	require.NoError(t, err)
	assert.Equal(t, "125.13", q.Rate.StringFixed(2))
	assert.Equal(t, "125.13", q.Amount.StringFixed(2))
}

func TestPriceHourlyUsesCardRateAndTruncatesPartialHours(t *testing.T) {
	card := RateCard{PerHour: decPtr("200"), PerDay: dec("1500")}

	q, err := Price(card, bookings.Hourly, hourly("2024-06-01", "09:00", "12:45"))
	require.NoError(t, err)
	assert.Equal(t, 3, q.Units)
	assert.Equal(t, "600.00", q.Amount.StringFixed(2))
}

func TestPriceHourlyClampsToOneHour(t *testing.T) {
	q, err := Price(RateCard{PerHour: decPtr("200"), PerDay: dec("1500")}, bookings.Hourly, hourly("2024-06-01", "09:00", "09:20"))
	require.NoError(t, err)
	assert.Equal(t, 1, q.Units)
	assert.Equal(t, "200.00", q.Amount.StringFixed(2))
}

func TestPriceHourlyRejectsEmptyAndInvertedRanges(t *testing.T) {
	card := RateCard{PerDay: dec("1500")}
	for _, p := range []bookings.Period{
		hourly("2024-06-01", "09:00", "09:00"),
		hourly("2024-06-01", "11:00", "09:00"),
	} {
		_, err := Price(card, bookings.Hourly, p)
		assert.ErrorIs(t, err, bookings.ErrInvalidInput)
	}
}

func TestPriceDailySameDayClampsToOne(t *testing.T) {
	card := RateCard{PerDay: dec("1500")}

	q, err := Price(card, bookings.Daily, bookings.NewDatePeriod(date("2024-06-01"), date("2024-06-01")))
	require.NoError(t, err)
	assert.Equal(t, 1, q.Units)
	assert.True(t, q.Amount.Equal(card.PerDay))
}

func TestPriceDailyIsRateTimesDays(t *testing.T) {
	card := RateCard{PerDay: dec("1250.50")}
	cases := []struct {
		from, to string
		days     int
	}{
		{"2024-06-01", "2024-06-02", 1},
		{"2024-06-01", "2024-06-05", 4},
		{"2024-02-27", "2024-03-02", 4}, // leap year
		{"2024-06-01", "2024-07-01", 30},
	}
	for _, tc := range cases {
		t.Run(tc.from+"_"+tc.to, func(t *testing.T) {
			q, err := Price(card, bookings.Daily, bookings.NewDatePeriod(date(tc.from), date(tc.to)))
			require.NoError(t, err)
			assert.Equal(t, tc.days, q.Units)
			want := card.PerDay.Mul(decimal.NewFromInt(int64(max(1, tc.days))))
			assert.True(t, q.Amount.Equal(want), "amount %s want %s", q.Amount, want)
			assert.True(t, Amount(q.Rate, q.Units).Equal(q.Amount), "recomputation must reproduce the amount")
		})
	}
}

func TestPriceDailyRejectsInvertedRange(t *testing.T) {
	_, err := Price(RateCard{PerDay: dec("100")}, bookings.Daily, bookings.NewDatePeriod(date("2024-06-05"), date("2024-06-01")))
	require.Error(t, err)
	assert.ErrorIs(t, err, bookings.ErrInvalidInput)

	var bErr *bookings.Error
	require.True(t, errors.As(err, &bErr))
	assert.NotNil(t, bErr.Period)
}

func TestPriceWeekly(t *testing.T) {
	card := RateCard{PerDay: dec("1000")}

	q, err := Price(card, bookings.Weekly, bookings.NewDatePeriod(date("2024-06-01"), date("2024-06-11")))
	require.NoError(t, err)
	assert.Equal(t, 2, q.Units, "ceil(10/7)")
	assert.Equal(t, "6000.00", q.Rate.StringFixed(2), "one day free per week")
	assert.Equal(t, "12000.00", q.Amount.StringFixed(2))

	card.PerWeek = decPtr("5500")
	q, err = Price(card, bookings.Weekly, bookings.NewDatePeriod(date("2024-06-01"), date("2024-06-08")))
	require.NoError(t, err)
	assert.Equal(t, 1, q.Units)
	assert.Equal(t, "5500.00", q.Amount.StringFixed(2))

	q, err = Price(card, bookings.Weekly, bookings.NewDatePeriod(date("2024-06-01"), date("2024-06-01")))
	require.NoError(t, err)
	assert.Equal(t, 1, q.Units)
}

func TestPriceRejectsMismatchedRepresentation(t *testing.T) {
	card := RateCard{PerDay: dec("100")}
	_, err := Price(card, bookings.Daily, hourly("2024-06-01", "09:00", "10:00"))
	assert.ErrorIs(t, err, bookings.ErrInvalidInput)

	_, err = Price(card, bookings.Hourly, bookings.NewDatePeriod(date("2024-06-01"), date("2024-06-02")))
	assert.ErrorIs(t, err, bookings.ErrInvalidInput)
}

func TestPriceRequiresPerDayRate(t *testing.T) {
	_, err := Price(RateCard{}, bookings.Daily, bookings.NewDatePeriod(date("2024-06-01"), date("2024-06-02")))
	assert.ErrorIs(t, err, bookings.ErrInvalidInput)
}
