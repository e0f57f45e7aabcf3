package params

import (
	"net/url"
	"testing"

	"agrirent/internal/domain/bookings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePagination(t *testing.T) {
	cases := []struct {
		query               string
		limit, page, offset int
	}{
		{"", DefaultLimit, 1, 0},
		{"limit=20&page=3", 20, 3, 40},
		{"limit=0", DefaultLimit, 1, 0},
		{"limit=500", MaxLimit, 1, 0},
		{"limit=abc&page=-2", DefaultLimit, 1, 0},
		{"Limit=5", DefaultLimit, 1, 0},
	}
	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			q, err := url.ParseQuery(tc.query)
			require.NoError(t, err)

			p := ParsePagination(q)
			assert.Equal(t, tc.limit, p.Limit)
			assert.Equal(t, tc.page, p.Page)
			assert.Equal(t, tc.offset, p.Offset)
			assert.Equal(t, tc.page > 1, p.HasPrev)
		})
	}
}

func TestBookingFilter(t *testing.T) {
	f, p, err := BookingFilter(url.Values{"status": {"confirmed"}, "limit": {"10"}, "page": {"2"}})
	require.NoError(t, err)
	require.NotNil(t, f.Status)
	assert.Equal(t, bookings.StatusConfirmed, *f.Status)
	assert.Equal(t, 11, f.Limit)
	assert.Equal(t, 10, f.Offset)
	assert.Equal(t, 10, p.Limit)

	_, _, err = BookingFilter(url.Values{"status": {"lost"}})
	assert.ErrorIs(t, err, bookings.ErrInvalidInput)
}

func TestTrim(t *testing.T) {
	p := Pagination{Limit: 2}
	assert.Equal(t, []int{1, 2}, Trim(&p, []int{1, 2, 3}))
	assert.True(t, p.HasNext)

	p = Pagination{Limit: 2}
	assert.Equal(t, []int{1}, Trim(&p, []int{1}))
	assert.False(t, p.HasNext)

	assert.NotNil(t, Trim[int](&p, nil))
}
