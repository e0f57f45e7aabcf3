package params

import (
	"net/url"
	"strconv"
	"strings"

	"agrirent/internal/domain/bookings"
)

const (
	DefaultLimit = 15
	MaxLimit     = 50
)

// URL: /v1/bookings?status=PENDING&page=2&limit=20
// → BookingFilter() → Filter{Status: PENDING, Limit: 21, Offset: 20}
// → store returns up to one extra row
// → Trim() drops it and sets HasNext
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	Page    int  `json:"page"`
	HasNext bool `json:"has_next"`
	HasPrev bool `json:"has_prev"`
}

// ParsePagination parses ?limit=...&page=... Keys are case sensitive.
func ParsePagination(q url.Values) Pagination {
	p := Pagination{Limit: DefaultLimit, Page: 1}

	if limitStr := strings.TrimSpace(q.Get("limit")); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			switch {
			case limit <= 0:
				p.Limit = DefaultLimit
			case limit > MaxLimit:
				p.Limit = MaxLimit
			default:
				p.Limit = limit
			}
		}
	}

	if pageStr := strings.TrimSpace(q.Get("page")); pageStr != "" {
		if page, err := strconv.Atoi(pageStr); err == nil && page > 0 {
			p.Page = page
		}
	}

	p.Offset = (p.Page - 1) * p.Limit
	p.HasPrev = p.Page > 1
	return p
}

// BookingFilter reads ?status= plus pagination. The returned filter asks for
// one row more than the page so Trim can tell whether a next page exists.
func BookingFilter(q url.Values) (bookings.Filter, Pagination, error) {
	p := ParsePagination(q)
	f := bookings.Filter{Limit: p.Limit + 1, Offset: p.Offset}

	if s := strings.TrimSpace(q.Get("status")); s != "" {
		st, err := bookings.ParseStatus(s)
		if err != nil {
			return bookings.Filter{}, p, err
		}
		f.Status = &st
	}
	return f, p, nil
}

// Trim cuts items to the page size and records whether more exist.
func Trim[T any](p *Pagination, items []T) []T {
	p.HasNext = len(items) > p.Limit
	if p.HasNext {
		items = items[:p.Limit]
	}
	if items == nil {
		items = []T{}
	}
	return items
}
