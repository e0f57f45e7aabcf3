package equipment

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrEquipmentNotFound = errors.New("equipment not found")

// Equipment is the catalog record of a rentable machine. The reservation
// engine only reads it.
type Equipment struct {
	ID            int64            `json:"id"`
	OwnerID       int64            `json:"owner_id"`
	Name          string           `json:"name"`
	Category      string           `json:"category"`
	PricePerHour  *decimal.Decimal `json:"price_per_hour,omitempty"`
	PricePerDay   decimal.Decimal  `json:"price_per_day"`
	PricePerWeek  *decimal.Decimal `json:"price_per_week,omitempty"`
	AvailableFrom time.Time        `json:"availability_from"`
	AvailableTo   time.Time        `json:"availability_to"`
	IsAvailable   bool             `json:"is_available"`
	IsApproved    bool             `json:"is_approved"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// Bookable reports whether the owner and the admins have released the
// equipment for rental.
func (e *Equipment) Bookable() bool {
	return e.IsAvailable && e.IsApproved
}

// Covers reports whether the inclusive day range [first, last] lies within
// the availability window.
func (e *Equipment) Covers(first, last time.Time) bool {
	return !first.Before(e.AvailableFrom) && !last.After(e.AvailableTo)
}

// Catalog is the read side of the equipment collaborator.
type Catalog interface {
	GetByID(ctx context.Context, id int64) (*Equipment, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]Equipment, error)
}
