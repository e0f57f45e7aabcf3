package storage

import (
	"agrirent/internal/domain/bookings"
	"agrirent/internal/domain/equipment"
	"agrirent/internal/domain/pushtokens"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Container struct {
	Bookings   bookings.Store
	Equipment  equipment.Catalog
	PushTokens pushtokens.Store
}

func NewContainer(db *pgxpool.Pool) *Container {
	return &Container{
		Bookings:   bookings.NewRepository(db),
		Equipment:  equipment.NewRepository(db),
		PushTokens: pushtokens.NewRepository(db),
	}
}

// NewMemoryContainer keeps everything in process. The catalog is read-only
// to the engine, so it is seeded up front.
func NewMemoryContainer(items ...equipment.Equipment) *Container {
	return &Container{
		Bookings:   bookings.NewMemoryStore(),
		Equipment:  equipment.NewMemoryCatalog(items...),
		PushTokens: pushtokens.NewMemoryStore(),
	}
}
