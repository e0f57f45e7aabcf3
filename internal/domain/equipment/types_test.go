package equipment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCoversIsInclusive(t *testing.T) {
	e := Equipment{AvailableFrom: date(2024, 1, 1), AvailableTo: date(2024, 12, 31)}

	assert.True(t, e.Covers(date(2024, 1, 1), date(2024, 12, 31)))
	assert.True(t, e.Covers(date(2024, 6, 1), date(2024, 6, 1)))
	assert.False(t, e.Covers(date(2023, 12, 31), date(2024, 1, 2)))
	assert.False(t, e.Covers(date(2024, 12, 30), date(2025, 1, 1)))
}

func TestBookable(t *testing.T) {
	assert.True(t, (&Equipment{IsAvailable: true, IsApproved: true}).Bookable())
	assert.False(t, (&Equipment{IsAvailable: true}).Bookable())
	assert.False(t, (&Equipment{IsApproved: true}).Bookable())
}

func TestMemoryCatalog(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCatalog(
		Equipment{ID: 1, OwnerID: 7, Name: "Tractor"},
		Equipment{ID: 2, OwnerID: 7, Name: "Harvester"},
		Equipment{ID: 3, OwnerID: 8, Name: "Seeder"},
	)

	e, err := c.GetByID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Harvester", e.Name)

	e.Name = "changed"
	again, err := c.GetByID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Harvester", again.Name, "callers get a copy")

	_, err = c.GetByID(ctx, 4)
	assert.ErrorIs(t, err, ErrEquipmentNotFound)

	owned, err := c.ListByOwner(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, owned, 2)

	c.Put(Equipment{ID: 4, OwnerID: 8})
	owned, err = c.ListByOwner(ctx, 8)
	require.NoError(t, err)
	assert.Len(t, owned, 2)
}
