package equipment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var QueryTimeoutDuration = 5 * time.Second

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Catalog {
	return &Repository{db: db}
}

const equipmentColumns = `
	id, owner_id, name, category,
	price_per_hour, price_per_day, price_per_week,
	availability_from, availability_to, is_available, is_approved,
	created_at, updated_at`

func scanEquipment(row pgx.Row) (*Equipment, error) {
	var (
		e                Equipment
		perHour, perWeek decimal.NullDecimal
	)
	err := row.Scan(
		&e.ID,
		&e.OwnerID,
		&e.Name,
		&e.Category,
		&perHour,
		&e.PricePerDay,
		&perWeek,
		&e.AvailableFrom,
		&e.AvailableTo,
		&e.IsAvailable,
		&e.IsApproved,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if perHour.Valid {
		e.PricePerHour = &perHour.Decimal
	}
	if perWeek.Valid {
		e.PricePerWeek = &perWeek.Decimal
	}
	return &e, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Equipment, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	e, err := scanEquipment(r.db.QueryRow(ctx, `SELECT `+equipmentColumns+` FROM equipment WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEquipmentNotFound
		}
		return nil, fmt.Errorf("failed to get equipment: %w", err)
	}
	return e, nil
}

func (r *Repository) ListByOwner(ctx context.Context, ownerID int64) ([]Equipment, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := r.db.Query(ctx, `SELECT `+equipmentColumns+` FROM equipment WHERE owner_id = $1 ORDER BY id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list owner equipment: %w", err)
	}
	defer rows.Close()

	var out []Equipment
	for rows.Next() {
		e, err := scanEquipment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}
