package bookings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"agrirent/internal/infra/dbx"

	"github.com/jackc/pgx/v5"
)

var QueryTimeoutDuration = 5 * time.Second

type Repository struct {
	db dbx.DB
}

func NewRepository(db dbx.DB) Store {
	return &Repository{db: db}
}

const bookingColumns = `
	id, requester_id, equipment_id, owner_id, rental_type,
	start_date, end_date, start_time, end_time,
	duration, unit_rate, total_amount, status, notes,
	booking_date, created_at, updated_at`

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	err := row.Scan(
		&b.ID,
		&b.RequesterID,
		&b.EquipmentID,
		&b.OwnerID,
		&b.RentalType,
		&b.StartDate,
		&b.EndDate,
		&b.StartTime,
		&b.EndTime,
		&b.Duration,
		&b.UnitRate,
		&b.TotalAmount,
		&b.Status,
		&b.Notes,
		&b.BookingDate,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func collectBookings(rows pgx.Rows) ([]Booking, error) {
	defer rows.Close()

	var out []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// storeErr tags retryable failures so the engine can tell them apart from
// business outcomes.
func storeErr(op string, err error) error {
	if dbx.IsTransient(err) {
		return fmt.Errorf("%s: %w: %w", op, ErrTransient, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Create locks the equipment row, loads the blocking bookings that share days
// with b, runs check and inserts. Concurrent creates for the same equipment
// queue on the row lock, so check always sees every committed booking.
func (r *Repository) Create(ctx context.Context, b *Booking, check ConflictCheck) error {
	err := dbx.WithTx(r.db, ctx, func(tx pgx.Tx) error {
		var locked int64
		err := tx.QueryRow(ctx, `SELECT id FROM equipment WHERE id = $1 FOR UPDATE`, b.EquipmentID).Scan(&locked)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return &Error{Kind: ErrResourceNotFound, EquipmentID: b.EquipmentID}
			}
			return storeErr("lock equipment", err)
		}

		candidates, err := blocking(ctx, tx, b.EquipmentID, b.FirstDay(), b.LastDay())
		if err != nil {
			return storeErr("load blocking bookings", err)
		}
		if err := check(candidates); err != nil {
			return err
		}

		const q = `
			INSERT INTO bookings (
				requester_id, equipment_id, owner_id, rental_type,
				start_date, end_date, start_time, end_time,
				duration, unit_rate, total_amount, status, notes, booking_date
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			RETURNING id, created_at, updated_at`
		err = tx.QueryRow(ctx, q,
			b.RequesterID,
			b.EquipmentID,
			b.OwnerID,
			b.RentalType,
			b.StartDate,
			b.EndDate,
			b.StartTime,
			b.EndTime,
			b.Duration,
			b.UnitRate,
			b.TotalAmount,
			b.Status,
			b.Notes,
			b.BookingDate,
		).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
		if err != nil {
			return storeErr("insert booking", err)
		}
		return nil
	})
	if err == nil {
		return nil
	}
	var bErr *Error
	if errors.As(err, &bErr) || errors.Is(err, ErrTransient) {
		return err
	}
	// begin and commit failures arrive here untagged
	return storeErr("create booking", err)
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	b, err := scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &Error{Kind: ErrNotFound, BookingID: id}
		}
		return nil, storeErr("get booking", err)
	}
	return b, nil
}

// UpdateStatus is a compare-and-swap on the status column.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, from, to Status) (*Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	const q = `
		UPDATE bookings
		SET status = $1,
		    updated_at = NOW()
		WHERE id = $2
		  AND status = $3
		RETURNING ` + bookingColumns
	b, err := scanBooking(r.db.QueryRow(ctx, q, to, id, from))
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, storeErr("update booking status", err)
	}

	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM bookings WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, storeErr("check booking", err)
	}
	if !exists {
		return nil, &Error{Kind: ErrNotFound, BookingID: id}
	}
	return nil, &Error{Kind: ErrStatusChanged, BookingID: id, Msg: fmt.Sprintf("expected %s", from)}
}

func (r *Repository) Blocking(ctx context.Context, equipmentID int64, from, to time.Time) ([]Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	out, err := blocking(ctx, r.db, equipmentID, from, to)
	if err != nil {
		return nil, storeErr("load blocking bookings", err)
	}
	return out, nil
}

func blocking(ctx context.Context, q dbx.Querier, equipmentID int64, from, to time.Time) ([]Booking, error) {
	const query = `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE equipment_id = $1
		  AND status IN ('PENDING', 'CONFIRMED')
		  AND start_date <= $3
		  AND COALESCE(end_date, start_date) >= $2
		ORDER BY start_date, start_time`
	rows, err := q.Query(ctx, query, equipmentID, from, to)
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

func (r *Repository) ListByRequester(ctx context.Context, requesterID int64, filter Filter) ([]Booking, error) {
	return r.list(ctx, "requester_id = $1", []any{requesterID}, filter)
}

func (r *Repository) ListByEquipment(ctx context.Context, equipmentIDs []int64, filter Filter) ([]Booking, error) {
	if len(equipmentIDs) == 0 {
		return nil, nil
	}
	return r.list(ctx, "equipment_id = ANY($1)", []any{equipmentIDs}, filter)
}

func (r *Repository) ListAll(ctx context.Context, filter Filter) ([]Booking, error) {
	return r.list(ctx, "TRUE", nil, filter)
}

func (r *Repository) Overview(ctx context.Context) (*Overview, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	const q = `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'PENDING'),
			COUNT(*) FILTER (WHERE status = 'CONFIRMED'),
			COUNT(*) FILTER (WHERE status = 'CANCELLED'),
			COUNT(*) FILTER (WHERE status = 'COMPLETED'),
			COALESCE(SUM(total_amount) FILTER (WHERE status IN ('CONFIRMED', 'COMPLETED')), 0)
		FROM bookings`

	var o Overview
	err := r.db.QueryRow(ctx, q).Scan(
		&o.TotalBookings,
		&o.TotalPending,
		&o.TotalConfirmed,
		&o.TotalCancelled,
		&o.TotalCompleted,
		&o.TotalRevenue,
	)
	if err != nil {
		return nil, storeErr("get booking overview", err)
	}
	return &o, nil
}

func (r *Repository) list(ctx context.Context, where string, args []any, filter Filter) ([]Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var sb strings.Builder
	sb.WriteString(`SELECT ` + bookingColumns + ` FROM bookings WHERE ` + where)
	idx := len(args) + 1

	if filter.Status != nil {
		fmt.Fprintf(&sb, " AND status = $%d", idx)
		args = append(args, *filter.Status)
		idx++
	}

	sb.WriteString(" ORDER BY created_at DESC, id DESC")
	if filter.Limit > 0 {
		fmt.Fprintf(&sb, " LIMIT $%d", idx)
		args = append(args, filter.Limit)
		idx++
	}
	if filter.Offset > 0 {
		fmt.Fprintf(&sb, " OFFSET $%d", idx)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, storeErr("list bookings", err)
	}
	out, err := collectBookings(rows)
	if err != nil {
		return nil, storeErr("scan bookings", err)
	}
	return out, nil
}

func (r *Repository) ListPendingStartingBefore(ctx context.Context, day time.Time, limit int) ([]Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	const q = `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE status = 'PENDING'
		  AND start_date < $1
		ORDER BY start_date, id
		LIMIT $2`
	rows, err := r.db.Query(ctx, q, day, limit)
	if err != nil {
		return nil, storeErr("list stale pending bookings", err)
	}
	out, err := collectBookings(rows)
	if err != nil {
		return nil, storeErr("scan bookings", err)
	}
	return out, nil
}
