package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kirinyoku/spacebook/internal/domain"
)

const bookingColumns = `id, space_id, user_id, start_time, end_time, status, attendee_count,
	notes, decided_by, created_at, updated_at`

type BookingRepo struct {
	conn
}

func (r *BookingRepo) GetBooking(ctx context.Context, id uuid.UUID) (domain.Booking, error) {
	const op = "postgres.BookingRepo.GetBooking"

	b, err := r.scanBooking(r.db.QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id))
	if err != nil {
		return domain.Booking{}, wrap(op, err)
	}

	return b, nil
}

func (r *BookingRepo) ActiveBookings(ctx context.Context, spaceID uuid.UUID, window domain.TimeRange) ([]domain.Booking, error) {
	const op = "postgres.BookingRepo.ActiveBookings"

	return r.list(ctx, op,
		`SELECT `+bookingColumns+`
		 FROM bookings
		 WHERE space_id = $1
		   AND status IN ('pending', 'confirmed')
		   AND start_time < $3
		   AND end_time > $2
		 ORDER BY start_time, id`,
		spaceID, stamp(window.Start), stamp(window.End),
	)
}

func (r *BookingRepo) InsertBooking(ctx context.Context, b domain.Booking) error {
	const op = "postgres.BookingRepo.InsertBooking"

	notes, err := json.Marshal(b.Notes)
	if err != nil {
		return wrap(op, err)
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO bookings (`+bookingColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		b.ID, b.SpaceID, b.UserID, stamp(b.Start), stamp(b.End), string(b.Status),
		b.AttendeeCount, notes, b.DecidedBy, stamp(b.CreatedAt), stamp(b.UpdatedAt),
	)
	return wrap(op, err)
}

// UpdateBookingStatus writes the new status and returns the updated row. The exclusion
// constraint turns a second overlapping confirmation into repository.ErrOverlap.
func (r *BookingRepo) UpdateBookingStatus(
	ctx context.Context,
	id uuid.UUID,
	status domain.Status,
	decidedBy *uuid.UUID,
	at time.Time,
) (domain.Booking, error) {
	const op = "postgres.BookingRepo.UpdateBookingStatus"

	b, err := r.scanBooking(r.db.QueryRow(ctx,
		`UPDATE bookings
		 SET status = $2,
		     decided_by = COALESCE($3, decided_by),
		     updated_at = $4
		 WHERE id = $1
		 RETURNING `+bookingColumns,
		id, string(status), decidedBy, stamp(at),
	))
	if err != nil {
		return domain.Booking{}, wrap(op, err)
	}

	return b, nil
}

func (r *BookingRepo) ListBookingsBySpace(ctx context.Context, spaceID uuid.UUID, status domain.Status) ([]domain.Booking, error) {
	const op = "postgres.BookingRepo.ListBookingsBySpace"

	return r.list(ctx, op,
		`SELECT `+bookingColumns+`
		 FROM bookings
		 WHERE space_id = $1 AND ($2 = '' OR status = $2)
		 ORDER BY start_time, id`,
		spaceID, string(status),
	)
}

func (r *BookingRepo) ListBookingsByUser(ctx context.Context, userID uuid.UUID) ([]domain.Booking, error) {
	const op = "postgres.BookingRepo.ListBookingsByUser"

	return r.list(ctx, op,
		`SELECT `+bookingColumns+`
		 FROM bookings
		 WHERE user_id = $1
		 ORDER BY start_time, id`,
		userID,
	)
}

func (r *BookingRepo) ListCompletable(ctx context.Context, now time.Time, limit int) ([]domain.Booking, error) {
	const op = "postgres.BookingRepo.ListCompletable"

	return r.list(ctx, op,
		`SELECT `+bookingColumns+`
		 FROM bookings
		 WHERE status = 'confirmed' AND end_time <= $1
		 ORDER BY end_time, id
		 LIMIT $2`,
		stamp(now), limit,
	)
}

func (r *BookingRepo) list(ctx context.Context, op, query string, args ...any) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, wrap(op, err)
	}

	defer rows.Close()

	out := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := r.scanBooking(rows)
		if err != nil {
			return nil, wrap(op, err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(op, err)
	}

	return out, nil
}

func (r *BookingRepo) scanBooking(row scanner) (domain.Booking, error) {
	var (
		b      domain.Booking
		status string
		notes  []byte
	)
	if err := row.Scan(
		&b.ID, &b.SpaceID, &b.UserID, &b.Start, &b.End, &status, &b.AttendeeCount,
		&notes, &b.DecidedBy, &b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		return domain.Booking{}, err
	}

	st, err := domain.ParseStatus(status)
	if err != nil {
		return domain.Booking{}, err
	}
	b.Status = st

	if len(notes) > 0 {
		if err := json.Unmarshal(notes, &b.Notes); err != nil {
			return domain.Booking{}, fmt.Errorf("decode notes: %w", err)
		}
	}

	b.Start = r.wall(b.Start)
	b.End = r.wall(b.End)
	b.CreatedAt = r.wall(b.CreatedAt)
	b.UpdatedAt = r.wall(b.UpdatedAt)

	return b, nil
}
