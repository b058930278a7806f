package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/kirinyoku/spacebook/internal/domain"
	"github.com/kirinyoku/spacebook/internal/repository"
)

type bookingRepo struct{ v view }

func (r bookingRepo) GetBooking(_ context.Context, id uuid.UUID) (domain.Booking, error) {
	const op = "memory.BookingRepo.GetBooking"

	var out domain.Booking
	err := r.v.do(func(st *state) error {
		b, ok := st.bookings[id]
		if !ok {
			return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
		}
		out = b
		return nil
	})
	return out, err
}

func (r bookingRepo) ActiveBookings(_ context.Context, spaceID uuid.UUID, window domain.TimeRange) ([]domain.Booking, error) {
	var out []domain.Booking
	err := r.v.do(func(st *state) error {
		for _, b := range st.bookings {
			if b.SpaceID == spaceID && b.Status.Active() && b.Range().Overlaps(window) {
				out = append(out, b)
			}
		}
		return nil
	})
	sortByStart(out)
	return out, err
}

func (r bookingRepo) InsertBooking(_ context.Context, b domain.Booking) error {
	const op = "memory.BookingRepo.InsertBooking"

	return r.v.do(func(st *state) error {
		if _, ok := st.spaces[b.SpaceID]; !ok {
			return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
		}
		if _, ok := st.bookings[b.ID]; ok {
			return fmt.Errorf("%s:%w", op, repository.ErrConflict)
		}
		if b.Status == domain.StatusConfirmed && confirmedOverlap(st, b) {
			return fmt.Errorf("%s:%w", op, repository.ErrOverlap)
		}
		st.bookings[b.ID] = b
		return nil
	})
}

func (r bookingRepo) UpdateBookingStatus(
	_ context.Context,
	id uuid.UUID,
	status domain.Status,
	decidedBy *uuid.UUID,
	at time.Time,
) (domain.Booking, error) {
	const op = "memory.BookingRepo.UpdateBookingStatus"

	var out domain.Booking
	err := r.v.do(func(st *state) error {
		b, ok := st.bookings[id]
		if !ok {
			return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
		}

		b.Status = status
		if decidedBy != nil {
			by := *decidedBy
			b.DecidedBy = &by
		}
		b.UpdatedAt = at

		if status == domain.StatusConfirmed && confirmedOverlap(st, b) {
			return fmt.Errorf("%s:%w", op, repository.ErrOverlap)
		}

		st.bookings[id] = b
		out = b
		return nil
	})
	return out, err
}

func (r bookingRepo) ListBookingsBySpace(_ context.Context, spaceID uuid.UUID, status domain.Status) ([]domain.Booking, error) {
	out := make([]domain.Booking, 0)
	err := r.v.do(func(st *state) error {
		for _, b := range st.bookings {
			if b.SpaceID != spaceID {
				continue
			}
			if status != "" && b.Status != status {
				continue
			}
			out = append(out, b)
		}
		return nil
	})
	sortByStart(out)
	return out, err
}

func (r bookingRepo) ListBookingsByUser(_ context.Context, userID uuid.UUID) ([]domain.Booking, error) {
	out := make([]domain.Booking, 0)
	err := r.v.do(func(st *state) error {
		for _, b := range st.bookings {
			if b.UserID == userID {
				out = append(out, b)
			}
		}
		return nil
	})
	sortByStart(out)
	return out, err
}

func (r bookingRepo) ListCompletable(_ context.Context, now time.Time, limit int) ([]domain.Booking, error) {
	out := make([]domain.Booking, 0)
	err := r.v.do(func(st *state) error {
		for _, b := range st.bookings {
			if b.Status == domain.StatusConfirmed && !b.End.After(now) {
				out = append(out, b)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].End.Equal(out[j].End) {
			return out[i].End.Before(out[j].End)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, err
}

// confirmedOverlap mirrors the storage exclusion constraint on confirmed bookings.
func confirmedOverlap(st *state, b domain.Booking) bool {
	for _, other := range st.bookings {
		if other.ID == b.ID || other.SpaceID != b.SpaceID || other.Status != domain.StatusConfirmed {
			continue
		}
		if other.Range().Overlaps(b.Range()) {
			return true
		}
	}
	return false
}

func sortByStart(bs []domain.Booking) {
	sort.Slice(bs, func(i, j int) bool {
		if !bs[i].Start.Equal(bs[j].Start) {
			return bs[i].Start.Before(bs[j].Start)
		}
		return bs[i].ID.String() < bs[j].ID.String()
	})
}
