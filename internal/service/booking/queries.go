package booking

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/kirinyoku/spacebook/internal/domain"
)

// Get returns a booking to its requester or to the owner of its space.
func (s *Service) Get(ctx context.Context, actorID, bookingID uuid.UUID) (domain.Booking, error) {
	const op = "service.booking.Get"

	b, err := s.store.Bookings().GetBooking(ctx, bookingID)
	if err != nil {
		return domain.Booking{}, translateRepoErr(op, err, ErrBookingNotFound)
	}

	if b.UserID == actorID && actorID != uuid.Nil {
		return b, nil
	}

	space, err := s.store.Spaces().GetSpace(ctx, b.SpaceID)
	if err != nil {
		return domain.Booking{}, translateRepoErr(op, err, ErrSpaceNotFound)
	}
	if !space.IsOwner(actorID) {
		return domain.Booking{}, ErrForbidden
	}

	return b, nil
}

// ListForSpace returns the space's bookings ordered by start. Only the owner may list them.
// An empty status lists every status.
func (s *Service) ListForSpace(ctx context.Context, actorID, spaceID uuid.UUID, status string) ([]domain.Booking, error) {
	const op = "service.booking.ListForSpace"

	space, err := s.store.Spaces().GetSpace(ctx, spaceID)
	if err != nil {
		return nil, translateRepoErr(op, err, ErrSpaceNotFound)
	}
	if !space.IsOwner(actorID) {
		return nil, ErrForbidden
	}

	var filter domain.Status
	if status != "" {
		st, err := domain.ParseStatus(status)
		if err != nil {
			return nil, validation(ReasonInvalidStatus, fmt.Sprintf("unknown status %q", status))
		}
		filter = st
	}

	out, err := s.store.Bookings().ListBookingsBySpace(ctx, spaceID, filter)
	if err != nil {
		return nil, translateRepoErr(op, err, ErrSpaceNotFound)
	}

	return out, nil
}

func (s *Service) ListForUser(ctx context.Context, actorID uuid.UUID) ([]domain.Booking, error) {
	const op = "service.booking.ListForUser"

	out, err := s.store.Bookings().ListBookingsByUser(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// Completable lists confirmed bookings that have already ended.
func (s *Service) Completable(ctx context.Context, limit int) ([]domain.Booking, error) {
	const op = "service.booking.Completable"

	out, err := s.store.Bookings().ListCompletable(ctx, s.clock.Now(), limit)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}
