// Package repository declares the persistence boundary of the booking engine.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kirinyoku/spacebook/internal/domain"
)

type SpaceRepository interface {
	CreateSpace(ctx context.Context, s domain.Space) error
	GetSpace(ctx context.Context, id uuid.UUID) (domain.Space, error)
	// LockSpace reads the space and holds a write lock on it until the transaction ends.
	// Every booking write takes this lock first.
	LockSpace(ctx context.Context, id uuid.UUID) (domain.Space, error)
}

type AvailabilityRepository interface {
	// GetRule returns ErrNotFound when the owner never set the day.
	GetRule(ctx context.Context, spaceID uuid.UUID, day domain.Weekday) (domain.AvailabilityRule, error)
	ListRules(ctx context.Context, spaceID uuid.UUID) ([]domain.AvailabilityRule, error)
	UpsertRule(ctx context.Context, rule domain.AvailabilityRule) error
}

type BookingRepository interface {
	GetBooking(ctx context.Context, id uuid.UUID) (domain.Booking, error)
	// ActiveBookings returns the space's pending and confirmed bookings that intersect window.
	ActiveBookings(ctx context.Context, spaceID uuid.UUID, window domain.TimeRange) ([]domain.Booking, error)
	InsertBooking(ctx context.Context, b domain.Booking) error
	UpdateBookingStatus(
		ctx context.Context,
		id uuid.UUID,
		status domain.Status,
		decidedBy *uuid.UUID,
		at time.Time,
	) (domain.Booking, error)
	// ListBookingsBySpace filters by status unless status is empty.
	ListBookingsBySpace(ctx context.Context, spaceID uuid.UUID, status domain.Status) ([]domain.Booking, error)
	ListBookingsByUser(ctx context.Context, userID uuid.UUID) ([]domain.Booking, error)
	// ListCompletable returns confirmed bookings that ended at or before now, oldest first.
	ListCompletable(ctx context.Context, now time.Time, limit int) ([]domain.Booking, error)
}

type EventRepository interface {
	CreateEvent(ctx context.Context, e domain.Event) error
	ListUpcomingEvents(ctx context.Context, after time.Time) ([]domain.Event, error)
}

type LocationRepository interface {
	SaveLocation(ctx context.Context, l domain.Location) error
	GetLocation(ctx context.Context, id uuid.UUID) (domain.Location, error)
	ListLocations(ctx context.Context, userID uuid.UUID) ([]domain.Location, error)
	IncrementVisit(ctx context.Context, id uuid.UUID) (domain.Location, error)
}

type SuggestionRepository interface {
	// InsertSuggestions stores new (user, event, location) triples and silently skips
	// triples that already exist, dismissed or not. It returns how many rows were added.
	InsertSuggestions(ctx context.Context, ss []domain.SuggestedClass) (int, error)
	GetSuggestion(ctx context.Context, id uuid.UUID) (domain.SuggestedClass, error)
	// ListSuggestions returns the user's non-dismissed suggestions in rank order.
	ListSuggestions(ctx context.Context, userID uuid.UUID) ([]domain.SuggestedClass, error)
	DismissSuggestion(ctx context.Context, id uuid.UUID) error
}

// Tx exposes the repositories bound to one unit of work.
type Tx interface {
	Spaces() SpaceRepository
	Availability() AvailabilityRepository
	Bookings() BookingRepository
	Events() EventRepository
	Locations() LocationRepository
	Suggestions() SuggestionRepository
}

// Store is the non-transactional view plus the ability to run a transaction.
type Store interface {
	Tx
	RunTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
