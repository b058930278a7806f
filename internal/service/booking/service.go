// Package booking implements the booking request and decision workflows.
package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kirinyoku/spacebook/internal/clock"
	"github.com/kirinyoku/spacebook/internal/domain"
	"github.com/kirinyoku/spacebook/internal/metrics"
	"github.com/kirinyoku/spacebook/internal/notify"
	"github.com/kirinyoku/spacebook/internal/repository"
	"github.com/kirinyoku/spacebook/internal/schedule"
	"github.com/kirinyoku/spacebook/internal/uow"
)

type Config struct {
	// RequireAvailability rejects requests that do not fit one of the day's offered slots.
	RequireAvailability bool
}

type Service struct {
	store    repository.Store
	uow      *uow.UoW
	clock    clock.Clock
	notifier *notify.Dispatcher
	metrics  *metrics.Metrics
	log      *zap.Logger
	cfg      Config
}

func New(
	store repository.Store,
	clk clock.Clock,
	notifier *notify.Dispatcher,
	m *metrics.Metrics,
	log *zap.Logger,
	cfg Config,
) *Service {
	if clk == nil {
		clk = clock.System(time.Local)
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Service{
		store:    store,
		uow:      uow.NewUoW(store),
		clock:    clk,
		notifier: notifier,
		metrics:  m,
		log:      log,
		cfg:      cfg,
	}
}

// RequestInput is what a requester submits. Times are wall-clock in the service location.
type RequestInput struct {
	SpaceID       uuid.UUID
	Start         time.Time
	End           time.Time
	AttendeeCount int
	Notes         domain.BookingNotes
}

// Request validates a booking request and stores it as pending.
//
// Checks run in order: required fields, range, start not in the past, notes, space
// existence, capacity, optional slot containment, and finally overlap against the space's
// active bookings read inside the write transaction. The owner is notified after commit.
func (s *Service) Request(ctx context.Context, actorID uuid.UUID, in RequestInput) (domain.Booking, error) {
	const op = "service.booking.Request"

	b, err := s.request(ctx, actorID, in)
	if err != nil {
		s.metrics.BookingRequest(outcomeOf(err))
		if _, ok := AsError(err); ok {
			return domain.Booking{}, err
		}
		return domain.Booking{}, fmt.Errorf("%s:%w", op, err)
	}

	s.metrics.BookingRequest("created")
	return b, nil
}

func (s *Service) request(ctx context.Context, actorID uuid.UUID, in RequestInput) (domain.Booking, error) {
	if err := validateRequest(actorID, in); err != nil {
		return domain.Booking{}, err
	}

	now := s.clock.Now()
	if in.Start.Before(now) {
		return domain.Booking{}, validation(ReasonInvalidRange, "start_time must not be in the past")
	}

	if err := in.Notes.Validate(); err != nil {
		return domain.Booking{}, validation(ReasonInvalidNotes, notesMessage(err))
	}

	proposed := domain.TimeRange{Start: in.Start, End: in.End}
	b := domain.Booking{
		ID:            uuid.New(),
		SpaceID:       in.SpaceID,
		UserID:        actorID,
		Start:         in.Start,
		End:           in.End,
		Status:        domain.StatusPending,
		AttendeeCount: in.AttendeeCount,
		Notes:         in.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := s.uow.Do(ctx, func(ctx context.Context, tx repository.Tx, after func(uow.AfterCommit)) error {
		space, err := tx.Spaces().LockSpace(ctx, in.SpaceID)
		if err != nil {
			return translateRepoErr("lock space", err, ErrSpaceNotFound)
		}

		if !schedule.CapacityAllows(space.Capacity, in.AttendeeCount) {
			return ErrCapacityExceeded
		}

		if s.cfg.RequireAvailability {
			if err := s.checkAvailability(ctx, tx, space.ID, proposed); err != nil {
				return err
			}
		}

		active, err := tx.Bookings().ActiveBookings(ctx, space.ID, proposed)
		if err != nil {
			return translateRepoErr("active bookings", err, ErrSpaceNotFound)
		}
		if v := schedule.CheckConflict(domain.Ranges(active), proposed); !v.Admit {
			return ErrOverlap
		}

		if err := tx.Bookings().InsertBooking(ctx, b); err != nil {
			return translateRepoErr("insert booking", err, ErrSpaceNotFound)
		}

		after(func(ctx context.Context) {
			s.notifier.Dispatch(ctx, notify.For(notify.TypeRequested, b, space.OwnerID, actorID, now))
		})

		return nil
	})
	if err != nil {
		return domain.Booking{}, err
	}

	return b, nil
}

func (s *Service) checkAvailability(ctx context.Context, tx repository.Tx, spaceID uuid.UUID, proposed domain.TimeRange) error {
	rule, err := tx.Availability().GetRule(ctx, spaceID, domain.WeekdayOf(proposed.Start))
	if errors.Is(err, repository.ErrNotFound) {
		return ErrOutsideAvailability
	}
	if err != nil {
		return translateRepoErr("get rule", err, ErrSpaceNotFound)
	}

	if !schedule.WithinAny(schedule.ResolveSlots(&rule, proposed.Start), proposed) {
		return ErrOutsideAvailability
	}

	return nil
}

func validateRequest(actorID uuid.UUID, in RequestInput) error {
	var missing []string
	if actorID == uuid.Nil {
		missing = append(missing, "user_id")
	}
	if in.SpaceID == uuid.Nil {
		missing = append(missing, "space_id")
	}
	if in.Start.IsZero() {
		missing = append(missing, "start_time")
	}
	if in.End.IsZero() {
		missing = append(missing, "end_time")
	}
	if in.AttendeeCount == 0 {
		missing = append(missing, "attendee_count")
	}
	if len(missing) > 0 {
		return validation(ReasonMissingField, "missing or empty fields: "+strings.Join(missing, ", "))
	}

	if in.AttendeeCount < 0 {
		return validation(ReasonValidation, "attendee_count must be a positive number")
	}

	if !in.Start.Before(in.End) {
		return validation(ReasonInvalidRange, "start_time must be before end_time")
	}

	return nil
}

func notesMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid notes"
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
	}

	return "invalid notes: " + strings.Join(fields, ", ")
}

func (s *Service) Confirm(ctx context.Context, actorID, bookingID uuid.UUID) (domain.Booking, error) {
	return s.transition(ctx, actorID, bookingID, domain.ActionConfirm)
}

func (s *Service) Reject(ctx context.Context, actorID, bookingID uuid.UUID) (domain.Booking, error) {
	return s.transition(ctx, actorID, bookingID, domain.ActionReject)
}

func (s *Service) Cancel(ctx context.Context, actorID, bookingID uuid.UUID) (domain.Booking, error) {
	return s.transition(ctx, actorID, bookingID, domain.ActionCancel)
}

// Complete is the system transition for confirmed bookings whose end has passed.
func (s *Service) Complete(ctx context.Context, bookingID uuid.UUID) (domain.Booking, error) {
	return s.transition(ctx, uuid.Nil, bookingID, domain.ActionComplete)
}

// transition applies one state-machine action inside a transaction that holds the space
// lock, so the booking and its competitors are read after every earlier writer committed.
func (s *Service) transition(ctx context.Context, actorID, bookingID uuid.UUID, action domain.Action) (domain.Booking, error) {
	const op = "service.booking.transition"

	now := s.clock.Now()
	system := action == domain.ActionComplete

	var updated domain.Booking
	err := s.uow.Do(ctx, func(ctx context.Context, tx repository.Tx, after func(uow.AfterCommit)) error {
		current, err := tx.Bookings().GetBooking(ctx, bookingID)
		if err != nil {
			return translateRepoErr("get booking", err, ErrBookingNotFound)
		}

		space, err := tx.Spaces().LockSpace(ctx, current.SpaceID)
		if err != nil {
			return translateRepoErr("lock space", err, ErrSpaceNotFound)
		}

		// Re-read under the lock: a competing writer may have moved it meanwhile.
		current, err = tx.Bookings().GetBooking(ctx, bookingID)
		if err != nil {
			return translateRepoErr("get booking", err, ErrBookingNotFound)
		}

		if !permitted(action, system, actorID, space, current) {
			return ErrForbidden
		}

		next, ok := current.Status.Next(action)
		if !ok {
			return validation(ReasonInvalidTransition,
				fmt.Sprintf("cannot %s a %s booking", action, current.Status))
		}

		if action == domain.ActionComplete && now.Before(current.End) {
			return validation(ReasonInvalidTransition, "booking has not ended yet")
		}

		if action == domain.ActionConfirm {
			if err := s.recheckConfirmed(ctx, tx, current); err != nil {
				return err
			}
		}

		var decidedBy *uuid.UUID
		if !system {
			decidedBy = &actorID
		}

		updated, err = tx.Bookings().UpdateBookingStatus(ctx, current.ID, next, decidedBy, now)
		if err != nil {
			return translateRepoErr("update status", err, ErrBookingNotFound)
		}

		if n, ok := notificationFor(action, actorID, space, updated, now); ok {
			after(func(ctx context.Context) {
				s.notifier.Dispatch(ctx, n)
			})
		}

		return nil
	})

	s.metrics.Transition(string(action), outcomeOf(err))

	if err != nil {
		if _, ok := AsError(err); ok {
			return domain.Booking{}, err
		}
		return domain.Booking{}, fmt.Errorf("%s:%w", op, err)
	}

	s.log.Debug("booking transitioned",
		zap.String("booking_id", updated.ID.String()),
		zap.String("action", string(action)),
		zap.String("status", string(updated.Status)),
	)

	return updated, nil
}

// recheckConfirmed fails with ErrOverlap when another confirmed booking of the space now
// intersects b. Pending competitors do not block a confirmation.
func (s *Service) recheckConfirmed(ctx context.Context, tx repository.Tx, b domain.Booking) error {
	active, err := tx.Bookings().ActiveBookings(ctx, b.SpaceID, b.Range())
	if err != nil {
		return translateRepoErr("active bookings", err, ErrSpaceNotFound)
	}

	confirmed := make([]domain.TimeRange, 0, len(active))
	for _, other := range active {
		if other.ID != b.ID && other.Status == domain.StatusConfirmed {
			confirmed = append(confirmed, other.Range())
		}
	}

	if v := schedule.CheckConflict(confirmed, b.Range()); !v.Admit {
		return ErrOverlap
	}

	return nil
}

func permitted(action domain.Action, system bool, actorID uuid.UUID, space domain.Space, b domain.Booking) bool {
	if system {
		return action.Allowed(domain.RoleSystem)
	}
	if space.IsOwner(actorID) && action.Allowed(domain.RoleOwner) {
		return true
	}
	if actorID != uuid.Nil && b.UserID == actorID && action.Allowed(domain.RoleRequester) {
		return true
	}
	return false
}

// notificationFor picks the recipient of a decision. Cancellation goes to whichever party
// did not cancel; nobody is told about their own action.
func notificationFor(action domain.Action, actorID uuid.UUID, space domain.Space, b domain.Booking, at time.Time) (notify.Notification, bool) {
	var (
		t         notify.Type
		recipient uuid.UUID
	)

	switch action {
	case domain.ActionConfirm:
		t, recipient = notify.TypeConfirmed, b.UserID
	case domain.ActionReject:
		t, recipient = notify.TypeRejected, b.UserID
	case domain.ActionCancel:
		t, recipient = notify.TypeCancelled, space.OwnerID
		if actorID == space.OwnerID {
			recipient = b.UserID
		}
	default:
		return notify.Notification{}, false
	}

	if recipient == actorID {
		return notify.Notification{}, false
	}

	return notify.For(t, b, recipient, actorID, at), true
}

func outcomeOf(err error) string {
	if err == nil {
		return "ok"
	}
	if e, ok := AsError(err); ok {
		return string(e.Reason)
	}
	return "error"
}
