package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/spacebook/internal/domain"
	"github.com/kirinyoku/spacebook/internal/repository"
)

func seedSpace(t *testing.T, s *Store) domain.Space {
	t.Helper()
	sp := domain.Space{ID: uuid.New(), OwnerID: uuid.New(), Name: "Hall", Capacity: 10}
	require.NoError(t, s.Spaces().CreateSpace(context.Background(), sp))
	return sp
}

func booking(spaceID uuid.UUID, status domain.Status, startHour, endHour int) domain.Booking {
	day := time.Date(2030, time.January, 7, 0, 0, 0, 0, time.UTC)
	return domain.Booking{
		ID:            uuid.New(),
		SpaceID:       spaceID,
		UserID:        uuid.New(),
		Start:         day.Add(time.Duration(startHour) * time.Hour),
		End:           day.Add(time.Duration(endHour) * time.Hour),
		Status:        status,
		AttendeeCount: 1,
	}
}

func TestRunTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	sp := seedSpace(t, s)
	b := booking(sp.ID, domain.StatusPending, 10, 11)

	boom := errors.New("boom")
	err := s.RunTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		require.NoError(t, tx.Bookings().InsertBooking(ctx, b))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.Bookings().GetBooking(ctx, b.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRunTxCommits(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	sp := seedSpace(t, s)
	b := booking(sp.ID, domain.StatusPending, 10, 11)

	require.NoError(t, s.RunTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		return tx.Bookings().InsertBooking(ctx, b)
	}))

	got, err := s.Bookings().GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)
}

func TestActiveBookingsFiltersStatusAndWindow(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	sp := seedSpace(t, s)

	pending := booking(sp.ID, domain.StatusPending, 9, 10)
	confirmed := booking(sp.ID, domain.StatusConfirmed, 10, 11)
	cancelled := booking(sp.ID, domain.StatusCancelled, 10, 11)
	later := booking(sp.ID, domain.StatusPending, 15, 16)
	for _, b := range []domain.Booking{pending, confirmed, cancelled, later} {
		require.NoError(t, s.Bookings().InsertBooking(ctx, b))
	}

	window := domain.TimeRange{Start: pending.Start, End: confirmed.End}
	got, err := s.Bookings().ActiveBookings(ctx, sp.ID, window)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, pending.ID, got[0].ID)
	assert.Equal(t, confirmed.ID, got[1].ID)
}

func TestConfirmedOverlapIsRefused(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	sp := seedSpace(t, s)

	first := booking(sp.ID, domain.StatusConfirmed, 10, 12)
	second := booking(sp.ID, domain.StatusPending, 11, 13)
	require.NoError(t, s.Bookings().InsertBooking(ctx, first))
	require.NoError(t, s.Bookings().InsertBooking(ctx, second))

	_, err := s.Bookings().UpdateBookingStatus(ctx, second.ID, domain.StatusConfirmed, &sp.OwnerID, time.Now())
	assert.ErrorIs(t, err, repository.ErrOverlap)

	got, err := s.Bookings().GetBooking(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)
}

func TestListCompletable(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	sp := seedSpace(t, s)

	done := booking(sp.ID, domain.StatusConfirmed, 8, 9)
	running := booking(sp.ID, domain.StatusConfirmed, 9, 12)
	pending := booking(sp.ID, domain.StatusPending, 6, 7)
	for _, b := range []domain.Booking{done, running, pending} {
		require.NoError(t, s.Bookings().InsertBooking(ctx, b))
	}

	got, err := s.Bookings().ListCompletable(ctx, done.End, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, done.ID, got[0].ID)
}

func TestInsertSuggestionsSkipsExistingTriples(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	user, event, loc := uuid.New(), uuid.New(), uuid.New()
	first := domain.SuggestedClass{ID: uuid.New(), UserID: user, EventID: event, LocationID: loc, RelevanceScore: 0.4}

	n, err := s.Suggestions().InsertSuggestions(ctx, []domain.SuggestedClass{first})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, s.Suggestions().DismissSuggestion(ctx, first.ID))

	again := first
	again.ID = uuid.New()
	n, err = s.Suggestions().InsertSuggestions(ctx, []domain.SuggestedClass{again})
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	list, err := s.Suggestions().ListSuggestions(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUpsertRuleCopiesRanges(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	sp := seedSpace(t, s)

	ranges := []domain.RuleRange{{Start: "09:00", End: "12:00"}}
	require.NoError(t, s.Availability().UpsertRule(ctx, domain.AvailabilityRule{
		SpaceID: sp.ID, Day: domain.Monday, IsAvailable: true, TimeRanges: ranges,
	}))
	ranges[0].Start = "00:00"

	got, err := s.Availability().GetRule(ctx, sp.ID, domain.Monday)
	require.NoError(t, err)
	assert.Equal(t, "09:00", got.TimeRanges[0].Start)

	_, err = s.Availability().GetRule(ctx, sp.ID, domain.Tuesday)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
