package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kirinyoku/spacebook/internal/clock"
	"github.com/kirinyoku/spacebook/internal/domain"
	"github.com/kirinyoku/spacebook/internal/metrics"
	"github.com/kirinyoku/spacebook/internal/repository/memory"
	"github.com/kirinyoku/spacebook/internal/service/booking"
)

var start = time.Date(2030, time.January, 7, 9, 0, 0, 0, time.UTC)

func seed(t *testing.T, store *memory.Store, status domain.Status, from, to time.Time) domain.Booking {
	t.Helper()
	ctx := context.Background()

	sp := domain.Space{ID: uuid.New(), OwnerID: uuid.New(), Name: "Hall", Capacity: 5}
	require.NoError(t, store.Spaces().CreateSpace(ctx, sp))

	b := domain.Booking{
		ID:            uuid.New(),
		SpaceID:       sp.ID,
		UserID:        uuid.New(),
		Start:         from,
		End:           to,
		Status:        status,
		AttendeeCount: 2,
		CreatedAt:     from.Add(-time.Hour),
		UpdatedAt:     from.Add(-time.Hour),
	}
	require.NoError(t, store.Bookings().InsertBooking(ctx, b))
	return b
}

func TestRunOnceCompletesEndedBookings(t *testing.T) {
	store := memory.NewStore()
	clk := clock.NewManual(start)
	svc := booking.New(store, clk, nil, nil, nil, booking.Config{})

	ended := seed(t, store, domain.StatusConfirmed, start, start.Add(time.Hour))
	running := seed(t, store, domain.StatusConfirmed, start.Add(30*time.Minute), start.Add(3*time.Hour))
	pending := seed(t, store, domain.StatusPending, start, start.Add(time.Hour))

	w := NewCompletionWorker(svc, time.Minute, 10, metrics.New(), zap.NewNop())

	assert.Zero(t, w.RunOnce(context.Background()))

	clk.Advance(time.Hour)
	assert.Equal(t, 1, w.RunOnce(context.Background()))

	ctx := context.Background()
	got, err := store.Bookings().GetBooking(ctx, ended.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status)

	got, err = store.Bookings().GetBooking(ctx, running.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, got.Status)

	got, err = store.Bookings().GetBooking(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)

	assert.Zero(t, w.RunOnce(ctx))
}

type stubCompleter struct {
	due       []domain.Booking
	listErr   error
	completed []uuid.UUID
}

func (s *stubCompleter) Completable(context.Context, int) ([]domain.Booking, error) {
	return s.due, s.listErr
}

func (s *stubCompleter) Complete(_ context.Context, id uuid.UUID) (domain.Booking, error) {
	if id == s.due[0].ID {
		return domain.Booking{}, errors.New("db down")
	}
	s.completed = append(s.completed, id)
	return domain.Booking{ID: id, Status: domain.StatusCompleted}, nil
}

func TestRunOnceContinuesPastFailures(t *testing.T) {
	stub := &stubCompleter{due: []domain.Booking{{ID: uuid.New()}, {ID: uuid.New()}}}
	w := NewCompletionWorker(stub, 0, 0, nil, nil)

	assert.Equal(t, 1, w.RunOnce(context.Background()))
	assert.Equal(t, []uuid.UUID{stub.due[1].ID}, stub.completed)
}

func TestRunOnceListFailure(t *testing.T) {
	w := NewCompletionWorker(&stubCompleter{listErr: errors.New("boom")}, 0, 0, nil, nil)
	assert.Zero(t, w.RunOnce(context.Background()))
}

func TestRunStopsOnCancel(t *testing.T) {
	w := NewCompletionWorker(&stubCompleter{}, time.Hour, 1, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
