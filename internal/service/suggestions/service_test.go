package suggestions

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/spacebook/internal/clock"
	"github.com/kirinyoku/spacebook/internal/metrics"
	"github.com/kirinyoku/spacebook/internal/repository/memory"
)

var now = time.Date(2030, time.March, 1, 12, 0, 0, 0, time.UTC)

func newService() *Service {
	return New(memory.NewStore(), clock.Fixed(now), metrics.New(), nil, Config{MaxRadiusKm: 10})
}

func TestGenerateRanksNearbyUpcomingEvents(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	user := uuid.New()
	host := uuid.New()

	home, err := svc.SaveLocation(ctx, user, "Home", 52.5200, 13.4050, 5)
	require.NoError(t, err)

	near, err := svc.CreateEvent(ctx, host, "Yoga", now.Add(24*time.Hour), 52.5205, 13.4055)
	require.NoError(t, err)
	farther, err := svc.CreateEvent(ctx, host, "Pottery", now.Add(48*time.Hour), 52.5400, 13.4050)
	require.NoError(t, err)
	_, err = svc.CreateEvent(ctx, host, "Far away", now.Add(24*time.Hour), 48.1351, 11.5820)
	require.NoError(t, err)
	_, err = svc.CreateEvent(ctx, host, "Already happened", now.Add(-time.Hour), 52.5200, 13.4050)
	require.NoError(t, err)

	created, err := svc.Generate(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	list, err := svc.List(ctx, user)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, near.ID, list[0].EventID)
	assert.Equal(t, farther.ID, list[1].EventID)
	assert.Equal(t, home.ID, list[0].LocationID)
	assert.GreaterOrEqual(t, list[0].RelevanceScore, list[1].RelevanceScore)
	for _, s := range list {
		assert.GreaterOrEqual(t, s.RelevanceScore, 0.0)
		assert.LessOrEqual(t, s.RelevanceScore, 1.0)
	}
}

func TestGenerateIsIdempotentAndKeepsDismissals(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	user := uuid.New()

	_, err := svc.SaveLocation(ctx, user, "Office", 40.7128, -74.0060, 0)
	require.NoError(t, err)
	_, err = svc.CreateEvent(ctx, uuid.New(), "Jazz", now.Add(time.Hour), 40.7130, -74.0062)
	require.NoError(t, err)

	created, err := svc.Generate(ctx, user)
	require.NoError(t, err)
	require.Equal(t, 1, created)

	list, err := svc.List(ctx, user)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, svc.Dismiss(ctx, user, list[0].ID))

	created, err = svc.Generate(ctx, user)
	require.NoError(t, err)
	assert.Zero(t, created)

	list, err = svc.List(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDismissOwnerOnly(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	user := uuid.New()

	_, err := svc.SaveLocation(ctx, user, "Gym", 0, 0, 1)
	require.NoError(t, err)
	_, err = svc.CreateEvent(ctx, uuid.New(), "Spin", now.Add(time.Hour), 0, 0)
	require.NoError(t, err)
	_, err = svc.Generate(ctx, user)
	require.NoError(t, err)

	list, err := svc.List(ctx, user)
	require.NoError(t, err)
	require.Len(t, list, 1)

	err = svc.Dismiss(ctx, uuid.New(), list[0].ID)
	assert.ErrorIs(t, err, ErrForbidden)

	err = svc.Dismiss(ctx, user, uuid.New())
	assert.ErrorIs(t, err, ErrSuggestionNotFound)
}

func TestRecordVisit(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	user := uuid.New()

	loc, err := svc.SaveLocation(ctx, user, "Library", 10, 10, 2)
	require.NoError(t, err)

	got, err := svc.RecordVisit(ctx, user, loc.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.VisitCount)

	_, err = svc.RecordVisit(ctx, uuid.New(), loc.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.RecordVisit(ctx, user, uuid.New())
	assert.ErrorIs(t, err, ErrLocationNotFound)
}

func TestInputValidation(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	user := uuid.New()

	_, err := svc.SaveLocation(ctx, user, "", 0, 0, 1)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.SaveLocation(ctx, user, "Pole", 91, 0, 1)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.SaveLocation(ctx, user, "Home", 0, 0, -1)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.CreateEvent(ctx, user, "", now, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.CreateEvent(ctx, user, "Talk", time.Time{}, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGenerateWithoutLocations(t *testing.T) {
	svc := newService()

	created, err := svc.Generate(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Zero(t, created)
}
