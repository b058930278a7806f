package suggest

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/spacebook/internal/domain"
)

func TestDistanceKm(t *testing.T) {
	assert.InDelta(t, 0, DistanceKm(52.52, 13.405, 52.52, 13.405), 1e-9)
	// Berlin to Paris.
	assert.InDelta(t, 878, DistanceKm(52.52, 13.405, 48.8566, 2.3522), 5)
	// One degree of latitude.
	assert.InDelta(t, 111.19, DistanceKm(0, 0, 1, 0), 0.1)
}

func TestScore(t *testing.T) {
	assert.InDelta(t, 0.7, Score(0, 10, 0), 1e-9)
	assert.InDelta(t, 1.0, Score(0, 10, 10), 1e-9)
	assert.InDelta(t, 1.0, Score(0, 10, 500), 1e-9)
	assert.InDelta(t, 0.35+0.15, Score(5, 10, 5), 1e-9)
	assert.InDelta(t, 0.0, Score(10, 10, 0), 1e-9)
	assert.Equal(t, 0.0, Score(20, 10, 0), "score never goes below zero")
}

func TestEffectiveRadius(t *testing.T) {
	assert.Equal(t, 5.0, EffectiveRadius(domain.Location{RadiusKm: 5}, 50))
	assert.Equal(t, 50.0, EffectiveRadius(domain.Location{RadiusKm: 80}, 50))
	assert.Equal(t, 50.0, EffectiveRadius(domain.Location{}, 50))
}

func TestCandidatesFiltersByRadiusAndRanks(t *testing.T) {
	home := domain.Location{ID: uuid.New(), Latitude: 0, Longitude: 0, RadiusKm: 50, VisitCount: 2}
	start := time.Date(2025, time.May, 1, 18, 0, 0, 0, time.UTC)

	near := domain.Event{ID: uuid.New(), Title: "near", StartsAt: start, Latitude: 0.05}
	mid := domain.Event{ID: uuid.New(), Title: "mid", StartsAt: start, Latitude: 0.2}
	far := domain.Event{ID: uuid.New(), Title: "far", StartsAt: start, Latitude: 1.0}

	got := Candidates([]domain.Event{far, mid, near}, []domain.Location{home}, 100)

	require.Len(t, got, 2)
	assert.Equal(t, "near", got[0].Event.Title)
	assert.Equal(t, "mid", got[1].Event.Title)
	assert.Greater(t, got[0].Score, got[1].Score)
	for _, c := range got {
		assert.LessOrEqual(t, c.DistanceKm, 50.0)
	}
}

func TestRankTieBreaks(t *testing.T) {
	early := time.Date(2025, time.May, 1, 9, 0, 0, 0, time.UTC)
	late := early.Add(time.Hour)

	idA := uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	idB := uuid.MustParse("00000000-0000-0000-0000-00000000000b")

	cs := []Candidate{
		{Event: domain.Event{ID: idB, StartsAt: early}, DistanceKm: 1, Score: 0.5},
		{Event: domain.Event{ID: idA, StartsAt: early}, DistanceKm: 1, Score: 0.5},
		{Event: domain.Event{ID: idA, StartsAt: late}, DistanceKm: 1, Score: 0.5},
		{Event: domain.Event{ID: idA, StartsAt: late}, DistanceKm: 0.5, Score: 0.5},
		{Event: domain.Event{ID: idB, StartsAt: late}, DistanceKm: 9, Score: 0.9},
	}

	Rank(cs)

	assert.Equal(t, 0.9, cs[0].Score)
	assert.Equal(t, 0.5, cs[1].DistanceKm)
	assert.Equal(t, idA, cs[2].Event.ID)
	assert.Equal(t, early, cs[2].Event.StartsAt)
	assert.Equal(t, idB, cs[3].Event.ID)
	assert.Equal(t, late, cs[4].Event.StartsAt)
}
