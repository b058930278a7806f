package suggestions

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kirinyoku/spacebook/internal/clock"
	"github.com/kirinyoku/spacebook/internal/domain"
	"github.com/kirinyoku/spacebook/internal/metrics"
	"github.com/kirinyoku/spacebook/internal/repository"
	"github.com/kirinyoku/spacebook/internal/suggest"
)

type Config struct {
	MaxRadiusKm float64
}

type Service struct {
	store   repository.Store
	clock   clock.Clock
	metrics *metrics.Metrics
	log     *zap.Logger
	cfg     Config
}

func New(store repository.Store, clk clock.Clock, m *metrics.Metrics, log *zap.Logger, cfg Config) *Service {
	if cfg.MaxRadiusKm <= 0 {
		cfg.MaxRadiusKm = 25
	}
	if clk == nil {
		clk = clock.System(time.Local)
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Service{store: store, clock: clk, metrics: m, log: log, cfg: cfg}
}

func validCoords(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// SaveLocation stores a place the user wants suggestions around. A radius of zero
// means the configured maximum.
func (s *Service) SaveLocation(
	ctx context.Context,
	actorID uuid.UUID,
	name string,
	lat, lng, radiusKm float64,
) (domain.Location, error) {
	const op = "service.suggestions.SaveLocation"

	name = strings.TrimSpace(name)
	switch {
	case actorID == uuid.Nil, name == "":
		return domain.Location{}, fmt.Errorf("%s: name is required:%w", op, ErrInvalidInput)
	case !validCoords(lat, lng):
		return domain.Location{}, fmt.Errorf("%s: coordinates out of range:%w", op, ErrInvalidInput)
	case radiusKm < 0 || math.IsNaN(radiusKm):
		return domain.Location{}, fmt.Errorf("%s: negative radius:%w", op, ErrInvalidInput)
	}

	loc := domain.Location{
		ID:        uuid.New(),
		UserID:    actorID,
		Name:      name,
		Latitude:  lat,
		Longitude: lng,
		RadiusKm:  radiusKm,
	}

	if err := s.store.Locations().SaveLocation(ctx, loc); err != nil {
		return domain.Location{}, fmt.Errorf("%s:%w", op, err)
	}

	return loc, nil
}

// RecordVisit bumps the visit counter that feeds the frequency half of the score.
func (s *Service) RecordVisit(ctx context.Context, actorID, locationID uuid.UUID) (domain.Location, error) {
	const op = "service.suggestions.RecordVisit"

	var out domain.Location
	err := s.store.RunTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		loc, err := tx.Locations().GetLocation(ctx, locationID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrLocationNotFound
			}
			return err
		}
		if loc.UserID != actorID {
			return ErrForbidden
		}

		out, err = tx.Locations().IncrementVisit(ctx, locationID)
		return err
	})
	if err != nil {
		return domain.Location{}, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

func (s *Service) CreateEvent(
	ctx context.Context,
	actorID uuid.UUID,
	title string,
	startsAt time.Time,
	lat, lng float64,
) (domain.Event, error) {
	const op = "service.suggestions.CreateEvent"

	title = strings.TrimSpace(title)
	switch {
	case actorID == uuid.Nil, title == "", startsAt.IsZero():
		return domain.Event{}, fmt.Errorf("%s: title and start are required:%w", op, ErrInvalidInput)
	case !validCoords(lat, lng):
		return domain.Event{}, fmt.Errorf("%s: coordinates out of range:%w", op, ErrInvalidInput)
	}

	ev := domain.Event{
		ID:        uuid.New(),
		Title:     title,
		StartsAt:  startsAt,
		Latitude:  lat,
		Longitude: lng,
		CreatedBy: actorID,
	}

	if err := s.store.Events().CreateEvent(ctx, ev); err != nil {
		return domain.Event{}, fmt.Errorf("%s:%w", op, err)
	}

	return ev, nil
}

// Generate pairs the user's saved locations with upcoming events in range and stores
// the pairs that are new. Existing pairs, dismissed ones included, are left alone.
//
// Returns the number of suggestions created.
func (s *Service) Generate(ctx context.Context, actorID uuid.UUID) (int, error) {
	const op = "service.suggestions.Generate"

	now := s.clock.Now()

	var created int
	err := s.store.RunTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		locations, err := tx.Locations().ListLocations(ctx, actorID)
		if err != nil {
			return err
		}
		if len(locations) == 0 {
			return nil
		}

		events, err := tx.Events().ListUpcomingEvents(ctx, now)
		if err != nil {
			return err
		}

		candidates := suggest.Candidates(events, locations, s.cfg.MaxRadiusKm)
		if len(candidates) == 0 {
			return nil
		}

		rows := make([]domain.SuggestedClass, 0, len(candidates))
		for _, c := range candidates {
			rows = append(rows, domain.SuggestedClass{
				ID:             uuid.New(),
				UserID:         actorID,
				EventID:        c.Event.ID,
				LocationID:     c.Location.ID,
				DistanceKm:     c.DistanceKm,
				RelevanceScore: c.Score,
				EventStartsAt:  c.Event.StartsAt,
				CreatedAt:      now,
			})
		}

		created, err = tx.Suggestions().InsertSuggestions(ctx, rows)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, err)
	}

	s.metrics.SuggestionsCreated(created)
	s.log.Debug("suggestions generated",
		zap.String("user_id", actorID.String()), zap.Int("created", created))

	return created, nil
}

func (s *Service) List(ctx context.Context, actorID uuid.UUID) ([]domain.SuggestedClass, error) {
	const op = "service.suggestions.List"

	out, err := s.store.Suggestions().ListSuggestions(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

func (s *Service) Dismiss(ctx context.Context, actorID, suggestionID uuid.UUID) error {
	const op = "service.suggestions.Dismiss"

	err := s.store.RunTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		sg, err := tx.Suggestions().GetSuggestion(ctx, suggestionID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrSuggestionNotFound
			}
			return err
		}
		if sg.UserID != actorID {
			return ErrForbidden
		}

		return tx.Suggestions().DismissSuggestion(ctx, suggestionID)
	})
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}
