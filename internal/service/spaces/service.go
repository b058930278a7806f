package spaces

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kirinyoku/spacebook/internal/clock"
	"github.com/kirinyoku/spacebook/internal/domain"
	"github.com/kirinyoku/spacebook/internal/repository"
	redisrepo "github.com/kirinyoku/spacebook/internal/repository/redis"
	"github.com/kirinyoku/spacebook/internal/schedule"
	"github.com/kirinyoku/spacebook/internal/uow"
)

const dateLayout = "2006-01-02"

type Config struct {
	SlotCacheTTL time.Duration
}

type Service struct {
	store repository.Store
	uow   *uow.UoW
	cache *redisrepo.Cache
	clock clock.Clock
	log   *zap.Logger
	cfg   Config
}

func New(store repository.Store, cache *redisrepo.Cache, clk clock.Clock, log *zap.Logger, cfg Config) *Service {
	if cfg.SlotCacheTTL <= 0 {
		cfg.SlotCacheTTL = 30 * time.Second
	}
	if clk == nil {
		clk = clock.System(time.Local)
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Service{
		store: store,
		uow:   uow.NewUoW(store),
		cache: cache,
		clock: clk,
		log:   log,
		cfg:   cfg,
	}
}

// CreateSpace registers a space owned by the acting user.
func (s *Service) CreateSpace(ctx context.Context, actorID uuid.UUID, name string, capacity int) (domain.Space, error) {
	const op = "service.spaces.CreateSpace"

	name = strings.TrimSpace(name)
	switch {
	case actorID == uuid.Nil:
		return domain.Space{}, fmt.Errorf("%s: owner is required: %w", op, ErrInvalidSpace)
	case name == "":
		return domain.Space{}, fmt.Errorf("%s: name is required: %w", op, ErrInvalidSpace)
	case capacity <= 0:
		return domain.Space{}, fmt.Errorf("%s: capacity must be positive: %w", op, ErrInvalidSpace)
	}

	sp := domain.Space{
		ID:        uuid.New(),
		OwnerID:   actorID,
		Name:      name,
		Capacity:  capacity,
		CreatedAt: s.clock.Now(),
	}

	if err := s.store.Spaces().CreateSpace(ctx, sp); err != nil {
		return domain.Space{}, fmt.Errorf("%s:%w", op, err)
	}

	return sp, nil
}

func (s *Service) GetSpace(ctx context.Context, id uuid.UUID) (domain.Space, error) {
	const op = "service.spaces.GetSpace"

	sp, err := s.store.Spaces().GetSpace(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Space{}, fmt.Errorf("%s:%w", op, ErrSpaceNotFound)
		}
		return domain.Space{}, fmt.Errorf("%s:%w", op, err)
	}

	return sp, nil
}

// SetAvailability replaces the rule for one weekday of a space.
//
// Parameters:
//   - ctx: request-scoped context.
//   - actorID: must be the owner of the space.
//   - spaceID: space whose rule is replaced.
//   - day: lower-case weekday name.
//   - isAvailable: whether the day is open at all.
//   - ranges: time-of-day ranges, stored exactly as given.
//
// Returns:
//   - domain.AvailabilityRule: the stored rule.
//   - error: spaces.ErrSpaceNotFound, spaces.ErrForbidden or spaces.ErrInvalidDay.
func (s *Service) SetAvailability(
	ctx context.Context,
	actorID, spaceID uuid.UUID,
	day string,
	isAvailable bool,
	ranges []domain.RuleRange,
) (domain.AvailabilityRule, error) {
	const op = "service.spaces.SetAvailability"

	wd, ok := domain.ParseWeekday(strings.ToLower(strings.TrimSpace(day)))
	if !ok {
		return domain.AvailabilityRule{}, fmt.Errorf("%s: %q:%w", op, day, ErrInvalidDay)
	}

	if ranges == nil {
		ranges = []domain.RuleRange{}
	}

	rule := domain.AvailabilityRule{
		SpaceID:     spaceID,
		Day:         wd,
		IsAvailable: isAvailable,
		TimeRanges:  ranges,
		UpdatedAt:   s.clock.Now(),
	}

	err := s.uow.Do(ctx, func(ctx context.Context, tx repository.Tx, after func(uow.AfterCommit)) error {
		sp, err := tx.Spaces().LockSpace(ctx, spaceID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrSpaceNotFound
			}
			return err
		}
		if !sp.IsOwner(actorID) {
			return ErrForbidden
		}

		if err := tx.Availability().UpsertRule(ctx, rule); err != nil {
			return err
		}

		after(func(ctx context.Context) {
			if err := s.cache.InvalidateSpace(ctx, spaceID); err != nil {
				s.log.Warn("slot cache invalidation failed",
					zap.String("space_id", spaceID.String()), zap.Error(err))
			}
		})

		return nil
	})
	if err != nil {
		return domain.AvailabilityRule{}, fmt.Errorf("%s:%w", op, err)
	}

	return rule, nil
}

// ListAvailability returns one rule per weekday, Monday first. Days the owner never
// configured are reported closed.
func (s *Service) ListAvailability(ctx context.Context, spaceID uuid.UUID) ([]domain.AvailabilityRule, error) {
	const op = "service.spaces.ListAvailability"

	if _, err := s.GetSpace(ctx, spaceID); err != nil {
		return nil, err
	}

	rules, err := s.store.Availability().ListRules(ctx, spaceID)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	byDay := make(map[domain.Weekday]domain.AvailabilityRule, len(rules))
	for _, r := range rules {
		byDay[r.Day] = r
	}

	out := make([]domain.AvailabilityRule, 0, len(domain.Weekdays))
	for _, d := range domain.Weekdays {
		r, ok := byDay[d]
		if !ok {
			r = domain.AvailabilityRule{SpaceID: spaceID, Day: d, TimeRanges: []domain.RuleRange{}}
		}
		out = append(out, r)
	}

	return out, nil
}

// Slots resolves the bookable ranges of a space on a date. Results may be served from
// the cache for up to the configured TTL; booking decisions never read them.
func (s *Service) Slots(ctx context.Context, spaceID uuid.UUID, date time.Time) ([]domain.TimeRange, error) {
	const op = "service.spaces.Slots"

	day := schedule.DateOf(date)
	key := redisrepo.KeySpaceSlots(spaceID, day.Format(dateLayout))

	slots, err := redisrepo.GetOrSetJSON(ctx, s.cache, key, s.cfg.SlotCacheTTL,
		func(ctx context.Context) ([]domain.TimeRange, error) {
			if _, err := s.store.Spaces().GetSpace(ctx, spaceID); err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return nil, ErrSpaceNotFound
				}
				return nil, err
			}

			rule, err := s.store.Availability().GetRule(ctx, spaceID, domain.WeekdayOf(day))
			if errors.Is(err, repository.ErrNotFound) {
				return schedule.ResolveSlots(nil, day), nil
			}
			if err != nil {
				return nil, err
			}

			return schedule.ResolveSlots(&rule, day), nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return slots, nil
}
