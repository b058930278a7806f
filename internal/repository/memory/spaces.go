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

type spaceRepo struct{ v view }

func (r spaceRepo) CreateSpace(_ context.Context, s domain.Space) error {
	const op = "memory.SpaceRepo.CreateSpace"

	return r.v.do(func(st *state) error {
		if _, ok := st.spaces[s.ID]; ok {
			return fmt.Errorf("%s:%w", op, repository.ErrConflict)
		}
		st.spaces[s.ID] = s
		return nil
	})
}

func (r spaceRepo) GetSpace(_ context.Context, id uuid.UUID) (domain.Space, error) {
	const op = "memory.SpaceRepo.GetSpace"

	var out domain.Space
	err := r.v.do(func(st *state) error {
		s, ok := st.spaces[id]
		if !ok {
			return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
		}
		out = s
		return nil
	})
	return out, err
}

// LockSpace is GetSpace: the store lock already serialises transactions.
func (r spaceRepo) LockSpace(ctx context.Context, id uuid.UUID) (domain.Space, error) {
	return r.GetSpace(ctx, id)
}

type availabilityRepo struct{ v view }

func (r availabilityRepo) GetRule(_ context.Context, spaceID uuid.UUID, day domain.Weekday) (domain.AvailabilityRule, error) {
	const op = "memory.AvailabilityRepo.GetRule"

	var out domain.AvailabilityRule
	err := r.v.do(func(st *state) error {
		rule, ok := st.rules[ruleKey{spaceID: spaceID, day: day}]
		if !ok {
			return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
		}
		out = copyRule(rule)
		return nil
	})
	return out, err
}

func (r availabilityRepo) ListRules(_ context.Context, spaceID uuid.UUID) ([]domain.AvailabilityRule, error) {
	out := make([]domain.AvailabilityRule, 0, len(domain.Weekdays))
	err := r.v.do(func(st *state) error {
		for _, d := range domain.Weekdays {
			if rule, ok := st.rules[ruleKey{spaceID: spaceID, day: d}]; ok {
				out = append(out, copyRule(rule))
			}
		}
		return nil
	})
	return out, err
}

func (r availabilityRepo) UpsertRule(_ context.Context, rule domain.AvailabilityRule) error {
	const op = "memory.AvailabilityRepo.UpsertRule"

	return r.v.do(func(st *state) error {
		if _, ok := st.spaces[rule.SpaceID]; !ok {
			return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
		}
		st.rules[ruleKey{spaceID: rule.SpaceID, day: rule.Day}] = copyRule(rule)
		return nil
	})
}

func copyRule(rule domain.AvailabilityRule) domain.AvailabilityRule {
	rule.TimeRanges = append([]domain.RuleRange{}, rule.TimeRanges...)
	return rule
}

type eventRepo struct{ v view }

func (r eventRepo) CreateEvent(_ context.Context, e domain.Event) error {
	const op = "memory.EventRepo.CreateEvent"

	return r.v.do(func(st *state) error {
		if _, ok := st.events[e.ID]; ok {
			return fmt.Errorf("%s:%w", op, repository.ErrConflict)
		}
		st.events[e.ID] = e
		return nil
	})
}

func (r eventRepo) ListUpcomingEvents(_ context.Context, after time.Time) ([]domain.Event, error) {
	var out []domain.Event
	err := r.v.do(func(st *state) error {
		for _, e := range st.events {
			if e.StartsAt.After(after) {
				out = append(out, e)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartsAt.Equal(out[j].StartsAt) {
			return out[i].StartsAt.Before(out[j].StartsAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, err
}
