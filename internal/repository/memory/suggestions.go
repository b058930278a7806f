package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/kirinyoku/spacebook/internal/domain"
	"github.com/kirinyoku/spacebook/internal/repository"
	"github.com/kirinyoku/spacebook/internal/suggest"
)

type locationRepo struct{ v view }

func (r locationRepo) SaveLocation(_ context.Context, l domain.Location) error {
	return r.v.do(func(st *state) error {
		st.locations[l.ID] = l
		return nil
	})
}

func (r locationRepo) GetLocation(_ context.Context, id uuid.UUID) (domain.Location, error) {
	const op = "memory.LocationRepo.GetLocation"

	var out domain.Location
	err := r.v.do(func(st *state) error {
		l, ok := st.locations[id]
		if !ok {
			return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
		}
		out = l
		return nil
	})
	return out, err
}

func (r locationRepo) ListLocations(_ context.Context, userID uuid.UUID) ([]domain.Location, error) {
	out := make([]domain.Location, 0)
	err := r.v.do(func(st *state) error {
		for _, l := range st.locations {
			if l.UserID == userID {
				out = append(out, l)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, err
}

func (r locationRepo) IncrementVisit(_ context.Context, id uuid.UUID) (domain.Location, error) {
	const op = "memory.LocationRepo.IncrementVisit"

	var out domain.Location
	err := r.v.do(func(st *state) error {
		l, ok := st.locations[id]
		if !ok {
			return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
		}
		l.VisitCount++
		st.locations[id] = l
		out = l
		return nil
	})
	return out, err
}

type suggestionRepo struct{ v view }

type triple struct {
	user, event, location uuid.UUID
}

func (r suggestionRepo) InsertSuggestions(_ context.Context, ss []domain.SuggestedClass) (int, error) {
	added := 0
	err := r.v.do(func(st *state) error {
		seen := make(map[triple]struct{}, len(st.suggestions))
		for _, s := range st.suggestions {
			seen[triple{s.UserID, s.EventID, s.LocationID}] = struct{}{}
		}
		for _, s := range ss {
			k := triple{s.UserID, s.EventID, s.LocationID}
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			st.suggestions[s.ID] = s
			added++
		}
		return nil
	})
	return added, err
}

func (r suggestionRepo) GetSuggestion(_ context.Context, id uuid.UUID) (domain.SuggestedClass, error) {
	const op = "memory.SuggestionRepo.GetSuggestion"

	var out domain.SuggestedClass
	err := r.v.do(func(st *state) error {
		s, ok := st.suggestions[id]
		if !ok {
			return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
		}
		out = s
		return nil
	})
	return out, err
}

func (r suggestionRepo) ListSuggestions(_ context.Context, userID uuid.UUID) ([]domain.SuggestedClass, error) {
	out := make([]domain.SuggestedClass, 0)
	err := r.v.do(func(st *state) error {
		for _, s := range st.suggestions {
			if s.UserID == userID && !s.Dismissed {
				out = append(out, s)
			}
		}
		return nil
	})
	suggest.RankSuggestions(out)
	return out, err
}

func (r suggestionRepo) DismissSuggestion(_ context.Context, id uuid.UUID) error {
	const op = "memory.SuggestionRepo.DismissSuggestion"

	return r.v.do(func(st *state) error {
		s, ok := st.suggestions[id]
		if !ok {
			return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
		}
		s.Dismissed = true
		st.suggestions[id] = s
		return nil
	})
}
