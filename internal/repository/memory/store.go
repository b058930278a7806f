// Package memory is an in-process repository.Store. Transactions are serialised by a
// single lock and rolled back by restoring a snapshot.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/kirinyoku/spacebook/internal/domain"
	"github.com/kirinyoku/spacebook/internal/repository"
)

type ruleKey struct {
	spaceID uuid.UUID
	day     domain.Weekday
}

type state struct {
	spaces      map[uuid.UUID]domain.Space
	rules       map[ruleKey]domain.AvailabilityRule
	bookings    map[uuid.UUID]domain.Booking
	events      map[uuid.UUID]domain.Event
	locations   map[uuid.UUID]domain.Location
	suggestions map[uuid.UUID]domain.SuggestedClass
}

func newState() *state {
	return &state{
		spaces:      make(map[uuid.UUID]domain.Space),
		rules:       make(map[ruleKey]domain.AvailabilityRule),
		bookings:    make(map[uuid.UUID]domain.Booking),
		events:      make(map[uuid.UUID]domain.Event),
		locations:   make(map[uuid.UUID]domain.Location),
		suggestions: make(map[uuid.UUID]domain.SuggestedClass),
	}
}

// clone copies every map. Values are replaced wholesale on write, never mutated in place,
// so a shallow copy of each entry is enough.
func (st *state) clone() *state {
	cp := newState()
	for k, v := range st.spaces {
		cp.spaces[k] = v
	}
	for k, v := range st.rules {
		cp.rules[k] = v
	}
	for k, v := range st.bookings {
		cp.bookings[k] = v
	}
	for k, v := range st.events {
		cp.events[k] = v
	}
	for k, v := range st.locations {
		cp.locations[k] = v
	}
	for k, v := range st.suggestions {
		cp.suggestions[k] = v
	}
	return cp
}

type Store struct {
	mu   sync.Mutex
	data *state
	view
}

var _ repository.Store = (*Store)(nil)

func NewStore() *Store {
	s := &Store{data: newState()}
	s.view = view{s: s}
	return s
}

func (s *Store) RunTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	if err := fn(ctx, view{s: s, inTx: true}); err != nil {
		s.data = snapshot
		return err
	}

	return nil
}

// view routes repository calls to the store. Outside a transaction every call takes the
// store lock for itself.
type view struct {
	s    *Store
	inTx bool
}

func (v view) do(fn func(st *state) error) error {
	if !v.inTx {
		v.s.mu.Lock()
		defer v.s.mu.Unlock()
	}
	return fn(v.s.data)
}

func (v view) Spaces() repository.SpaceRepository               { return spaceRepo{v} }
func (v view) Availability() repository.AvailabilityRepository { return availabilityRepo{v} }
func (v view) Bookings() repository.BookingRepository           { return bookingRepo{v} }
func (v view) Events() repository.EventRepository               { return eventRepo{v} }
func (v view) Locations() repository.LocationRepository         { return locationRepo{v} }
func (v view) Suggestions() repository.SuggestionRepository     { return suggestionRepo{v} }
