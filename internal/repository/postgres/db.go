package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kirinyoku/spacebook/internal/repository"
)

type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Store implements repository.Store on a pgx pool.
//
// Timestamps are stored as TIMESTAMP (no zone). pgx hands them back in UTC, so every
// repository re-attaches loc to the wall-clock fields it reads.
type Store struct {
	pool *pgxpool.Pool
	loc  *time.Location
	conn
}

var _ repository.Store = (*Store)(nil)

func NewStore(pool *pgxpool.Pool, loc *time.Location) *Store {
	if loc == nil {
		loc = time.Local
	}
	return &Store{
		pool: pool,
		loc:  loc,
		conn: conn{db: pool, loc: loc},
	}
}

// RunTx runs fn in a READ COMMITTED transaction. Writers on the same space are ordered by
// the row lock SpaceRepository.LockSpace takes, so each one sees what the previous committed.
func (s *Store) RunTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	const op = "postgres.Store.RunTx"

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer tx.Rollback(ctx)

	if err := fn(ctx, conn{db: tx, loc: s.loc}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: commit:%w", op, translateDBErr(err))
	}

	return nil
}

// conn binds the repositories to either the pool or an open transaction.
type conn struct {
	db  DB
	loc *time.Location
}

func (c conn) Spaces() repository.SpaceRepository               { return &SpaceRepo{conn: c} }
func (c conn) Availability() repository.AvailabilityRepository { return &AvailabilityRepo{conn: c} }
func (c conn) Bookings() repository.BookingRepository           { return &BookingRepo{conn: c} }
func (c conn) Events() repository.EventRepository               { return &EventRepo{conn: c} }
func (c conn) Locations() repository.LocationRepository         { return &LocationRepo{conn: c} }
func (c conn) Suggestions() repository.SuggestionRepository     { return &SuggestionRepo{conn: c} }

// wall re-reads a TIMESTAMP value as wall-clock time in the configured location.
func (c conn) wall(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), c.loc)
}

// stamp drops the zone so the wall-clock fields are what reaches the TIMESTAMP column.
func stamp(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s:%w", op, translateDBErr(err))
}
