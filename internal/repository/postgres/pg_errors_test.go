package postgres

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/kirinyoku/spacebook/internal/domain"
	"github.com/kirinyoku/spacebook/internal/repository"
)

func TestTranslateDBErr(t *testing.T) {
	tests := []struct {
		in   error
		want error
	}{
		{pgx.ErrNoRows, repository.ErrNotFound},
		{&pgconn.PgError{Code: "23505"}, repository.ErrConflict},
		{&pgconn.PgError{Code: "23P01"}, repository.ErrOverlap},
		{fmt.Errorf("commit: %w", &pgconn.PgError{Code: "40001"}), repository.ErrSerialization},
		{&pgconn.PgError{Code: "40P01"}, repository.ErrSerialization},
	}

	for _, tt := range tests {
		assert.ErrorIs(t, translateDBErr(tt.in), tt.want)
	}

	other := errors.New("connection refused")
	assert.Equal(t, other, translateDBErr(other))
	assert.NoError(t, translateDBErr(nil))
}

func TestDecodeRangesKeepsGoodEntries(t *testing.T) {
	raw := []byte(`[{"start":"09:00","end":"12:00"}, 42, {"start":"13:00"}]`)

	got := decodeRanges(raw)

	assert.Equal(t, []domain.RuleRange{
		{Start: "09:00", End: "12:00"},
		{},
		{Start: "13:00"},
	}, got)
	assert.Empty(t, decodeRanges([]byte(`{"not":"a list"}`)))
}

func TestWallAndStampPreserveClockFields(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	c := conn{loc: loc}

	local := time.Date(2030, time.March, 4, 10, 30, 0, 0, loc)
	stored := stamp(local)

	assert.Equal(t, 10, stored.Hour())
	assert.Equal(t, time.UTC, stored.Location())
	assert.True(t, c.wall(stored).Equal(local))
}
