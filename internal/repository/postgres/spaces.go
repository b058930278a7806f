package postgres

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/kirinyoku/spacebook/internal/domain"
)

type SpaceRepo struct {
	conn
}

func (r *SpaceRepo) CreateSpace(ctx context.Context, s domain.Space) error {
	const op = "postgres.SpaceRepo.CreateSpace"

	_, err := r.db.Exec(ctx,
		`INSERT INTO spaces (id, owner_id, name, capacity, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		s.ID, s.OwnerID, s.Name, s.Capacity, stamp(s.CreatedAt),
	)
	return wrap(op, err)
}

func (r *SpaceRepo) GetSpace(ctx context.Context, id uuid.UUID) (domain.Space, error) {
	const op = "postgres.SpaceRepo.GetSpace"

	return r.getSpace(ctx, op,
		`SELECT id, owner_id, name, capacity, created_at FROM spaces WHERE id = $1`, id)
}

// LockSpace takes the row lock that orders booking writers on one space.
func (r *SpaceRepo) LockSpace(ctx context.Context, id uuid.UUID) (domain.Space, error) {
	const op = "postgres.SpaceRepo.LockSpace"

	return r.getSpace(ctx, op,
		`SELECT id, owner_id, name, capacity, created_at FROM spaces WHERE id = $1 FOR UPDATE`, id)
}

func (r *SpaceRepo) getSpace(ctx context.Context, op, query string, id uuid.UUID) (domain.Space, error) {
	var s domain.Space
	if err := r.db.QueryRow(ctx, query, id).
		Scan(&s.ID, &s.OwnerID, &s.Name, &s.Capacity, &s.CreatedAt); err != nil {
		return domain.Space{}, wrap(op, err)
	}
	s.CreatedAt = r.wall(s.CreatedAt)

	return s, nil
}

type AvailabilityRepo struct {
	conn
}

func (r *AvailabilityRepo) GetRule(ctx context.Context, spaceID uuid.UUID, day domain.Weekday) (domain.AvailabilityRule, error) {
	const op = "postgres.AvailabilityRepo.GetRule"

	row := r.db.QueryRow(ctx,
		`SELECT space_id, day_of_week, is_available, time_ranges, updated_at
		 FROM availability_rules
		 WHERE space_id = $1 AND day_of_week = $2`,
		spaceID, string(day),
	)

	rule, err := r.scanRule(row)
	if err != nil {
		return domain.AvailabilityRule{}, wrap(op, err)
	}

	return rule, nil
}

func (r *AvailabilityRepo) ListRules(ctx context.Context, spaceID uuid.UUID) ([]domain.AvailabilityRule, error) {
	const op = "postgres.AvailabilityRepo.ListRules"

	rows, err := r.db.Query(ctx,
		`SELECT space_id, day_of_week, is_available, time_ranges, updated_at
		 FROM availability_rules
		 WHERE space_id = $1`,
		spaceID,
	)
	if err != nil {
		return nil, wrap(op, err)
	}

	defer rows.Close()

	byDay := make(map[domain.Weekday]domain.AvailabilityRule, len(domain.Weekdays))
	for rows.Next() {
		rule, err := r.scanRule(rows)
		if err != nil {
			return nil, wrap(op, err)
		}
		byDay[rule.Day] = rule
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(op, err)
	}

	out := make([]domain.AvailabilityRule, 0, len(byDay))
	for _, d := range domain.Weekdays {
		if rule, ok := byDay[d]; ok {
			out = append(out, rule)
		}
	}

	return out, nil
}

func (r *AvailabilityRepo) UpsertRule(ctx context.Context, rule domain.AvailabilityRule) error {
	const op = "postgres.AvailabilityRepo.UpsertRule"

	ranges := rule.TimeRanges
	if ranges == nil {
		ranges = []domain.RuleRange{}
	}
	b, err := json.Marshal(ranges)
	if err != nil {
		return wrap(op, err)
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO availability_rules (space_id, day_of_week, is_available, time_ranges, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (space_id, day_of_week) DO UPDATE
		 SET is_available = EXCLUDED.is_available,
		     time_ranges  = EXCLUDED.time_ranges,
		     updated_at   = EXCLUDED.updated_at`,
		rule.SpaceID, string(rule.Day), rule.IsAvailable, b, stamp(rule.UpdatedAt),
	)
	return wrap(op, err)
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *AvailabilityRepo) scanRule(row scanner) (domain.AvailabilityRule, error) {
	var (
		rule   domain.AvailabilityRule
		day    string
		ranges []byte
	)
	if err := row.Scan(&rule.SpaceID, &day, &rule.IsAvailable, &ranges, &rule.UpdatedAt); err != nil {
		return domain.AvailabilityRule{}, err
	}

	rule.Day = domain.Weekday(day)
	rule.TimeRanges = decodeRanges(ranges)
	rule.UpdatedAt = r.wall(rule.UpdatedAt)

	return rule, nil
}

// decodeRanges decodes element by element so that one hand-edited bad entry turns into an
// empty range the resolver skips, instead of hiding the whole day.
func decodeRanges(raw []byte) []domain.RuleRange {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return []domain.RuleRange{}
	}

	out := make([]domain.RuleRange, 0, len(elems))
	for _, e := range elems {
		var rr domain.RuleRange
		if err := json.Unmarshal(e, &rr); err != nil {
			rr = domain.RuleRange{}
		}
		out = append(out, rr)
	}

	return out
}
