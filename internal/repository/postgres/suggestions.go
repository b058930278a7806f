package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/kirinyoku/spacebook/internal/domain"
)

type EventRepo struct {
	conn
}

func (r *EventRepo) CreateEvent(ctx context.Context, e domain.Event) error {
	const op = "postgres.EventRepo.CreateEvent"

	_, err := r.db.Exec(ctx,
		`INSERT INTO events (id, title, starts_at, latitude, longitude, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.Title, stamp(e.StartsAt), e.Latitude, e.Longitude, e.CreatedBy,
	)
	return wrap(op, err)
}

func (r *EventRepo) ListUpcomingEvents(ctx context.Context, after time.Time) ([]domain.Event, error) {
	const op = "postgres.EventRepo.ListUpcomingEvents"

	rows, err := r.db.Query(ctx,
		`SELECT id, title, starts_at, latitude, longitude, created_by
		 FROM events
		 WHERE starts_at > $1
		 ORDER BY starts_at, id`,
		stamp(after),
	)
	if err != nil {
		return nil, wrap(op, err)
	}

	defer rows.Close()

	var out []domain.Event
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.ID, &e.Title, &e.StartsAt, &e.Latitude, &e.Longitude, &e.CreatedBy); err != nil {
			return nil, wrap(op, err)
		}
		e.StartsAt = r.wall(e.StartsAt)
		out = append(out, e)
	}

	return out, wrap(op, rows.Err())
}

type LocationRepo struct {
	conn
}

const locationColumns = `id, user_id, name, latitude, longitude, radius_km, visit_count`

func (r *LocationRepo) SaveLocation(ctx context.Context, l domain.Location) error {
	const op = "postgres.LocationRepo.SaveLocation"

	_, err := r.db.Exec(ctx,
		`INSERT INTO locations (`+locationColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO UPDATE
		 SET name = EXCLUDED.name,
		     latitude = EXCLUDED.latitude,
		     longitude = EXCLUDED.longitude,
		     radius_km = EXCLUDED.radius_km`,
		l.ID, l.UserID, l.Name, l.Latitude, l.Longitude, l.RadiusKm, l.VisitCount,
	)
	return wrap(op, err)
}

func (r *LocationRepo) GetLocation(ctx context.Context, id uuid.UUID) (domain.Location, error) {
	const op = "postgres.LocationRepo.GetLocation"

	l, err := scanLocation(r.db.QueryRow(ctx,
		`SELECT `+locationColumns+` FROM locations WHERE id = $1`, id))
	if err != nil {
		return domain.Location{}, wrap(op, err)
	}

	return l, nil
}

func (r *LocationRepo) ListLocations(ctx context.Context, userID uuid.UUID) ([]domain.Location, error) {
	const op = "postgres.LocationRepo.ListLocations"

	rows, err := r.db.Query(ctx,
		`SELECT `+locationColumns+` FROM locations WHERE user_id = $1 ORDER BY name, id`, userID)
	if err != nil {
		return nil, wrap(op, err)
	}

	defer rows.Close()

	out := make([]domain.Location, 0)
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, wrap(op, err)
		}
		out = append(out, l)
	}

	return out, wrap(op, rows.Err())
}

func (r *LocationRepo) IncrementVisit(ctx context.Context, id uuid.UUID) (domain.Location, error) {
	const op = "postgres.LocationRepo.IncrementVisit"

	l, err := scanLocation(r.db.QueryRow(ctx,
		`UPDATE locations SET visit_count = visit_count + 1
		 WHERE id = $1
		 RETURNING `+locationColumns, id))
	if err != nil {
		return domain.Location{}, wrap(op, err)
	}

	return l, nil
}

func scanLocation(row scanner) (domain.Location, error) {
	var l domain.Location
	err := row.Scan(&l.ID, &l.UserID, &l.Name, &l.Latitude, &l.Longitude, &l.RadiusKm, &l.VisitCount)
	return l, err
}

type SuggestionRepo struct {
	conn
}

// InsertSuggestions queues one insert per row in a batch. ON CONFLICT DO NOTHING
// keeps existing triples, dismissed ones included.
func (r *SuggestionRepo) InsertSuggestions(ctx context.Context, ss []domain.SuggestedClass) (int, error) {
	const op = "postgres.SuggestionRepo.InsertSuggestions"

	if len(ss) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, s := range ss {
		batch.Queue(
			`INSERT INTO suggested_classes
			   (id, user_id, event_id, location_id, distance_km, relevance_score, dismissed, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7)
			 ON CONFLICT (user_id, event_id, location_id) DO NOTHING`,
			s.ID, s.UserID, s.EventID, s.LocationID, s.DistanceKm, s.RelevanceScore, stamp(s.CreatedAt),
		)
	}

	br := r.db.SendBatch(ctx, batch)
	defer br.Close()

	added := 0
	for range ss {
		tag, err := br.Exec()
		if err != nil {
			return added, wrap(op, err)
		}
		added += int(tag.RowsAffected())
	}

	return added, nil
}

const suggestionSelect = `SELECT s.id, s.user_id, s.event_id, s.location_id, s.distance_km,
	s.relevance_score, s.dismissed, e.starts_at, s.created_at
	FROM suggested_classes s
	JOIN events e ON e.id = s.event_id`

func (r *SuggestionRepo) GetSuggestion(ctx context.Context, id uuid.UUID) (domain.SuggestedClass, error) {
	const op = "postgres.SuggestionRepo.GetSuggestion"

	s, err := r.scanSuggestion(r.db.QueryRow(ctx, suggestionSelect+` WHERE s.id = $1`, id))
	if err != nil {
		return domain.SuggestedClass{}, wrap(op, err)
	}

	return s, nil
}

func (r *SuggestionRepo) ListSuggestions(ctx context.Context, userID uuid.UUID) ([]domain.SuggestedClass, error) {
	const op = "postgres.SuggestionRepo.ListSuggestions"

	rows, err := r.db.Query(ctx,
		suggestionSelect+`
		 WHERE s.user_id = $1 AND NOT s.dismissed
		 ORDER BY s.relevance_score DESC, s.distance_km ASC, e.starts_at ASC, s.event_id ASC`,
		userID,
	)
	if err != nil {
		return nil, wrap(op, err)
	}

	defer rows.Close()

	out := make([]domain.SuggestedClass, 0)
	for rows.Next() {
		s, err := r.scanSuggestion(rows)
		if err != nil {
			return nil, wrap(op, err)
		}
		out = append(out, s)
	}

	return out, wrap(op, rows.Err())
}

func (r *SuggestionRepo) DismissSuggestion(ctx context.Context, id uuid.UUID) error {
	const op = "postgres.SuggestionRepo.DismissSuggestion"

	tag, err := r.db.Exec(ctx, `UPDATE suggested_classes SET dismissed = TRUE WHERE id = $1`, id)
	if err != nil {
		return wrap(op, err)
	}
	if tag.RowsAffected() == 0 {
		return wrap(op, pgx.ErrNoRows)
	}

	return nil
}

func (r *SuggestionRepo) scanSuggestion(row scanner) (domain.SuggestedClass, error) {
	var s domain.SuggestedClass
	if err := row.Scan(
		&s.ID, &s.UserID, &s.EventID, &s.LocationID, &s.DistanceKm,
		&s.RelevanceScore, &s.Dismissed, &s.EventStartsAt, &s.CreatedAt,
	); err != nil {
		return domain.SuggestedClass{}, err
	}
	s.EventStartsAt = r.wall(s.EventStartsAt)
	s.CreatedAt = r.wall(s.CreatedAt)

	return s, nil
}
