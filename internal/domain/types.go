package domain

import (
	"time"

	"github.com/google/uuid"
)

type Weekday string

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
	Sunday    Weekday = "sunday"
)

// Weekdays lists the days in calendar order starting on Monday.
var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// WeekdayOf maps a calendar date to its day of week.
func WeekdayOf(t time.Time) Weekday {
	switch t.Weekday() {
	case time.Monday:
		return Monday
	case time.Tuesday:
		return Tuesday
	case time.Wednesday:
		return Wednesday
	case time.Thursday:
		return Thursday
	case time.Friday:
		return Friday
	case time.Saturday:
		return Saturday
	default:
		return Sunday
	}
}

// ParseWeekday accepts the lower-case day names used in storage and URLs.
func ParseWeekday(s string) (Weekday, bool) {
	for _, d := range Weekdays {
		if string(d) == s {
			return d, true
		}
	}
	return "", false
}

type Space struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Name      string    `json:"name"`
	Capacity  int       `json:"capacity"`
	CreatedAt time.Time `json:"created_at"`
}

func (s Space) IsOwner(actorID uuid.UUID) bool {
	return actorID != uuid.Nil && s.OwnerID == actorID
}

// RuleRange is a time-of-day range exactly as the owner authored it ("09:00" - "12:30").
// Values are kept as strings so malformed entries survive storage and can be skipped
// individually at resolution time.
type RuleRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type AvailabilityRule struct {
	SpaceID     uuid.UUID   `json:"space_id"`
	Day         Weekday     `json:"day_of_week"`
	IsAvailable bool        `json:"is_available"`
	TimeRanges  []RuleRange `json:"time_ranges"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// TimeRange is a half-open wall-clock interval [Start, End).
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (r TimeRange) Valid() bool {
	return !r.Start.IsZero() && !r.End.IsZero() && r.Start.Before(r.End)
}

// Overlaps reports whether two half-open intervals share any instant.
// Touching boundaries (r.End == o.Start) do not overlap.
func (r TimeRange) Overlaps(o TimeRange) bool {
	return r.Start.Before(o.End) && o.Start.Before(r.End)
}

// Contains reports whether o lies entirely within r.
func (r TimeRange) Contains(o TimeRange) bool {
	return !o.Start.Before(r.Start) && !o.End.After(r.End)
}

type Booking struct {
	ID            uuid.UUID    `json:"id"`
	SpaceID       uuid.UUID    `json:"space_id"`
	UserID        uuid.UUID    `json:"user_id"`
	Start         time.Time    `json:"start_time"`
	End           time.Time    `json:"end_time"`
	Status        Status       `json:"status"`
	AttendeeCount int          `json:"attendee_count"`
	Notes         BookingNotes `json:"notes"`
	DecidedBy     *uuid.UUID   `json:"decided_by,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

func (b Booking) Range() TimeRange {
	return TimeRange{Start: b.Start, End: b.End}
}

// Ranges projects bookings onto their intervals.
func Ranges(bookings []Booking) []TimeRange {
	out := make([]TimeRange, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, b.Range())
	}
	return out
}

type Event struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	StartsAt  time.Time `json:"starts_at"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	CreatedBy uuid.UUID `json:"created_by"`
}

// Location is a place a user saved for location-triggered suggestions.
type Location struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	Name       string    `json:"name"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	RadiusKm   float64   `json:"radius_km"`
	VisitCount int       `json:"visit_count"`
}

type SuggestedClass struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"user_id"`
	EventID        uuid.UUID `json:"event_id"`
	LocationID     uuid.UUID `json:"location_id"`
	DistanceKm     float64   `json:"distance_km"`
	RelevanceScore float64   `json:"relevance_score"`
	Dismissed      bool      `json:"dismissed"`
	EventStartsAt  time.Time `json:"event_starts_at"`
	CreatedAt      time.Time `json:"created_at"`
}
