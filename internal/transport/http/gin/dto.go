package httpgin

import (
	"fmt"
	"strings"
	"time"

	"github.com/kirinyoku/spacebook/internal/domain"
)

const (
	wallLayout = "2006-01-02T15:04"
	dateLayout = "2006-01-02"
)

type CreateSpaceRequest struct {
	Name     string `json:"name" binding:"required"`
	Capacity int    `json:"capacity" binding:"required,gt=0"`
}

type RangeInput struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type SetAvailabilityRequest struct {
	IsAvailable *bool        `json:"is_available" binding:"required"`
	TimeRanges  []RangeInput `json:"time_ranges"`
}

// CreateBookingRequest carries wall-clock times ("2030-01-07T10:00"). Missing fields are
// reported by the booking workflow, not by binding.
type CreateBookingRequest struct {
	StartTime     string              `json:"start_time"`
	EndTime       string              `json:"end_time"`
	AttendeeCount int                 `json:"attendee_count"`
	Notes         domain.BookingNotes `json:"notes"`
}

type SaveLocationRequest struct {
	Name      string   `json:"name" binding:"required"`
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
	RadiusKm  float64  `json:"radius_km"`
}

type CreateEventRequest struct {
	Title     string   `json:"title" binding:"required"`
	StartsAt  string   `json:"starts_at" binding:"required"`
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type SlotResponse struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type SlotsResponse struct {
	SpaceID string         `json:"space_id"`
	Date    string         `json:"date"`
	Slots   []SlotResponse `json:"slots"`
}

type BookingResponse struct {
	ID            string              `json:"id"`
	SpaceID       string              `json:"space_id"`
	UserID        string              `json:"user_id"`
	StartTime     string              `json:"start_time"`
	EndTime       string              `json:"end_time"`
	Status        domain.Status       `json:"status"`
	AttendeeCount int                 `json:"attendee_count"`
	Notes         domain.BookingNotes `json:"notes"`
	DecidedBy     *string             `json:"decided_by,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

type GenerateSuggestionsResponse struct {
	Created int `json:"created"`
}

func toBookingResponse(b domain.Booking) BookingResponse {
	resp := BookingResponse{
		ID:            b.ID.String(),
		SpaceID:       b.SpaceID.String(),
		UserID:        b.UserID.String(),
		StartTime:     b.Start.Format(wallLayout),
		EndTime:       b.End.Format(wallLayout),
		Status:        b.Status,
		AttendeeCount: b.AttendeeCount,
		Notes:         b.Notes,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
	if b.DecidedBy != nil {
		s := b.DecidedBy.String()
		resp.DecidedBy = &s
	}
	return resp
}

func toBookingResponses(bs []domain.Booking) []BookingResponse {
	out := make([]BookingResponse, 0, len(bs))
	for _, b := range bs {
		out = append(out, toBookingResponse(b))
	}
	return out
}

func toSlotsResponse(spaceID string, date time.Time, slots []domain.TimeRange) SlotsResponse {
	out := SlotsResponse{
		SpaceID: spaceID,
		Date:    date.Format(dateLayout),
		Slots:   make([]SlotResponse, 0, len(slots)),
	}
	for _, s := range slots {
		out.Slots = append(out.Slots, SlotResponse{
			Start: s.Start.Format(wallLayout),
			End:   s.End.Format(wallLayout),
		})
	}
	return out
}

func toRuleRanges(in []RangeInput) []domain.RuleRange {
	out := make([]domain.RuleRange, 0, len(in))
	for _, r := range in {
		out = append(out, domain.RuleRange{Start: r.Start, End: r.End})
	}
	return out
}

var wallLayouts = []string{wallLayout, "2006-01-02T15:04:05", "2006-01-02 15:04"}

// parseWallClock reads a local date-time in loc. RFC3339 input is accepted but its
// offset is dropped: the clock fields are kept as written. Empty input yields the
// zero time.
func parseWallClock(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc), nil
	}

	for _, layout := range wallLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("invalid date-time %q, want YYYY-MM-DDTHH:MM", s)
}

func parseDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return t, nil
}
