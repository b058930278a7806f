package schedule

import "github.com/kirinyoku/spacebook/internal/domain"

// Verdict is the outcome of a conflict check.
type Verdict struct {
	Admit bool
	// Conflicting is the first existing range that overlaps the proposal when Admit is false.
	Conflicting domain.TimeRange
}

// CheckConflict admits proposed when it overlaps none of existing.
//
// existing must already be restricted to one space's active bookings; the checker has no
// notion of spaces or statuses.
func CheckConflict(existing []domain.TimeRange, proposed domain.TimeRange) Verdict {
	for _, e := range existing {
		if e.Overlaps(proposed) {
			return Verdict{Admit: false, Conflicting: e}
		}
	}
	return Verdict{Admit: true}
}

// CapacityAllows reports whether attendees fit a space of the given capacity.
func CapacityAllows(capacity, attendees int) bool {
	return attendees <= capacity
}
