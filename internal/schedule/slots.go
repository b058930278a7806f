package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kirinyoku/spacebook/internal/domain"
)

const endOfDay = "24:00"

// ParseTimeOfDay parses "HH:MM" or "HH:MM:SS" into an offset from midnight.
// "24:00" is accepted and means the end of the day.
func ParseTimeOfDay(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == endOfDay || s == endOfDay+":00" {
		return 24 * time.Hour, nil
	}

	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("time of day %q: want HH:MM", s)
	}

	limits := []int{23, 59, 59}
	var d time.Duration
	units := []time.Duration{time.Hour, time.Minute, time.Second}
	for i, p := range parts {
		if len(p) != 2 {
			return 0, fmt.Errorf("time of day %q: want two digits per field", s)
		}
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 || v > limits[i] {
			return 0, fmt.Errorf("time of day %q: field %d out of range", s, i)
		}
		d += time.Duration(v) * units[i]
	}

	return d, nil
}

// DateOf truncates t to midnight in its own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ResolveSlots turns one weekly rule into the bookable ranges of a calendar date.
//
// Ranges come back in stored order, unsorted and unmerged. A missing rule, a closed day,
// an empty range list or a weekday mismatch yields an empty result. Malformed ranges
// are skipped one by one.
func ResolveSlots(rule *domain.AvailabilityRule, date time.Time) []domain.TimeRange {
	if rule == nil || !rule.IsAvailable || len(rule.TimeRanges) == 0 {
		return []domain.TimeRange{}
	}

	day := DateOf(date)
	if domain.WeekdayOf(day) != rule.Day {
		return []domain.TimeRange{}
	}

	out := make([]domain.TimeRange, 0, len(rule.TimeRanges))
	for _, rr := range rule.TimeRanges {
		tr, ok := resolveRange(day, rr)
		if !ok {
			continue
		}
		out = append(out, tr)
	}

	return out
}

func resolveRange(day time.Time, rr domain.RuleRange) (domain.TimeRange, bool) {
	if rr.Start == "" || rr.End == "" {
		return domain.TimeRange{}, false
	}

	start, err := ParseTimeOfDay(rr.Start)
	if err != nil || start >= 24*time.Hour {
		return domain.TimeRange{}, false
	}

	end, err := ParseTimeOfDay(rr.End)
	if err != nil || end <= start {
		return domain.TimeRange{}, false
	}

	return domain.TimeRange{
		Start: wallClock(day, start),
		End:   wallClock(day, end),
	}, true
}

// wallClock adds a time-of-day offset using calendar fields so DST shifts in the
// configured location do not move the hour.
func wallClock(day time.Time, offset time.Duration) time.Time {
	y, m, d := day.Date()
	h := int(offset / time.Hour)
	mi := int(offset % time.Hour / time.Minute)
	s := int(offset % time.Minute / time.Second)
	return time.Date(y, m, d, h, mi, s, 0, day.Location())
}

// WithinAny reports whether proposed fits entirely inside one of the slots.
func WithinAny(slots []domain.TimeRange, proposed domain.TimeRange) bool {
	for _, s := range slots {
		if s.Contains(proposed) {
			return true
		}
	}
	return false
}
