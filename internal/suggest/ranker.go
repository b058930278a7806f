// Package suggest ranks upcoming events against a user's saved locations.
package suggest

import (
	"math"
	"sort"

	"github.com/kirinyoku/spacebook/internal/domain"
)

const (
	earthRadiusKm = 6371.0

	proximityWeight = 0.7
	frequencyWeight = 0.3

	// visitsForFullFrequency is the visit count at which the frequency term saturates.
	visitsForFullFrequency = 10
)

// Candidate is one (event, location) pairing within reach.
type Candidate struct {
	Event      domain.Event
	Location   domain.Location
	DistanceKm float64
	Score      float64
}

// DistanceKm is the great-circle distance between two coordinates.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	φ1 := lat1 * math.Pi / 180
	φ2 := lat2 * math.Pi / 180
	dφ := (lat2 - lat1) * math.Pi / 180
	dλ := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dφ/2)*math.Sin(dφ/2) + math.Cos(φ1)*math.Cos(φ2)*math.Sin(dλ/2)*math.Sin(dλ/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(a)))
}

// Score combines proximity and visit frequency into [0,1].
func Score(distanceKm, maxRadiusKm float64, visits int) float64 {
	proximity := 0.0
	if maxRadiusKm > 0 {
		proximity = 1 - distanceKm/maxRadiusKm
	}
	frequency := math.Min(float64(visits)/visitsForFullFrequency, 1)
	if frequency < 0 {
		frequency = 0
	}

	return clamp(proximityWeight*proximity+frequencyWeight*frequency, 0, 1)
}

// EffectiveRadius caps a location's own radius at the global maximum.
// A non-positive location radius falls back to the maximum.
func EffectiveRadius(loc domain.Location, maxRadiusKm float64) float64 {
	if loc.RadiusKm <= 0 || loc.RadiusKm > maxRadiusKm {
		return maxRadiusKm
	}
	return loc.RadiusKm
}

// Candidates pairs every location with every event inside its radius and returns them ranked.
func Candidates(events []domain.Event, locations []domain.Location, maxRadiusKm float64) []Candidate {
	out := make([]Candidate, 0)
	for _, loc := range locations {
		radius := EffectiveRadius(loc, maxRadiusKm)
		if radius <= 0 {
			continue
		}
		for _, ev := range events {
			d := DistanceKm(loc.Latitude, loc.Longitude, ev.Latitude, ev.Longitude)
			if d > radius {
				continue
			}
			out = append(out, Candidate{
				Event:      ev,
				Location:   loc,
				DistanceKm: d,
				Score:      Score(d, radius, loc.VisitCount),
			})
		}
	}

	Rank(out)
	return out
}

// Rank orders candidates by score desc, then distance asc, then event start asc, then event id.
func Rank(cs []Candidate) {
	sort.SliceStable(cs, func(i, j int) bool {
		return less(cs[i].Score, cs[i].DistanceKm, cs[i].Event, cs[j].Score, cs[j].DistanceKm, cs[j].Event)
	})
}

// RankSuggestions applies the same order to stored suggestions.
func RankSuggestions(ss []domain.SuggestedClass) {
	sort.SliceStable(ss, func(i, j int) bool {
		a, b := ss[i], ss[j]
		return less(
			a.RelevanceScore, a.DistanceKm, domain.Event{ID: a.EventID, StartsAt: a.EventStartsAt},
			b.RelevanceScore, b.DistanceKm, domain.Event{ID: b.EventID, StartsAt: b.EventStartsAt},
		)
	})
}

func less(sa, da float64, ea domain.Event, sb, db float64, eb domain.Event) bool {
	if sa != sb {
		return sa > sb
	}
	if da != db {
		return da < db
	}
	if !ea.StartsAt.Equal(eb.StartsAt) {
		return ea.StartsAt.Before(eb.StartsAt)
	}
	return ea.ID.String() < eb.ID.String()
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
