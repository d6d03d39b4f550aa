// Package geo holds the geofencing math used by room discovery and the
// message proximity gate.
package geo

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
)

// EarthRadiusMeters is the mean Earth radius used by Distance.
const EarthRadiusMeters = 6371000.0

type Point struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

// Valid reports whether p is a real coordinate.
func Valid(p Point) bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

func toRad(deg float64) float64 { return deg * math.Pi / 180 }

// Distance returns the haversine great-circle distance between a and b in meters.
func Distance(a, b Point) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)
	lat1 := toRad(a.Lat)
	lat2 := toRad(b.Lat)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	if h > 1 {
		h = 1
	}
	return 2 * EarthRadiusMeters * math.Asin(math.Sqrt(h))
}

// WithinRadius is the proximity gate. The boundary is inclusive.
func WithinRadius(p, center Point, radiusMeters float64) bool {
	return Distance(p, center) <= radiusMeters
}

// Box is a lat/lon envelope used to prefilter rows in SQL before the exact
// haversine check.
type Box struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

// BoundingBox returns an envelope that contains every point within
// radiusMeters of center. Near the poles the longitude span widens to the
// full range.
func BoundingBox(center Point, radiusMeters float64) Box {
	angular := radiusMeters / EarthRadiusMeters
	dLat := angular * 180 / math.Pi

	b := Box{
		MinLat: math.Max(center.Lat-dLat, -90),
		MaxLat: math.Min(center.Lat+dLat, 90),
		MinLon: -180,
		MaxLon: 180,
	}

	if b.MinLat > -90 && b.MaxLat < 90 {
		s := math.Sin(angular) / math.Cos(toRad(center.Lat))
		if s < 1 {
			dLon := math.Asin(s) * 180 / math.Pi
			b.MinLon = center.Lon - dLon
			b.MaxLon = center.Lon + dLon
		}
	}
	return b
}

// Contains reports whether p lies inside the envelope. Envelopes crossing the
// antimeridian wrap.
func (b Box) Contains(p Point) bool {
	if p.Lat < b.MinLat || p.Lat > b.MaxLat {
		return false
	}
	switch {
	case b.MinLon < -180:
		return p.Lon >= b.MinLon+360 || p.Lon <= b.MaxLon
	case b.MaxLon > 180:
		return p.Lon >= b.MinLon || p.Lon <= b.MaxLon-360
	default:
		return p.Lon >= b.MinLon && p.Lon <= b.MaxLon
	}
}

// Candidate is a public room considered for matching.
type Candidate struct {
	ID              uuid.UUID
	Center          Point
	RadiusMeters    float64
	IsAutoGenerated bool
	ExpiresAt       *time.Time
}

func (c Candidate) expired(now time.Time) bool {
	return c.ExpiresAt != nil && !now.Before(*c.ExpiresAt)
}

// Ranked pairs a candidate with its distance from the query point.
type Ranked struct {
	Candidate
	DistanceMeters float64
	InRange        bool
}

// SortByDistance ranks the unexpired candidates by distance from p, nearest
// first. Ties keep input order.
func SortByDistance(p Point, candidates []Candidate, now time.Time) []Ranked {
	out := make([]Ranked, 0, len(candidates))
	for _, c := range candidates {
		if c.expired(now) {
			continue
		}
		d := Distance(p, c.Center)
		out = append(out, Ranked{Candidate: c, DistanceMeters: d, InRange: d <= c.RadiusMeters})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DistanceMeters < out[j].DistanceMeters
	})
	return out
}

// Nearest returns the closest unexpired candidate whose radius contains p.
func Nearest(p Point, candidates []Candidate, now time.Time) (Ranked, bool) {
	for _, r := range SortByDistance(p, candidates, now) {
		if r.InRange {
			return r, true
		}
	}
	return Ranked{}, false
}

// Duplicate returns the closest unexpired auto-generated candidate whose
// center lies within dedupMeters of p. It keeps two auto rooms from being
// created a few meters apart when the caller sits just outside a room's radius.
func Duplicate(p Point, candidates []Candidate, dedupMeters float64, now time.Time) (Ranked, bool) {
	for _, r := range SortByDistance(p, candidates, now) {
		if r.DistanceMeters > dedupMeters {
			break
		}
		if r.IsAutoGenerated {
			return r, true
		}
	}
	return Ranked{}, false
}

// Match picks the room a caller at p should join: the nearest room containing
// p, otherwise an auto-generated duplicate within dedupMeters.
func Match(p Point, candidates []Candidate, dedupMeters float64, now time.Time) (Ranked, bool) {
	if r, ok := Nearest(p, candidates, now); ok {
		return r, true
	}
	return Duplicate(p, candidates, dedupMeters, now)
}
