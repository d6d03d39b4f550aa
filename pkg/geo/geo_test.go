package geo

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistance(t *testing.T) {
	oneDegree := EarthRadiusMeters * math.Pi / 180

	tests := []struct {
		name  string
		a, b  Point
		want  float64
		delta float64
	}{
		{"same point", Point{40.7128, -74.0060}, Point{40.7128, -74.0060}, 0, 1e-9},
		{"one degree latitude", Point{0, 0}, Point{1, 0}, oneDegree, 1e-6},
		{"one degree longitude on equator", Point{0, 0}, Point{0, 1}, oneDegree, 1e-6},
		{"antipodal", Point{0, 0}, Point{0, 180}, math.Pi * EarthRadiusMeters, 1e-3},
		{"london to paris", Point{51.5074, -0.1278}, Point{48.8566, 2.3522}, 343_500, 1_500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Distance(tt.a, tt.b), tt.delta)
			assert.InDelta(t, Distance(tt.a, tt.b), Distance(tt.b, tt.a), 1e-9)
		})
	}
}

func TestValid(t *testing.T) {
	assert.True(t, Valid(Point{0, 0}))
	assert.True(t, Valid(Point{90, 180}))
	assert.True(t, Valid(Point{-90, -180}))
	assert.False(t, Valid(Point{90.0001, 0}))
	assert.False(t, Valid(Point{0, -180.5}))
	assert.False(t, Valid(Point{math.NaN(), 0}))
}

func TestWithinRadiusBoundaryInclusive(t *testing.T) {
	center := Point{0, 0}
	p := Point{1, 0}
	d := Distance(p, center)

	assert.True(t, WithinRadius(p, center, d))
	assert.True(t, WithinRadius(p, center, d+1))
	assert.False(t, WithinRadius(p, center, d-0.01))
}

func TestBoundingBoxContainsRadius(t *testing.T) {
	centers := []Point{{0, 0}, {37.7749, -122.4194}, {-33.8688, 151.2093}, {64.1466, -21.9426}}
	radius := 5000.0

	for _, c := range centers {
		box := BoundingBox(c, radius)
		for bearing := 0.0; bearing < 360; bearing += 15 {
			p := destination(c, bearing, radius*0.999)
			require.InDelta(t, radius*0.999, Distance(c, p), 0.5)
			assert.Truef(t, box.Contains(p), "center %v bearing %v point %v outside %+v", c, bearing, p, box)
		}
		far := destination(c, 90, radius*3)
		assert.False(t, box.Contains(far))
	}
}

func TestBoundingBoxWrapsAntimeridian(t *testing.T) {
	box := BoundingBox(Point{0, 179.99}, 5000)
	assert.True(t, box.Contains(Point{0, -179.99}))
	assert.False(t, box.Contains(Point{0, 0}))
}

func TestBoundingBoxNearPole(t *testing.T) {
	box := BoundingBox(Point{89.99, 0}, 5000)
	assert.Equal(t, -180.0, box.MinLon)
	assert.Equal(t, 180.0, box.MaxLon)
	assert.Equal(t, 90.0, box.MaxLat)
}

func TestNearest(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)
	p := Point{40.0, -73.0}

	near := Candidate{ID: uuid.New(), Center: destination(p, 0, 100), RadiusMeters: 500, ExpiresAt: &future}
	nearer := Candidate{ID: uuid.New(), Center: destination(p, 90, 50), RadiusMeters: 500}
	expired := Candidate{ID: uuid.New(), Center: p, RadiusMeters: 500, ExpiresAt: &past}
	small := Candidate{ID: uuid.New(), Center: destination(p, 180, 20), RadiusMeters: 10}

	t.Run("closest containing room wins", func(t *testing.T) {
		got, ok := Nearest(p, []Candidate{near, nearer, expired}, now)
		require.True(t, ok)
		assert.Equal(t, nearer.ID, got.ID)
		assert.InDelta(t, 50, got.DistanceMeters, 0.5)
		assert.True(t, got.InRange)
	})

	t.Run("closer room not containing caller is skipped", func(t *testing.T) {
		got, ok := Nearest(p, []Candidate{small, near}, now)
		require.True(t, ok)
		assert.Equal(t, near.ID, got.ID)
	})

	t.Run("expired only", func(t *testing.T) {
		_, ok := Nearest(p, []Candidate{expired}, now)
		assert.False(t, ok)
	})

	t.Run("empty", func(t *testing.T) {
		_, ok := Nearest(p, nil, now)
		assert.False(t, ok)
	})
}

func TestSortByDistance(t *testing.T) {
	now := time.Now()
	p := Point{10, 10}
	a := Candidate{ID: uuid.New(), Center: destination(p, 0, 300), RadiusMeters: 100}
	b := Candidate{ID: uuid.New(), Center: destination(p, 0, 100), RadiusMeters: 100}
	c := Candidate{ID: uuid.New(), Center: destination(p, 0, 200), RadiusMeters: 500}

	ranked := SortByDistance(p, []Candidate{a, b, c}, now)
	require.Len(t, ranked, 3)
	assert.Equal(t, []uuid.UUID{b.ID, c.ID, a.ID}, []uuid.UUID{ranked[0].ID, ranked[1].ID, ranked[2].ID})
	assert.True(t, ranked[1].InRange)
	assert.False(t, ranked[2].InRange)
}

func TestMatchFallsBackToDuplicate(t *testing.T) {
	now := time.Now()
	p := Point{51.5, -0.12}

	auto := Candidate{ID: uuid.New(), Center: destination(p, 45, 120), RadiusMeters: 100, IsAutoGenerated: true}
	manual := Candidate{ID: uuid.New(), Center: destination(p, 45, 110), RadiusMeters: 100}

	got, ok := Match(p, []Candidate{manual, auto}, 150, now)
	require.True(t, ok)
	assert.Equal(t, auto.ID, got.ID)
	assert.False(t, got.InRange)

	_, ok = Match(p, []Candidate{manual, auto}, 100, now)
	assert.False(t, ok)
}

// destination walks distance meters from p along the given initial bearing.
func destination(p Point, bearingDeg, distance float64) Point {
	d := distance / EarthRadiusMeters
	brng := toRad(bearingDeg)
	lat1 := toRad(p.Lat)
	lon1 := toRad(p.Lon)

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(d) + math.Cos(lat1)*math.Sin(d)*math.Cos(brng))
	lon2 := lon1 + math.Atan2(math.Sin(brng)*math.Sin(d)*math.Cos(lat1), math.Cos(d)-math.Sin(lat1)*math.Sin(lat2))

	lon := lon2 * 180 / math.Pi
	if lon > 180 {
		lon -= 360
	} else if lon < -180 {
		lon += 360
	}
	return Point{Lat: lat2 * 180 / math.Pi, Lon: lon}
}
