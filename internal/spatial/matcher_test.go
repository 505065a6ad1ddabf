package spatial

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/couchcryptid/hazard-target-service/internal/domain"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// manhattanBox covers [-74, 40.7, -73.9, 40.8].
var manhattanBox = orb.Polygon{{
	{-74.0, 40.7}, {-73.9, 40.7}, {-73.9, 40.8}, {-74.0, 40.8}, {-74.0, 40.7},
}}

func newYorkDirectory() *domain.ZipDirectory {
	return domain.NewZipDirectory([]domain.ZipEntry{
		{Zip: "10001", Lat: 40.75, Lng: -73.99, City: "New York", State: "NY", County: "New York", Located: true},
	})
}

func TestMatchFeatureToZips_PolygonScenario(t *testing.T) {
	f := &domain.HazardFeature{ID: "a", Polygons: []orb.Polygon{manhattanBox}}

	assert.Equal(t, []string{"10001"}, MatchFeatureToZips(f, newYorkDirectory()))
}

func TestMatchFeatureToZips_TextScenario(t *testing.T) {
	f := &domain.HazardFeature{ID: "a", AreaDesc: "NEW YORK, NY"}

	assert.Equal(t, []string{"10001"}, MatchFeatureToZips(f, newYorkDirectory()))
}

func TestMatchFeatureToZips_TextFallbackCountySuffix(t *testing.T) {
	dir := domain.NewZipDirectory([]domain.ZipEntry{
		{Zip: "90210", City: "Beverly Hills", State: "CA", County: "Los Angeles", Lat: 34.09, Lng: -118.41, Located: true},
		{Zip: "92602", City: "Irvine", State: "CA", County: "Orange", Lat: 33.74, Lng: -117.76, Located: true},
		{Zip: "75001", City: "Addison", State: "TX", County: "Los Angeles", Lat: 32.96, Lng: -96.83, Located: true},
		{Zip: "90001", City: "Los Angeles", State: "CA", County: "Los Angeles County", Lat: 33.97, Lng: -118.25, Located: true},
	})
	f := &domain.HazardFeature{ID: "a", AreaDesc: "LOS ANGELES COUNTY, CA"}

	assert.Equal(t, []string{"90210", "90001"}, MatchFeatureToZips(f, dir))
}

func TestMatchFeatureToZips_TextIsCaseInsensitive(t *testing.T) {
	dir := domain.NewZipDirectory([]domain.ZipEntry{
		{Zip: "93230", State: "ca", County: "kings"},
		{Zip: "93274", State: "CA", County: "Tulare"},
		{Zip: "93301", State: "CA", County: "Kern"},
	})
	f := &domain.HazardFeature{ID: "a", AreaDesc: "Kings, CA; Tulare, CA"}

	assert.Equal(t, []string{"93230", "93274"}, MatchFeatureToZips(f, dir))
}

func TestMatchFeatureToZips_TextFallbackWhenGeometryMisses(t *testing.T) {
	dir := domain.NewZipDirectory([]domain.ZipEntry{
		{Zip: "10001", Lat: 40.75, Lng: -73.99, State: "NY", County: "New York", Located: true},
		{Zip: "11201", Lat: 40.69, Lng: -73.99, State: "NY", County: "Kings", Located: true},
	})
	f := &domain.HazardFeature{
		ID:       "a",
		AreaDesc: "Kings, NY",
		Polygons: []orb.Polygon{manhattanBox},
	}

	assert.Equal(t, []string{"10001", "11201"}, MatchFeatureToZips(f, dir),
		"geometry claims 10001, text fallback still claims 11201")
}

func TestMatchFeatureToZips_UnlocatedEntriesOnlyTextMatch(t *testing.T) {
	dir := domain.NewZipDirectory([]domain.ZipEntry{
		{Zip: "10001", State: "NY", County: "New York"},
		{Zip: "10002", State: "NY"},
	})

	geomOnly := &domain.HazardFeature{ID: "g", Polygons: []orb.Polygon{manhattanBox}}
	assert.Empty(t, MatchFeatureToZips(geomOnly, dir))

	withText := &domain.HazardFeature{ID: "t", Polygons: []orb.Polygon{manhattanBox}, AreaDesc: "New York, NY"}
	assert.Equal(t, []string{"10001"}, MatchFeatureToZips(withText, dir))
}

func TestMatchFeatureToZips_MalformedGeometryDegradesToText(t *testing.T) {
	f := &domain.HazardFeature{
		ID:       "a",
		AreaDesc: "New York, NY",
		Polygons: []orb.Polygon{
			{},
			{{{-74, 40.7}, {-73.9, 40.7}}},
			{{{math.NaN(), 40.7}, {-73.9, 40.7}, {-73.9, 40.8}, {-74.0, 40.7}}},
		},
	}

	plan := NewPlan(f)
	assert.Equal(t, CoverageTextOnly, plan.Coverage)
	assert.Equal(t, 3, plan.Dropped())
	assert.Equal(t, []string{"10001"}, MatchFeatureToZips(f, newYorkDirectory()))
}

func TestMatchFeatureToZips_MultiplePolygonsAnySuffices(t *testing.T) {
	farAway := orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}}
	f := &domain.HazardFeature{ID: "a", Polygons: []orb.Polygon{farAway, manhattanBox}}

	assert.Equal(t, []string{"10001"}, MatchFeatureToZips(f, newYorkDirectory()))
}

func TestMatchFeatureToZips_HoleExcludesPoint(t *testing.T) {
	withHole := orb.Polygon{
		manhattanBox[0],
		{{-74.0, 40.74}, {-73.98, 40.74}, {-73.98, 40.76}, {-74.0, 40.76}, {-74.0, 40.74}},
	}
	f := &domain.HazardFeature{ID: "a", Polygons: []orb.Polygon{withHole}}

	assert.Empty(t, MatchFeatureToZips(f, newYorkDirectory()))
}

func TestMatchFeatureToZips_BoundingBoxIsInclusive(t *testing.T) {
	dir := domain.NewZipDirectory([]domain.ZipEntry{
		{Zip: "00001", Lat: 40.7, Lng: -73.95, Located: true},
		{Zip: "00002", Lat: 40.8001, Lng: -73.95, Located: true},
	})
	f := &domain.HazardFeature{ID: "a", Polygons: []orb.Polygon{manhattanBox}}

	plan := NewPlan(f)
	pt, _ := dir.Entries()[0].Point()
	assert.True(t, plan.shapes[0].bound.Contains(pt), "point on the bbox edge passes the pre-filter")
	pt, _ = dir.Entries()[1].Point()
	assert.False(t, plan.shapes[0].bound.Contains(pt))
}

func TestNewPlan_Coverage(t *testing.T) {
	tests := []struct {
		name    string
		feature *domain.HazardFeature
		want    Coverage
	}{
		{"nil feature", nil, CoverageNone},
		{"geometry", &domain.HazardFeature{Polygons: []orb.Polygon{manhattanBox}}, CoverageGeometry},
		{"geometry and text", &domain.HazardFeature{Polygons: []orb.Polygon{manhattanBox}, AreaDesc: "X, NY"}, CoverageGeometry},
		{"text only", &domain.HazardFeature{AreaDesc: "X, NY"}, CoverageTextOnly},
		{"blank area", &domain.HazardFeature{AreaDesc: "   "}, CoverageNone},
		{"unresolved zones", &domain.HazardFeature{ZoneRefs: []string{"NYZ072"}}, CoverageNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewPlan(tt.feature).Coverage)
		})
	}
}

// Points strictly inside a convex polygon always survive the bbox pre-filter.
func TestBoundingBoxNeverRejectsInteriorPoints(t *testing.T) {
	hexagon := orb.Polygon{{
		{-100, 40}, {-98, 39}, {-96, 40}, {-96, 42}, {-98, 43}, {-100, 42}, {-100, 40},
	}}
	plan := NewPlan(&domain.HazardFeature{Polygons: []orb.Polygon{hexagon}})
	require.Equal(t, CoverageGeometry, plan.Coverage)

	rng := rand.New(rand.NewPCG(1, 2))
	verts := hexagon[0][:len(hexagon[0])-1]
	for range 500 {
		var pt orb.Point
		var total float64
		weights := make([]float64, len(verts))
		for i := range weights {
			weights[i] = rng.Float64() + 0.01
			total += weights[i]
		}
		for i, v := range verts {
			pt[0] += v[0] * weights[i] / total
			pt[1] += v[1] * weights[i] / total
		}

		entry := domain.ZipEntry{Zip: "x", Lng: pt[0], Lat: pt[1], Located: true}
		require.True(t, plan.shapes[0].bound.Contains(pt), "bbox rejected %v", pt)
		require.True(t, plan.containsEntry(entry), "polygon rejected %v", pt)
	}
}

func TestMatcher_ReusesKeysForOwnDirectory(t *testing.T) {
	dir := newYorkDirectory()
	m := NewMatcher(dir, nil)

	f := &domain.HazardFeature{ID: "a", AreaDesc: "New York, NY"}
	got := m.MatchFeature(f)
	require.Len(t, got, 1)
	assert.Equal(t, "10001", got[0].Zip)
	assert.Same(t, dir, m.Directory())

	other := domain.NewZipDirectory([]domain.ZipEntry{{Zip: "07030", State: "NJ", County: "Hudson"}})
	assert.Empty(t, m.Match(f, other))
	assert.Len(t, m.Match(&domain.HazardFeature{AreaDesc: "Hudson, NJ"}, other), 1)
}
