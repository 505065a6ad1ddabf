package spatial

import (
	"testing"

	"github.com/couchcryptid/hazard-target-service/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func californiaDirectory() *domain.ZipDirectory {
	return domain.NewZipDirectory([]domain.ZipEntry{
		{Zip: "90210", Lat: 34.09, Lng: -118.41, City: "Beverly Hills", State: "CA", County: "Los Angeles", Located: true},
		{Zip: "90001", Lat: 33.97, Lng: -118.25, City: "Los Angeles", State: "CA", County: "Los Angeles", Located: true},
		{Zip: "92602", Lat: 33.74, Lng: -117.76, City: "Irvine", State: "CA", County: "Orange", Located: true},
		{Zip: "93230", City: "Hanford", State: "CA", County: "Kings"},
	})
}

func TestDeduplicate_FirstWriterWins(t *testing.T) {
	dir := californiaDirectory()
	a := &domain.HazardFeature{ID: "A", AreaDesc: "Los Angeles, CA"}
	b := &domain.HazardFeature{ID: "B", AreaDesc: "Los Angeles, CA; Orange, CA"}

	records := Deduplicate([]*domain.HazardFeature{a, b}, dir, NewMatcher(dir, nil).Match)

	got := make(map[string]string, len(records))
	for _, r := range records {
		got[r.Zip.Zip] = r.AttributionID
	}
	want := map[string]string{"90210": "A", "90001": "A", "92602": "B"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("attribution mismatch (-want +got):\n%s", diff)
	}
	assert.Same(t, a, records[0].Feature)
}

func TestDeduplicate_OrderMatters(t *testing.T) {
	dir := californiaDirectory()
	a := &domain.HazardFeature{ID: "A", AreaDesc: "Los Angeles, CA"}
	b := &domain.HazardFeature{ID: "B", AreaDesc: "Los Angeles, CA"}

	records := Deduplicate([]*domain.HazardFeature{b, a}, dir, NewMatcher(dir, nil).Match)
	require.Len(t, records, 2)
	for _, r := range records {
		assert.Equal(t, "B", r.AttributionID)
	}
}

func TestDeduplicate_Uniqueness(t *testing.T) {
	dir := californiaDirectory()
	everywhere := orb.Polygon{{{-120, 33}, {-117, 33}, {-117, 35}, {-120, 35}, {-120, 33}}}
	features := []*domain.HazardFeature{
		{ID: "1", Polygons: []orb.Polygon{everywhere}},
		{ID: "2", AreaDesc: "Los Angeles, CA; Orange, CA; Kings, CA"},
		{ID: "3", Polygons: []orb.Polygon{everywhere}, AreaDesc: "Kings, CA"},
		nil,
		{ID: "4"},
	}

	records := Deduplicate(features, dir, NewMatcher(dir, nil).Match)

	seen := map[string]bool{}
	for _, r := range records {
		require.False(t, seen[r.Zip.Zip], "zip %s returned twice", r.Zip.Zip)
		seen[r.Zip.Zip] = true
	}
	assert.LessOrEqual(t, len(records), dir.Len())
	assert.Len(t, records, 4)
	assert.Equal(t, "2", records[3].AttributionID, "Kings has no coordinates, only the text feature claims it")
}

func TestDeduplicate_Empty(t *testing.T) {
	dir := californiaDirectory()
	assert.Empty(t, Deduplicate(nil, dir, NewMatcher(dir, nil).Match))
	assert.Empty(t, Deduplicate([]*domain.HazardFeature{{ID: "x", AreaDesc: "Nowhere, ZZ"}}, domain.NewZipDirectory(nil), NewMatcher(nil, nil).Match))
}
