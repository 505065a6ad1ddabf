package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// alertCollection is the subset of the NWS alerts FeatureCollection we read.
type alertCollection struct {
	Features []alertFeature `json:"features"`
}

type alertFeature struct {
	ID         string            `json:"id"`
	Geometry   *geojson.Geometry `json:"geometry"`
	Properties alertProperties   `json:"properties"`
}

type alertProperties struct {
	ID            string   `json:"id"`
	Event         string   `json:"event"`
	AreaDesc      string   `json:"areaDesc"`
	Severity      string   `json:"severity"`
	Sent          string   `json:"sent"`
	Expires       string   `json:"expires"`
	AffectedZones []string `json:"affectedZones"`
}

// ParseFeatureCollection decodes a GeoJSON FeatureCollection of alerts into
// hazard features, preserving input order. Features with unparsable
// timestamps keep a zero time rather than failing the whole collection.
func ParseFeatureCollection(data []byte) ([]*HazardFeature, error) {
	var fc alertCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse feature collection: %w", err)
	}

	features := make([]*HazardFeature, 0, len(fc.Features))
	for _, f := range fc.Features {
		id := f.Properties.ID
		if id == "" {
			id = f.ID
		}

		feature := &HazardFeature{
			ID:       id,
			Event:    strings.TrimSpace(f.Properties.Event),
			AreaDesc: strings.TrimSpace(f.Properties.AreaDesc),
			Severity: ParseSeverity(f.Properties.Severity),
			Sent:     parseTimestamp(f.Properties.Sent),
			Expires:  parseTimestamp(f.Properties.Expires),
			ZoneRefs: compactRefs(f.Properties.AffectedZones),
		}
		if f.Geometry != nil {
			feature.Polygons = PolygonsFromGeometry(f.Geometry.Geometry())
		}
		features = append(features, feature)
	}
	return features, nil
}

// ParseZoneGeometry decodes an NWS zone document (a GeoJSON Feature) and
// returns its geometry.
func ParseZoneGeometry(data []byte) (orb.Geometry, error) {
	f, err := geojson.UnmarshalFeature(data)
	if err != nil {
		return nil, fmt.Errorf("parse zone: %w", err)
	}
	if f.Geometry == nil {
		return nil, errors.New("parse zone: feature has no geometry")
	}
	return f.Geometry, nil
}

// PolygonsFromGeometry flattens a geometry into its constituent polygons.
// Non-areal geometries (points, lines) contribute nothing.
func PolygonsFromGeometry(g orb.Geometry) []orb.Polygon {
	switch v := g.(type) {
	case orb.Polygon:
		return []orb.Polygon{v}
	case orb.MultiPolygon:
		out := make([]orb.Polygon, 0, len(v))
		return append(out, v...)
	case orb.Bound:
		return []orb.Polygon{v.ToPolygon()}
	case orb.Collection:
		var out []orb.Polygon
		for _, child := range v {
			out = append(out, PolygonsFromGeometry(child)...)
		}
		return out
	default:
		return nil
	}
}

func parseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func compactRefs(refs []string) []string {
	if len(refs) == 0 {
		return nil
	}
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}
