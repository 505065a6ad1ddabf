package spatial

import (
	"math"

	"github.com/couchcryptid/hazard-target-service/internal/domain"
	"github.com/paulmach/orb"
)

// Coverage describes how a feature can be matched against the directory.
type Coverage int

const (
	// CoverageNone means the feature has neither usable geometry nor an
	// area description, so it matches nothing.
	CoverageNone Coverage = iota
	// CoverageTextOnly means only the county/state text fallback applies.
	CoverageTextOnly
	// CoverageGeometry means at least one well-formed polygon is available.
	// The text fallback still applies to entries the polygons miss.
	CoverageGeometry
)

func (c Coverage) String() string {
	switch c {
	case CoverageGeometry:
		return "geometry"
	case CoverageTextOnly:
		return "text_only"
	default:
		return "none"
	}
}

// shape is one polygon together with its bounding box, computed once.
type shape struct {
	bound   orb.Bound
	polygon orb.Polygon
}

// Plan is the matching strategy for a single feature, resolved once before
// the directory scan.
type Plan struct {
	Coverage Coverage

	shapes   []shape
	areaDesc string // upper-cased
	dropped  int
}

// NewPlan classifies a feature. Malformed polygons are dropped; a feature
// whose polygons are all malformed degrades to text-only matching.
func NewPlan(f *domain.HazardFeature) Plan {
	var p Plan
	if f == nil {
		return p
	}

	for _, poly := range f.Polygons {
		clean, ok := sanitize(poly)
		if !ok {
			p.dropped++
			continue
		}
		p.shapes = append(p.shapes, shape{bound: clean.Bound(), polygon: clean})
	}
	p.areaDesc = upper(f.AreaDesc)

	switch {
	case len(p.shapes) > 0:
		p.Coverage = CoverageGeometry
	case p.areaDesc != "":
		p.Coverage = CoverageTextOnly
	default:
		p.Coverage = CoverageNone
	}
	return p
}

// Dropped returns how many of the feature's polygons were rejected as
// malformed.
func (p Plan) Dropped() int {
	return p.dropped
}

// sanitize rejects polygons that would make the containment test
// meaningless: a missing or degenerate outer ring, or non-finite coordinates.
// Degenerate holes are dropped rather than failing the polygon.
func sanitize(poly orb.Polygon) (orb.Polygon, bool) {
	if len(poly) == 0 || len(poly[0]) < 4 {
		return nil, false
	}
	clean := make(orb.Polygon, 0, len(poly))
	for i, ring := range poly {
		if i > 0 && len(ring) < 4 {
			continue
		}
		for _, pt := range ring {
			if !finite(pt[0]) || !finite(pt[1]) {
				return nil, false
			}
		}
		clean = append(clean, ring)
	}
	return clean, true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
