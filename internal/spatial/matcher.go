// Package spatial decides which zip codes fall inside a hazard's affected
// area and merges the matches of many features into one target list.
package spatial

import (
	"io"
	"log/slog"
	"strings"

	"github.com/couchcryptid/hazard-target-service/internal/domain"
	"github.com/paulmach/orb/planar"
)

// textKey holds the upper-cased strings searched for in an area description.
// An empty plain key means the entry is not eligible for text matching.
type textKey struct {
	plain    string // "LOS ANGELES, CA"
	suffixed string // "LOS ANGELES COUNTY, CA"
}

func newTextKey(e domain.ZipEntry) textKey {
	county := upper(e.County)
	state := upper(e.State)
	if county == "" || state == "" {
		return textKey{}
	}
	county = strings.TrimSpace(strings.TrimSuffix(county, " COUNTY"))
	return textKey{
		plain:    county + ", " + state,
		suffixed: county + " COUNTY, " + state,
	}
}

func (k textKey) in(areaDesc string) bool {
	if k.plain == "" || areaDesc == "" {
		return false
	}
	return strings.Contains(areaDesc, k.plain) || strings.Contains(areaDesc, k.suffixed)
}

// Matcher matches hazard features against a zip directory. It precomputes
// per-entry text keys for the directory it was built with and is safe for
// concurrent use.
type Matcher struct {
	dir    *domain.ZipDirectory
	keys   []textKey
	logger *slog.Logger
}

// NewMatcher builds a matcher bound to dir. A nil logger discards output.
func NewMatcher(dir *domain.ZipDirectory, logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Matcher{dir: dir, keys: buildKeys(dir), logger: logger}
}

func buildKeys(dir *domain.ZipDirectory) []textKey {
	entries := dir.Entries()
	keys := make([]textKey, len(entries))
	for i, e := range entries {
		keys[i] = newTextKey(e)
	}
	return keys
}

// Directory returns the directory the matcher was built with.
func (m *Matcher) Directory() *domain.ZipDirectory {
	return m.dir
}

// MatchFeature returns the directory entries inside the feature's area, in
// directory order.
func (m *Matcher) MatchFeature(f *domain.HazardFeature) []domain.ZipEntry {
	return m.Match(f, m.dir)
}

// Match satisfies MatchFunc. Precomputed keys are reused when dir is the
// matcher's own directory.
func (m *Matcher) Match(f *domain.HazardFeature, dir *domain.ZipDirectory) []domain.ZipEntry {
	keys := m.keys
	if dir != m.dir {
		keys = buildKeys(dir)
	}

	plan := NewPlan(f)
	if plan.Dropped() > 0 {
		m.logger.Warn("malformed polygons ignored",
			"feature_id", f.ID,
			"dropped", plan.Dropped(),
			"coverage", plan.Coverage.String(),
		)
	}
	return matchPlan(plan, dir.Entries(), keys)
}

// MatchFeatureToZips matches a single feature against dir and returns the
// matched zip codes.
func MatchFeatureToZips(f *domain.HazardFeature, dir *domain.ZipDirectory) []string {
	entries := matchPlan(NewPlan(f), dir.Entries(), buildKeys(dir))
	zips := make([]string, len(entries))
	for i, e := range entries {
		zips[i] = e.Zip
	}
	return zips
}

// matchPlan scans entries once. Geometry is tried first for located entries;
// any entry it misses falls through to the text test.
func matchPlan(p Plan, entries []domain.ZipEntry, keys []textKey) []domain.ZipEntry {
	if p.Coverage == CoverageNone {
		return nil
	}

	var out []domain.ZipEntry
	for i, e := range entries {
		if p.Coverage == CoverageGeometry && p.containsEntry(e) {
			out = append(out, e)
			continue
		}
		if keys[i].in(p.areaDesc) {
			out = append(out, e)
		}
	}
	return out
}

// containsEntry runs the inclusive bounding-box reject followed by the exact
// point-in-polygon test for each shape.
func (p Plan) containsEntry(e domain.ZipEntry) bool {
	pt, ok := e.Point()
	if !ok {
		return false
	}
	for _, s := range p.shapes {
		if !s.bound.Contains(pt) {
			continue
		}
		if planar.PolygonContains(s.polygon, pt) {
			return true
		}
	}
	return false
}

func upper(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
