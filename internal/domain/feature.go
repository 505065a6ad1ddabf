package domain

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/paulmach/orb"
)

// Severity is the CAP severity level reported on an alert.
type Severity int

const (
	SeverityUnknown Severity = iota
	SeverityMinor
	SeverityModerate
	SeveritySevere
	SeverityExtreme
)

var severityNames = [...]string{"Unknown", "Minor", "Moderate", "Severe", "Extreme"}

func (s Severity) String() string {
	if s < SeverityUnknown || s > SeverityExtreme {
		return severityNames[SeverityUnknown]
	}
	return severityNames[s]
}

// ParseSeverity maps a CAP severity name to a Severity, case-insensitively.
// Unrecognized values map to SeverityUnknown.
func ParseSeverity(s string) Severity {
	s = strings.TrimSpace(s)
	for i, name := range severityNames {
		if strings.EqualFold(s, name) {
			return Severity(i)
		}
	}
	return SeverityUnknown
}

func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Severity) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	*s = ParseSeverity(name)
	return nil
}

// HazardFeature is one reported weather or health event with a geographic
// extent. Polygons holds the constituent polygons of the inline geometry, or
// of the backfilled zone geometries when the alert had none.
type HazardFeature struct {
	ID       string
	Event    string
	AreaDesc string
	Severity Severity
	Sent     time.Time
	Expires  time.Time
	Polygons []orb.Polygon
	ZoneRefs []string

	backfilled bool
}

// NeedsZoneGeometry reports whether the feature has no inline geometry but
// references zones that could supply one.
func (f *HazardFeature) NeedsZoneGeometry() bool {
	return len(f.Polygons) == 0 && len(f.ZoneRefs) > 0 && !f.backfilled
}

// BackfillZones attaches zone polygons to a feature that had no inline
// geometry. It applies at most once; later calls are ignored.
func (f *HazardFeature) BackfillZones(polys []orb.Polygon) {
	if f.backfilled || len(f.Polygons) > 0 {
		return
	}
	f.backfilled = true
	f.Polygons = append(f.Polygons, polys...)
}

// Backfilled reports whether the feature's polygons came from zone lookups.
func (f *HazardFeature) Backfilled() bool {
	return f.backfilled
}

// Expired reports whether the alert's expiry is set and already passed.
func (f *HazardFeature) Expired(now time.Time) bool {
	return !f.Expires.IsZero() && f.Expires.Before(now)
}

// FeatureSource produces hazard features for a set of NWS event names.
// An empty event list means all active alerts.
type FeatureSource interface {
	FetchActive(ctx context.Context, events []string) ([]*HazardFeature, error)
}

// TargetRecord attributes a matched zip code to the hazard feature that
// claimed it first.
type TargetRecord struct {
	Zip           ZipEntry
	Feature       *HazardFeature
	AttributionID string
}

type targetRecordJSON struct {
	ZipEntry
	Event         string   `json:"event"`
	Severity      Severity `json:"severity"`
	AreaDesc      string   `json:"area_desc,omitempty"`
	AttributionID string   `json:"attribution_id"`
}

func (r TargetRecord) MarshalJSON() ([]byte, error) {
	out := targetRecordJSON{ZipEntry: r.Zip, AttributionID: r.AttributionID}
	if r.Feature != nil {
		out.Event = r.Feature.Event
		out.Severity = r.Feature.Severity
		out.AreaDesc = r.Feature.AreaDesc
	}
	return json.Marshal(out)
}

// TargetList is the artifact of one resolution pass.
type TargetList struct {
	Mode         string         `json:"mode"`
	GeneratedAt  time.Time      `json:"generated_at"`
	FeatureCount int            `json:"feature_count"`
	Targets      []TargetRecord `json:"targets"`
}

// Zips returns the target zip codes in attribution order.
func (l TargetList) Zips() []string {
	zips := make([]string, len(l.Targets))
	for i, t := range l.Targets {
		zips[i] = t.Zip.Zip
	}
	return zips
}
