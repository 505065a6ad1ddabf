// Package zone backfills hazard features that reference NWS forecast zones
// instead of carrying inline geometry.
package zone

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/hazard-target-service/internal/domain"
	"github.com/couchcryptid/hazard-target-service/internal/observability"
	"github.com/paulmach/orb"
)

// Fetcher retrieves the geometry of a single zone.
type Fetcher interface {
	FetchZone(ctx context.Context, ref string) (orb.Geometry, error)
}

// Resolver memoizes zone geometries for one resolution pass. Create a new
// Resolver per pass; it is not safe for concurrent use.
type Resolver struct {
	fetcher Fetcher
	logger  *slog.Logger
	metrics *observability.Metrics
	cache   map[string]orb.Geometry
}

// NewResolver creates a pass-scoped resolver backed by fetcher.
func NewResolver(fetcher Fetcher, logger *slog.Logger, metrics *observability.Metrics) *Resolver {
	return &Resolver{
		fetcher: fetcher,
		logger:  logger,
		metrics: metrics,
		cache:   make(map[string]orb.Geometry),
	}
}

// Resolve returns the geometry for ref, fetching it on first use. Failures are
// logged and not cached, so a later call may retry.
func (r *Resolver) Resolve(ctx context.Context, ref string) (orb.Geometry, bool) {
	if g, ok := r.cache[ref]; ok {
		r.metrics.ZoneCache.WithLabelValues("hit").Inc()
		return g, true
	}
	r.metrics.ZoneCache.WithLabelValues("miss").Inc()

	g, err := r.fetcher.FetchZone(ctx, ref)
	if err != nil {
		r.metrics.ZoneFetches.WithLabelValues("error").Inc()
		r.logger.Warn("zone fetch failed", "zone", ref, "error", err)
		return nil, false
	}
	if g == nil {
		r.metrics.ZoneFetches.WithLabelValues("error").Inc()
		r.logger.Warn("zone has no geometry", "zone", ref)
		return nil, false
	}

	r.metrics.ZoneFetches.WithLabelValues("success").Inc()
	r.cache[ref] = g
	return g, true
}

// Backfill attaches zone geometry to every feature that has zone references
// but no inline polygons. Features whose zones all fail keep no geometry and
// fall back to text matching. It returns the number of features backfilled.
func (r *Resolver) Backfill(ctx context.Context, features []*domain.HazardFeature) int {
	n := 0
	for _, f := range features {
		if f == nil || !f.NeedsZoneGeometry() {
			continue
		}
		if ctx.Err() != nil {
			return n
		}

		var polys []orb.Polygon
		seen := make(map[string]bool, len(f.ZoneRefs))
		for _, ref := range f.ZoneRefs {
			if seen[ref] {
				continue
			}
			seen[ref] = true
			if g, ok := r.Resolve(ctx, ref); ok {
				polys = append(polys, domain.PolygonsFromGeometry(g)...)
			}
		}
		if len(polys) == 0 {
			r.logger.Debug("no zone geometry resolved", "feature_id", f.ID, "zones", len(f.ZoneRefs))
			continue
		}

		f.BackfillZones(polys)
		n++
	}
	return n
}

// Len returns the number of cached zones.
func (r *Resolver) Len() int {
	return len(r.cache)
}
