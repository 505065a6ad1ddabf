package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/hazard-target-service/internal/domain"
	"github.com/couchcryptid/hazard-target-service/internal/observability"
	"github.com/couchcryptid/hazard-target-service/internal/spatial"
	"github.com/couchcryptid/hazard-target-service/internal/zone"
)

// Publisher delivers a resolved target list downstream.
type Publisher interface {
	Publish(ctx context.Context, list domain.TargetList) error
}

// Pipeline runs target resolution passes: fetch features, backfill zone
// geometry, match against the zip directory, and deduplicate.
type Pipeline struct {
	source    domain.FeatureSource
	zones     zone.Fetcher
	matcher   *spatial.Matcher
	publisher Publisher
	logger    *slog.Logger
	metrics   *observability.Metrics

	refreshing atomic.Bool
	ready      atomic.Bool

	mu     sync.RWMutex
	latest map[string]domain.TargetList
}

// New creates a Pipeline. zones and publisher may be nil to disable zone
// backfill and publishing.
func New(source domain.FeatureSource, zones zone.Fetcher, dir *domain.ZipDirectory, publisher Publisher, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		source:    source,
		zones:     zones,
		matcher:   spatial.NewMatcher(dir, logger),
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
		latest:    make(map[string]domain.TargetList),
	}
}

// Directory returns the zip directory passes are matched against.
func (p *Pipeline) Directory() *domain.ZipDirectory {
	return p.matcher.Directory()
}

// CheckReadiness returns nil once the service can answer target requests.
// Without a refresh loop that only needs a loaded zip directory; with one,
// the first refresh must also have completed.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if p.Directory().Len() == 0 {
		return errors.New("zip directory is empty")
	}
	if p.refreshing.Load() && !p.ready.Load() {
		return errors.New("first refresh has not completed yet")
	}
	return nil
}

// Resolve runs a pass for a feed-backed mode using features fetched from the
// alert source.
func (p *Pipeline) Resolve(ctx context.Context, mode domain.HazardMode, minSeverity domain.Severity) (domain.TargetList, error) {
	if !mode.FeedBacked() {
		return domain.TargetList{}, fmt.Errorf("mode %q has no alert feed", mode.Name)
	}
	if p.source == nil {
		return domain.TargetList{}, errors.New("no alert source configured")
	}

	features, err := p.source.FetchActive(ctx, mode.Events)
	if err != nil {
		p.metrics.PassesTotal.WithLabelValues(mode.Name, "error").Inc()
		return domain.TargetList{}, fmt.Errorf("fetch %s alerts: %w", mode.Name, err)
	}
	return p.ResolveFeatures(ctx, mode.Name, features, minSeverity), nil
}

// ResolveFeatures runs a pass over caller-supplied features, such as those
// posted for modes without an alert feed. Input order decides attribution.
func (p *Pipeline) ResolveFeatures(ctx context.Context, mode string, features []*domain.HazardFeature, minSeverity domain.Severity) domain.TargetList {
	start := time.Now()

	active := filterFeatures(features, minSeverity, domain.Now())
	p.metrics.FeaturesSeen.WithLabelValues(mode).Add(float64(len(active)))

	if p.zones != nil {
		resolver := zone.NewResolver(p.zones, p.logger, p.metrics)
		if n := resolver.Backfill(ctx, active); n > 0 {
			p.logger.Debug("zone geometry backfilled", "mode", mode, "features", n, "zones", resolver.Len())
		}
	}

	dir := p.matcher.Directory()
	targets := spatial.Deduplicate(active, dir, p.matcher.Match)

	list := domain.TargetList{
		Mode:         mode,
		GeneratedAt:  domain.Now(),
		FeatureCount: len(active),
		Targets:      targets,
	}

	p.metrics.PassesTotal.WithLabelValues(mode, "success").Inc()
	p.metrics.PassDuration.Observe(time.Since(start).Seconds())
	p.metrics.TargetsResolved.WithLabelValues(mode).Set(float64(len(targets)))
	p.logger.Info("targets resolved",
		"mode", mode,
		"features", len(active),
		"skipped", len(features)-len(active),
		"targets", len(targets),
	)
	return list
}

// Latest returns the most recent refreshed list for a mode.
func (p *Pipeline) Latest(mode string) (domain.TargetList, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	list, ok := p.latest[mode]
	return list, ok
}

// filterFeatures drops nil, expired, and below-threshold features, keeping
// input order. A SeverityUnknown threshold keeps everything.
func filterFeatures(features []*domain.HazardFeature, minSeverity domain.Severity, now time.Time) []*domain.HazardFeature {
	out := make([]*domain.HazardFeature, 0, len(features))
	for _, f := range features {
		if f == nil || f.Expired(now) {
			continue
		}
		if minSeverity > domain.SeverityUnknown && f.Severity < minSeverity {
			continue
		}
		out = append(out, f)
	}
	return out
}
