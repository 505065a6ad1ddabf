package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/couchcryptid/hazard-target-service/internal/domain"
	"github.com/couchcryptid/storm-data-shared/retry"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// RefreshConfig controls the periodic refresh loop.
type RefreshConfig struct {
	Modes       []domain.HazardMode
	MinSeverity domain.Severity
	Interval    time.Duration
}

// EnableRefresh marks the pipeline as refresh-driven, so readiness waits for
// the first successful round. Call it before starting Run in a goroutine.
func (p *Pipeline) EnableRefresh() {
	p.refreshing.Store(true)
}

// Run refreshes every configured mode, then waits Interval, until the context
// is cancelled. A failed round is retried with exponential backoff.
func (p *Pipeline) Run(ctx context.Context, cfg RefreshConfig) error {
	p.logger.Info("refresh loop started", "modes", len(cfg.Modes), "interval", cfg.Interval)
	p.EnableRefresh()
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	backoff := initialBackoff

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("refresh loop stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if err := p.refreshAll(ctx, cfg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			p.logger.Error("refresh failed", "error", err, "retry_in", backoff)
			if !p.backoffOrStop(ctx, &backoff) {
				return nil
			}
			continue
		}

		backoff = initialBackoff
		p.ready.Store(true)
		if !sleepWithContext(ctx, cfg.Interval) {
			p.logger.Info("refresh loop stopping", "reason", ctx.Err())
			return nil
		}
	}
}

// refreshAll resolves and publishes each mode. Every mode is attempted; the
// errors of failed modes are joined.
func (p *Pipeline) refreshAll(ctx context.Context, cfg RefreshConfig) error {
	var errs []error
	for _, mode := range cfg.Modes {
		list, err := p.Resolve(ctx, mode, cfg.MinSeverity)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		p.mu.Lock()
		p.latest[mode.Name] = list
		p.mu.Unlock()

		if p.publisher == nil {
			continue
		}
		if err := p.publisher.Publish(ctx, list); err != nil {
			p.metrics.PublishErrors.Inc()
			p.logger.Warn("publish target list failed", "mode", mode.Name, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// backoffOrStop sleeps with the current backoff and advances it. Returns
// false if the loop should stop.
func (p *Pipeline) backoffOrStop(ctx context.Context, backoff *time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !sleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = retry.NextBackoff(*backoff, maxBackoff)
	return true
}

// sleepWithContext waits d. A non-positive d does not wait but still
// reports a cancelled context as a stop.
func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	return retry.SleepWithContext(ctx, d)
}
