// Package retention schedules pruning of the stream feed. Counters, views,
// buckets and referrals are never pruned.
package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"github.com/wuya51/gmic-buildathon/pkg/config"
	"github.com/wuya51/gmic-buildathon/pkg/logger"
)

// Pruner is the engine surface a retention run needs.
type Pruner interface {
	Now() int64
	PruneFeed(cutoff int64) (int, error)
	StaleFeed(cutoff int64) (int, error)
}

// Result summarizes one run.
type Result struct {
	RunID  string
	Cutoff int64
	Stale  int
	Pruned int
	DryRun bool
}

// RunOnce prunes feed entries older than now minus the configured period.
// In dry-run mode it only counts them.
func RunOnce(p Pruner, ret config.RetentionConfig) (Result, error) {
	now := p.Now()
	res := Result{
		RunID:  fmt.Sprintf("ret-%d", now),
		Cutoff: now - ret.Period.Duration().Microseconds(),
		DryRun: ret.DryRun,
	}
	logger.Info("retention_run_start", "run_id", res.RunID, "cutoff", res.Cutoff, "dry_run", ret.DryRun)

	stale, err := p.StaleFeed(res.Cutoff)
	if err != nil {
		return res, fmt.Errorf("count stale feed: %w", err)
	}
	res.Stale = stale
	if ret.DryRun || stale == 0 {
		logger.Info("retention_run_complete", "run_id", res.RunID, "stale", stale, "pruned", 0)
		return res, nil
	}

	n, err := p.PruneFeed(res.Cutoff)
	if err != nil {
		logger.Error("retention_prune_failed", "run_id", res.RunID, "error", err)
		return res, fmt.Errorf("prune feed: %w", err)
	}
	res.Pruned = n
	logger.Info("retention_run_complete", "run_id", res.RunID, "stale", stale, "pruned", n)
	return res, nil
}

// Start launches the scheduler when retention is enabled and returns its
// cancel func. Disabled retention yields a no-op cancel.
func Start(ctx context.Context, ret config.RetentionConfig, p Pruner) (context.CancelFunc, error) {
	if !ret.Enabled {
		logger.Info("retention_disabled")
		return func() {}, nil
	}
	cronExpr := ret.Cron
	if cronExpr == "" {
		cronExpr = "0 3 * * *"
	}
	if !gronx.IsValid(cronExpr) {
		return nil, fmt.Errorf("invalid retention cron expression: %s", ret.Cron)
	}
	if ret.Period.Duration() <= 0 {
		return nil, fmt.Errorf("retention period must be positive")
	}

	logger.Info("retention_enabled", "cron", cronExpr, "period", ret.Period.Duration().String(), "dry_run", ret.DryRun)
	ctx2, cancel := context.WithCancel(ctx)
	go runScheduler(ctx2, ret, p, cronExpr)
	return cancel, nil
}

// runScheduler sleeps until the next cron tick and runs once per tick.
// Runs are sequential; a slow run delays the next tick.
func runScheduler(ctx context.Context, ret config.RetentionConfig, p Pruner, cronExpr string) {
	for {
		next, err := gronx.NextTickAfter(cronExpr, time.Now().UTC(), false)
		if err != nil {
			logger.Error("retention_nexttick_failed", "cron", cronExpr, "error", err)
			if !sleep(ctx, 30*time.Second) {
				break
			}
			continue
		}
		if !sleep(ctx, time.Until(next)) {
			break
		}
		if _, err := RunOnce(p, ret); err != nil {
			logger.Error("retention_run_error", "error", err)
		}
	}
	logger.Info("retention_scheduler_stopping")
}

// sleep waits for d or cancellation; it reports false when ctx is done.
func sleep(ctx context.Context, d time.Duration) bool {
	if d < 0 {
		d = 0
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
