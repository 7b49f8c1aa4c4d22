// Package janitor runs periodic housekeeping on a cron schedule:
// trimming notification feeds down to their retrievable window and
// sweeping expired sessions.
package janitor

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"teamline/pkg/config"
	"teamline/pkg/logger"
	"teamline/pkg/notify"
	"teamline/pkg/store"
)

// Start launches the cron loop when enabled. Returns a cancel func.
func Start(ctx context.Context, st *store.Store, cfg config.Config) (context.CancelFunc, error) {
	if !cfg.Janitor.Enabled {
		logger.Info("janitor_disabled")
		return func() {}, nil
	}
	cronExpr := cfg.Janitor.Cron
	if cronExpr == "" {
		cronExpr = "0 * * * *"
	}
	if !gronx.IsValid(cronExpr) {
		logger.Error("janitor_invalid_cron", "cron", cronExpr)
		return nil, fmt.Errorf("invalid janitor cron expression: %s", cronExpr)
	}

	logger.Info("janitor_enabled", "cron", cronExpr)
	ctx2, cancel := context.WithCancel(ctx)
	go runScheduler(ctx2, st, cronExpr)
	return cancel, nil
}

// runScheduler sleeps until the next cron tick and runs one pass.
func runScheduler(ctx context.Context, st *store.Store, cronExpr string) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("janitor_stopping")
			return
		default:
		}

		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(cronExpr, now, false)
		if err != nil {
			logger.Error("janitor_nexttick_failed", "cron", cronExpr, "error", err)
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		select {
		case <-time.After(time.Until(next)):
			RunOnce(st)
		case <-ctx.Done():
			logger.Info("janitor_stopping")
			return
		}
	}
}

// RunOnce performs a single housekeeping pass. Exported so tests and
// admin tooling can trigger it on demand.
func RunOnce(st *store.Store) {
	pruned, err := st.PruneNotifications(notify.FeedLimit)
	if err != nil {
		logger.Error("janitor_prune_failed", "error", err)
	} else if pruned > 0 {
		logger.Info("janitor_pruned_notifications", "entries", pruned)
	}
	swept, err := st.SweepSessions(time.Now().Unix())
	if err != nil {
		logger.Error("janitor_sweep_failed", "error", err)
	} else if swept > 0 {
		logger.Info("janitor_swept_sessions", "sessions", swept)
	}
}
