// Package app assembles the server: store, services, transport and
// lifecycle. main stays a thin flag/env shell around it.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"teamline/internal/janitor"
	"teamline/pkg/admin"
	"teamline/pkg/api/handlers"
	"teamline/pkg/config"
	"teamline/pkg/conv"
	"teamline/pkg/logger"
	"teamline/pkg/metrics"
	"teamline/pkg/notify"
	"teamline/pkg/react"
	"teamline/pkg/sched"
	"teamline/pkg/standup"
	"teamline/pkg/store"
	"teamline/pkg/telemetry"
	"teamline/pkg/users"
)

// App encapsulates the server components and lifecycle.
type App struct {
	eff       config.EffectiveConfigResult
	version   string
	commit    string
	buildDate string

	st    *store.Store
	timer *sched.Scheduler
	h     *handlers.Handlers

	srv           *http.Server
	cancelJanitor context.CancelFunc
}

// New opens the store and builds the service graph. It does not start
// the janitor or the HTTP server; call Run to start those and block
// until shutdown.
func New(eff config.EffectiveConfigResult, version, commit, buildDate string) (*App, error) {
	st, err := store.Open(eff.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open store at %s: %w", eff.DBPath, err)
	}
	metrics.RegisterStore(st)
	telemetry.Configure(eff.Config.Telemetry.Dir, eff.Config.Telemetry.SampleRate)

	timer := sched.New()
	notif := notify.NewEngine(st)
	usersSvc := users.NewService(st, time.Duration(eff.Config.Sessions.TTLSeconds)*time.Second)
	convSvc := conv.NewService(st, notif, timer)
	reactSvc := react.NewService(st, notif)
	standupSvc := standup.NewService(st, notif, timer)
	adminSvc := admin.NewService(st, timer, usersSvc, standupSvc, usersSvc)

	a := &App{
		eff:       eff,
		version:   version,
		commit:    commit,
		buildDate: buildDate,
		st:        st,
		timer:     timer,
		h: &handlers.Handlers{
			Users:   usersSvc,
			Conv:    convSvc,
			React:   reactSvc,
			Standup: standupSvc,
			Admin:   adminSvc,
			Notif:   notif,
		},
	}
	return a, nil
}

// Run starts the janitor and the HTTP server, blocking until ctx is
// cancelled or a fatal server error occurs.
func (a *App) Run(ctx context.Context) error {
	cancel, err := janitor.Start(ctx, a.st, a.eff.Config)
	if err != nil {
		return err
	}
	a.cancelJanitor = cancel

	a.printBanner()
	errCh := a.startHTTP()

	select {
	case <-ctx.Done():
		a.shutdown()
		return nil
	case err := <-errCh:
		a.shutdown()
		return err
	}
}

// shutdown tears components down in dependency order.
func (a *App) shutdown() {
	if a.cancelJanitor != nil {
		a.cancelJanitor()
	}
	a.stopHTTP()
	a.timer.Stop()
	if err := a.st.Close(); err != nil {
		logger.Error("store_close_failed", "error", err)
	}
}
