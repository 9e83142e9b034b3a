// Package app wires configuration, market data, the paper connector, the
// strategy engine and the status HTTP server into one runnable unit.
package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"vectra/internal/config"
	"vectra/internal/logger"
	"vectra/internal/scheduler"
	"vectra/internal/store/tradelog"
	"vectra/internal/strategy"
	statushttp "vectra/internal/transport/http/status"
)

// statusLogInterval is how often the formatted status block is written to
// the log while the app runs.
const statusLogInterval = time.Minute

type App struct {
	cfg     *config.Config
	engine  *strategy.Engine
	httpSrv *statushttp.Server
	audit   *tradelog.Store
	watcher *config.Watcher
}

// New builds the application from config (nothing is started yet).
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return build(cfg)
}

// WatchConfig attaches a config watcher so trading bound edits take effect
// without a restart.
func (a *App) WatchConfig(w *config.Watcher) {
	if a == nil || w == nil {
		return
	}
	a.watcher = w
	w.Subscribe(func(next *config.Config) {
		a.engine.UpdateTrading(next.Trading)
	})
}

// Run starts the engine loop, the tick scheduler and the HTTP server, and
// blocks until ctx is canceled or a component fails.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}

	a.engine.Start()
	defer a.engine.Stop()
	if a.audit != nil {
		defer func() {
			if err := a.audit.Close(); err != nil {
				logger.Warnf("app: trade log close failed: %v", err)
			}
		}()
	}

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		if err := a.httpSrv.Run(ctx); err != nil {
			return fmt.Errorf("status http server error: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		ticks := scheduler.NewIntervalScheduler(ctx, a.cfg.Trading.TickInterval())
		ticks.Start(func() {
			if err := a.engine.Tick(ctx); err != nil && ctx.Err() == nil {
				logger.Warnf("app: tick failed: %v", err)
			}
		})
		return nil
	})

	group.Go(func() error {
		status := scheduler.NewIntervalScheduler(ctx, statusLogInterval)
		status.RunImmediately = false
		status.Start(func() {
			a.engine.LogStatus(ctx)
		})
		return nil
	})

	return group.Wait()
}

// Engine exposes the strategy engine (for tests and harnesses).
func (a *App) Engine() *strategy.Engine {
	if a == nil {
		return nil
	}
	return a.engine
}
