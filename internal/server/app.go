// Package server initializes and runs the TokenKeeper server. It opens the
// store, generates the root secret, serves the core over gRPC and watches
// the store's health until shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/tokenkeeper/internal/cryptox"
	"github.com/dmitrijs2005/tokenkeeper/internal/logging"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/auth"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/config"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/core"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/repositories/repomanager"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/tokenkeeper/internal/server/grpc"
)

const healthCheckInterval = 10 * time.Second

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	keeper *core.Keeper
	server *gs.GRPCServer
}

// NewApp opens the store and wires the core. The root secret is generated
// here and lives only in memory.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	db, m, err := repomanager.Open(ctx, c.DatabaseDriver, c.DatabaseDSN, logger)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	keeper := core.New(db, m, cryptox.NewArgon2(c.Argon2Params()), auth.NewRootSecret(), logger)

	return &App{
		config: c,
		logger: logger,
		db:     db,
		keeper: keeper,
		server: gs.NewGRPCServer(c.EndpointAddrGRPC, logger, keeper),
	}, nil
}

// watchStore pings the store and mirrors the result in the health service.
func (app *App) watchStore(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	healthy := true
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			err := app.db.PingContext(ctx)
			if ok := err == nil; ok != healthy {
				healthy = ok
				app.server.SetServing(ok)
				if ok {
					app.logger.Info(ctx, "store reachable again")
				} else {
					app.logger.Error(ctx, "store unreachable", "error", err)
				}
			}
		}
	}
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// closes the store.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	app.logger.Info(ctx, "Starting app...", "driver", app.config.DatabaseDriver)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.server.Run(ctx) })
	g.Go(func() error { return app.watchStore(ctx, healthCheckInterval) })

	err := g.Wait()
	if cerr := app.db.Close(); cerr != nil && err == nil {
		err = cerr
	}
	app.logger.Info(context.Background(), "Stopped")
	return err
}
