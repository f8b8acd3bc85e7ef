// Package serve implements the serve command: it runs configured schedules
// and exposes health and metrics endpoints until interrupted.
package serve

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/cooper/cmd/common"
	infragin "github.com/jonesrussell/cooper/infrastructure/gin"
	"github.com/jonesrussell/cooper/infrastructure/logger"
	"github.com/jonesrussell/cooper/internal/bootstrap"
	"github.com/jonesrussell/cooper/internal/scheduler"
)

const serviceName = "cooper"

// Command returns the serve command. version is reported by /health.
func Command(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run scheduled analyses and serve health and metrics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := common.NewCommandDeps(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = deps.Logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return run(ctx, deps, version)
		},
	}
}

func run(ctx context.Context, deps common.CommandDeps, version string) error {
	cfg := deps.Config
	log := deps.Logger

	app, err := bootstrap.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("build components: %w", err)
	}
	defer func() {
		if closeErr := app.Close(); closeErr != nil {
			log.Warn("Closing connections failed", logger.Error(closeErr))
		}
	}()

	sched := scheduler.New(app.Service, log, app.Metrics)
	for _, entry := range cfg.Schedule {
		if addErr := sched.Add(entry); addErr != nil {
			return addErr
		}
	}

	server := infragin.NewServer(&infragin.Config{
		Address:         cfg.Server.Address(),
		Debug:           cfg.Logging.Level == "debug",
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		ServiceName:     serviceName,
		ServiceVersion:  version,
	}, log, func(router *gin.Engine) {
		SetupRoutes(router, app, sched, RouteOptions{
			ServiceName:    serviceName,
			ServiceVersion: version,
			StartTime:      time.Now(),
		})
	})

	// open event streams would otherwise hold up the server shutdown
	stopStreams := context.AfterFunc(ctx, func() { _ = app.Broker.Close() })
	defer stopStreams()

	sched.Start()
	serveErr := server.Run(ctx)

	//nolint:contextcheck // ctx is done by now; stopping needs its own deadline
	stopCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := sched.Stop(stopCtx); err != nil {
		log.Warn("Scheduler did not stop cleanly", logger.Error(err))
	}

	return serveErr
}
