package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/rtss/core/config"
	"github.com/dmitrymomot/rtss/core/health"
	"github.com/dmitrymomot/rtss/core/logger"
	"github.com/dmitrymomot/rtss/core/metrics"
	"github.com/dmitrymomot/rtss/core/relay"
	"github.com/dmitrymomot/rtss/core/server"
	"github.com/dmitrymomot/rtss/integration/database/pg"
	"github.com/dmitrymomot/rtss/internal/api"
	"github.com/dmitrymomot/rtss/internal/submission"
)

func main() {
	os.Exit(run())
}

// run wires and runs the service and returns the process exit code, so deferred
// cleanups finish before the process exits.
func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg Config
	config.MustLoad(&cfg)

	log := newLogger(cfg)
	logger.SetAsDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("Invalid configuration", logger.Error(err))
		return 1
	}

	var srvCfg server.Config
	config.MustLoad(&srvCfg)

	var m *metrics.Metrics
	if cfg.Metrics {
		m = metrics.New(metrics.DefaultNamespace)
	}

	var apiOpts []api.Option
	var checks []health.Check

	// Postgres retries and pings inside Connect.
	var pool *pgxpool.Pool
	if needsPostgres(cfg) {
		p, err := openPostgres(ctx, log)
		if err != nil {
			log.Error("Failed to connect to database", logger.Component("database"), logger.Error(err))
			return 1
		}
		defer p.Close()
		pool = p
		checks = append(checks, pg.Healthcheck(p))
		if cfg.Snapshots {
			apiOpts = append(apiOpts, api.WithSnapshots(submission.NewRepository(p)))
		}
	}

	pub, err := newPublisher(cfg, log, m)
	if err != nil {
		log.Error("Failed to create publisher", logger.Error(err))
		return 1
	}

	up, err := newUpstream(ctx, cfg, pool, log, m)
	if err != nil {
		_ = pub.Close()
		log.Error("Failed to set up upstream", logger.Component("upstream"), logger.Error(err))
		return 1
	}
	defer func() {
		pubErr := pub.Close()
		upErr := up.close()
		if pubErr != nil || upErr != nil {
			log.Warn("Cleanup failed", logger.Errors(pubErr, upErr))
		}
	}()
	checks = append(checks, up.checks...)

	rel := relay.New[submission.ID, submission.Update](up.connector, pub, relayOptions(cfg, log, m)...)
	if cfg.Source != SourceNone {
		checks = append(checks, rel.Healthcheck)
	}

	apiOpts = append(apiOpts,
		api.WithLogger(log),
		api.WithReadinessChecks(checks...),
		api.WithSinkBuffer(cfg.SinkBuffer),
		api.WithKeepAlive(cfg.SSEKeepAlive),
	)
	if m != nil {
		apiOpts = append(apiOpts, api.WithMetrics(m.Handler()))
	}

	srv, err := server.NewFromConfig(srvCfg, server.WithLogger(log))
	if err != nil {
		log.Error("Failed to create server", logger.Component("server"), logger.Error(err))
		return 1
	}

	eg, ctx := errgroup.WithContext(ctx)
	if cfg.Source != SourceNone {
		eg.Go(rel.Run(ctx))
	}
	eg.Go(srv.Run(ctx, api.New(rel, apiOpts...)))

	log.Info("Relay started",
		logger.Source(cfg.Source),
		logger.Group("publisher",
			slog.String("kind", cfg.Publisher),
			slog.Duration("ttl", cfg.SubscriptionTTL),
		),
		slog.String("addr", srvCfg.Addr),
	)

	if err := eg.Wait(); !isShutdown(err) {
		log.Error("Relay stopped with error", logger.Error(err))
		return 1
	}

	log.Info("Application stopped")
	return 0
}
