package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/rtss/core/config"
	"github.com/dmitrymomot/rtss/core/connector"
	"github.com/dmitrymomot/rtss/core/fanout"
	"github.com/dmitrymomot/rtss/core/health"
	"github.com/dmitrymomot/rtss/core/logger"
	"github.com/dmitrymomot/rtss/core/metrics"
	"github.com/dmitrymomot/rtss/core/relay"
	"github.com/dmitrymomot/rtss/core/replay"
	"github.com/dmitrymomot/rtss/integration/database/pg"
	"github.com/dmitrymomot/rtss/integration/database/redis"
	"github.com/dmitrymomot/rtss/integration/queue/amqp"
	"github.com/dmitrymomot/rtss/internal/submission"
)

type (
	updateRelay     = relay.Relay[submission.ID, submission.Update]
	updateConnector = relay.Connector[submission.ID, submission.Update]
	updateDialer    = connector.Dialer[submission.ID, submission.Update]
)

// publisher is a relay publisher that can be shut down.
type publisher interface {
	relay.Publisher[submission.ID, submission.Update]
	Close() error
}

// upstream is everything the selected source needs to run and be checked.
type upstream struct {
	connector updateConnector
	checks    []health.Check
	cleanup   []func() error
}

// close releases the source clients in reverse order of creation.
func (u *upstream) close() error {
	var errs []error
	for i := len(u.cleanup) - 1; i >= 0; i-- {
		errs = append(errs, u.cleanup[i]())
	}
	return errors.Join(errs...)
}

func newPublisher(cfg Config, log *slog.Logger, m *metrics.Metrics) (publisher, error) {
	switch cfg.Publisher {
	case PublisherDirect:
		return fanout.New[submission.ID, submission.Update](
			fanout.WithTTL(cfg.SubscriptionTTL),
			fanout.WithSendTimeout(cfg.SendTimeout),
			fanout.WithLogger(log),
			fanout.WithMetrics(m),
		), nil
	case PublisherReplay:
		return replay.New[submission.ID, submission.Update](
			replay.WithTTL(cfg.SubscriptionTTL),
			replay.WithMaxHistory(cfg.MaxHistory),
			replay.WithBuffer(cfg.SinkBuffer),
			replay.WithLogger(log),
			replay.WithMetrics(m),
		), nil
	}
	return nil, ErrUnknownPublisher
}

func relayOptions(cfg Config, log *slog.Logger, m *metrics.Metrics) []relay.Option {
	opts := []relay.Option{
		relay.WithConcurrency(cfg.Concurrency),
		relay.WithPublishTimeout(cfg.PublishTimeout),
		relay.WithLogger(log),
		relay.WithMetrics(m),
	}
	if cfg.UnorderedDispatch {
		opts = append(opts, relay.WithUnorderedDispatch())
	}
	if cfg.StrictSubscribe {
		opts = append(opts, relay.WithStrictSubscribe())
	}
	return opts
}

// newUpstream connects the clients the selected source needs and wraps its
// dialer in the retrying connector.
func newUpstream(ctx context.Context, cfg Config, pool *pgxpool.Pool, log *slog.Logger, m *metrics.Metrics) (*upstream, error) {
	up := &upstream{}
	var dialer updateDialer

	switch cfg.Source {
	case SourceNone:
		up.connector = relay.NopConnector[submission.ID, submission.Update]{}
		return up, nil

	case SourcePostgres:
		var pgCfg pg.Config
		if err := config.Load(&pgCfg); err != nil {
			return nil, err
		}
		if pool == nil {
			return nil, pg.ErrEmptyConnectionString
		}
		d, err := pg.NewDialer(pg.ListenConfig{Pool: pool, Channels: pgCfg.ListenChannels}, submission.Decode, pg.WithLogger(log))
		if err != nil {
			return nil, err
		}
		dialer = d

	case SourceRedis:
		var redisCfg redis.Config
		if err := config.Load(&redisCfg); err != nil {
			return nil, err
		}
		client, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			return nil, err
		}
		up.cleanup = append(up.cleanup, client.Close)
		up.checks = append(up.checks, redis.Healthcheck(client))

		d, err := redis.NewDialer(client, redisCfg.Channels, submission.Decode, redis.WithLogger(log))
		if err != nil {
			_ = up.close()
			return nil, err
		}
		dialer = d

	case SourceAMQP:
		var amqpCfg amqp.Config
		if err := config.Load(&amqpCfg); err != nil {
			return nil, err
		}
		d, err := amqp.NewDialer(amqpCfg, submission.Decode, amqp.WithLogger(log))
		if err != nil {
			return nil, err
		}
		dialer = d

	default:
		return nil, ErrUnknownSource
	}

	up.connector = connector.New(dialer,
		connector.WithWindow(cfg.ReconnectWindow),
		connector.WithMaxAttempts(cfg.MaxConnectAttempts),
		connector.WithLogger(log),
		connector.WithMetrics(m),
	)
	return up, nil
}

// needsPostgres reports whether a pool must be opened before wiring.
func needsPostgres(cfg Config) bool {
	return cfg.Source == SourcePostgres || cfg.Snapshots
}

func openPostgres(ctx context.Context, log *slog.Logger) (*pgxpool.Pool, error) {
	var pgCfg pg.Config
	if err := config.Load(&pgCfg); err != nil {
		return nil, err
	}
	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return nil, err
	}
	log.InfoContext(ctx, "connected to postgres", logger.Component("database"))
	return pool, nil
}

func newLogger(cfg Config) *slog.Logger {
	var opts []logger.Option
	switch cfg.Env {
	case "production":
		opts = append(opts, logger.WithProduction(cfg.AppName))
	case "staging":
		opts = append(opts, logger.WithStaging(cfg.AppName))
	default:
		opts = append(opts, logger.WithDevelopment(cfg.AppName))
	}
	if cfg.LogLevel != "" {
		opts = append(opts, logger.WithLevel(logger.ParseLevel(cfg.LogLevel)))
	}
	switch cfg.LogFormat {
	case "json":
		opts = append(opts, logger.WithJSONFormatter())
	case "text":
		opts = append(opts, logger.WithTextFormatter())
	}
	if cfg.LogSource {
		opts = append(opts, logger.WithHandlerOptions(&slog.HandlerOptions{AddSource: true}))
	}
	return logger.New(opts...)
}

// isShutdown reports whether err only reflects the process being asked to stop.
func isShutdown(err error) bool {
	return err == nil || errors.Is(err, context.Canceled)
}
