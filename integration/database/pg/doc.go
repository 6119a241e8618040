// Package pg connects to PostgreSQL with pgx and turns LISTEN/NOTIFY channels into a
// relay event source.
//
// # Connection pool
//
// Connect builds a pgxpool.Pool from Config, retrying RetryAttempts times with
// RetryInterval between attempts, and pings it before returning. Healthcheck wraps
// a ping for readiness probes:
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	ready := health.Readiness(log, pg.Healthcheck(pool))
//
// # Notifications
//
// Dialer implements connector.Dialer. Each Dial opens a dedicated connection (a fresh
// one from ListenConfig.URL, or one hijacked from ListenConfig.Pool), runs LISTEN for
// every channel and returns a single-use relay.Listener over WaitForNotification.
// Payloads that fail to decode are logged and skipped; a broken connection ends the
// listener and the connector dials again.
//
//	d, err := pg.NewDialer(pg.ListenConfig{
//		Pool:     pool,
//		Channels: cfg.ListenChannels,
//	}, submission.Decode, pg.WithLogger(log))
//	conn := connector.New[int32, submission.Update](d)
//
// # Configuration
//
//	type Config struct {
//		ConnectionString  string        `env:"PG_CONN_URL,required"`
//		MaxOpenConns      int32         `env:"PG_MAX_OPEN_CONNS" envDefault:"10"`
//		MaxIdleConns      int32         `env:"PG_MAX_IDLE_CONNS" envDefault:"2"`
//		HealthCheckPeriod time.Duration `env:"PG_HEALTHCHECK_PERIOD" envDefault:"1m"`
//		MaxConnIdleTime   time.Duration `env:"PG_MAX_CONN_IDLE_TIME" envDefault:"10m"`
//		MaxConnLifetime   time.Duration `env:"PG_MAX_CONN_LIFETIME" envDefault:"30m"`
//		RetryAttempts     int           `env:"PG_RETRY_ATTEMPTS" envDefault:"3"`
//		RetryInterval     time.Duration `env:"PG_RETRY_INTERVAL" envDefault:"5s"`
//		ListenChannels    []string      `env:"PG_LISTEN_CHANNELS" envSeparator:"," envDefault:"submission_update"`
//	}
package pg
