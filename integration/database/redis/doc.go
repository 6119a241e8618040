// Package redis provides go-redis client setup and a Pub/Sub relay event source.
//
// Connect parses REDIS_URL (redis:// or rediss://), then pings with retries before
// returning the client. Healthcheck wraps the ping for readiness probes.
//
// Dialer implements connector.Dialer. Each Dial opens a Pub/Sub session on the
// configured channels, waits for the subscription confirmation and returns a
// single-use relay.Listener over ReceiveMessage. Messages that fail to decode are
// logged and skipped.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	d, err := redis.NewDialer(client, cfg.Channels, submission.Decode)
//	conn := connector.New[int32, submission.Update](d)
//
// Configuration:
//
//	type Config struct {
//		ConnectionURL  string        `env:"REDIS_URL,required" envDefault:"redis://localhost:6379/0"`
//		RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
//		RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`
//		ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`
//		Channels       []string      `env:"REDIS_CHANNELS" envSeparator:"," envDefault:"submission_update"`
//	}
package redis
