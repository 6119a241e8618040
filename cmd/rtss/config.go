package main

import (
	"errors"
	"fmt"
	"time"
)

const (
	SourcePostgres = "postgres"
	SourceRedis    = "redis"
	SourceAMQP     = "amqp"
	SourceNone     = "none"

	PublisherDirect = "direct"
	PublisherReplay = "replay"
)

var (
	ErrUnknownSource    = errors.New("unknown upstream source")
	ErrUnknownPublisher = errors.New("unknown publisher kind")
)

// Config is the application-level configuration. Each integration loads its
// own settings only when it is selected, so unused ones may stay unset.
type Config struct {
	AppName   string `env:"APP_NAME" envDefault:"rtss"`
	Env       string `env:"APP_ENV" envDefault:"development"`
	LogLevel  string `env:"APP_LOG_LEVEL"`
	// LogFormat overrides the environment preset: "json" or "text".
	LogFormat string `env:"APP_LOG_FORMAT"`
	LogSource bool   `env:"APP_LOG_SOURCE" envDefault:"false"`

	Source    string `env:"APP_SOURCE" envDefault:"postgres"`
	Publisher string `env:"APP_PUBLISHER" envDefault:"direct"`

	// SubscriptionTTL is the fixed lifetime of a direct subscription or of a
	// replay key's history.
	SubscriptionTTL time.Duration `env:"APP_SUBSCRIPTION_TTL" envDefault:"30s"`
	MaxHistory      int           `env:"APP_MAX_HISTORY" envDefault:"0"`
	// SendTimeout is how long a push may wait for a full sink; zero drops a
	// full subscriber at once.
	SendTimeout     time.Duration `env:"APP_SEND_TIMEOUT" envDefault:"0s"`
	PublishTimeout  time.Duration `env:"APP_PUBLISH_TIMEOUT" envDefault:"5s"`

	Concurrency       int  `env:"APP_CONCURRENCY" envDefault:"10"`
	UnorderedDispatch bool `env:"APP_UNORDERED_DISPATCH" envDefault:"false"`
	StrictSubscribe   bool `env:"APP_STRICT_SUBSCRIBE" envDefault:"false"`

	ReconnectWindow    time.Duration `env:"APP_RECONNECT_WINDOW" envDefault:"180s"`
	MaxConnectAttempts int           `env:"APP_MAX_CONNECT_ATTEMPTS" envDefault:"0"`

	SinkBuffer   int           `env:"APP_SINK_BUFFER" envDefault:"16"`
	SSEKeepAlive time.Duration `env:"APP_SSE_KEEPALIVE" envDefault:"30s"`

	// Snapshots sends the stored submission row before live updates. It needs
	// PG_CONN_URL even when the source is not postgres.
	Snapshots bool `env:"APP_SNAPSHOTS" envDefault:"false"`
	Metrics   bool `env:"APP_METRICS" envDefault:"true"`
}

// Validate checks the enumerated settings.
func (c Config) Validate() error {
	switch c.Source {
	case SourcePostgres, SourceRedis, SourceAMQP, SourceNone:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSource, c.Source)
	}
	switch c.Publisher {
	case PublisherDirect, PublisherReplay:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownPublisher, c.Publisher)
	}
	return nil
}
