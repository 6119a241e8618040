package pg_test

import (
	"context"
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/rtss/core/relay"
	"github.com/dmitrymomot/rtss/integration/database/pg"
)

type update struct {
	ID int32 `json:"id"`
}

var decode = relay.JSONDecoder(func(u update) int32 { return u.ID })

func TestConfig_FromEnv(t *testing.T) {
	t.Parallel()

	var cfg pg.Config
	err := env.ParseWithOptions(&cfg, env.Options{Environment: map[string]string{
		"PG_CONN_URL":        "postgres://localhost:5432/rtss",
		"PG_LISTEN_CHANNELS": "submission_update,contest_update",
	}})
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost:5432/rtss", cfg.ConnectionString)
	assert.Equal(t, []string{"submission_update", "contest_update"}, cfg.ListenChannels)
	assert.Equal(t, int32(10), cfg.MaxOpenConns)
	assert.Equal(t, 3, cfg.RetryAttempts)
	assert.Equal(t, 5*time.Second, cfg.RetryInterval)
}

func TestConfig_Required(t *testing.T) {
	t.Parallel()

	var cfg pg.Config
	err := env.ParseWithOptions(&cfg, env.Options{Environment: map[string]string{}})
	require.Error(t, err)
}

func TestConnect_InvalidConfig(t *testing.T) {
	t.Parallel()

	_, err := pg.Connect(context.Background(), pg.Config{})
	require.ErrorIs(t, err, pg.ErrEmptyConnectionString)

	_, err = pg.Connect(context.Background(), pg.Config{ConnectionString: "postgres://%zz"})
	require.ErrorIs(t, err, pg.ErrFailedToParseDBConfig)
}

func TestHealthcheck_NilPool(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, pg.Healthcheck(nil)(context.Background()), pg.ErrHealthcheckFailed)
}

func TestListenConfig_Validate(t *testing.T) {
	t.Parallel()

	pool := &pgxpool.Pool{}
	tests := []struct {
		name string
		cfg  pg.ListenConfig
		err  error
	}{
		{name: "no source", cfg: pg.ListenConfig{Channels: []string{"a"}}, err: pg.ErrNoListenSource},
		{name: "both sources", cfg: pg.ListenConfig{URL: "postgres://x", Pool: pool, Channels: []string{"a"}}, err: pg.ErrAmbiguousSource},
		{name: "no channels", cfg: pg.ListenConfig{URL: "postgres://x"}, err: pg.ErrNoListenChannels},
		{name: "url", cfg: pg.ListenConfig{URL: "postgres://x", Channels: []string{"a"}}},
		{name: "pool", cfg: pg.ListenConfig{Pool: pool, Channels: []string{"a"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if tt.err == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.err)
		})
	}
}

func TestNewDialer(t *testing.T) {
	t.Parallel()

	_, err := pg.NewDialer(pg.ListenConfig{}, decode)
	require.ErrorIs(t, err, pg.ErrNoListenSource)

	_, err = pg.NewDialer[int32, update](pg.ListenConfig{URL: "postgres://x", Channels: []string{"a"}}, nil)
	require.ErrorIs(t, err, pg.ErrNilDecoder)

	d, err := pg.NewDialer(pg.ListenConfig{URL: "postgres://x", Channels: []string{"a"}}, decode)
	require.NoError(t, err)
	require.NotNil(t, d)
}

func TestDialer_Unreachable(t *testing.T) {
	t.Parallel()

	d, err := pg.NewDialer(pg.ListenConfig{
		URL:      "postgres://rtss@127.0.0.1:1/rtss?connect_timeout=1",
		Channels: []string{"submission_update"},
	}, decode)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	_, err = d.Dial(ctx)
	require.ErrorIs(t, err, pg.ErrFailedToConnectPG)
}
