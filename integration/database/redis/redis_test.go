package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/rtss/core/relay"
	"github.com/dmitrymomot/rtss/integration/database/redis"
)

type update struct {
	ID int32 `json:"id"`
}

var decode = relay.JSONDecoder(func(u update) int32 { return u.ID })

func TestConfig_Defaults(t *testing.T) {
	t.Parallel()

	var cfg redis.Config
	require.NoError(t, env.ParseWithOptions(&cfg, env.Options{Environment: map[string]string{}}))

	assert.Equal(t, "redis://localhost:6379/0", cfg.ConnectionURL)
	assert.Equal(t, []string{"submission_update"}, cfg.Channels)
	assert.Equal(t, 3, cfg.RetryAttempts)
	assert.Equal(t, 30*time.Second, cfg.ConnectTimeout)
}

func TestConnect_InvalidConfig(t *testing.T) {
	t.Parallel()

	_, err := redis.Connect(context.Background(), redis.Config{})
	require.ErrorIs(t, err, redis.ErrEmptyConnectionURL)

	_, err = redis.Connect(context.Background(), redis.Config{ConnectionURL: "http://localhost"})
	require.ErrorIs(t, err, redis.ErrFailedToParseRedisConnString)
}

func TestConnect_Unreachable(t *testing.T) {
	t.Parallel()

	_, err := redis.Connect(context.Background(), redis.Config{
		ConnectionURL:  "redis://127.0.0.1:1/0",
		RetryAttempts:  2,
		RetryInterval:  10 * time.Millisecond,
		ConnectTimeout: 2 * time.Second,
	})
	require.ErrorIs(t, err, redis.ErrRedisNotReady)
}

func TestHealthcheck_NilClient(t *testing.T) {
	t.Parallel()

	err := redis.Healthcheck(nil)(context.Background())
	require.ErrorIs(t, err, redis.ErrHealthcheckFailed)
	assert.ErrorIs(t, err, redis.ErrNilClient)
}

func TestNewDialer(t *testing.T) {
	t.Parallel()

	client := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1"})
	t.Cleanup(func() { _ = client.Close() })

	_, err := redis.NewDialer(nil, []string{"a"}, decode)
	require.ErrorIs(t, err, redis.ErrNilClient)

	_, err = redis.NewDialer(client, nil, decode)
	require.ErrorIs(t, err, redis.ErrNoChannels)

	_, err = redis.NewDialer[int32, update](client, []string{"a"}, nil)
	require.ErrorIs(t, err, redis.ErrNilDecoder)

	d, err := redis.NewDialer(client, []string{"a"}, decode)
	require.NoError(t, err)
	require.NotNil(t, d)
}
