package redis

import "errors"

// Domain-specific Redis errors. Use errors.Is() to check them.
var (
	ErrFailedToParseRedisConnString = errors.New("failed to parse redis connection string")
	ErrRedisNotReady                = errors.New("redis did not become ready within the given time period")
	ErrEmptyConnectionURL           = errors.New("empty redis connection URL")
	ErrHealthcheckFailed            = errors.New("redis healthcheck failed")
	ErrNilClient                    = errors.New("redis client is nil")
	ErrNoChannels                   = errors.New("no pub/sub channels configured")
	ErrNilDecoder                   = errors.New("message decoder is nil")
	ErrSubscribeFailed              = errors.New("failed to subscribe to pub/sub channels")
)
