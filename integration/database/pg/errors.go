package pg

import "errors"

var (
	ErrFailedToOpenDBConnection = errors.New("failed to open db connection")
	ErrEmptyConnectionString    = errors.New("empty postgres connection string, use PG_CONN_URL env var")
	ErrHealthcheckFailed        = errors.New("healthcheck failed, connection is not available")
	ErrFailedToParseDBConfig    = errors.New("failed to parse db config")

	ErrNoListenSource    = errors.New("listen config needs a connection URL or a pool")
	ErrAmbiguousSource   = errors.New("listen config accepts either a connection URL or a pool, not both")
	ErrNoListenChannels  = errors.New("listen config has no channels")
	ErrNilDecoder        = errors.New("notification decoder is nil")
	ErrListenFailed      = errors.New("failed to subscribe to notification channel")
	ErrFailedToConnectPG = errors.New("failed to establish listen connection")
)
