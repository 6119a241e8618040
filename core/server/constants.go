package server

import "time"

const (
	DefaultReadTimeout = 15 * time.Second

	// DefaultWriteTimeout is zero: subscribers hold their response open for as
	// long as they listen.
	DefaultWriteTimeout time.Duration = 0

	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxHeaderBytes  = 1 << 20 // 1 MB
)
