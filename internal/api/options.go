package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/rtss/core/health"
)

// DefaultSinkBuffer is the per-stream queue between the publisher and the
// client connection.
const DefaultSinkBuffer = 16

type Option func(*API)

func WithLogger(log *slog.Logger) Option {
	return func(a *API) {
		if log != nil {
			a.log = log
		}
	}
}

// WithSnapshots sends the stored state of a submission before live updates.
func WithSnapshots(s Snapshotter) Option {
	return func(a *API) {
		a.snapshots = s
	}
}

// WithMetrics mounts h on GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(a *API) {
		a.metrics = h
	}
}

// WithReadinessChecks adds checks behind GET /health/ready.
func WithReadinessChecks(checks ...health.Check) Option {
	return func(a *API) {
		a.checks = append(a.checks, checks...)
	}
}

func WithSinkBuffer(n int) Option {
	return func(a *API) {
		if n > 0 {
			a.buffer = n
		}
	}
}

// WithKeepAlive sets the idle interval between SSE keep-alive comments.
func WithKeepAlive(d time.Duration) Option {
	return func(a *API) {
		if d > 0 {
			a.keepAlive = d
		}
	}
}
