// Package health provides liveness and readiness probes.
//
//	mux.Handle("GET /health/live", handler.HandlerFunc(health.Liveness))
//	mux.Handle("GET /health/ready", health.Readiness(log,
//		pg.Healthcheck(pool),
//		relay.Healthcheck,
//	))
//
// A check is any func(context.Context) error.
package health
