// Package api exposes submission updates over HTTP.
//
//	GET /                    "OK"
//	GET /health/live         liveness
//	GET /health/ready        readiness (relay pipeline plus configured checks)
//	GET /metrics             Prometheus exposition, when configured
//	GET /{submission_id}     Server-Sent Events stream of updates
//	GET /ws/{submission_id}  the same stream over WebSocket
//
// A stream request creates a channel sink, hands it to the relay and streams
// whatever arrives. There is no explicit unsubscribe: when the client leaves
// the sink is closed and the publisher drops it on the next send, or the
// subscription expires.
package api
