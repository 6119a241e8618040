// Package middleware provides the net/http middleware mounted in front of the
// subscriber endpoints: permissive CORS, request IDs and access logging.
//
//	h := handler.Chain(mux,
//		middleware.RequestID(),
//		middleware.Logging(log),
//		middleware.CORS(),
//	)
//
// The logging wrapper forwards Flush and Hijack, so Server-Sent Events and
// WebSocket upgrades work behind it. Streams are logged once, when they end,
// and never count as slow requests.
package middleware
