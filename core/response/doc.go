// Package response builds handler.Response values: plain text, JSON, errors,
// and the two push transports used by subscribers, Server-Sent Events and
// WebSocket.
//
//	sink := relay.NewChanSink[submission.Update](16)
//	return response.SSE(sink.C(), response.WithDone(sink.Done()))
//
// Both stream responses end when the client disconnects, the done channel is
// closed or a write fails. SSE sends a ": connected" comment first and a
// ": keepalive" comment on idle intervals; WebSocket sends pings.
//
// HTTPError carries a status and a machine-readable code. ErrorHandler and
// JSONErrorHandler render any error, using StatusCode when the error has one.
package response
