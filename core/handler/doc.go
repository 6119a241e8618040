// Package handler defines the request handling types shared by the HTTP
// packages: a HandlerFunc returns a Response, and a Response either writes
// the reply or returns an error for the ErrorHandler to render.
//
//	var hello handler.HandlerFunc = func(r *http.Request) handler.Response {
//		return response.String("OK")
//	}
//	router.Handle("/", hello).Methods(http.MethodGet)
//
// HandlerFunc implements http.Handler, so it mounts directly on a
// gorilla/mux router or any other http.Handler based router. Middleware is plain func(http.Handler) http.Handler and
// Chain composes it with the first middleware outermost.
package handler
