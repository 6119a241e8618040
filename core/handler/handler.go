package handler

import (
	"errors"
	"net/http"
)

// Response renders an HTTP response. A returned error is passed to the
// handler's ErrorHandler; nothing should have been written when it is returned.
type Response func(w http.ResponseWriter, r *http.Request) error

// HandlerFunc builds a Response for a request.
type HandlerFunc func(r *http.Request) Response

// ErrorHandler writes a response for an error returned by a Response.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// Middleware wraps an http.Handler.
type Middleware func(next http.Handler) http.Handler

type statusCoder interface {
	StatusCode() int
}

// DefaultErrorHandler writes the error text with the status the error
// reports through StatusCode, or 500.
func DefaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	var sc statusCoder
	if errors.As(err, &sc) && sc.StatusCode() > 0 {
		status = sc.StatusCode()
	}
	http.Error(w, err.Error(), status)
}

// ServeHTTP lets a HandlerFunc be mounted on any net/http mux.
func (h HandlerFunc) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	Serve(h, DefaultErrorHandler).ServeHTTP(w, r)
}

// Serve adapts h to http.Handler with a custom error handler.
func Serve(h HandlerFunc, onError ErrorHandler) http.Handler {
	if onError == nil {
		onError = DefaultErrorHandler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := h(r)
		if resp == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if err := resp(w, r); err != nil {
			onError(w, r, err)
		}
	})
}

// Chain applies middlewares so that the first one is the outermost.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
