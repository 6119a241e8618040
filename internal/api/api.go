package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/dmitrymomot/rtss/core/handler"
	"github.com/dmitrymomot/rtss/core/health"
	"github.com/dmitrymomot/rtss/core/logger"
	"github.com/dmitrymomot/rtss/core/relay"
	"github.com/dmitrymomot/rtss/core/response"
	"github.com/dmitrymomot/rtss/internal/submission"
	"github.com/dmitrymomot/rtss/middleware"
)

// Subscriber registers a sink for one submission. *relay.Relay satisfies it.
type Subscriber interface {
	AddSubscriber(ctx context.Context, key submission.ID, sink relay.Sink[submission.Update]) error
}

// Snapshotter loads the current state of a submission. *submission.Repository
// satisfies it.
type Snapshotter interface {
	GetByID(ctx context.Context, id submission.ID) (submission.Update, error)
}

// API serves the subscriber endpoints.
type API struct {
	subscriber Subscriber
	snapshots  Snapshotter
	metrics    http.Handler
	checks     []health.Check
	log        *slog.Logger
	buffer     int
	keepAlive  time.Duration
}

// New builds the HTTP handler: a root probe, health and metrics endpoints,
// and a Server-Sent Events and a WebSocket stream per submission.
func New(sub Subscriber, opts ...Option) http.Handler {
	a := &API{
		subscriber: sub,
		log:        logger.Nop(),
		buffer:     DefaultSinkBuffer,
		keepAlive:  response.DefaultSSEKeepAlive,
	}
	for _, opt := range opts {
		opt(a)
	}
	accessLog := a.log
	a.log = a.log.With(logger.Component("api"))

	router := mux.NewRouter()
	router.NotFoundHandler = a.serve(statusError(response.ErrNotFound))
	router.MethodNotAllowedHandler = a.serve(statusError(response.ErrMethodNotAllowed))

	router.Handle("/", a.serve(func(*http.Request) handler.Response { return response.String("OK") })).Methods(http.MethodGet)
	router.Handle("/health/live", a.serve(health.Liveness)).Methods(http.MethodGet)
	router.Handle("/health/ready", a.serve(health.Readiness(a.log, a.checks...))).Methods(http.MethodGet)
	if a.metrics != nil {
		router.Handle("/metrics", a.metrics).Methods(http.MethodGet)
	}
	router.Handle("/ws/{submission_id}", a.serve(a.websocket)).Methods(http.MethodGet)
	router.Handle("/{submission_id}", a.serve(a.events)).Methods(http.MethodGet)

	return handler.Chain(router,
		middleware.RequestID(),
		middleware.LoggingWithConfig(middleware.LoggingConfig{
			Logger: accessLog,
			Skip: func(r *http.Request) bool {
				return strings.HasPrefix(r.URL.Path, "/health/") || r.URL.Path == "/metrics"
			},
		}),
		middleware.CORS(),
	)
}

func (a *API) serve(h handler.HandlerFunc) http.Handler {
	return handler.Serve(h, response.JSONErrorHandler)
}

func statusError(err error) handler.HandlerFunc {
	return func(*http.Request) handler.Response {
		return response.Error(err)
	}
}

func (a *API) events(r *http.Request) handler.Response {
	id, err := parseID(mux.Vars(r)["submission_id"])
	if err != nil {
		return response.Error(err)
	}

	sink := a.subscribe(r.Context(), id)
	stream := response.SSE(sink.C(),
		response.WithDone(sink.Done()),
		response.WithKeepAlive(a.keepAlive),
		response.WithSSEErrorHandler(a.streamError(id)),
	)
	return closing(sink, stream)
}

func (a *API) websocket(r *http.Request) handler.Response {
	id, err := parseID(mux.Vars(r)["submission_id"])
	if err != nil {
		return response.Error(err)
	}

	// The sink is created inside the response so a failed upgrade never
	// registers a subscriber.
	return func(w http.ResponseWriter, r *http.Request) error {
		if !isUpgrade(r) {
			return response.ErrBadRequest.WithMessage("websocket upgrade required")
		}
		sink := a.subscribe(r.Context(), id)
		stream := response.WebSocketStream(sink.C(),
			response.WithWSDone(sink.Done()),
			response.WithWSAllowAnyOrigin(),
			response.WithWSErrorHandler(a.streamError(id)),
		)
		return closing(sink, stream)(w, r)
	}
}

// subscribe queues the stored snapshot, if any, and registers the sink. A
// failed registration leaves an idle stream that ends on client disconnect.
func (a *API) subscribe(ctx context.Context, id submission.ID) *relay.ChanSink[submission.Update] {
	sink := relay.NewChanSink[submission.Update](a.buffer)

	if a.snapshots != nil {
		snap, err := a.snapshots.GetByID(ctx, id)
		switch {
		case err == nil:
			_ = sink.Send(ctx, snap)
		case errors.Is(err, submission.ErrNotFound):
		default:
			a.log.WarnContext(ctx, "snapshot unavailable", logger.Key(id), logger.Error(err))
		}
	}

	_ = a.subscriber.AddSubscriber(ctx, id, sink)
	return sink
}

func (a *API) streamError(id submission.ID) func(context.Context, error) {
	return func(ctx context.Context, err error) {
		a.log.DebugContext(ctx, "stream ended with error", logger.Key(id), logger.Error(err))
	}
}

// closing closes the sink when the stream ends, so the publisher drops the
// subscription on its next send.
func closing(sink *relay.ChanSink[submission.Update], stream handler.Response) handler.Response {
	return func(w http.ResponseWriter, r *http.Request) error {
		defer func() { _ = sink.Close() }()
		return stream(w, r)
	}
}

func parseID(raw string) (submission.ID, error) {
	n, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, response.ErrBadRequest.WithMessage("invalid submission id").WithError(err)
	}
	return submission.ID(n), nil
}

func isUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}
