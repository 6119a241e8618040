package relay

import "errors"

var (
	// ErrFatalExhaustion is returned by Start and Run when the connector gives up.
	// It is the only error that leaves the relay core.
	ErrFatalExhaustion = errors.New("relay: connector exhausted, no more upstream connections")

	// ErrNoUpstream is reported by NopConnector.
	ErrNoUpstream = errors.New("relay: no upstream configured")

	// ErrAlreadyStarted is returned when Start is called on a running relay.
	ErrAlreadyStarted = errors.New("relay: already started")

	// ErrNotStarted is returned when Stop is called on a relay that is not running.
	ErrNotStarted = errors.New("relay: not started")

	// ErrSubscribeFailed wraps publisher registration errors when strict subscribe is enabled.
	ErrSubscribeFailed = errors.New("relay: subscriber registration failed")

	// ErrSinkClosed is returned by Sink.Send after the sink was closed.
	ErrSinkClosed = errors.New("relay: sink closed")

	// ErrSinkFull is returned by TrySend when the sink has no room left.
	ErrSinkFull = errors.New("relay: sink full")

	// ErrNilPublisher is returned by Start when the relay has no publisher.
	ErrNilPublisher = errors.New("relay: publisher is nil")

	// ErrNilSink is returned when registering a nil sink.
	ErrNilSink = errors.New("relay: sink is nil")

	// ErrHealthcheckFailed is the base error of Healthcheck.
	ErrHealthcheckFailed = errors.New("relay: healthcheck failed")

	// ErrNotRunning means the relay loop is not running.
	ErrNotRunning = errors.New("relay: not running")

	// ErrPipelineInactive means the relay is running but holds no upstream connection.
	ErrPipelineInactive = errors.New("relay: no active upstream pipeline")

	// ErrDecode wraps payload decoding failures in listeners.
	ErrDecode = errors.New("relay: failed to decode payload")
)
