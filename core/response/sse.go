package response

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/dmitrymomot/rtss/core/handler"
)

// DefaultSSEKeepAlive is the interval between comment frames on an idle stream.
const DefaultSSEKeepAlive = 30 * time.Second

var ErrStreamingUnsupported = errors.New("response writer does not support flushing")

type sseConfig struct {
	eventName   string
	idGen       func(any) string
	reconnect   time.Duration
	keepAlive   time.Duration
	noKeepAlive bool
	done        <-chan struct{}
	clock       clock.Clock
	onError     func(context.Context, error)
}

// EventOption configures Server-Sent Events behavior.
type EventOption func(*sseConfig)

// WithEventName sets the event field of every frame.
func WithEventName(name string) EventOption {
	return func(s *sseConfig) {
		s.eventName = name
	}
}

// WithEventIDGenerator derives the id field of each frame from its data.
func WithEventIDGenerator(fn func(data any) string) EventOption {
	return func(s *sseConfig) {
		s.idGen = fn
	}
}

// WithReconnectTime sends a retry field so clients wait d before reconnecting.
func WithReconnectTime(d time.Duration) EventOption {
	return func(s *sseConfig) {
		s.reconnect = d
	}
}

func WithKeepAlive(interval time.Duration) EventOption {
	return func(s *sseConfig) {
		s.keepAlive = interval
	}
}

func WithoutKeepAlive() EventOption {
	return func(s *sseConfig) {
		s.noKeepAlive = true
	}
}

// WithDone ends the stream when done is closed. Pass the sink's Done channel
// so an evicted or replaced subscriber's response completes.
func WithDone(done <-chan struct{}) EventOption {
	return func(s *sseConfig) {
		s.done = done
	}
}

// WithSSEClock sets the clock that drives keep-alive frames.
func WithSSEClock(c clock.Clock) EventOption {
	return func(s *sseConfig) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithSSEErrorHandler receives write failures, which end the stream.
func WithSSEErrorHandler(fn func(context.Context, error)) EventOption {
	return func(s *sseConfig) {
		s.onError = fn
	}
}

// SSE streams values from events as Server-Sent Events. Strings and byte
// slices are sent as is, one data line per line, anything else as JSON. The
// stream ends when events is closed, the client goes away or a write fails.
// When the done channel fires, values already buffered in events are written
// before the stream ends.
func SSE[T any](events <-chan T, opts ...EventOption) handler.Response {
	cfg := &sseConfig{
		keepAlive: DefaultSSEKeepAlive,
		clock:     clock.New(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(w http.ResponseWriter, req *http.Request) error {
		flusher, ok := w.(http.Flusher)
		if !ok {
			return ErrInternalServerError.WithError(ErrStreamingUnsupported)
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)

		ctx := req.Context()
		fail := func(err error) error {
			if cfg.onError != nil {
				cfg.onError(ctx, err)
			}
			return nil
		}

		if _, err := io.WriteString(w, ": connected\n\n"); err != nil {
			return fail(fmt.Errorf("failed to write connection message: %w", err))
		}
		if cfg.reconnect > 0 {
			if _, err := fmt.Fprintf(w, "retry: %d\n\n", cfg.reconnect.Milliseconds()); err != nil {
				return fail(fmt.Errorf("failed to write retry: %w", err))
			}
		}
		flusher.Flush()

		var keepAlive <-chan time.Time
		if !cfg.noKeepAlive && cfg.keepAlive > 0 {
			ticker := cfg.clock.Ticker(cfg.keepAlive)
			defer ticker.Stop()
			keepAlive = ticker.C
		}

		for {
			select {
			case <-ctx.Done():
				return nil

			case <-cfg.done:
				for {
					select {
					case data, ok := <-events:
						if !ok {
							flusher.Flush()
							return nil
						}
						if err := writeSSEEvent(w, data, cfg.eventName, cfg.idGen); err != nil {
							return fail(fmt.Errorf("failed to write event: %w", err))
						}
					default:
						flusher.Flush()
						return nil
					}
				}

			case <-keepAlive:
				if _, err := io.WriteString(w, ": keepalive\n\n"); err != nil {
					return fail(fmt.Errorf("failed to send keepalive: %w", err))
				}
				flusher.Flush()

			case data, ok := <-events:
				if !ok {
					return nil
				}
				if err := writeSSEEvent(w, data, cfg.eventName, cfg.idGen); err != nil {
					return fail(fmt.Errorf("failed to write event: %w", err))
				}
				flusher.Flush()
			}
		}
	}
}

func writeSSEEvent(w io.Writer, data any, eventName string, idGen func(any) string) error {
	if eventName != "" {
		if _, err := fmt.Fprintf(w, "event: %s\n", eventName); err != nil {
			return err
		}
	}
	if idGen != nil {
		if id := idGen(data); id != "" {
			if _, err := fmt.Fprintf(w, "id: %s\n", id); err != nil {
				return err
			}
		}
	}

	var payload string
	switch v := data.(type) {
	case string:
		payload = v
	case []byte:
		payload = string(v)
	default:
		b, err := json.Marshal(data)
		if err != nil {
			return err
		}
		payload = string(b)
	}

	payload = strings.ReplaceAll(payload, "\r\n", "\n")
	payload = strings.ReplaceAll(payload, "\r", "\n")
	for line := range strings.SplitSeq(payload, "\n") {
		if _, err := fmt.Fprintf(w, "data: %s\n", line); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "\n")
	return err
}
