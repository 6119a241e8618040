package response

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dmitrymomot/rtss/core/handler"
)

const (
	DefaultWSPingInterval = 30 * time.Second
	DefaultWSWriteTimeout = 10 * time.Second

	// Clients only send control frames; anything larger is a protocol abuse.
	wsReadLimit = 512
)

type wsConfig struct {
	upgrader       *websocket.Upgrader
	responseHeader http.Header
	pingInterval   time.Duration
	writeTimeout   time.Duration
	done           <-chan struct{}
	onError        func(context.Context, error)
}

type WebSocketOption func(*wsConfig)

func WithWSReadBuffer(size int) WebSocketOption {
	return func(c *wsConfig) {
		c.upgrader.ReadBufferSize = size
	}
}

func WithWSWriteBuffer(size int) WebSocketOption {
	return func(c *wsConfig) {
		c.upgrader.WriteBufferSize = size
	}
}

func WithWSHandshakeTimeout(timeout time.Duration) WebSocketOption {
	return func(c *wsConfig) {
		c.upgrader.HandshakeTimeout = timeout
	}
}

func WithWSOriginCheck(fn func(r *http.Request) bool) WebSocketOption {
	return func(c *wsConfig) {
		c.upgrader.CheckOrigin = fn
	}
}

func WithWSAllowAnyOrigin() WebSocketOption {
	return func(c *wsConfig) {
		c.upgrader.CheckOrigin = func(*http.Request) bool { return true }
	}
}

func WithWSUpgradeHeaders(header http.Header) WebSocketOption {
	return func(c *wsConfig) {
		c.responseHeader = header
	}
}

// WithWSPingInterval sets how often a ping is sent. Zero disables pings.
func WithWSPingInterval(d time.Duration) WebSocketOption {
	return func(c *wsConfig) {
		c.pingInterval = d
	}
}

func WithWSWriteTimeout(d time.Duration) WebSocketOption {
	return func(c *wsConfig) {
		c.writeTimeout = d
	}
}

// WithWSDone closes the socket normally when done is closed, after writing the
// values already buffered in events.
func WithWSDone(done <-chan struct{}) WebSocketOption {
	return func(c *wsConfig) {
		c.done = done
	}
}

func WithWSErrorHandler(fn func(context.Context, error)) WebSocketOption {
	return func(c *wsConfig) {
		c.onError = fn
	}
}

// WebSocketStream upgrades the request and pushes every value from events to
// the client as a text frame: strings and byte slices as is, anything else as
// JSON. Incoming data frames are discarded; the read side only detects the
// client going away.
func WebSocketStream[T any](events <-chan T, opts ...WebSocketOption) handler.Response {
	cfg := &wsConfig{
		upgrader: &websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		pingInterval: DefaultWSPingInterval,
		writeTimeout: DefaultWSWriteTimeout,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(w http.ResponseWriter, r *http.Request) error {
		ctx := r.Context()
		report := func(err error) {
			if cfg.onError != nil {
				cfg.onError(ctx, err)
			}
		}

		// Upgrade has already replied to the client on failure.
		conn, err := cfg.upgrader.Upgrade(w, r, cfg.responseHeader)
		if err != nil {
			report(err)
			return nil
		}

		gone := make(chan struct{})
		go func() {
			defer close(gone)
			conn.SetReadLimit(wsReadLimit)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
		defer func() {
			_ = conn.Close()
			<-gone
		}()

		var ping <-chan time.Time
		if cfg.pingInterval > 0 {
			ticker := time.NewTicker(cfg.pingInterval)
			defer ticker.Stop()
			ping = ticker.C
		}

		closeNormally := func() {
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(cfg.writeTimeout))
		}

		for {
			select {
			case <-ctx.Done():
				closeNormally()
				return nil

			case <-cfg.done:
			drain:
				for {
					select {
					case data, ok := <-events:
						if !ok {
							break drain
						}
						if err := writeWSMessage(conn, data, cfg.writeTimeout); err != nil {
							report(err)
							return nil
						}
					default:
						break drain
					}
				}
				closeNormally()
				return nil

			case <-gone:
				return nil

			case <-ping:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(cfg.writeTimeout)); err != nil {
					report(err)
					return nil
				}

			case data, ok := <-events:
				if !ok {
					closeNormally()
					return nil
				}
				if err := writeWSMessage(conn, data, cfg.writeTimeout); err != nil {
					report(err)
					return nil
				}
			}
		}
	}
}

func writeWSMessage(conn *websocket.Conn, data any, timeout time.Duration) error {
	if timeout > 0 {
		if err := conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
			return err
		}
	}
	switch v := data.(type) {
	case string:
		return conn.WriteMessage(websocket.TextMessage, []byte(v))
	case []byte:
		return conn.WriteMessage(websocket.TextMessage, v)
	default:
		return conn.WriteJSON(v)
	}
}
