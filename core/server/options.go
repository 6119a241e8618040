package server

import (
	"crypto/tls"
	"log/slog"
	"time"

	"golang.org/x/crypto/acme/autocert"
)

// Option configures server behavior.
type Option func(*Server)

// WithTLS serves HTTPS with config.
func WithTLS(config *tls.Config) Option {
	return func(s *Server) {
		s.tlsConfig = config
	}
}

// WithAutoCert obtains and renews certificates for domains from Let's Encrypt,
// answering TLS-ALPN-01 challenges on the serving port. An empty cacheDir
// keeps certificates in memory only.
func WithAutoCert(cacheDir string, domains ...string) Option {
	return func(s *Server) {
		m := &autocert.Manager{
			Prompt:     autocert.AcceptTOS,
			HostPolicy: autocert.HostWhitelist(domains...),
		}
		if cacheDir != "" {
			m.Cache = autocert.DirCache(cacheDir)
		}
		s.tlsConfig = m.TLSConfig()
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithShutdownTimeout sets the maximum time to wait for graceful shutdown.
func WithShutdownTimeout(timeout time.Duration) Option {
	return func(s *Server) {
		s.shutdown = timeout
	}
}

func WithReadTimeout(timeout time.Duration) Option {
	return func(s *Server) {
		s.readTimeout = timeout
	}
}

// WithWriteTimeout bounds the whole response. Zero disables it, which event
// streams need.
func WithWriteTimeout(timeout time.Duration) Option {
	return func(s *Server) {
		s.writeTimeout = timeout
	}
}

func WithIdleTimeout(timeout time.Duration) Option {
	return func(s *Server) {
		s.idleTimeout = timeout
	}
}

func WithMaxHeaderBytes(n int) Option {
	return func(s *Server) {
		s.maxHeaderBytes = n
	}
}
