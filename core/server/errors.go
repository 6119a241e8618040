package server

import "errors"

var (
	ErrMissingAddress       = errors.New("server address is required")
	ErrFailedLoadCert       = errors.New("failed to load certificate")
	ErrServerAlreadyRunning = errors.New("server is already running")
	ErrListenFailed         = errors.New("failed to bind server address")
	ErrHTTPServer           = errors.New("HTTP server error")
	ErrHTTPShutdown         = errors.New("HTTP shutdown error")
)
