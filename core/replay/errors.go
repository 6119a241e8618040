package replay

import "errors"

// ErrClosed is returned by Subscribe and Stream after Close.
var ErrClosed = errors.New("replay: publisher closed")

// Reasons a subscriber or key was removed.
const (
	ReasonExpired    = "expired"
	ReasonEvicted    = "evicted"
	ReasonSendFailed = "send_failed"
	ReasonSinkClosed = "sink_closed"
	ReasonClosed     = "closed"
)
