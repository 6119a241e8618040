package fanout

import "errors"

// ErrClosed is returned by Subscribe after Close.
var ErrClosed = errors.New("fanout: publisher closed")
