package connector

import "errors"

var (
	ErrGaveUp      = errors.New("connector: gave up after max attempts")
	ErrNilDialer   = errors.New("connector: dialer is nil")
	ErrNilListener = errors.New("connector: dialer returned no listener")
)
