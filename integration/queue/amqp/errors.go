package amqp

import "errors"

var (
	ErrEmptyHost        = errors.New("amqp: empty broker host")
	ErrEmptyQueue       = errors.New("amqp: empty queue name")
	ErrNilDecoder       = errors.New("amqp: message decoder is nil")
	ErrDialFailed       = errors.New("amqp: failed to connect to broker")
	ErrSetupFailed      = errors.New("amqp: failed to set up consumer")
	ErrConsumerClosed   = errors.New("amqp: delivery channel closed")
	ErrConnectionClosed = errors.New("amqp: connection closed by broker")
)
