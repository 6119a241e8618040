// Package amqp turns a RabbitMQ queue into a relay event source using amqp091-go.
//
// The consumed queue is "submission.update.<RABBITMQ_QUEUE_ENV>". It is declared
// non-durable on every dial and consumed with manual acknowledgements under the
// consumer tag "rtss".
//
//	var cfg amqp.Config // RABBITMQ_HOST, RABBITMQ_PORT, RABBITMQ_USERNAME, ...
//	d, err := amqp.NewDialer(cfg, submission.Decode, amqp.WithLogger(log))
//	conn := connector.New[int32, submission.Update](d)
package amqp
