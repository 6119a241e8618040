package amqp

import (
	"net"
	"net/url"
	"strconv"
)

// QueuePrefix is prepended to Config.QueueEnv to form the consumed queue name.
const QueuePrefix = "submission.update."

// Config holds RabbitMQ connection and consumer settings.
type Config struct {
	Host        string `env:"RABBITMQ_HOST" envDefault:"localhost"`
	Port        int    `env:"RABBITMQ_PORT" envDefault:"5672"`
	Username    string `env:"RABBITMQ_USERNAME" envDefault:"guest"`
	Password    string `env:"RABBITMQ_PASSWORD" envDefault:"guest"`
	VHost       string `env:"RABBITMQ_VHOST" envDefault:"/"`
	QueueEnv    string `env:"RABBITMQ_QUEUE_ENV,required"`
	ConsumerTag string `env:"RABBITMQ_CONSUMER_TAG" envDefault:"rtss"`
	Prefetch    int    `env:"RABBITMQ_PREFETCH" envDefault:"0"`
}

// URL builds the AMQP connection URL. The default vhost "/" is left out.
func (c Config) URL() string {
	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(c.Username, c.Password),
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
	}
	if c.VHost != "" && c.VHost != "/" {
		u.Path = "/" + c.VHost
	}
	return u.String()
}

// QueueName returns the queue consumed for this environment.
func (c Config) QueueName() string {
	return QueuePrefix + c.QueueEnv
}
