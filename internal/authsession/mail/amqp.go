package mail

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultQueue is where queued messages land when no queue is configured.
const DefaultQueue = "auth.email"

// publisher is the slice of *amqp.Channel the sender uses.
type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPSender hands messages to a mailer worker through a durable RabbitMQ
// queue instead of talking SMTP itself.
type AMQPSender struct {
	conn  *amqp.Connection
	ch    publisher
	close func() error
	queue string
}

var _ Sender = (*AMQPSender)(nil)

// DialAMQP connects to url and declares queue as durable.
func DialAMQP(url, queue string) (*AMQPSender, error) {
	if queue == "" {
		queue = DefaultQueue
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}

	if _, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp declare %q: %w", queue, err)
	}

	return &AMQPSender{
		conn:  conn,
		ch:    ch,
		queue: queue,
		close: func() error {
			if err := ch.Close(); err != nil {
				_ = conn.Close()
				return err
			}
			return conn.Close()
		},
	}, nil
}

func newAMQPSender(p publisher, queue string) *AMQPSender {
	return &AMQPSender{ch: p, queue: queue, close: func() error { return nil }}
}

// Send publishes msg as persistent JSON on the default exchange.
func (s *AMQPSender) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}

	err = s.ch.PublishWithContext(ctx,
		"",      // exchange
		s.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	return nil
}

// Ping reports whether the broker connection is still open.
func (s *AMQPSender) Ping(context.Context) error {
	if s.conn != nil && s.conn.IsClosed() {
		return fmt.Errorf("%w: amqp connection closed", ErrDelivery)
	}
	return nil
}

func (s *AMQPSender) Close() error { return s.close() }
