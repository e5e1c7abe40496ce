// Package mrabbitmq wires the RabbitMQ event-bus connection this
// repository's subjects (§4.6, §6.4) are carried over, using
// amqp091-go in place of the teacher's deprecated streadway/amqp client.
package mrabbitmq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/vertexpay/core/pkg/mlog"
)

// Connection is a hub for a single RabbitMQ connection/channel pair.
type Connection struct {
	URL      string
	Exchange string

	Logger mlog.Logger

	conn      *amqp.Connection
	channel   *amqp.Channel
	connected bool
}

// Connect dials the broker, opens a channel, and declares the durable topic
// exchange subjects are published through.
func (rc *Connection) Connect(_ context.Context) error {
	rc.Logger.Info("connecting to rabbitmq...")

	conn, err := amqp.Dial(rc.URL)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(rc.Exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()

		return fmt.Errorf("declare exchange: %w", err)
	}

	rc.conn = conn
	rc.channel = ch
	rc.connected = true

	rc.Logger.Info("connected to rabbitmq")

	return nil
}

// Channel lazily connects if necessary and returns the underlying channel.
func (rc *Connection) Channel(ctx context.Context) (*amqp.Channel, error) {
	if !rc.connected {
		if err := rc.Connect(ctx); err != nil {
			return nil, err
		}
	}

	return rc.channel, nil
}

// deadLetterSuffix names the exchange/queue pair a main queue's messages
// land in once a delivery exhausts maxDeliveryLimit (§4.6, ack-wait 30s /
// max-deliver 5-10: redelivery must stop somewhere).
const deadLetterSuffix = ".dlq"

// maxDeliveryLimit bounds redelivery attempts on the main queue (§4.6's
// max-deliver 5-10); the broker itself dead-letters a message past this
// count via the quorum queue's x-delivery-limit, so Consumer never has to
// track an attempt count by hand.
const maxDeliveryLimit = int64(8)

// ackWaitMillis is the broker-enforced "ack-wait 30s" (§4.6): if a consumer
// holds a delivery unacked past this, RabbitMQ considers the channel stalled
// and closes it, which redelivers the message to another consumer.
const ackWaitMillis = int64(30000)

// buildDeadLetterName derives a queue's dead-letter exchange/queue name by
// appending deadLetterSuffix, e.g. "accounts.user-events" ->
// "accounts.user-events.dlq".
func buildDeadLetterName(queueName string) string {
	if queueName == "" {
		panic("mrabbitmq: queue name must not be empty")
	}

	return queueName + deadLetterSuffix
}

// DeclareQueue declares a durable quorum queue bound to the exchange with
// the given routing-key patterns (wildcards permitted, e.g.
// "user.created.*.*"), plus a sibling dead-letter exchange/queue the main
// queue dead-letters into once x-delivery-limit is exceeded. A handler nack
// with requeue=true is therefore safe to issue unconditionally on failure:
// the broker, not the consumer, is what stops the redelivery loop.
func (rc *Connection) DeclareQueue(ctx context.Context, name string, routingKeys ...string) error {
	ch, err := rc.Channel(ctx)
	if err != nil {
		return err
	}

	dlx := buildDeadLetterName(name)

	if err := ch.ExchangeDeclare(dlx, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare dead-letter exchange: %w", err)
	}

	if _, err := ch.QueueDeclare(dlx, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare dead-letter queue: %w", err)
	}

	if err := ch.QueueBind(dlx, "", dlx, false, nil); err != nil {
		return fmt.Errorf("bind dead-letter queue: %w", err)
	}

	args := amqp.Table{
		"x-queue-type":           "quorum",
		"x-dead-letter-exchange": dlx,
		"x-delivery-limit":       maxDeliveryLimit,
		"x-consumer-timeout":     ackWaitMillis,
	}

	if _, err := ch.QueueDeclare(name, true, false, false, false, args); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	for _, rk := range routingKeys {
		if err := ch.QueueBind(name, rk, rc.Exchange, false, nil); err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", name, rk, err)
		}
	}

	return nil
}

// Close releases the channel and connection.
func (rc *Connection) Close() error {
	if rc.channel != nil {
		_ = rc.channel.Close()
	}

	if rc.conn != nil {
		return rc.conn.Close()
	}

	return nil
}
