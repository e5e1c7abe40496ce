package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/vertexpay/core/pkg/mrabbitmq"
)

// Publisher emits the accounts.* events described in §4.6 after the
// consumer reacts to an upstream identity event.
type Publisher struct {
	Conn *mrabbitmq.Connection
}

type accountCreatedEvent struct {
	EventID        string `json:"event_id,omitempty"`
	AccountID      string `json:"account_id"`
	AccountNumber  string `json:"account_number"`
	OrganizationID string `json:"organization_id"`
	Environment    string `json:"environment"`
	UserID         string `json:"user_id"`
}

type organizationalProcessedEvent struct {
	EventID        string `json:"event_id,omitempty"`
	UserID         string `json:"user_id"`
	OrganizationID string `json:"organization_id"`
	Environment    string `json:"environment"`
}

func (p *Publisher) publish(ctx context.Context, routingKey string, body any) error {
	ch, err := p.Conn.Channel(ctx)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	return ch.PublishWithContext(ctx, p.Conn.Exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         payload,
	})
}

// AccountCreated publishes accounts.account.created.<env>.<org>, carrying
// the originating event id forward as the saga-correlation id (§4.6).
func (p *Publisher) AccountCreated(ctx context.Context, evt accountCreatedEvent) error {
	return p.publish(ctx, fmt.Sprintf("accounts.account.created.%s.%s", evt.Environment, evt.OrganizationID), evt)
}

// OrganizationalProcessed publishes accounts.organizational.processed.<env>.<org>.
func (p *Publisher) OrganizationalProcessed(ctx context.Context, evt organizationalProcessedEvent) error {
	return p.publish(ctx, fmt.Sprintf("accounts.organizational.processed.%s.%s", evt.Environment, evt.OrganizationID), evt)
}
