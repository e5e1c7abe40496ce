// Package rabbitmq is Identity's outbound event-bus adapter (§4.6, §6.4):
// it announces user lifecycle events Accounts consumes to provision or
// update default accounts, mirroring the Accounts-side publisher's
// publish(ctx, routingKey, body) shape.
package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/vertexpay/core/pkg/mrabbitmq"
)

// Publisher emits the users.* events described in §4.6/§6.4.
type Publisher struct {
	Conn *mrabbitmq.Connection
}

// UserCreatedEvent backs the users.user.created.<env>.<org> routing key.
type UserCreatedEvent struct {
	EventID        string `json:"event_id,omitempty"`
	OrganizationID string `json:"organization_id"`
	Environment    string `json:"environment"`
	UserID         string `json:"user_id"`
	Role           string `json:"role,omitempty"`
	AdminUserID    string `json:"admin_user_id,omitempty"`
}

// OrganizationalChangedEvent backs the
// users.organizational.<kind>.<env>.<org> routing key.
type OrganizationalChangedEvent struct {
	EventID        string `json:"event_id,omitempty"`
	UserID         string `json:"user_id"`
	OldRole        string `json:"old_role,omitempty"`
	NewRole        string `json:"new_role,omitempty"`
	OldAdminID     string `json:"old_admin_id,omitempty"`
	NewAdminID     string `json:"new_admin_id,omitempty"`
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

// UserCreated publishes users.user.created.<env>.<org>.
func (p *Publisher) UserCreated(ctx context.Context, evt UserCreatedEvent) error {
	return p.publish(ctx, fmt.Sprintf("users.user.created.%s.%s", evt.Environment, evt.OrganizationID), evt)
}

// OrganizationalChanged publishes users.organizational.changed.<env>.<org>.
func (p *Publisher) OrganizationalChanged(ctx context.Context, evt OrganizationalChangedEvent) error {
	return p.publish(ctx, fmt.Sprintf("users.organizational.changed.%s.%s", evt.Environment, evt.OrganizationID), evt)
}
