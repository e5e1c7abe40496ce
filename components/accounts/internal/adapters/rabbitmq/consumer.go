// Package rabbitmq is the Accounts event-bus adapter (§4.6): it subscribes
// to the routing keys Identity publishes when a user is created or an
// organizational role change happens, provisions/updates accounts
// accordingly, and republishes the downstream accounts.* events.
package rabbitmq

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/vertexpay/core/components/accounts/internal/domain/account"
	"github.com/vertexpay/core/components/accounts/internal/services/accountnumber"
	"github.com/vertexpay/core/pkg/apperr"
	"github.com/vertexpay/core/pkg/appcontext"
	"github.com/vertexpay/core/pkg/mrabbitmq"
)

const (
	QueueName = "accounts.user-events"

	BindingUserCreated          = "users.user.created.#"
	BindingOrganizationalChange = "users.organizational.*.#"
)

type userCreatedEvent struct {
	EventID        string `json:"event_id,omitempty"`
	OrganizationID string `json:"organization_id"`
	Environment    string `json:"environment"`
	UserID         string `json:"user_id"`
	Role           string `json:"role,omitempty"`
	AdminUserID    string `json:"admin_user_id,omitempty"`
}

type organizationalChangedEvent struct {
	EventID        string `json:"event_id,omitempty"`
	UserID         string `json:"user_id"`
	OldRole        string `json:"old_role,omitempty"`
	NewRole        string `json:"new_role,omitempty"`
	OldAdminID     string `json:"old_admin_id,omitempty"`
	NewAdminID     string `json:"new_admin_id,omitempty"`
	OrganizationID string `json:"organization_id"`
	Environment    string `json:"environment"`
}

// logger is the narrow logging surface this file needs.
type logger interface {
	Info(...any)
	Infof(string, ...any)
	Warnf(string, ...any)
	Errorf(string, ...any)
}

// Consumer provisions a default account per user.created event, and applies
// role/admin reassignment on organizational.changed (§4.6). Delivery is
// at-least-once: a processing failure nacks for redelivery instead of
// dropping the event, and handlers are idempotent on the downstream key.
// Redelivery is not unbounded: DeclareQueue declares the queue with a
// quorum x-delivery-limit (§4.6 max-deliver 5-10), so the broker itself
// routes a message that keeps failing to the queue's dead-letter exchange
// once the limit is hit, instead of this consumer looping on it forever.
type Consumer struct {
	Conn      *mrabbitmq.Connection
	Accounts  account.Repository
	Generator *accountnumber.Generator
	Publisher *Publisher
}

// Run declares the queue bindings and blocks consuming until ctx is
// cancelled, satisfying the Launcher's Runnable contract.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.Conn.DeclareQueue(ctx, QueueName, BindingUserCreated, BindingOrganizationalChange); err != nil {
		return err
	}

	ch, err := c.Conn.Channel(ctx)
	if err != nil {
		return err
	}

	deliveries, err := ch.Consume(QueueName, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	log := appcontext.NewLoggerFromContext(ctx).WithFields("consumer", "accounts.user-events")
	log.Info("consuming user events")

	// Per-subject order is preserved by the bus; processing serially per
	// consumer preserves it here too (§5, §8 property).
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}

			c.handle(ctx, log, d)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, log logger, d amqp.Delivery) {
	var err error

	switch routingPrefix(d.RoutingKey) {
	case "users.user.created":
		err = c.handleUserCreated(ctx, d.Body)
	case "users.organizational":
		err = c.handleOrganizationalChanged(ctx, d.Body)
	default:
		log.Warnf("unrecognized routing key %s, acking without action", d.RoutingKey)
	}

	if err != nil {
		log.Errorf("handle %s: %v", d.RoutingKey, err)
		_ = d.Nack(false, true)

		return
	}

	_ = d.Ack(false)
}

// routingPrefix strips the trailing <env>.<org> (and, for organizational
// events, the change-kind segment) so dispatch keys on the stable prefix.
func routingPrefix(routingKey string) string {
	switch {
	case hasPrefix(routingKey, "users.user.created"):
		return "users.user.created"
	case hasPrefix(routingKey, "users.organizational"):
		return "users.organizational"
	default:
		return routingKey
	}
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

func (c *Consumer) handleUserCreated(ctx context.Context, body []byte) error {
	var evt userCreatedEvent

	if err := json.Unmarshal(body, &evt); err != nil {
		return err
	}

	if evt.Role != "" && evt.Role != "customer" {
		// Non-customer roles are acked without a default account (§4.6).
		return nil
	}

	if evt.AdminUserID == "" {
		return apperr.ErrCustomerRequiresAdmin
	}

	existing, err := c.Accounts.List(ctx, account.Filter{UserID: evt.UserID, OrganizationID: evt.OrganizationID, PerPage: 1})
	if err != nil {
		return err
	}

	if len(existing) > 0 {
		// A prior delivery already provisioned this user's default account;
		// redelivery under at-least-once semantics must not double-create.
		return nil
	}

	number, err := c.Generator.Generate(ctx)
	if err != nil {
		return err
	}

	created, err := c.Accounts.Create(ctx, &account.Account{
		ID:             uuid.NewString(),
		AccountNumber:  number,
		AccountType:    account.TypeChecking,
		OrganizationID: evt.OrganizationID,
		Environment:    evt.Environment,
		UserID:         evt.UserID,
		AdminUserID:    evt.AdminUserID,
		UserRole:       account.RoleCustomer,
		Currency:       "USD",
		Status:         account.StatusActive,
	})
	if err != nil {
		return err
	}

	return c.Publisher.AccountCreated(ctx, accountCreatedEvent{
		EventID:        evt.EventID,
		AccountID:      created.ID,
		AccountNumber:  created.AccountNumber,
		OrganizationID: created.OrganizationID,
		Environment:    created.Environment,
		UserID:         created.UserID,
	})
}

func (c *Consumer) handleOrganizationalChanged(ctx context.Context, body []byte) error {
	var evt organizationalChangedEvent

	if err := json.Unmarshal(body, &evt); err != nil {
		return err
	}

	existing, err := c.Accounts.List(ctx, account.Filter{UserID: evt.UserID, OrganizationID: evt.OrganizationID, PerPage: 1})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		// An org-change may race ahead of the account-creation event for the
		// same user; this is a no-op, not an error (§4.6 ordering note).
		return nil
	}

	a := existing[0]

	if evt.NewRole != "" {
		a.UserRole = account.Role(evt.NewRole)
	}

	if evt.NewAdminID != "" && a.UserRole == account.RoleCustomer {
		a.AdminUserID = evt.NewAdminID
	}

	if _, err := c.Accounts.Update(ctx, a); err != nil {
		return err
	}

	return c.Publisher.OrganizationalProcessed(ctx, organizationalProcessedEvent{
		EventID:        evt.EventID,
		UserID:         evt.UserID,
		OrganizationID: evt.OrganizationID,
		Environment:    evt.Environment,
	})
}
