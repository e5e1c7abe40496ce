package nethttp

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// WithCorrelationID accepts an inbound correlation id or mints a random one,
// attaching it to the request, the response, and (via locals) everything
// downstream — logs, the ledger client, outbound events.
func WithCorrelationID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		cid := c.Get(HeaderCorrelationID)
		if cid == "" {
			cid = uuid.New().String()
		}

		c.Locals("correlation_id", cid)
		c.Set(HeaderCorrelationID, cid)

		return c.Next()
	}
}

// CorrelationID recovers the correlation id attached by WithCorrelationID.
func CorrelationID(c *fiber.Ctx) string {
	if v, ok := c.Locals("correlation_id").(string); ok {
		return v
	}

	return ""
}
