package nethttp

import "github.com/gofiber/fiber/v2"

// EnvironmentSandbox and EnvironmentProduction are the two environments
// every business is provisioned with at registration (§3 Environment).
const (
	EnvironmentSandbox    = "sandbox"
	EnvironmentProduction = "production"
)

// Environment reads the X-Environment header, defaulting to sandbox when
// absent — requests are never defaulted into production (§6.1).
func Environment(c *fiber.Ctx) string {
	env := c.Get(HeaderEnvironment)
	if env == "" {
		return EnvironmentSandbox
	}

	return env
}
