package nethttp

import "github.com/gofiber/fiber/v2"

// ResponseError is the error envelope returned to clients. It marshals as
// {code, title, message}; it has no "error" or "status" field, and the HTTP
// status travels only as the response status code.
type ResponseError struct {
	Code    string `json:"code,omitempty"`
	Title   string `json:"title,omitempty"`
	Message string `json:"message,omitempty"`
}

func (r ResponseError) Error() string { return r.Message }

func OK(c *fiber.Ctx, body any) error {
	return c.Status(fiber.StatusOK).JSON(body)
}

func Created(c *fiber.Ctx, body any) error {
	return c.Status(fiber.StatusCreated).JSON(body)
}

func NoContent(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}

func BadRequest(c *fiber.Ctx, code, title, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ResponseError{Code: code, Title: title, Message: message})
}

func Unauthorized(c *fiber.Ctx, code, title, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(ResponseError{Code: code, Title: title, Message: message})
}

func Forbidden(c *fiber.Ctx, code, title, message string) error {
	return c.Status(fiber.StatusForbidden).JSON(ResponseError{Code: code, Title: title, Message: message})
}

func NotFound(c *fiber.Ctx, code, title, message string) error {
	return c.Status(fiber.StatusNotFound).JSON(ResponseError{Code: code, Title: title, Message: message})
}

func TooManyRequests(c *fiber.Ctx, code, title, message string) error {
	return c.Status(fiber.StatusTooManyRequests).JSON(ResponseError{Code: code, Title: title, Message: message})
}

func NotImplemented(c *fiber.Ctx, code, title, message string) error {
	return c.Status(fiber.StatusNotImplemented).JSON(ResponseError{Code: code, Title: title, Message: message})
}

func InternalServerError(c *fiber.Ctx, code, title, message string) error {
	return c.Status(fiber.StatusInternalServerError).JSON(ResponseError{Code: code, Title: title, Message: message})
}

// Ping reports liveness.
func Ping(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
}
