package nethttp

import (
	"reflect"

	"github.com/gofiber/fiber/v2"
	val "gopkg.in/go-playground/validator.v9"

	"github.com/vertexpay/core/pkg/apperr"
)

var validate = val.New()

// WithBody decodes the request body into a fresh instance of the type
// pointed to by model, validates it with struct tags, and invokes handler
// with the populated pointer. model must be a non-nil pointer; a new value
// of the same underlying type is allocated per request.
func WithBody(model any, handler func(any, *fiber.Ctx) error) fiber.Handler {
	t := reflect.TypeOf(model).Elem()

	return func(c *fiber.Ctx) error {
		payload := reflect.New(t).Interface()

		if len(c.Body()) > 0 {
			if err := c.BodyParser(payload); err != nil {
				return WithError(c, apperr.ValidationError{
					Code:    "MALFORMED_BODY",
					Title:   "Malformed request body",
					Message: err.Error(),
				})
			}
		}

		if err := validate.Struct(payload); err != nil {
			return WithError(c, apperr.ValidationError{
				Code:    "VALIDATION_FAILED",
				Title:   "Request validation failed",
				Message: err.Error(),
			})
		}

		return handler(payload, c)
	}
}
