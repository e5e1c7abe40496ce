package nethttp

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/vertexpay/core/pkg/apperr"
)

// WithError translates a typed domain error into the HTTP response it owns.
// Handlers call this exactly once, at the response boundary — no typed
// error should ever cross it untranslated.
func WithError(c *fiber.Ctx, err error) error {
	var (
		validationErr       apperr.ValidationError
		unauthorizedErr     apperr.UnauthorizedError
		forbiddenErr        apperr.ForbiddenError
		unrecognizedErr     apperr.UnrecognizedSourceError
		notFoundErr         apperr.NotFoundError
		businessLogicErr    apperr.BusinessLogicError
		tooManyRequestsErr  apperr.TooManyRequestsError
		notImplementedErr   apperr.NotImplementedError
		internalErr         apperr.InternalError
	)

	switch {
	case errors.As(err, &validationErr):
		return BadRequest(c, validationErr.Code, validationErr.Title, validationErr.Message)
	case errors.As(err, &unauthorizedErr):
		return Unauthorized(c, unauthorizedErr.Code, unauthorizedErr.Title, unauthorizedErr.Message)
	case errors.As(err, &unrecognizedErr):
		return Forbidden(c, unrecognizedErr.Code, unrecognizedErr.Title, unrecognizedErr.Message)
	case errors.As(err, &forbiddenErr):
		return Forbidden(c, forbiddenErr.Code, forbiddenErr.Title, forbiddenErr.Message)
	case errors.As(err, &notFoundErr):
		return NotFound(c, notFoundErr.Code, notFoundErr.Title, notFoundErr.Message)
	case errors.As(err, &businessLogicErr):
		return BadRequest(c, businessLogicErr.Code, businessLogicErr.Title, businessLogicErr.Message)
	case errors.As(err, &tooManyRequestsErr):
		return TooManyRequests(c, tooManyRequestsErr.Code, tooManyRequestsErr.Title, tooManyRequestsErr.Message)
	case errors.As(err, &notImplementedErr):
		return NotImplemented(c, notImplementedErr.Code, notImplementedErr.Title, notImplementedErr.Message)
	case errors.As(err, &internalErr):
		return InternalServerError(c, "INTERNAL", "Internal server error", internalErr.Message)
	default:
		wrapped := apperr.NewInternalError(err)
		return InternalServerError(c, wrapped.Code, wrapped.Title, wrapped.Message)
	}
}
