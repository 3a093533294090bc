package fiber

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"github.com/lborres/guildhall/core"
	"github.com/lborres/guildhall/internal/logging"
)

// Errors whose text is shown to the caller as is. Everything else is
// reported with the message of its class, so a resource owned by another
// account reads exactly like a missing one.
var publicErrors = []error{
	core.ErrEmailTaken,
	core.ErrInvalidCredentials,
}

// errorResponse maps err onto a status and a {"message"} body
func errorResponse(err error) (int, fiber.Map) {
	var verr *core.ValidationError
	if errors.As(err, &verr) {
		violations := verr.Violations
		if violations == nil {
			violations = []core.Violation{}
		}
		return fiber.StatusBadRequest, fiber.Map{
			"message": core.ErrValidation.Error(),
			"errors":  violations,
		}
	}

	var ferr *fiber.Error
	if errors.As(err, &ferr) && ferr.Code < fiber.StatusInternalServerError {
		return ferr.Code, fiber.Map{"message": ferr.Message}
	}

	status := statusOf(err)
	return status, fiber.Map{"message": messageOf(err, status)}
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, core.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, core.ErrUnauthenticated),
		errors.Is(err, core.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, core.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, core.ErrNotFound):
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

func messageOf(err error, status int) string {
	for _, pub := range publicErrors {
		if errors.Is(err, pub) {
			return pub.Error()
		}
	}

	switch status {
	case fiber.StatusBadRequest:
		return core.ErrValidation.Error()
	case fiber.StatusUnauthorized:
		if errors.Is(err, core.ErrUnauthorized) {
			return core.ErrUnauthorized.Error()
		}
		return core.ErrUnauthenticated.Error()
	case fiber.StatusConflict:
		return core.ErrConflict.Error()
	case fiber.StatusNotFound:
		return core.ErrNotFound.Error()
	default:
		return core.ErrInternal.Error()
	}
}

// writeError renders err. 5xx errors are logged with their detail, which
// never reaches the body.
func writeError(c fiber.Ctx, logger *slog.Logger, err error) error {
	status, body := errorResponse(err)

	if status >= fiber.StatusInternalServerError && logger != nil {
		logging.LogError(c.Context(), logger, "request failed", err)
	}

	return c.Status(status).JSON(body)
}

// ErrorHandler renders errors raised outside the API group, such as
// unknown routes, in the same {"message"} shape.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c fiber.Ctx, err error) error {
		return writeError(c, logger, err)
	}
}
