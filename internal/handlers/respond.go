package handlers

import (
	"errors"
	"fmt"
	"log"

	"mercado/internal/apperrors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// respondError renders a taxonomy error as the {status, error} envelope.
// Store-internal detail is only exposed when debug is set.
func respondError(c *fiber.Ctx, err error, debug bool) error {
	var pe *apperrors.PersistenceError
	if errors.As(err, &pe) {
		log.Printf("Persistence failure: %v", err)
		body := fiber.Map{
			"status": "error",
			"error":  "internal server error",
		}
		if debug {
			body["details"] = err.Error()
		}
		return c.Status(fiber.StatusInternalServerError).JSON(body)
	}

	var stock *apperrors.InsufficientStockError
	if errors.As(err, &stock) {
		return c.Status(apperrors.HTTPStatus(err)).JSON(fiber.Map{
			"status":    "error",
			"error":     "insufficient stock",
			"available": stock.Available,
		})
	}

	return c.Status(apperrors.HTTPStatus(err)).JSON(fiber.Map{
		"status": "error",
		"error":  errorMessage(err),
	})
}

// errorMessage keeps client-facing messages terse and free of wrapping context.
func errorMessage(err error) string {
	var (
		validation *apperrors.ValidationError
		forbidden  *apperrors.ForbiddenError
	)
	switch {
	case errors.As(err, &validation):
		return validation.Reason
	case errors.As(err, &forbidden):
		return forbidden.Reason
	case errors.Is(err, apperrors.ErrDuplicateEmail):
		return "email already registered"
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		return "invalid credentials"
	case errors.Is(err, apperrors.ErrInactiveAccount):
		return "account is inactive"
	case errors.Is(err, apperrors.ErrNotFound):
		return "resource not found"
	case errors.Is(err, apperrors.ErrTokenExpired),
		errors.Is(err, apperrors.ErrTokenMalformed),
		errors.Is(err, apperrors.ErrTokenInvalidSignature),
		errors.Is(err, apperrors.ErrUnauthenticated):
		return "invalid or expired token"
	default:
		return err.Error()
	}
}

// respondValidation renders validator.v10 field errors, teacher-style.
func respondValidation(c *fiber.Ctx, err error) error {
	fieldErrors := make(map[string]string)
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			fieldErrors[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"status": "error",
		"error":  "validation failed",
		"errors": fieldErrors,
	})
}
