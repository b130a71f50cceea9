// Package apperrors defines the failure taxonomy shared by services, policy
// checks and HTTP handlers. Services wrap these with fmt.Errorf("...: %w", err)
// and handlers map them to status codes with HTTPStatus.
package apperrors

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

var (
	// ErrDuplicateEmail is returned when registering an email that already exists.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrInvalidCredentials is returned uniformly for unknown email or wrong
	// password, so callers cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInactiveAccount is returned when a deactivated user tries to log in.
	ErrInactiveAccount = errors.New("account is inactive")
	// ErrUnauthenticated is returned by the strict identity resolver, without detail.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrTokenExpired, ErrTokenMalformed and ErrTokenInvalidSignature classify
	// token verification failures.
	ErrTokenExpired          = errors.New("token expired")
	ErrTokenMalformed        = errors.New("token malformed")
	ErrTokenInvalidSignature = errors.New("token signature invalid")
)

// ValidationError reports invalid caller input.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

// Validation builds a ValidationError.
func Validation(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// ForbiddenError reports a failed authorization check with a human-readable reason.
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string {
	return "forbidden: " + e.Reason
}

// Forbidden builds a ForbiddenError.
func Forbidden(format string, args ...interface{}) error {
	return &ForbiddenError{Reason: fmt.Sprintf(format, args...)}
}

// InsufficientStockError reports a quantity exceeding the current stock.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s (requested: %d, available: %d)",
		e.ProductID, e.Requested, e.Available)
}

// PersistenceError wraps a store failure. Handlers surface it as a generic
// failure and only expose Err outside production.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Persistence wraps err as a PersistenceError for operation op.
func Persistence(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}

// HTTPStatus maps a taxonomy error to an HTTP status code.
func HTTPStatus(err error) int {
	var (
		validation *ValidationError
		forbidden  *ForbiddenError
		stock      *InsufficientStockError
	)
	switch {
	case errors.As(err, &validation), errors.As(err, &stock):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrDuplicateEmail):
		return fiber.StatusConflict
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrUnauthenticated),
		errors.Is(err, ErrTokenExpired), errors.Is(err, ErrTokenMalformed),
		errors.Is(err, ErrTokenInvalidSignature):
		return fiber.StatusUnauthorized
	case errors.Is(err, ErrInactiveAccount), errors.As(err, &forbidden):
		return fiber.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}
