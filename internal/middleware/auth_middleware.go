package middleware

import (
	"errors"
	"log"

	"mercado/internal/apperrors"
	"mercado/internal/models"
	"mercado/internal/policy"
	"mercado/internal/repositories"
	"mercado/internal/services"

	"github.com/gofiber/fiber/v2"
)

const userLocalsKey = "current_user"

// UserFromContext returns the principal attached by RequireAuth or
// CurrentUser, or nil.
func UserFromContext(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(userLocalsKey).(*models.User)
	return user
}

// resolveUser is the shared token-resolution path: extract a token, verify
// it, then re-fetch the user from the store so role changes or deactivation
// since issuance take effect immediately. The loaded user has the cart
// populated and the credential blanked.
func resolveUser(c *fiber.Ctx, tokens *services.TokenService, users repositories.UserRepository) (*models.User, error) {
	tokenString := tokens.Extract(c)
	if tokenString == "" {
		return nil, apperrors.ErrUnauthenticated
	}

	claims, err := tokens.Verify(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := users.GetByIDWithCart(claims.UserID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, apperrors.ErrInactiveAccount
	}
	return user, nil
}

// RequireAuth is the strict identity resolver: any missing, invalid or
// expired token, unknown or inactive user fails the request without detail.
func RequireAuth(tokens *services.TokenService, users repositories.UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := resolveUser(c, tokens, users)
		if err != nil {
			var pe *apperrors.PersistenceError
			if errors.As(err, &pe) {
				log.Printf("Identity resolution failed: %v", err)
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"status": "error",
					"error":  "authentication failed",
				})
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"status": "error",
				"error":  "unauthenticated",
			})
		}
		c.Locals(userLocalsKey, user)
		return c.Next()
	}
}

// CurrentUser is the lenient identity resolver: same checks as RequireAuth
// but the response names the reason. Used by session-status endpoints.
func CurrentUser(tokens *services.TokenService, users repositories.UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := resolveUser(c, tokens, users)
		if err != nil {
			var pe *apperrors.PersistenceError
			if errors.As(err, &pe) {
				log.Printf("Identity resolution failed: %v", err)
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"status": "error",
					"error":  "authentication failed",
				})
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"status": "error",
				"error":  authFailureReason(err),
			})
		}
		c.Locals(userLocalsKey, user)
		return c.Next()
	}
}

// authFailureReason maps a resolution failure to a human-readable reason.
func authFailureReason(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrUnauthenticated):
		return "no token provided"
	case errors.Is(err, apperrors.ErrTokenExpired):
		return "token expired"
	case errors.Is(err, apperrors.ErrTokenMalformed), errors.Is(err, apperrors.ErrTokenInvalidSignature):
		return "invalid token"
	case errors.Is(err, apperrors.ErrNotFound):
		return "user not found"
	case errors.Is(err, apperrors.ErrInactiveAccount):
		return "account is inactive"
	default:
		return "authentication failed"
	}
}

// RequireRoles gates a route on the resolved principal's role. Must run
// after RequireAuth or CurrentUser.
func RequireRoles(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := UserFromContext(c)
		if user == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"status": "error",
				"error":  "unauthenticated",
			})
		}
		if err := policy.RequireRole(user, roles...); err != nil {
			var forbidden *apperrors.ForbiddenError
			msg := "access denied"
			if errors.As(err, &forbidden) {
				msg = forbidden.Reason
			}
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"status": "error",
				"error":  msg,
			})
		}
		return c.Next()
	}
}
