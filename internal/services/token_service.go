package services

import (
	"fmt"
	"strings"
	"time"

	"mercado/internal/apperrors"
	"mercado/internal/models"

	"github.com/dgrijalva/jwt-go"
	"github.com/gofiber/fiber/v2"
)

// TokenClaims is the identity snapshot embedded in a session token at
// issuance. It is never refreshed; the identity resolvers re-fetch the user
// on every request.
type TokenClaims struct {
	UserID string      `json:"id"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
	CartID string      `json:"cart"`
	jwt.StandardClaims
}

// TokenService issues and verifies signed session tokens.
type TokenService struct {
	secret     []byte
	cookieName string
	ttl        time.Duration
}

// NewTokenService creates a TokenService. An empty signing secret is a
// configuration error; callers treat it as fatal at startup.
func NewTokenService(secret, cookieName string, ttl time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, fmt.Errorf("signing secret is not configured")
	}
	if cookieName == "" {
		cookieName = "token"
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenService{
		secret:     []byte(secret),
		cookieName: cookieName,
		ttl:        ttl,
	}, nil
}

// CookieName returns the name of the token carrier cookie.
func (s *TokenService) CookieName() string { return s.cookieName }

// TTL returns the token lifetime.
func (s *TokenService) TTL() time.Duration { return s.ttl }

// Issue signs a token carrying the user's identity snapshot.
func (s *TokenService) Issue(user *models.User) (string, error) {
	now := time.Now()
	claims := TokenClaims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		CartID: user.CartID,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: now.Add(s.ttl).Unix(),
			IssuedAt:  now.Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token, classifying failures as expired,
// malformed or signature-invalid.
func (s *TokenService) Verify(tokenString string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if ve, ok := err.(*jwt.ValidationError); ok {
			switch {
			case ve.Errors&jwt.ValidationErrorMalformed != 0:
				return nil, apperrors.ErrTokenMalformed
			case ve.Errors&jwt.ValidationErrorExpired != 0:
				return nil, apperrors.ErrTokenExpired
			case ve.Errors&(jwt.ValidationErrorSignatureInvalid|jwt.ValidationErrorUnverifiable) != 0:
				return nil, apperrors.ErrTokenInvalidSignature
			}
		}
		return nil, apperrors.ErrTokenMalformed
	}
	if !token.Valid {
		return nil, apperrors.ErrTokenInvalidSignature
	}
	return claims, nil
}

// Extract pulls a token from the request: the named cookie first, then an
// "Authorization: Bearer" header. Returns "" when neither is present.
func (s *TokenService) Extract(c *fiber.Ctx) string {
	if cookie := c.Cookies(s.cookieName); cookie != "" {
		return cookie
	}
	authHeader := c.Get(fiber.HeaderAuthorization)
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}
