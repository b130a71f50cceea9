package handlers

import (
	"log"
	"time"

	"mercado/internal/middleware"
	"mercado/internal/models"
	"mercado/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// SessionHandler handles registration, login and session-status endpoints.
type SessionHandler struct {
	authService   *services.AuthService
	tokens        *services.TokenService
	validate      *validator.Validate
	secureCookies bool
	debug         bool
}

// NewSessionHandler creates a new SessionHandler. secureCookies should be set
// in production so the token cookie is only sent over TLS.
func NewSessionHandler(authService *services.AuthService, tokens *services.TokenService, secureCookies, debug bool) *SessionHandler {
	return &SessionHandler{
		authService:   authService,
		tokens:        tokens,
		validate:      validator.New(),
		secureCookies: secureCookies,
		debug:         debug,
	}
}

// RegisterRoutes registers the session routes. current is the lenient
// identity resolver used by the status endpoints.
func (h *SessionHandler) RegisterRoutes(router fiber.Router, current fiber.Handler) {
	sessions := router.Group("/sessions")
	sessions.Post("/register", h.HandleRegister)
	sessions.Post("/login", h.HandleLogin)
	sessions.Get("/current", current, h.HandleCurrent)
	sessions.Get("/validate", current, h.HandleValidate)
	sessions.Post("/logout", h.HandleLogout)
}

// RegisterRequest represents the request body for registration.
type RegisterRequest struct {
	FirstName string      `json:"first_name" validate:"required"`
	LastName  string      `json:"last_name" validate:"required"`
	Email     string      `json:"email" validate:"required,email"`
	Age       int         `json:"age" validate:"required,gte=18"`
	Password  string      `json:"password" validate:"required,min=6"`
	Role      models.Role `json:"role" validate:"omitempty,oneof=user admin premium"`
}

// HandleRegister creates a new account and issues a session token.
func (h *SessionHandler) HandleRegister(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing register request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status": "error",
			"error":  "invalid request body",
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidation(c, err)
	}

	user, err := h.authService.Register(services.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Age:       req.Age,
		Password:  req.Password,
		Role:      req.Role,
	})
	if err != nil {
		log.Printf("Error registering user: %v", err)
		return respondError(c, err, h.debug)
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		log.Printf("Error issuing token: %v", err)
		return respondError(c, err, h.debug)
	}
	h.setTokenCookie(c, token)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status":  "success",
		"message": "user registered successfully",
		"user":    NewUserResponse(user),
		"token":   token,
	})
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// HandleLogin authenticates a user and issues a session token.
func (h *SessionHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing login request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status": "error",
			"error":  "invalid request body",
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidation(c, err)
	}

	user, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		log.Printf("Login failed for %s: %v", req.Email, err)
		return respondError(c, err, h.debug)
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		log.Printf("Error issuing token: %v", err)
		return respondError(c, err, h.debug)
	}
	h.setTokenCookie(c, token)

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "login successful",
		"user":    NewUserResponse(user),
		"token":   token,
	})
}

// HandleCurrent returns the resolved session principal.
func (h *SessionHandler) HandleCurrent(c *fiber.Ctx) error {
	user := middleware.UserFromContext(c)
	return c.JSON(fiber.Map{
		"status": "success",
		"user":   NewUserResponse(user),
	})
}

// HandleValidate reports that the carried token resolves to a live session.
func (h *SessionHandler) HandleValidate(c *fiber.Ctx) error {
	user := middleware.UserFromContext(c)
	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "token valid",
		"valid":   true,
		"user":    NewUserResponse(user),
	})
}

// HandleLogout clears the token cookie. Tokens are stateless, so the token
// itself stays valid until expiry; only the client-held copy is removed.
func (h *SessionHandler) HandleLogout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     h.tokens.CookieName(),
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Secure:   h.secureCookies,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "session closed",
	})
}

func (h *SessionHandler) setTokenCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     h.tokens.CookieName(),
		Value:    token,
		Expires:  time.Now().Add(h.tokens.TTL()),
		HTTPOnly: true,
		Secure:   h.secureCookies,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}
