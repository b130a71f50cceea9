package handlers

import (
	"log"

	"mercado/internal/apperrors"
	"mercado/internal/middleware"
	"mercado/internal/models"
	"mercado/internal/policy"
	"mercado/internal/repositories"
	"mercado/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// UserHandler handles account administration endpoints.
type UserHandler struct {
	userService *services.UserService
	validate    *validator.Validate
	debug       bool
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService *services.UserService, debug bool) *UserHandler {
	return &UserHandler{
		userService: userService,
		validate:    validator.New(),
		debug:       debug,
	}
}

// RegisterRoutes registers the user routes. auth is the strict identity
// resolver; every route here requires it.
func (h *UserHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	users := router.Group("/users", auth)
	users.Get("/", middleware.RequireRoles(models.RoleAdmin), h.HandleList)
	users.Get("/:uid", h.HandleGet)
	users.Put("/:uid", h.HandleUpdate)
	users.Delete("/:uid", middleware.RequireRoles(models.RoleAdmin), h.HandleDeactivate)
	users.Put("/:uid/password", h.HandleChangePassword)
	users.Put("/:uid/premium", middleware.RequireRoles(models.RoleAdmin), h.HandleTogglePremium)
}

// HandleList returns a page of users, admin only.
func (h *UserHandler) HandleList(c *fiber.Ctx) error {
	filter := repositories.UserFilter{
		Role:  models.Role(c.Query("role")),
		Limit: c.QueryInt("limit", 10),
		Page:  c.QueryInt("page", 1),
	}
	if active := c.Query("is_active"); active != "" {
		isActive := active == "true"
		filter.IsActive = &isActive
	}

	users, total, err := h.userService.ListUsers(filter)
	if err != nil {
		log.Printf("Error listing users: %v", err)
		return respondError(c, err, h.debug)
	}

	payload := make([]UserResponse, len(users))
	for i := range users {
		payload[i] = NewUserResponse(&users[i])
	}
	return c.JSON(fiber.Map{
		"status":      "success",
		"payload":     payload,
		"total":       total,
		"page":        filter.Page,
		"total_pages": totalPages(total, filter.Limit),
	})
}

// HandleGet returns a single user; owner or admin only.
func (h *UserHandler) HandleGet(c *fiber.Ctx) error {
	uid := c.Params("uid")
	actor := middleware.UserFromContext(c)
	if err := policy.RequireOwnerOrAdmin(actor, uid); err != nil {
		return respondError(c, err, h.debug)
	}

	user, err := h.userService.GetUser(uid)
	if err != nil {
		return respondError(c, err, h.debug)
	}
	return c.JSON(fiber.Map{
		"status": "success",
		"user":   NewUserResponse(user),
	})
}

// UpdateUserRequest represents the request body for profile updates.
type UpdateUserRequest struct {
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	Age       int         `json:"age" validate:"omitempty,gte=18"`
	Email     string      `json:"email" validate:"omitempty,email"`
	Password  string      `json:"password" validate:"omitempty,min=6"`
	Role      models.Role `json:"role" validate:"omitempty,oneof=user admin premium"`
}

// HandleUpdate updates a profile; owner or admin only. Email and role
// changes are admin only and silently ignored for other callers.
func (h *UserHandler) HandleUpdate(c *fiber.Ctx) error {
	uid := c.Params("uid")
	actor := middleware.UserFromContext(c)
	if err := policy.RequireOwnerOrAdmin(actor, uid); err != nil {
		return respondError(c, err, h.debug)
	}

	var req UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status": "error",
			"error":  "invalid request body",
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidation(c, err)
	}

	user, err := h.userService.UpdateUser(uid, services.UpdateUserInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Age:       req.Age,
		Email:     req.Email,
		Password:  req.Password,
		Role:      req.Role,
	}, actor.Role == models.RoleAdmin)
	if err != nil {
		log.Printf("Error updating user %s: %v", uid, err)
		return respondError(c, err, h.debug)
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "user updated successfully",
		"user":    NewUserResponse(user),
	})
}

// HandleDeactivate soft-deactivates an account, admin only.
func (h *UserHandler) HandleDeactivate(c *fiber.Ctx) error {
	uid := c.Params("uid")
	if err := h.userService.DeactivateUser(uid); err != nil {
		log.Printf("Error deactivating user %s: %v", uid, err)
		return respondError(c, err, h.debug)
	}
	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "user deactivated successfully",
	})
}

// ChangePasswordRequest represents the request body for password changes.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6"`
}

// HandleChangePassword changes the caller's own password.
func (h *UserHandler) HandleChangePassword(c *fiber.Ctx) error {
	uid := c.Params("uid")
	actor := middleware.UserFromContext(c)
	if actor.ID != uid {
		return respondError(c, apperrors.Forbidden("you cannot change another user's password"), h.debug)
	}

	var req ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status": "error",
			"error":  "invalid request body",
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidation(c, err)
	}

	if err := h.userService.ChangePassword(uid, req.CurrentPassword, req.NewPassword); err != nil {
		log.Printf("Error changing password for user %s: %v", uid, err)
		return respondError(c, err, h.debug)
	}
	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "password updated successfully",
	})
}

// HandleTogglePremium switches a user between user and premium, admin only.
func (h *UserHandler) HandleTogglePremium(c *fiber.Ctx) error {
	uid := c.Params("uid")
	user, err := h.userService.TogglePremium(uid)
	if err != nil {
		log.Printf("Error toggling premium for user %s: %v", uid, err)
		return respondError(c, err, h.debug)
	}
	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "user role updated to " + string(user.Role),
		"user":    NewUserResponse(user),
	})
}
