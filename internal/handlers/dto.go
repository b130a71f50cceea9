package handlers

import (
	"time"

	"mercado/internal/models"
)

// UserResponse is the client-facing user shape. The credential hash is never
// part of it.
type UserResponse struct {
	ID        string      `json:"id"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	FullName  string      `json:"full_name"`
	Email     string      `json:"email"`
	Age       int         `json:"age"`
	Role      models.Role `json:"role"`
	Cart      string      `json:"cart"`
	IsActive  bool        `json:"is_active"`
	CreatedAt time.Time   `json:"created_at"`
	LastLogin *time.Time  `json:"last_login,omitempty"`
}

// NewUserResponse builds a UserResponse from a user record.
func NewUserResponse(user *models.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		FullName:  user.FirstName + " " + user.LastName,
		Email:     user.Email,
		Age:       user.Age,
		Role:      user.Role,
		Cart:      user.CartID,
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt,
		LastLogin: user.LastLogin,
	}
}

// totalPages computes the page count for a paginated listing.
func totalPages(total int64, limit int) int64 {
	if limit <= 0 {
		limit = 10
	}
	pages := total / int64(limit)
	if total%int64(limit) != 0 {
		pages++
	}
	return pages
}
