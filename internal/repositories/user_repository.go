package repositories

import "mercado/internal/models"

// UserFilter narrows List results.
type UserFilter struct {
	Role     models.Role
	IsActive *bool
	Limit    int
	Page     int
}

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(user *models.User) error
	GetByEmail(email string) (*models.User, error)
	GetByID(id string) (*models.User, error)
	// GetByIDWithCart loads the user with the cart relation (items and their
	// products) populated and the credential hash blanked. Used by the
	// per-request identity resolvers.
	GetByIDWithCart(id string) (*models.User, error)
	Update(user *models.User) error
	List(filter UserFilter) ([]models.User, int64, error)
}
