package repositories

import (
	"errors"
	"fmt"

	"mercado/internal/apperrors"
	"mercado/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{db: db}
}

// Create creates a new user in the database.
func (r *GORMUserRepository) Create(user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if err := r.db.Create(user).Error; err != nil {
		return apperrors.Persistence("create user", err)
	}
	return nil
}

// GetByEmail retrieves a user by email, including the credential hash.
func (r *GORMUserRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user with email %s: %w", email, apperrors.ErrNotFound)
		}
		return nil, apperrors.Persistence("get user by email", err)
	}
	return &user, nil
}

// GetByID retrieves a user by ID, including the credential hash.
func (r *GORMUserRepository) GetByID(id string) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user with ID %s: %w", id, apperrors.ErrNotFound)
		}
		return nil, apperrors.Persistence("get user by ID", err)
	}
	return &user, nil
}

// GetByIDWithCart retrieves a user with the cart relation populated and the
// credential hash blanked.
func (r *GORMUserRepository) GetByIDWithCart(id string) (*models.User, error) {
	var user models.User
	err := r.db.
		Preload("Cart.Items", func(db *gorm.DB) *gorm.DB { return db.Order("cart_items.id") }).
		Preload("Cart.Items.Product").
		First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user with ID %s: %w", id, apperrors.ErrNotFound)
		}
		return nil, apperrors.Persistence("get user with cart", err)
	}
	user.Password = ""
	return &user, nil
}

// Update saves the full user record.
func (r *GORMUserRepository) Update(user *models.User) error {
	res := r.db.Omit("Cart").Save(user)
	if res.Error != nil {
		return apperrors.Persistence("update user", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user with ID %s: %w", user.ID, apperrors.ErrNotFound)
	}
	return nil
}

// List returns a page of users matching the filter, credentials blanked,
// newest first.
func (r *GORMUserRepository) List(filter UserFilter) ([]models.User, int64, error) {
	q := r.db.Model(&models.User{})
	if filter.Role != "" {
		q = q.Where("role = ?", filter.Role)
	}
	if filter.IsActive != nil {
		q = q.Where("is_active = ?", *filter.IsActive)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Persistence("count users", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}

	var users []models.User
	err := q.Order("created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&users).Error
	if err != nil {
		return nil, 0, apperrors.Persistence("list users", err)
	}
	for i := range users {
		users[i].Password = ""
	}
	return users, total, nil
}
