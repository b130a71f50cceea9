package repositories

import (
	"errors"
	"fmt"

	"mercado/internal/apperrors"
	"mercado/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMCartRepository is a GORM implementation of CartRepository.
type GORMCartRepository struct {
	db *gorm.DB
}

// NewGORMCartRepository creates a new instance of GORMCartRepository.
func NewGORMCartRepository(db *gorm.DB) *GORMCartRepository {
	return &GORMCartRepository{db: db}
}

// Create creates a new cart.
func (r *GORMCartRepository) Create(cart *models.Cart) error {
	if cart.ID == "" {
		cart.ID = uuid.New().String()
	}
	if err := r.db.Create(cart).Error; err != nil {
		return apperrors.Persistence("create cart", err)
	}
	return nil
}

// GetByID loads a cart with items in insertion order and products populated.
func (r *GORMCartRepository) GetByID(id string) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("cart_items.id") }).
		Preload("Items.Product").
		First(&cart, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("cart with ID %s: %w", id, apperrors.ErrNotFound)
		}
		return nil, apperrors.Persistence("get cart by ID", err)
	}
	return &cart, nil
}

// ReplaceItems swaps the cart's item rows inside a transaction. Row ids are
// reassigned, which re-establishes insertion order for the new list.
func (r *GORMCartRepository) ReplaceItems(cartID string, items []models.CartItem) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var cart models.Cart
		if err := tx.Select("id").First(&cart, "id = ?", cartID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("cart with ID %s: %w", cartID, apperrors.ErrNotFound)
			}
			return err
		}
		if err := tx.Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		for i := range items {
			row := models.CartItem{
				CartID:    cartID,
				ProductID: items[i].ProductID,
				Quantity:  items[i].Quantity,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		return apperrors.Persistence("replace cart items", err)
	}
	return nil
}
