package repositories

import "mercado/internal/models"

// CartRepository defines the interface for cart data access.
type CartRepository interface {
	Create(cart *models.Cart) error
	// GetByID loads the cart with items in insertion order and their product
	// records populated.
	GetByID(id string) (*models.Cart, error)
	// ReplaceItems swaps the cart's full item list. The cart row itself
	// (id, owner) is untouched.
	ReplaceItems(cartID string, items []models.CartItem) error
}
