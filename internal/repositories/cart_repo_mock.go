package repositories

import (
	"fmt"
	"sync"

	"mercado/internal/apperrors"
	"mercado/internal/models"

	"github.com/google/uuid"
)

// MockCartRepository is an in-memory implementation of CartRepository.
// When a product repository is supplied, GetByID populates each item's
// Product the way the GORM preload does.
type MockCartRepository struct {
	carts    map[string]models.Cart
	products *MockProductRepository
	mu       sync.RWMutex
}

// NewMockCartRepository creates a new instance of MockCartRepository.
func NewMockCartRepository(products *MockProductRepository) *MockCartRepository {
	return &MockCartRepository{
		carts:    make(map[string]models.Cart),
		products: products,
	}
}

// Create adds a new cart.
func (r *MockCartRepository) Create(cart *models.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cart.ID == "" {
		cart.ID = uuid.New().String()
	}
	stored := *cart
	stored.Items = append([]models.CartItem(nil), cart.Items...)
	r.carts[cart.ID] = stored
	return nil
}

// GetByID returns a copy of the cart with products populated.
func (r *MockCartRepository) GetByID(id string) (*models.Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cart, ok := r.carts[id]
	if !ok {
		return nil, fmt.Errorf("cart with ID %s: %w", id, apperrors.ErrNotFound)
	}
	out := cart
	out.Items = append([]models.CartItem(nil), cart.Items...)
	if r.products != nil {
		for i := range out.Items {
			if p, err := r.products.GetByID(out.Items[i].ProductID); err == nil {
				out.Items[i].Product = p
			}
		}
	}
	return &out, nil
}

// ReplaceItems swaps the cart's full item list.
func (r *MockCartRepository) ReplaceItems(cartID string, items []models.CartItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cart, ok := r.carts[cartID]
	if !ok {
		return fmt.Errorf("cart with ID %s: %w", cartID, apperrors.ErrNotFound)
	}
	next := make([]models.CartItem, len(items))
	for i, item := range items {
		next[i] = models.CartItem{CartID: cartID, ProductID: item.ProductID, Quantity: item.Quantity}
	}
	cart.Items = next
	r.carts[cartID] = cart
	return nil
}
