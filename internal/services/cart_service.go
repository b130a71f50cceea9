package services

import (
	"fmt"

	"mercado/internal/apperrors"
	"mercado/internal/models"
	"mercado/internal/repositories"
)

// CartService applies line-item mutations under the stock and uniqueness
// invariants: at most one line per product (duplicates merge) and a line
// quantity never below 1. Read-then-write sequences are not atomic; two
// concurrent mutations on the same cart can lose an update.
type CartService struct {
	cartRepo    repositories.CartRepository
	productRepo repositories.ProductRepository
}

// NewCartService creates a new CartService.
func NewCartService(cartRepo repositories.CartRepository, productRepo repositories.ProductRepository) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// CreateCart creates an empty cart, optionally bound to an owner.
func (s *CartService) CreateCart(ownerID *string) (*models.Cart, error) {
	cart := &models.Cart{UserID: ownerID}
	if err := s.cartRepo.Create(cart); err != nil {
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}
	return cart, nil
}

// GetCart loads a cart with its items and product records.
func (s *CartService) GetCart(id string) (*models.Cart, error) {
	return s.cartRepo.GetByID(id)
}

// AddItem adds qty of a product to the cart, merging with an existing line.
// The merged quantity (existing plus qty) is validated against current stock,
// so repeated adds cannot push a line past what is available.
func (s *CartService) AddItem(cartID, productID string, qty int) (*models.Cart, error) {
	if qty < 1 {
		return nil, apperrors.Validation("quantity must be at least 1")
	}

	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}

	cart, err := s.cartRepo.GetByID(cartID)
	if err != nil {
		return nil, err
	}

	merged := qty
	if i := cart.FindItem(productID); i >= 0 {
		merged += cart.Items[i].Quantity
	}
	if merged > product.Stock {
		return nil, &apperrors.InsufficientStockError{
			ProductID: productID,
			Requested: merged,
			Available: product.Stock,
		}
	}

	if i := cart.FindItem(productID); i >= 0 {
		cart.Items[i].Quantity = merged
	} else {
		cart.Items = append(cart.Items, models.CartItem{ProductID: productID, Quantity: qty})
	}

	if err := s.cartRepo.ReplaceItems(cartID, cart.Items); err != nil {
		return nil, err
	}
	return s.cartRepo.GetByID(cartID)
}

// SetItemQuantity replaces the quantity of an existing line item.
func (s *CartService) SetItemQuantity(cartID, productID string, qty int) (*models.Cart, error) {
	if qty < 1 {
		return nil, apperrors.Validation("quantity must be at least 1")
	}

	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if qty > product.Stock {
		return nil, &apperrors.InsufficientStockError{
			ProductID: productID,
			Requested: qty,
			Available: product.Stock,
		}
	}

	cart, err := s.cartRepo.GetByID(cartID)
	if err != nil {
		return nil, err
	}
	i := cart.FindItem(productID)
	if i < 0 {
		return nil, fmt.Errorf("product %s not in cart: %w", productID, apperrors.ErrNotFound)
	}
	cart.Items[i].Quantity = qty

	if err := s.cartRepo.ReplaceItems(cartID, cart.Items); err != nil {
		return nil, err
	}
	return s.cartRepo.GetByID(cartID)
}

// RemoveItem drops a product's line item. Removing an absent product is a
// no-op success.
func (s *CartService) RemoveItem(cartID, productID string) (*models.Cart, error) {
	cart, err := s.cartRepo.GetByID(cartID)
	if err != nil {
		return nil, err
	}

	kept := cart.Items[:0]
	for _, item := range cart.Items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	cart.Items = kept

	if err := s.cartRepo.ReplaceItems(cartID, cart.Items); err != nil {
		return nil, err
	}
	return s.cartRepo.GetByID(cartID)
}

// Clear empties the cart's line items. Cart identity and owner are unchanged.
func (s *CartService) Clear(cartID string) (*models.Cart, error) {
	if _, err := s.cartRepo.GetByID(cartID); err != nil {
		return nil, err
	}
	if err := s.cartRepo.ReplaceItems(cartID, nil); err != nil {
		return nil, err
	}
	return s.cartRepo.GetByID(cartID)
}

// ReplaceItems is the administrative bulk replace. Each line must reference a
// known product with quantity >= 1 and duplicate product lines are merged,
// but stock is deliberately not validated: this is an escape hatch for
// support operations and only reachable through the owner-or-admin gate.
func (s *CartService) ReplaceItems(cartID string, items []models.CartItem) (*models.Cart, error) {
	merged := make([]models.CartItem, 0, len(items))
	index := make(map[string]int, len(items))
	for _, item := range items {
		if item.Quantity < 1 {
			return nil, apperrors.Validation("quantity must be at least 1 for product %s", item.ProductID)
		}
		if _, err := s.productRepo.GetByID(item.ProductID); err != nil {
			return nil, err
		}
		if i, ok := index[item.ProductID]; ok {
			merged[i].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(merged)
		merged = append(merged, models.CartItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	if _, err := s.cartRepo.GetByID(cartID); err != nil {
		return nil, err
	}
	if err := s.cartRepo.ReplaceItems(cartID, merged); err != nil {
		return nil, err
	}
	return s.cartRepo.GetByID(cartID)
}

// Total sums price times quantity over the cart's lines, resolved live
// against current product records. There is no cached total; the result can
// change between calls as prices change.
func (s *CartService) Total(cartID string) (float64, error) {
	cart, err := s.cartRepo.GetByID(cartID)
	if err != nil {
		return 0, err
	}

	var total float64
	for _, item := range cart.Items {
		product, err := s.productRepo.GetByID(item.ProductID)
		if err != nil {
			return 0, err
		}
		total += product.Price * float64(item.Quantity)
	}
	return total, nil
}
