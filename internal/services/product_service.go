package services

import (
	"fmt"

	"mercado/internal/apperrors"
	"mercado/internal/models"
	"mercado/internal/repositories"
)

// ProductService handles business logic related to products. Authorization
// (premium owner rules) is checked by callers before mutation calls.
type ProductService struct {
	repo repositories.ProductRepository
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository) *ProductService {
	return &ProductService{repo: repo}
}

// ListProducts returns a page of products.
func (s *ProductService) ListProducts(filter repositories.ProductFilter) ([]models.Product, int64, error) {
	return s.repo.List(filter)
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(id string) (*models.Product, error) {
	return s.repo.GetByID(id)
}

// CreateProduct creates a new product for the acting user. Premium sellers
// become the product's owner; admin products have no owner.
func (s *ProductService) CreateProduct(product *models.Product, actor *models.User) error {
	if err := validateProduct(product); err != nil {
		return err
	}
	if actor != nil && actor.Role == models.RolePremium {
		id := actor.ID
		product.OwnerID = &id
	} else {
		product.OwnerID = nil
	}
	product.Status = true
	if err := s.repo.Create(product); err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// UpdateProduct updates an existing product. The owner field is not writable
// through updates.
func (s *ProductService) UpdateProduct(product *models.Product) error {
	if err := validateProduct(product); err != nil {
		return err
	}
	return s.repo.Update(product)
}

// DeleteProduct deletes a product by its ID.
func (s *ProductService) DeleteProduct(id string) error {
	return s.repo.Delete(id)
}

func validateProduct(p *models.Product) error {
	if p.Title == "" || p.Code == "" {
		return apperrors.Validation("title and code are required")
	}
	if p.Price < 0 {
		return apperrors.Validation("price must not be negative")
	}
	if p.Stock < 0 {
		return apperrors.Validation("stock must not be negative")
	}
	return nil
}
