package repositories

import "mercado/internal/models"

// ProductFilter narrows List results. Query matches title or category,
// Sort orders by price ("asc" or "desc").
type ProductFilter struct {
	Query string
	Sort  string
	Limit int
	Page  int
}

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	List(filter ProductFilter) ([]models.Product, int64, error)
	GetByID(id string) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id string) error
}
