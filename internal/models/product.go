package models

import "time"

// Product represents a product in the catalog.
// Owner is nil for platform (admin-created) products and holds the creating
// user's ID for premium sellers.
type Product struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Title       string    `json:"title" gorm:"type:varchar(100)"`
	Description string    `json:"description" gorm:"type:varchar(500)"`
	Code        string    `json:"code" gorm:"uniqueIndex;type:varchar(64)"`
	Price       float64   `json:"price"`
	Stock       int       `json:"stock"`
	Category    string    `json:"category" gorm:"type:varchar(100)"`
	Thumbnails  string    `json:"thumbnails,omitempty" gorm:"type:text"`
	Status      bool      `json:"status"`
	OwnerID     *string   `json:"owner,omitempty" gorm:"type:varchar(36)"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
