package models

import "time"

// Role is the closed set of user roles.
type Role string

const (
	RoleUser    Role = "user"
	RoleAdmin   Role = "admin"
	RolePremium Role = "premium"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RolePremium:
		return true
	}
	return false
}

// User represents an account holder.
type User struct {
	ID        string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	FirstName string     `json:"first_name" gorm:"type:varchar(100)"`
	LastName  string     `json:"last_name" gorm:"type:varchar(100)"`
	Email     string     `json:"email" gorm:"uniqueIndex;type:varchar(255)"`
	Age       int        `json:"age"`
	Password  string     `json:"-" gorm:"type:varchar(255)"` // bcrypt digest, never serialized
	CartID    string     `json:"cart" gorm:"type:varchar(36)"`
	Cart      *Cart      `json:"-" gorm:"foreignKey:CartID"`
	Role      Role       `json:"role" gorm:"type:varchar(16);default:user"`
	IsActive  bool       `json:"is_active"`
	LastLogin *time.Time `json:"last_login,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
