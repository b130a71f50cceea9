// Package policy holds the pure authorization predicates. Each predicate
// takes an already-resolved user and returns nil or a ForbiddenError; none
// of them touches business state. Handlers run the relevant predicate before
// any mutation call.
package policy

import (
	"strings"

	"mercado/internal/apperrors"
	"mercado/internal/models"
)

// RequireRole passes iff the user's role is one of roles.
func RequireRole(user *models.User, roles ...models.Role) error {
	for _, role := range roles {
		if user.Role == role {
			return nil
		}
	}
	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = string(role)
	}
	return apperrors.Forbidden("requires one of the following roles: %s", strings.Join(names, ", "))
}

// RequireOwnerOrAdmin passes iff the user owns the resource or is an admin.
func RequireOwnerOrAdmin(user *models.User, resourceOwnerID string) error {
	if user.ID == resourceOwnerID || user.Role == models.RoleAdmin {
		return nil
	}
	return apperrors.Forbidden("you do not have permission to access this resource")
}

// CanMutateCart passes iff the cart is the user's own or the user is an admin.
func CanMutateCart(user *models.User, cartID string) error {
	if user.CartID == cartID || user.Role == models.RoleAdmin {
		return nil
	}
	return apperrors.Forbidden("you do not have permission to modify this cart")
}

// CanAddToCart rejects a premium seller adding their own product to any cart.
func CanAddToCart(user *models.User, product *models.Product) error {
	if user.Role == models.RolePremium && product.OwnerID != nil && *product.OwnerID == user.ID {
		return apperrors.Forbidden("you cannot add your own products to a cart")
	}
	return nil
}

// CanManageProduct passes for admins unconditionally and for premium sellers
// only on products they own.
func CanManageProduct(user *models.User, product *models.Product) error {
	if user.Role == models.RoleAdmin {
		return nil
	}
	if user.Role == models.RolePremium && product.OwnerID != nil && *product.OwnerID == user.ID {
		return nil
	}
	return apperrors.Forbidden("you do not have permission to manage this product")
}
