package policy_test

import (
	"testing"

	"mercado/internal/apperrors"
	"mercado/internal/models"
	"mercado/internal/policy"

	"github.com/stretchr/testify/assert"
)

func TestRequireRole(t *testing.T) {
	admin := &models.User{ID: "u-1", Role: models.RoleAdmin}
	user := &models.User{ID: "u-2", Role: models.RoleUser}

	assert.NoError(t, policy.RequireRole(admin, models.RoleAdmin, models.RolePremium))
	assert.NoError(t, policy.RequireRole(user, models.RoleUser))

	err := policy.RequireRole(user, models.RoleAdmin, models.RolePremium)
	var forbidden *apperrors.ForbiddenError
	assert.ErrorAs(t, err, &forbidden)
	assert.Contains(t, forbidden.Reason, "admin, premium", "the failure names the required roles")
}

func TestRequireOwnerOrAdmin(t *testing.T) {
	owner := &models.User{ID: "u-1", Role: models.RoleUser}
	admin := &models.User{ID: "u-2", Role: models.RoleAdmin}
	other := &models.User{ID: "u-3", Role: models.RoleUser}

	assert.NoError(t, policy.RequireOwnerOrAdmin(owner, "u-1"))
	assert.NoError(t, policy.RequireOwnerOrAdmin(admin, "u-1"))

	var forbidden *apperrors.ForbiddenError
	assert.ErrorAs(t, policy.RequireOwnerOrAdmin(other, "u-1"), &forbidden)
}

func TestCanMutateCart(t *testing.T) {
	owner := &models.User{ID: "u-1", CartID: "cart-1", Role: models.RoleUser}
	admin := &models.User{ID: "u-2", CartID: "cart-2", Role: models.RoleAdmin}
	other := &models.User{ID: "u-3", CartID: "cart-3", Role: models.RolePremium}

	assert.NoError(t, policy.CanMutateCart(owner, "cart-1"))
	assert.NoError(t, policy.CanMutateCart(admin, "cart-1"), "admins may mutate any cart")

	var forbidden *apperrors.ForbiddenError
	assert.ErrorAs(t, policy.CanMutateCart(other, "cart-1"), &forbidden)
	assert.ErrorAs(t, policy.CanMutateCart(owner, "cart-2"), &forbidden)
}

func TestCanAddToCart(t *testing.T) {
	sellerID := "u-1"
	product := &models.Product{ID: "p-1", OwnerID: &sellerID}
	unowned := &models.Product{ID: "p-2"}

	seller := &models.User{ID: sellerID, Role: models.RolePremium}
	admin := &models.User{ID: sellerID, Role: models.RoleAdmin}
	buyer := &models.User{ID: "u-2", Role: models.RolePremium}

	var forbidden *apperrors.ForbiddenError
	assert.ErrorAs(t, policy.CanAddToCart(seller, product), &forbidden,
		"a premium seller may not buy their own product")
	assert.NoError(t, policy.CanAddToCart(admin, product), "the same call passes for an admin")
	assert.NoError(t, policy.CanAddToCart(buyer, product))
	assert.NoError(t, policy.CanAddToCart(seller, unowned))
}

func TestCanManageProduct(t *testing.T) {
	sellerID := "u-1"
	product := &models.Product{ID: "p-1", OwnerID: &sellerID}
	unowned := &models.Product{ID: "p-2"}

	seller := &models.User{ID: sellerID, Role: models.RolePremium}
	admin := &models.User{ID: "u-9", Role: models.RoleAdmin}
	otherPremium := &models.User{ID: "u-2", Role: models.RolePremium}
	user := &models.User{ID: sellerID, Role: models.RoleUser}

	assert.NoError(t, policy.CanManageProduct(seller, product))
	assert.NoError(t, policy.CanManageProduct(admin, product))
	assert.NoError(t, policy.CanManageProduct(admin, unowned))

	var forbidden *apperrors.ForbiddenError
	assert.ErrorAs(t, policy.CanManageProduct(otherPremium, product), &forbidden)
	assert.ErrorAs(t, policy.CanManageProduct(seller, unowned), &forbidden)
	assert.ErrorAs(t, policy.CanManageProduct(user, product), &forbidden)
}
