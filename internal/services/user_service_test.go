package services_test

import (
	"testing"

	"mercado/internal/apperrors"
	"mercado/internal/models"
	"mercado/internal/repositories"
	"mercado/internal/services"

	"github.com/stretchr/testify/assert"
)

func seedUser(t *testing.T, repo *repositories.MockUserRepository, email string, role models.Role) *models.User {
	t.Helper()
	digest, err := services.HashPassword("password123")
	assert.NoError(t, err)
	user := &models.User{
		FirstName: "Test",
		LastName:  "User",
		Email:     email,
		Age:       30,
		Password:  digest,
		Role:      role,
		IsActive:  true,
	}
	assert.NoError(t, repo.Create(user))
	return user
}

func TestUserService_UpdateUser_AdminOnlyFields(t *testing.T) {
	repo := repositories.NewMockUserRepository(nil)
	svc := services.NewUserService(repo)
	user := seedUser(t, repo, "member@example.com", models.RoleUser)

	// Non-admin callers cannot change email or role.
	updated, err := svc.UpdateUser(user.ID, services.UpdateUserInput{
		FirstName: "Renamed",
		Email:     "new@example.com",
		Role:      models.RoleAdmin,
	}, false)
	assert.NoError(t, err)
	assert.Equal(t, "Renamed", updated.FirstName)
	assert.Equal(t, "member@example.com", updated.Email)
	assert.Equal(t, models.RoleUser, updated.Role)

	// Admin callers can.
	updated, err = svc.UpdateUser(user.ID, services.UpdateUserInput{
		Email: "new@example.com",
		Role:  models.RolePremium,
	}, true)
	assert.NoError(t, err)
	assert.Equal(t, "new@example.com", updated.Email)
	assert.Equal(t, models.RolePremium, updated.Role)
	assert.Empty(t, updated.Password, "the credential never leaves the service")
}

func TestUserService_UpdateUser_UnderageRejected(t *testing.T) {
	repo := repositories.NewMockUserRepository(nil)
	svc := services.NewUserService(repo)
	user := seedUser(t, repo, "member@example.com", models.RoleUser)

	_, err := svc.UpdateUser(user.ID, services.UpdateUserInput{Age: 17}, false)
	var validation *apperrors.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestUserService_DeactivateUser_Soft(t *testing.T) {
	repo := repositories.NewMockUserRepository(nil)
	svc := services.NewUserService(repo)
	user := seedUser(t, repo, "member@example.com", models.RoleUser)

	assert.NoError(t, svc.DeactivateUser(user.ID))

	// The row survives; only the active flag flips.
	stored, err := repo.GetByID(user.ID)
	assert.NoError(t, err)
	assert.False(t, stored.IsActive)
}

func TestUserService_ChangePassword(t *testing.T) {
	repo := repositories.NewMockUserRepository(nil)
	svc := services.NewUserService(repo)
	user := seedUser(t, repo, "member@example.com", models.RoleUser)

	err := svc.ChangePassword(user.ID, "wrongpassword", "newpassword1")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	assert.NoError(t, svc.ChangePassword(user.ID, "password123", "newpassword1"))

	stored, err := repo.GetByID(user.ID)
	assert.NoError(t, err)
	assert.True(t, services.CheckPassword("newpassword1", stored.Password))
	assert.False(t, services.CheckPassword("password123", stored.Password))
}

func TestUserService_TogglePremium(t *testing.T) {
	repo := repositories.NewMockUserRepository(nil)
	svc := services.NewUserService(repo)
	user := seedUser(t, repo, "member@example.com", models.RoleUser)
	admin := seedUser(t, repo, "admin@example.com", models.RoleAdmin)

	toggled, err := svc.TogglePremium(user.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.RolePremium, toggled.Role)

	toggled, err = svc.TogglePremium(user.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.RoleUser, toggled.Role)

	_, err = svc.TogglePremium(admin.ID)
	var validation *apperrors.ValidationError
	assert.ErrorAs(t, err, &validation)
}
