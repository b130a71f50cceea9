package services

import (
	"fmt"

	"mercado/internal/apperrors"
	"mercado/internal/models"
	"mercado/internal/repositories"
)

// UserService handles account administration: listing, profile updates,
// soft deactivation, password changes and the premium toggle.
type UserService struct {
	userRepo repositories.UserRepository
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repositories.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// ListUsers returns a page of users, credentials blanked.
func (s *UserService) ListUsers(filter repositories.UserFilter) ([]models.User, int64, error) {
	return s.userRepo.List(filter)
}

// GetUser loads a user with the cart populated and the credential blanked.
func (s *UserService) GetUser(id string) (*models.User, error) {
	return s.userRepo.GetByIDWithCart(id)
}

// UpdateUserInput carries optional profile updates. Email and Role only take
// effect when asAdmin is set.
type UpdateUserInput struct {
	FirstName string
	LastName  string
	Age       int
	Email     string
	Password  string
	Role      models.Role
}

// UpdateUser applies the provided fields to the user.
func (s *UserService) UpdateUser(id string, in UpdateUserInput, asAdmin bool) (*models.User, error) {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	if in.FirstName != "" {
		user.FirstName = in.FirstName
	}
	if in.LastName != "" {
		user.LastName = in.LastName
	}
	if in.Age != 0 {
		if in.Age < 18 {
			return nil, apperrors.Validation("must be at least 18 years old")
		}
		user.Age = in.Age
	}
	if asAdmin {
		if in.Email != "" {
			user.Email = in.Email
		}
		if in.Role != "" {
			if !in.Role.Valid() {
				return nil, apperrors.Validation("unknown role %q", in.Role)
			}
			user.Role = in.Role
		}
	}
	if in.Password != "" {
		digest, err := HashPassword(in.Password)
		if err != nil {
			return nil, err
		}
		user.Password = digest
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	user.Password = ""
	return user, nil
}

// DeactivateUser soft-deactivates an account. The row is never deleted.
func (s *UserService) DeactivateUser(id string) error {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		return err
	}
	user.IsActive = false
	if err := s.userRepo.Update(user); err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}
	return nil
}

// ChangePassword verifies the current password and stores a fresh hash of
// the new one.
func (s *UserService) ChangePassword(id, currentPassword, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return apperrors.Validation("current and new passwords are required")
	}

	user, err := s.userRepo.GetByID(id)
	if err != nil {
		return err
	}
	if !CheckPassword(currentPassword, user.Password) {
		return apperrors.ErrInvalidCredentials
	}

	digest, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	user.Password = digest
	if err := s.userRepo.Update(user); err != nil {
		return fmt.Errorf("failed to change password: %w", err)
	}
	return nil
}

// TogglePremium switches a user between the user and premium roles.
func (s *UserService) TogglePremium(id string) (*models.User, error) {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if user.Role == models.RoleAdmin {
		return nil, apperrors.Validation("cannot toggle the admin role")
	}
	if user.Role == models.RoleUser {
		user.Role = models.RolePremium
	} else {
		user.Role = models.RoleUser
	}
	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}
	user.Password = ""
	return user, nil
}
