package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"mercado/internal/apperrors"
	"mercado/internal/models"
	"mercado/internal/repositories"
)

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	Publish(exchange, routingKey string, body []byte) error
}

// AuthService handles registration and login.
type AuthService struct {
	userRepo repositories.UserRepository
	cartRepo repositories.CartRepository
	events   EventPublisher
}

// NewAuthService creates a new AuthService. events may be nil; registration
// events are then skipped.
func NewAuthService(userRepo repositories.UserRepository, cartRepo repositories.CartRepository, events EventPublisher) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		cartRepo: cartRepo,
		events:   events,
	}
}

// RegisterInput carries the fields accepted at registration.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Age       int
	Password  string
	Role      models.Role
}

// Register creates a new active user together with an empty cart. The role
// defaults to "user" unless explicitly provided.
func (s *AuthService) Register(in RegisterInput) (*models.User, error) {
	if in.FirstName == "" || in.LastName == "" || in.Age == 0 {
		return nil, apperrors.Validation("first name, last name and age are required")
	}
	if in.Age < 18 {
		return nil, apperrors.Validation("must be at least 18 years old")
	}
	if in.Password == "" {
		return nil, apperrors.Validation("password is required")
	}
	role := in.Role
	if role == "" {
		role = models.RoleUser
	}
	if !role.Valid() {
		return nil, apperrors.Validation("unknown role %q", in.Role)
	}

	if _, err := s.userRepo.GetByEmail(in.Email); err == nil {
		return nil, fmt.Errorf("email %s: %w", in.Email, apperrors.ErrDuplicateEmail)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing email: %w", err)
	}

	cart := &models.Cart{}
	if err := s.cartRepo.Create(cart); err != nil {
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}

	digest, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Age:       in.Age,
		Password:  digest,
		CartID:    cart.ID,
		Role:      role,
		IsActive:  true,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	s.publishRegistered(user)
	return user, nil
}

// Login authenticates by email and password. Unknown email and wrong password
// fail identically so accounts cannot be enumerated.
func (s *AuthService) Login(email, password string) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !user.IsActive {
		return nil, apperrors.ErrInactiveAccount
	}

	if !CheckPassword(password, user.Password) {
		return nil, apperrors.ErrInvalidCredentials
	}

	now := time.Now()
	user.LastLogin = &now
	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}

	return user, nil
}

// publishRegistered emits a user.registered event. Broker failures are logged
// and never fail the registration.
func (s *AuthService) publishRegistered(user *models.User) {
	if s.events == nil {
		return
	}
	body, err := json.Marshal(map[string]interface{}{
		"event":   "user.registered",
		"user_id": user.ID,
		"email":   user.Email,
		"role":    user.Role,
	})
	if err != nil {
		log.Printf("Failed to marshal user.registered event: %v", err)
		return
	}
	if err := s.events.Publish("", "account_events", body); err != nil {
		log.Printf("Warning: failed to publish user.registered event for user %s: %v", user.ID, err)
	}
}
