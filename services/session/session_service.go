package session

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"datamanageapi/models"
	"datamanageapi/repository"
	"datamanageapi/services"
)

// SessionService resolves the authenticated user behind a request and
// answers the current-user endpoints.
type SessionService interface {
	// CurrentUser loads the user carried by the bearer token, with roles.
	CurrentUser(ctx context.Context, userID uint) (*models.User, error)
	// Login resolves an active user by username for token issuance.
	Login(ctx context.Context, username string) (*models.User, error)
	// AllUsers returns every known user with roles.
	AllUsers(ctx context.Context) ([]models.User, error)
}

type sessionService struct {
	userRepo repository.UserRepository
}

// NewSessionService creates a new session service instance.
func NewSessionService() SessionService {
	return &sessionService{
		userRepo: repository.NewUserRepository(),
	}
}

// NewSessionServiceWithDeps creates a service instance with injected dependencies.
// Used for testing to provide mock implementations of repositories.
func NewSessionServiceWithDeps(userRepo repository.UserRepository) SessionService {
	return &sessionService{userRepo: userRepo}
}

func (s *sessionService) CurrentUser(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(nil, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, services.ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}
	if !user.IsActive {
		return nil, services.ErrUnauthorized
	}
	return user, nil
}

func (s *sessionService) Login(ctx context.Context, username string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(nil, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, services.ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to load user %q: %w", username, err)
	}
	if !user.IsActive {
		return nil, services.ErrUnauthorized
	}
	return user, nil
}

func (s *sessionService) AllUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.userRepo.GetAll(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	return users, nil
}
