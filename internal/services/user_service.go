package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	apperrors "expense-ledger/internal/errors"
	"expense-ledger/internal/models"
	"expense-ledger/internal/repositories"

	"github.com/google/uuid"
)

type userService struct {
	userRepo repositories.UserRepositoryInterface
}

// NewUserService creates a new user service
func NewUserService(userRepo repositories.UserRepositoryInterface) UserServiceInterface {
	return &userService{userRepo: userRepo}
}

// Register creates a user at signup. Email is unique case-insensitively and
// immutable afterwards; the credential hash is opaque to the core.
func (s *userService) Register(ctx context.Context, email, displayName, credentialHash string) (*models.User, error) {
	user := &models.User{
		Email:          email,
		DisplayName:    displayName,
		CredentialHash: credentialHash,
	}

	if err := user.Validate(); err != nil {
		return nil, apperrors.Wrap(apperrors.ValidationFailed, err)
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrEmailTaken) {
			return nil, apperrors.New(apperrors.EmailTaken)
		}
		return nil, apperrors.Wrap(apperrors.StorageTransient, fmt.Errorf("failed to register user: %w", err))
	}

	slog.Info("user registered", "user_id", user.ID)
	return user, nil
}

func (s *userService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.New(apperrors.UserNotFound)
		}
		return nil, apperrors.Wrap(apperrors.StorageTransient, err)
	}
	return user, nil
}
