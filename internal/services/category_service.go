package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	apperrors "expense-ledger/internal/errors"
	"expense-ledger/internal/models"
	"expense-ledger/internal/repositories"
	"expense-ledger/internal/validation"

	"github.com/google/uuid"
)

type categoryService struct {
	categoryRepo repositories.CategoryRepositoryInterface
	expenseRepo  repositories.ExpenseRepositoryInterface
	userRepo     repositories.UserRepositoryInterface
	validator    *validation.Validator
}

// NewCategoryService creates a new category service
func NewCategoryService(
	categoryRepo repositories.CategoryRepositoryInterface,
	expenseRepo repositories.ExpenseRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
) CategoryServiceInterface {
	return &categoryService{
		categoryRepo: categoryRepo,
		expenseRepo:  expenseRepo,
		userRepo:     userRepo,
		validator:    validation.GetValidator(),
	}
}

func (s *categoryService) CreateCategory(ctx context.Context, userID uuid.UUID, input CategoryInput) (*models.Category, error) {
	if err := s.validator.ValidateStruct(input); err != nil {
		return nil, apperrors.Wrap(apperrors.ValidationFailed, err)
	}

	exists, err := s.userRepo.Exists(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.StorageTransient, err)
	}
	if !exists {
		return nil, apperrors.New(apperrors.UserNotFound)
	}

	name := strings.TrimSpace(input.Name)
	taken, err := s.categoryRepo.ExistsByName(ctx, userID, name)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.StorageTransient, err)
	}
	if taken {
		return nil, apperrors.New(apperrors.CategoryNameTaken)
	}

	category := &models.Category{
		UserID: userID,
		Name:   name,
		Color:  input.Color,
		Icon:   input.Icon,
	}
	if err := category.Validate(); err != nil {
		return nil, apperrors.Wrap(apperrors.ValidationFailed, err)
	}

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, apperrors.Wrap(apperrors.StorageTransient, err)
	}

	slog.Info("category created", "category_id", category.ID, "user_id", userID)
	return category, nil
}

func (s *categoryService) UpdateCategory(ctx context.Context, userID, categoryID uuid.UUID, input CategoryInput) (*models.Category, error) {
	if err := s.validator.ValidateStruct(input); err != nil {
		return nil, apperrors.Wrap(apperrors.ValidationFailed, err)
	}

	category, err := s.getOwnedCategory(ctx, userID, categoryID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name != category.Name {
		taken, err := s.categoryRepo.ExistsByName(ctx, userID, name)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.StorageTransient, err)
		}
		if taken {
			return nil, apperrors.New(apperrors.CategoryNameTaken)
		}
	}

	category.Name = name
	category.Color = input.Color
	category.Icon = input.Icon
	if err := category.Validate(); err != nil {
		return nil, apperrors.Wrap(apperrors.ValidationFailed, err)
	}

	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return nil, apperrors.Wrap(apperrors.StorageTransient, err)
	}

	return category, nil
}

// DeleteCategory refuses to delete a category that still has expenses. The
// caller must move or delete the expenses first.
func (s *categoryService) DeleteCategory(ctx context.Context, userID, categoryID uuid.UUID) error {
	category, err := s.getOwnedCategory(ctx, userID, categoryID)
	if err != nil {
		return err
	}

	count, err := s.expenseRepo.CountByCategory(ctx, category.ID)
	if err != nil {
		return apperrors.Wrap(apperrors.StorageTransient, err)
	}
	if count > 0 {
		return apperrors.Newf(apperrors.CategoryInUse, "category is referenced by %d expenses", count)
	}

	if err := s.categoryRepo.Delete(ctx, category.ID); err != nil {
		if errors.Is(err, repositories.ErrCategoryNotFound) {
			return apperrors.New(apperrors.CategoryNotFound)
		}
		return apperrors.Wrap(apperrors.StorageTransient, err)
	}

	slog.Info("category deleted", "category_id", categoryID, "user_id", userID)
	return nil
}

func (s *categoryService) ListCategories(ctx context.Context, userID uuid.UUID) ([]models.Category, error) {
	exists, err := s.userRepo.Exists(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.StorageTransient, err)
	}
	if !exists {
		return nil, apperrors.New(apperrors.UserNotFound)
	}

	categories, err := s.categoryRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.StorageTransient, err)
	}
	return categories, nil
}

func (s *categoryService) getOwnedCategory(ctx context.Context, userID, categoryID uuid.UUID) (*models.Category, error) {
	category, err := s.categoryRepo.GetByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, repositories.ErrCategoryNotFound) {
			return nil, apperrors.New(apperrors.CategoryNotFound)
		}
		return nil, apperrors.Wrap(apperrors.StorageTransient, err)
	}
	if category.UserID != userID {
		return nil, apperrors.New(apperrors.CategoryNotOwned)
	}
	return category, nil
}
