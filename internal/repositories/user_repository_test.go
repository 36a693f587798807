package repositories

import (
	"context"
	"testing"

	"expense-ledger/internal/database"
	"expense-ledger/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

func TestUserRepository(t *testing.T) {
	suite.Run(t, new(UserRepositorySuite))
}

type UserRepositorySuite struct {
	suite.Suite
	ctx  context.Context
	db   *database.DB
	repo UserRepositoryInterface
}

func (s *UserRepositorySuite) SetupTest() {
	s.ctx = context.Background()
	s.db = database.SetupTestLedger(s.T())
	s.repo = NewUserRepository(s.db.DB)
}

func (s *UserRepositorySuite) TearDownTest() {
	database.CleanupTestDB(s.T(), s.db)
}

func (s *UserRepositorySuite) TestCreate() {
	user := &models.User{
		Email:          "test@example.com",
		DisplayName:    "Test User",
		CredentialHash: "hashed_credential",
	}

	err := s.repo.Create(s.ctx, user)
	s.NoError(err)
	s.NotEqual(uuid.Nil, user.ID)
	s.NotZero(user.CreatedAt)
}

func (s *UserRepositorySuite) TestCreate_EmailTakenCaseInsensitive() {
	first := &models.User{Email: "test@example.com", DisplayName: "First", CredentialHash: "h"}
	s.NoError(s.repo.Create(s.ctx, first))

	second := &models.User{Email: "TEST@Example.COM", DisplayName: "Second", CredentialHash: "h"}
	err := s.repo.Create(s.ctx, second)
	s.ErrorIs(err, ErrEmailTaken)
}

func (s *UserRepositorySuite) TestGetByEmail() {
	user := &models.User{Email: "test@example.com", DisplayName: "Test", CredentialHash: "h"}
	s.NoError(s.repo.Create(s.ctx, user))

	found, err := s.repo.GetByEmail(s.ctx, "Test@Example.com")
	s.NoError(err)
	s.Equal(user.ID, found.ID)

	_, err = s.repo.GetByEmail(s.ctx, "nobody@example.com")
	s.ErrorIs(err, ErrUserNotFound)
}

func (s *UserRepositorySuite) TestGetByID() {
	user := &models.User{Email: "test@example.com", DisplayName: "Test", CredentialHash: "h"}
	s.NoError(s.repo.Create(s.ctx, user))

	found, err := s.repo.GetByID(s.ctx, user.ID)
	s.NoError(err)
	s.Equal(user.Email, found.Email)

	_, err = s.repo.GetByID(s.ctx, uuid.New())
	s.ErrorIs(err, ErrUserNotFound)
}

func (s *UserRepositorySuite) TestExists() {
	user := &models.User{Email: "test@example.com", DisplayName: "Test", CredentialHash: "h"}
	s.NoError(s.repo.Create(s.ctx, user))

	exists, err := s.repo.Exists(s.ctx, user.ID)
	s.NoError(err)
	s.True(exists)

	exists, err = s.repo.Exists(s.ctx, uuid.New())
	s.NoError(err)
	s.False(exists)
}
