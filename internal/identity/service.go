package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials indicates a failed username/password check.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrWeakPassword indicates the password fails the minimum length rule.
	ErrWeakPassword = errors.New("password must be at least 8 characters")
)

// Service manages identity lifecycle.
type Service struct {
	repo Repository
}

// NewService creates a new identity service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// RegisterInput captures data required to create a user.
type RegisterInput struct {
	Username string
	Password string
	Role     Role
}

// Register creates a new user with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, input RegisterInput) (User, error) {
	if input.Username == "" {
		return User{}, errors.New("username is required")
	}
	if len(input.Password) < 8 {
		return User{}, ErrWeakPassword
	}
	if !input.Role.Valid() {
		return User{}, errors.New("invalid role")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	user := User{
		ID:           uuid.New().String(),
		Username:     input.Username,
		Role:         input.Role,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return User{}, err
	}

	return user, nil
}

// Authenticate verifies a username/password pair.
func (s *Service) Authenticate(ctx context.Context, username, password string) (User, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return user, nil
}

// ByUsername looks up a user by username.
func (s *Service) ByUsername(ctx context.Context, username string) (User, error) {
	return s.repo.FindByUsername(ctx, username)
}

// ByID looks up a user by identifier.
func (s *Service) ByID(ctx context.Context, id string) (User, error) {
	return s.repo.FindByID(ctx, id)
}

// Customers lists all customer users.
func (s *Service) Customers(ctx context.Context) ([]User, error) {
	return s.repo.ListByRole(ctx, RoleCustomer)
}
