// Package services contains server-side business logic. This file implements
// UserService: registration, credential verification, and password reset.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/okovalenko/mediadrop/internal/common"
	"github.com/okovalenko/mediadrop/internal/server/models"
	"github.com/okovalenko/mediadrop/internal/server/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
)

// bcryptCost matches the work factor the original deployment used.
const bcryptCost = 10

// dummyHash is a valid bcrypt hash of a throwaway string. When a login
// names an unknown user, the candidate password is compared against this
// hash anyway so response timing does not reveal whether the username
// exists.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// Seams for testing bcrypt failures.
var (
	bcryptGenerateFromPassword   = bcrypt.GenerateFromPassword
	bcryptCompareHashAndPassword = bcrypt.CompareHashAndPassword
)

// UserService provides account operations:
// - Register: create users with a role
// - Verify: check credentials for login
// - ResetPassword: overwrite the stored hash
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

// NewUserService constructs a UserService over the repository manager.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
	}
}

// normalizeRole validates the requested role, defaulting empty to "user".
func normalizeRole(role string) (string, error) {
	switch role {
	case "":
		return models.RoleUser, nil
	case models.RoleAdmin, models.RoleUser:
		return role, nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", common.ErrorValidation, role)
	}
}

// Register creates a new user. Only the bcrypt hash of the password is
// stored. A taken username yields common.ErrorAlreadyExists.
func (s *UserService) Register(ctx context.Context, username, password, role string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", common.ErrorValidation)
	}
	role, err := normalizeRole(role)
	if err != nil {
		return nil, err
	}

	hash, err := bcryptGenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, common.ErrorInternal
	}

	user := &models.User{Username: username, PasswordHash: string(hash), Role: role}

	repo := s.repomanager.Users(s.db)
	user, err = repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return user, nil
}

// Verify checks a username/password pair and returns the matching user.
// Unknown usernames and wrong passwords both yield common.ErrorUnauthorized
// after a hash comparison, so neither the error nor the timing says which
// field was wrong.
func (s *UserService) Verify(ctx context.Context, username, password string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// burn a comparison against the dummy hash
			_ = bcryptCompareHashAndPassword([]byte(dummyHash), []byte(password))
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	if err := bcryptCompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, common.ErrorUnauthorized
	}

	return user, nil
}

// ResetPassword unconditionally overwrites the stored hash for the given
// username. No proof of prior identity is demanded here; callers decide how
// the operation is exposed.
func (s *UserService) ResetPassword(ctx context.Context, username, newPassword string) error {
	if username == "" || newPassword == "" {
		return fmt.Errorf("%w: username and password are required", common.ErrorValidation)
	}

	hash, err := bcryptGenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return common.ErrorInternal
	}

	repo := s.repomanager.Users(s.db)
	if err := repo.UpdatePasswordHash(ctx, username, string(hash)); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("error resetting password: %w", err)
	}
	return nil
}
