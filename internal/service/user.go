package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"docvault/internal/auth"
	"docvault/internal/model"
	"docvault/internal/repository"
)

var (
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials is the single signal for both unknown email and
	// wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// UserService defines registration and login.
type UserService interface {
	// Register creates a user with a bcrypt-hashed password.
	Register(ctx context.Context, email, password string) (*model.User, error)

	// Login verifies credentials and issues an access token.
	Login(ctx context.Context, email, password string) (*model.User, string, error)
}

type userService struct {
	repo   repository.UserRepository
	tokens *auth.TokenService
}

// NewUserService constructs a new UserService.
func NewUserService(repo repository.UserRepository, tokens *auth.TokenService) UserService {
	return &userService{repo: repo, tokens: tokens}
}

func (s *userService) Register(ctx context.Context, email, password string) (*model.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.Create(ctx, &model.User{Email: email, PasswordHash: hash})
	if err != nil {
		// Uniqueness is the database's call; races between two registrations
		// resolve through the constraint, not a pre-check.
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if !auth.CheckPassword(password, user.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Sign(user.ID, user.Email)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return user, token, nil
}
