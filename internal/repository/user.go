package repository

import (
	"context"
	"errors"

	"docvault/internal/model"
)

// ErrDuplicateEmail is returned by Create when the email is already taken.
// Implementations translate their backend's unique-violation error into it.
var ErrDuplicateEmail = errors.New("email already registered")

// UserRepository defines data access for users.
type UserRepository interface {
	// Create inserts a new user and returns the stored row. A duplicate
	// email surfaces as a database unique-violation error.
	Create(ctx context.Context, user *model.User) (*model.User, error)

	// FindByEmail returns the user with the given email, or sql.ErrNoRows.
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// FindByID returns the user with the given id, or sql.ErrNoRows.
	FindByID(ctx context.Context, id int64) (*model.User, error)
}
