// Package repository persists user credential records.
package repository

import (
	"context"
	"errors"

	"github.com/authflow/authflow-go/internal/model"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrDuplicateEmail   = errors.New("email already exists")
	ErrConcurrentUpdate = errors.New("user record changed concurrently")
)

// UserRepository is the credential store. Email lookups match at most one record.
type UserRepository interface {
	// Create inserts a new record; a taken email yields ErrDuplicateEmail.
	Create(ctx context.Context, user *model.User) error

	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)

	// Update loads the record, applies fn and persists the result while holding
	// the record exclusively. If fn returns an error nothing is written and that
	// error is returned unchanged.
	Update(ctx context.Context, id string, fn func(*model.User) error) (*model.User, error)
}
