package repository

import (
	"context"
	"sync"
	"time"

	"github.com/authflow/authflow-go/internal/model"
)

// MemoryUserRepository keeps users in process memory. It backs tests and
// single-instance development runs.
type MemoryUserRepository struct {
	mu      sync.Mutex
	byID    map[string]*model.User
	byEmail map[string]string
}

// NewMemoryUserRepository creates an empty in-memory store.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID:    make(map[string]*model.User),
		byEmail: make(map[string]string),
	}
}

func (r *MemoryUserRepository) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[user.Email]; ok {
		return ErrDuplicateEmail
	}

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	stored := *user
	r.byID[user.ID] = &stored
	r.byEmail[user.Email] = user.ID
	return nil
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	out := *user
	return &out, nil
}

func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	out := *r.byID[id]
	return &out, nil
}

// Update holds the repository lock for the duration of fn.
func (r *MemoryUserRepository) Update(_ context.Context, id string, fn func(*model.User) error) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}

	working := *current
	if err := fn(&working); err != nil {
		return nil, err
	}

	if working.Email != current.Email {
		if _, taken := r.byEmail[working.Email]; taken {
			return nil, ErrDuplicateEmail
		}
		delete(r.byEmail, current.Email)
		r.byEmail[working.Email] = id
	}

	working.ID = id
	working.Version = current.Version + 1
	working.UpdatedAt = time.Now()
	r.byID[id] = &working

	out := working
	return &out, nil
}
