package identity

import (
	"context"
	"sync"
)

type memoryRepository struct {
	mu    sync.RWMutex
	users map[string]User
}

// NewMemoryRepository builds an in-memory user directory for development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{users: make(map[string]User)}
}

func (r *memoryRepository) FindByEmail(_ context.Context, email string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		found User
		ok    bool
	)
	for _, user := range r.users {
		if user.Email != email {
			continue
		}
		if !ok || (user.IsActive && !found.IsActive) {
			found, ok = user, true
		}
	}
	if !ok {
		return User{}, ErrNotFound
	}
	return found.clone(), nil
}

func (r *memoryRepository) Save(_ context.Context, user User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user.IsActive {
		for id, other := range r.users {
			if id != user.ID && other.IsActive && other.Email == user.Email {
				return User{}, ErrDuplicateEmail
			}
		}
	}
	if existing, ok := r.users[user.ID]; ok {
		user.CreatedAt = existing.CreatedAt
	}

	r.users[user.ID] = user.clone()
	return user.clone(), nil
}
