package repository

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"eight_sleep_local/internal/models"
)

var ErrUserExists = errors.New("user already exists")

// SeedUser is a user loaded from configuration with an already hashed password.
type SeedUser struct {
	Username     string
	PasswordHash string
}

// UserRepository keeps users in memory. Sign-ups do not survive a restart.
type UserRepository struct {
	mu     sync.RWMutex
	users  map[string]models.User
	nextID int
}

func NewUserRepository(seed ...SeedUser) *UserRepository {
	r := &UserRepository{users: map[string]models.User{}, nextID: 1}
	for _, u := range seed {
		if _, err := r.Create(u.Username, u.PasswordHash); err != nil {
			continue
		}
	}
	return r
}

// Ensure implementation of Authorization interface at compile time.
var _ Authorization = (*UserRepository)(nil)

// Create inserts a new user and returns its ID.
func (r *UserRepository) Create(username, passwordHash string) (int, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return 0, fmt.Errorf("insert user: empty username")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[username]; ok {
		return 0, fmt.Errorf("insert user %q: %w", username, ErrUserExists)
	}
	u := models.User{ID: r.nextID, Username: username, PasswordHash: passwordHash}
	r.users[username] = u
	r.nextID++
	return u.ID, nil
}

// GetByUsername fetches a user by username. Returns (nil, nil) if not found.
func (r *UserRepository) GetByUsername(username string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[username]
	if !ok {
		return nil, nil
	}
	return &u, nil
}
