package repository

import (
	"context"
	"time"

	"eight_sleep_local/internal/models"
)

type Authorization interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*models.User, error)
}

type EventRepo interface {
	Append(ctx context.Context, e models.PodEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.PodEvent, error)
}

type Repository struct {
	EventRepo EventRepo
	Auth      Authorization
}

// NewRepository builds the in-memory stores: an event ring of eventCapacity entries
// and a user store seeded with users.
func NewRepository(eventCapacity int, users []SeedUser) *Repository {
	return &Repository{
		EventRepo: NewEventRing(eventCapacity),
		Auth:      NewUserRepository(users...),
	}
}
