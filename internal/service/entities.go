package service

import (
	"context"
	"fmt"
	"strings"

	"eight_sleep_local/internal/entity"
	"eight_sleep_local/internal/models"
)

type EntityService struct {
	registry *entity.Registry
}

func NewEntityService(r *entity.Registry) *EntityService {
	return &EntityService{registry: r}
}

var errUnknownPlatform = fmt.Errorf("unknown platform: %w", entity.ErrInvalidValue)

// ListStates returns every entity state, or those of one platform.
func (s *EntityService) ListStates(ctx context.Context, platform string) ([]models.EntityState, error) {
	p := entity.Platform(strings.ToLower(strings.TrimSpace(platform)))
	if p != "" && !knownPlatform(p) {
		return nil, fmt.Errorf("%q: %w", platform, errUnknownPlatform)
	}
	return s.registry.States(p), nil
}

func (s *EntityService) GetState(ctx context.Context, entityID string) (models.EntityState, error) {
	return s.registry.State(entityID)
}

// Execute runs cmd and returns the entity state rendered afterwards.
// The command error is returned alongside the state.
func (s *EntityService) Execute(ctx context.Context, entityID string, cmd entity.Command) (models.EntityState, error) {
	cmd.Name = strings.ToLower(strings.TrimSpace(cmd.Name))
	if err := s.registry.Execute(ctx, entityID, cmd); err != nil {
		st, _ := s.registry.State(entityID)
		return st, err
	}
	return s.registry.State(entityID)
}

func knownPlatform(p entity.Platform) bool {
	for _, k := range entity.Platforms {
		if k == p {
			return true
		}
	}
	return false
}
