package service

import (
	"time"

	"eight_sleep_local/internal/models"
)

// LogFilter supports history filtering by time range, type and entity.
type LogFilter struct {
	From     time.Time // inclusive; zero means no lower bound
	To       time.Time // inclusive; zero means no upper bound
	Type     string    // "", "STATE_CHANGED", "COMMAND", "COMMAND_FAILED", "UPDATE_FAILED", "UPDATE_RECOVERED"
	EntityID string    // "" means every entity
}

// PodStatus is the latest coordinator snapshot plus its availability.
type PodStatus struct {
	Available  bool                 `json:"available"`
	LastUpdate *time.Time           `json:"last_update,omitempty"`
	LastError  string               `json:"last_error,omitempty"`
	FetchedAt  *time.Time           `json:"fetched_at,omitempty"`
	Status     *models.DeviceStatus `json:"status,omitempty"`
	Presence   *models.Presence     `json:"presence,omitempty"`
}
