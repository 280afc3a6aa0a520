package models

import "time"

// Sentinel state strings shared by all platforms.
const (
	StateOn          = "on"
	StateOff         = "off"
	StateUnknown     = "unknown"
	StateUnavailable = "unavailable"
)

// EntityState is the rendered state of a single entity.
type EntityState struct {
	EntityID    string         `json:"entity_id"`
	Name        string         `json:"name"`
	Platform    string         `json:"platform"`
	State       string         `json:"state"`
	Attributes  map[string]any `json:"attributes,omitempty"`
	LastChanged time.Time      `json:"last_changed"`
	LastUpdated time.Time      `json:"last_updated"`
}

// PodEvent is a single entry of the bridge event log.
type PodEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"` // STATE_CHANGED | COMMAND | COMMAND_FAILED | UPDATE_FAILED | UPDATE_RECOVERED
	EntityID    string    `json:"entity_id,omitempty"`
	Description string    `json:"description"`
	Metadata    any       `json:"metadata,omitempty"`
}

const (
	EventStateChanged    = "STATE_CHANGED"
	EventCommand         = "COMMAND"
	EventCommandFailed   = "COMMAND_FAILED"
	EventUpdateFailed    = "UPDATE_FAILED"
	EventUpdateRecovered = "UPDATE_RECOVERED"
)

type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"` // don’t expose hash
}
