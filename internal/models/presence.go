package models

// SidePresence is one side of GET /api/presence.
type SidePresence struct {
	Present     bool   `json:"present"`
	LastUpdated string `json:"lastUpdated,omitempty"` // RFC3339 as sent by the server
}

// Presence is the document served by GET /api/presence.
type Presence struct {
	Left  SidePresence `json:"left"`
	Right SidePresence `json:"right"`
}

func (p Presence) Side(s Side) SidePresence {
	if s == SideRight {
		return p.Right
	}
	return p.Left
}

// MetricsQuery filters the health-metric endpoints. Empty fields are omitted.
type MetricsQuery struct {
	Side      Side
	StartTime string
	EndTime   string
}

// Record is a single health-metric row, passed through as sent.
type Record map[string]any
