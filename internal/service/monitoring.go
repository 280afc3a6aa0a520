package service

import (
	"context"
	"time"

	"eight_sleep_local/internal/models"
)

type MonitoringService struct {
	coord Snapshots
	pod   PodAPI
}

func NewMonitoringService(coord Snapshots, pod PodAPI) *MonitoringService {
	return &MonitoringService{coord: coord, pod: pod}
}

// Status returns the latest snapshot. Before the first successful poll only availability is set.
func (s *MonitoringService) Status(ctx context.Context) (PodStatus, error) {
	st := PodStatus{Available: s.coord.LastUpdateSuccess()}
	if t := toUTC(s.coord.LastUpdate()); !t.IsZero() {
		st.LastUpdate = &t
	}
	if err := s.coord.LastError(); err != nil {
		st.LastError = err.Error()
	}
	snap, ok := s.coord.Data()
	if !ok {
		return st, nil
	}
	status := snap.Status
	fetched := toUTC(snap.FetchedAt)
	st.Status = &status
	st.Presence = snap.Presence
	st.FetchedAt = &fetched
	return st, nil
}

// History returns the rolling device status history, newest first.
func (s *MonitoringService) History(ctx context.Context) ([]models.DeviceStatus, error) {
	return s.pod.History(), nil
}

// Presence fetches bed presence live from the companion server.
func (s *MonitoringService) Presence(ctx context.Context) (models.Presence, error) {
	return s.pod.Presence(ctx)
}

// Refresh polls immediately and returns the resulting status.
func (s *MonitoringService) Refresh(ctx context.Context) (PodStatus, error) {
	if err := s.coord.Refresh(ctx); err != nil {
		st, _ := s.Status(ctx)
		return st, err
	}
	return s.Status(ctx)
}

// toUTC normalizes non-zero time to UTC, preserving zero values.
func toUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}
