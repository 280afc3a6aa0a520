package service

import (
	"context"

	"eight_sleep_local/internal/models"
)

// HealthService is a read-only pass-through; records are not processed.
type HealthService struct {
	pod PodAPI
}

func NewHealthService(pod PodAPI) *HealthService {
	return &HealthService{pod: pod}
}

func (s *HealthService) Vitals(ctx context.Context, q models.MetricsQuery) ([]models.Record, error) {
	return s.pod.Vitals(ctx, q)
}

func (s *HealthService) VitalsSummary(ctx context.Context, q models.MetricsQuery) (models.Record, error) {
	return s.pod.VitalsSummary(ctx, q)
}

func (s *HealthService) SleepRecords(ctx context.Context, q models.MetricsQuery) ([]models.Record, error) {
	return s.pod.SleepRecords(ctx, q)
}

func (s *HealthService) Movement(ctx context.Context, q models.MetricsQuery) ([]models.Record, error) {
	return s.pod.Movement(ctx, q)
}

// Schedules returns the full schedule document (power, temperatures and alarms).
func (s *HealthService) Schedules(ctx context.Context) (models.Schedules, error) {
	return s.pod.Schedules(ctx)
}
