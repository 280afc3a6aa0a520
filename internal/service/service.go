package service

import (
	"context"
	"time"

	"eight_sleep_local/internal/coordinator"
	"eight_sleep_local/internal/entity"
	"eight_sleep_local/internal/models"
	"eight_sleep_local/internal/repository"
)

// Authorization signs users in and resolves bearer tokens to the user they were issued to.
type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (Token, error)
	ParseToken(accessToken string) (Identity, error)
}

// Entities exposes entity states and dispatches commands to them.
type Entities interface {
	ListStates(ctx context.Context, platform string) ([]models.EntityState, error)
	GetState(ctx context.Context, entityID string) (models.EntityState, error)
	Execute(ctx context.Context, entityID string, cmd entity.Command) (models.EntityState, error)
}

// Monitoring exposes the raw companion data behind the entities.
type Monitoring interface {
	Status(ctx context.Context) (PodStatus, error)
	History(ctx context.Context) ([]models.DeviceStatus, error)
	Presence(ctx context.Context) (models.Presence, error)
	Refresh(ctx context.Context) (PodStatus, error)
}

// EventLog exposes append-only logs with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.PodEvent, error)
}

// Health passes the companion health-metric endpoints through unchanged.
type Health interface {
	Vitals(ctx context.Context, q models.MetricsQuery) ([]models.Record, error)
	VitalsSummary(ctx context.Context, q models.MetricsQuery) (models.Record, error)
	SleepRecords(ctx context.Context, q models.MetricsQuery) ([]models.Record, error)
	Movement(ctx context.Context, q models.MetricsQuery) ([]models.Record, error)
	Schedules(ctx context.Context) (models.Schedules, error)
}

// Poller runs the background loop that refreshes the pod snapshot.
// Stop via context cancellation in main() for graceful shutdown.
type Poller interface {
	Run(ctx context.Context)
}

// Service aggregates all sub-services.
type Service struct {
	Entities
	Monitoring
	EventLog
	Health
	Poller
	Authorization
}

// PodAPI is the read side of the companion client used by the services.
type PodAPI interface {
	History() []models.DeviceStatus
	Presence(ctx context.Context) (models.Presence, error)
	Schedules(ctx context.Context) (models.Schedules, error)
	Vitals(ctx context.Context, q models.MetricsQuery) ([]models.Record, error)
	VitalsSummary(ctx context.Context, q models.MetricsQuery) (models.Record, error)
	SleepRecords(ctx context.Context, q models.MetricsQuery) ([]models.Record, error)
	Movement(ctx context.Context, q models.MetricsQuery) ([]models.Record, error)
}

// Snapshots is the coordinator as seen by the services.
type Snapshots interface {
	Data() (coordinator.Snapshot, bool)
	LastUpdateSuccess() bool
	LastUpdate() time.Time
	LastError() error
	Refresh(ctx context.Context) error
	Run(ctx context.Context)
}

// Deps carries everything NewService wires together.
type Deps struct {
	Repos       *repository.Repository
	Pod         PodAPI
	Coordinator Snapshots
	Registry    *entity.Registry
	SigningKey  string
	TokenTTL    time.Duration
}

// NewService wires the repository layer, the companion client and the entity registry into concrete services.
func NewService(d Deps) *Service {
	return &Service{
		Entities:      NewEntityService(d.Registry),
		Monitoring:    NewMonitoringService(d.Coordinator, d.Pod),
		EventLog:      NewEventLogService(d.Repos.EventRepo),
		Health:        NewHealthService(d.Pod),
		Poller:        d.Coordinator,
		Authorization: NewAuthService(d.Repos.Auth, d.SigningKey, d.TokenTTL),
	}
}
