package entity

import (
	"context"
	"errors"

	"eight_sleep_local/internal/coordinator"
	"eight_sleep_local/internal/logger"
	"eight_sleep_local/internal/metrics"
	"eight_sleep_local/internal/models"
	"eight_sleep_local/internal/podclient"

	"github.com/google/uuid"
)

// PodAPI is the command surface of the companion client used by entities.
type PodAPI interface {
	SetTemperature(ctx context.Context, side models.Side, temperatureF int) error
	TurnOn(ctx context.Context, side models.Side) error
	TurnOff(ctx context.Context, side models.Side) error
	StopAlarm(ctx context.Context, side models.Side) error
	StartPriming(ctx context.Context) error
	SetLEDBrightness(ctx context.Context, brightness int) error
	TriggerAlarm(ctx context.Context, side models.Side, p podclient.AlarmParams) error
	Schedules(ctx context.Context) (models.Schedules, error)
	UpdateAlarmSchedule(ctx context.Context, side models.Side, schedule models.AlarmSchedule) error
}

// Source is the coordinator as seen by entities.
type Source interface {
	Data() (coordinator.Snapshot, bool)
	LastUpdateSuccess() bool
	RequestRefresh(ctx context.Context)
}

type Publisher interface {
	Publish(ctx context.Context, ev models.PodEvent)
}

// Hub holds what every entity of one companion server shares.
type Hub struct {
	api      PodAPI
	source   Source
	settings *Settings
	host     string
	port     int

	log     *logger.Logger
	metrics *metrics.Metrics
	events  Publisher
}

type HubOption func(*Hub)

func WithLogger(l *logger.Logger) HubOption {
	return func(h *Hub) { h.log = l }
}

func WithMetrics(m *metrics.Metrics) HubOption {
	return func(h *Hub) { h.metrics = m }
}

func WithPublisher(p Publisher) HubOption {
	return func(h *Hub) { h.events = p }
}

// NewHub ties the client, the coordinator and the local settings together.
// host and port identify the companion server in device identifiers.
func NewHub(api PodAPI, source Source, settings *Settings, host string, port int, opts ...HubOption) *Hub {
	if settings == nil {
		settings = NewSettings(false, false, podclient.DefaultAlarmParams())
	}
	h := &Hub{
		api:      api,
		source:   source,
		settings: settings,
		host:     host,
		port:     port,
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.log == nil {
		h.log = logger.Nop()
	}
	return h
}

func (h *Hub) Settings() *Settings { return h.settings }

func (h *Hub) device(kind string) DeviceInfo {
	return NewDeviceInfo(kind, h.host, h.port)
}

func (h *Hub) available() bool {
	_, ok := h.source.Data()
	return ok && h.source.LastUpdateSuccess()
}

// snapshot returns the latest data; ok is false when entities should read as unavailable.
func (h *Hub) snapshot() (coordinator.Snapshot, bool) {
	snap, ok := h.source.Data()
	if !ok || !h.source.LastUpdateSuccess() {
		return coordinator.Snapshot{}, false
	}
	return snap, true
}

// sides returns the sides a per-side command applies to: both in sync mode.
func (h *Hub) sides(side models.Side) []models.Side {
	if h.settings.SyncMode() {
		return models.Sides
	}
	return []models.Side{side}
}

// forSides runs fn on every side, continuing past failures.
func forSides(sides []models.Side, fn func(models.Side) error) error {
	var errs []error
	for _, s := range sides {
		if err := fn(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// command runs a companion request on behalf of an entity, records the outcome
// and asks the coordinator for a fresh snapshot.
func (h *Hub) command(ctx context.Context, entityID, name string, meta map[string]any, fn func(ctx context.Context) error) error {
	err := fn(ctx)
	h.metrics.CommandIssued(name, err)
	if err != nil {
		h.log.Errorw("entity_command_failed", "entity_id", entityID, "command", name, "err", err)
		md := map[string]any{"command": name, "error": err.Error()}
		for k, v := range meta {
			md[k] = v
		}
		h.publish(ctx, models.EventCommandFailed, entityID, "Command "+name+" failed", md)
	} else {
		h.log.Infow("entity_command", "entity_id", entityID, "command", name)
		h.publish(ctx, models.EventCommand, entityID, "Command "+name, withCommand(name, meta))
	}
	h.source.RequestRefresh(ctx)
	return err
}

// local records a change to a local-only setting.
func (h *Hub) local(ctx context.Context, entityID, name string, meta map[string]any) {
	h.metrics.CommandIssued(name, nil)
	h.log.Infow("entity_local_setting", "entity_id", entityID, "command", name)
	h.publish(ctx, models.EventCommand, entityID, "Command "+name, withCommand(name, meta))
}

func withCommand(name string, meta map[string]any) map[string]any {
	md := map[string]any{"command": name}
	for k, v := range meta {
		md[k] = v
	}
	return md
}

func (h *Hub) publish(ctx context.Context, typ, entityID, desc string, meta map[string]any) {
	if h.events == nil {
		return
	}
	h.events.Publish(ctx, models.PodEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  timeNow().UTC(),
		Type:        typ,
		EntityID:    entityID,
		Description: desc,
		Metadata:    meta,
	})
}
