package entity

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"eight_sleep_local/internal/coordinator"
	"eight_sleep_local/internal/models"
)

var timeNow = time.Now

// Command names accepted by Registry.Execute.
const (
	CmdTurnOn         = "turn_on"
	CmdTurnOff        = "turn_off"
	CmdSetValue       = "set_value"
	CmdPress          = "press"
	CmdSelectOption   = "select_option"
	CmdSetText        = "set_text"
	CmdSetTemperature = "set_temperature"
	CmdSetHVACMode    = "set_hvac_mode"
	CmdUpdate         = "update"
)

// Commands lists every command name in a stable order.
var Commands = []string{
	CmdTurnOn, CmdTurnOff, CmdSetValue, CmdPress, CmdSelectOption,
	CmdSetText, CmdSetTemperature, CmdSetHVACMode, CmdUpdate,
}

// Command is one service call against an entity.
type Command struct {
	Name        string
	Value       *float64
	Option      string
	Text        string
	HVACMode    string
	Temperature *float64
}

// Registry owns every entity of one companion server and tracks their rendered states.
type Registry struct {
	hub      *Hub
	entities []Entity
	byID     map[string]Entity

	mu     sync.Mutex
	states map[string]models.EntityState
}

// NewRegistry builds all platforms for the hub and renders their initial states.
func NewRegistry(h *Hub) *Registry {
	r := &Registry{
		hub:    h,
		byID:   map[string]Entity{},
		states: map[string]models.EntityState{},
	}
	for _, e := range buildEntities(h) {
		r.entities = append(r.entities, e)
		r.byID[e.ID()] = e
	}
	now := timeNow().UTC()
	for _, e := range r.entities {
		r.states[e.ID()] = render(e, now)
	}
	return r
}

func buildEntities(h *Hub) []Entity {
	var out []Entity
	s := h.settings

	// sensor
	for _, side := range models.Sides {
		for _, spec := range sideSensorSpecs(side) {
			out = append(out, newSensor(h, string(side), spec))
		}
	}
	for _, spec := range hubSensorSpecs() {
		out = append(out, newSensor(h, DeviceHub, spec))
	}

	// binary_sensor
	for _, side := range models.Sides {
		for _, spec := range sideBinarySpecs(side) {
			out = append(out, newBinarySensor(h, string(side), spec))
		}
	}
	for _, spec := range hubBinarySpecs() {
		out = append(out, newBinarySensor(h, DeviceHub, spec))
	}

	// switch
	for _, side := range models.Sides {
		out = append(out, newPowerSwitch(h, side))
	}
	out = append(out,
		newSyncSwitch(h, SyncModeKey, "Sync Mode", "mdi:sync", s.SyncMode, s.SetSyncMode),
		newSyncSwitch(h, InstantAlarmSyncKey, "Instant Alarm Sync", "mdi:alarm-multiple", s.InstantAlarmSync, s.SetInstantAlarmSync),
	)

	// number
	for _, side := range models.Sides {
		out = append(out, newTemperatureNumber(h, side))
	}
	out = append(out,
		newAlarmNumber(h, "instant_alarm_intensity", "Instant Alarm Intensity", "mdi:vibrate", intensityRange,
			func() int { return s.Alarm().Intensity }, s.SetAlarmIntensity),
		newAlarmNumber(h, "instant_alarm_duration", "Instant Alarm Duration", "mdi:timer", durationRange,
			func() int { return s.Alarm().Duration }, s.SetAlarmDuration),
		newLEDNumber(h),
	)

	// button
	for _, side := range models.Sides {
		out = append(out, newStopAlarmButton(h, side), newTriggerAlarmButton(h, side))
	}
	out = append(out, newPrimeButton(h))

	// select
	out = append(out, newPatternSelect(h))

	// text and climate
	for _, side := range models.Sides {
		out = append(out, newAlarmScheduleText(h, side))
	}
	for _, side := range models.Sides {
		out = append(out, newClimate(h, side))
	}
	return out
}

func render(e Entity, now time.Time) models.EntityState {
	state, attrs := e.State()
	if !e.Available() {
		state = models.StateUnavailable
	}
	if attrs == nil {
		attrs = map[string]any{}
	}
	attrs["friendly_name"] = e.Name()
	return models.EntityState{
		EntityID:    e.ID(),
		Name:        e.Name(),
		Platform:    string(e.Platform()),
		State:       state,
		Attributes:  attrs,
		LastChanged: now,
		LastUpdated: now,
	}
}

// Entities returns every entity in registration order.
func (r *Registry) Entities() []Entity {
	out := make([]Entity, len(r.entities))
	copy(out, r.entities)
	return out
}

func (r *Registry) Get(id string) (Entity, error) {
	e, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e, nil
}

// State returns the last rendered state of one entity.
func (r *Registry) State(id string) (models.EntityState, error) {
	if _, err := r.Get(id); err != nil {
		return models.EntityState{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.states[id], nil
}

// States returns the last rendered state of every entity, optionally limited to one platform.
func (r *Registry) States(platform Platform) []models.EntityState {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.EntityState, 0, len(r.entities))
	for _, e := range r.entities {
		if platform != "" && e.Platform() != platform {
			continue
		}
		out = append(out, r.states[e.ID()])
	}
	return out
}

// Sync re-renders every entity, publishes STATE_CHANGED for each difference and returns the changed states.
func (r *Registry) Sync(ctx context.Context) []models.EntityState {
	now := timeNow().UTC()

	r.mu.Lock()
	var changed []models.EntityState
	var prev []models.EntityState
	for _, e := range r.entities {
		old := r.states[e.ID()]
		cur := render(e, now)
		if cur.State == old.State && reflect.DeepEqual(cur.Attributes, old.Attributes) {
			continue
		}
		if cur.State == old.State {
			cur.LastChanged = old.LastChanged
		}
		r.states[e.ID()] = cur
		changed = append(changed, cur)
		prev = append(prev, old)
	}
	r.mu.Unlock()

	for i, st := range changed {
		r.hub.metrics.StateChanged(st.Platform)
		r.hub.publish(ctx, models.EventStateChanged, st.EntityID,
			fmt.Sprintf("%s changed from %s to %s", st.Name, prev[i].State, st.State),
			map[string]any{"old_state": prev[i].State, "new_state": st.State, "attributes": st.Attributes})
	}
	return changed
}

// HandleUpdate is the coordinator listener.
func (r *Registry) HandleUpdate(u coordinator.Update) {
	r.Sync(context.Background())
}

// Init runs every Updater once (the alarm schedule texts) and renders the result.
func (r *Registry) Init(ctx context.Context) {
	for _, e := range r.entities {
		if u, ok := e.(Updater); ok {
			if err := u.Update(ctx); err != nil {
				r.hub.log.Warnw("entity_init_update_failed", "entity_id", e.ID(), "err", err)
			}
		}
	}
	r.Sync(ctx)
}

// Execute dispatches cmd to the entity and re-syncs states afterwards.
// ErrNotFound and ErrUnsupported are returned before anything is sent.
func (r *Registry) Execute(ctx context.Context, id string, cmd Command) error {
	e, err := r.Get(id)
	if err != nil {
		return err
	}
	run, err := r.dispatch(e, cmd)
	if err != nil {
		return err
	}
	err = run(ctx)
	r.Sync(ctx)
	return err
}

func unsupported(e Entity, name string) error {
	return fmt.Errorf("%w: %s on %s", ErrUnsupported, name, e.ID())
}

func (r *Registry) dispatch(e Entity, cmd Command) (func(ctx context.Context) error, error) {
	switch cmd.Name {
	case CmdTurnOn, CmdTurnOff:
		s, ok := e.(Switchable)
		if !ok {
			return nil, unsupported(e, cmd.Name)
		}
		if cmd.Name == CmdTurnOn {
			return s.TurnOn, nil
		}
		return s.TurnOff, nil
	case CmdSetValue:
		s, ok := e.(Settable)
		if !ok {
			return nil, unsupported(e, cmd.Name)
		}
		if cmd.Value == nil {
			return nil, fmt.Errorf("%s: value is required: %w", e.ID(), ErrInvalidValue)
		}
		v := *cmd.Value
		return func(ctx context.Context) error { return s.SetValue(ctx, v) }, nil
	case CmdPress:
		p, ok := e.(Pressable)
		if !ok {
			return nil, unsupported(e, cmd.Name)
		}
		return p.Press, nil
	case CmdSelectOption:
		s, ok := e.(Selectable)
		if !ok {
			return nil, unsupported(e, cmd.Name)
		}
		return func(ctx context.Context) error { return s.SelectOption(ctx, cmd.Option) }, nil
	case CmdSetText:
		t, ok := e.(TextSettable)
		if !ok {
			return nil, unsupported(e, cmd.Name)
		}
		return func(ctx context.Context) error { return t.SetText(ctx, cmd.Text) }, nil
	case CmdSetTemperature:
		c, ok := e.(ClimateControl)
		if !ok {
			return nil, unsupported(e, cmd.Name)
		}
		if cmd.Temperature == nil {
			return nil, fmt.Errorf("%s: temperature is required: %w", e.ID(), ErrInvalidValue)
		}
		v := *cmd.Temperature
		return func(ctx context.Context) error { return c.SetTemperature(ctx, v) }, nil
	case CmdSetHVACMode:
		c, ok := e.(ClimateControl)
		if !ok {
			return nil, unsupported(e, cmd.Name)
		}
		return func(ctx context.Context) error { return c.SetHVACMode(ctx, cmd.HVACMode) }, nil
	case CmdUpdate:
		// entities without their own fetch refresh the whole poll
		if u, ok := e.(Updater); ok {
			return u.Update, nil
		}
		return func(ctx context.Context) error {
			r.hub.source.RequestRefresh(ctx)
			return nil
		}, nil
	default:
		return nil, unsupported(e, cmd.Name)
	}
}
