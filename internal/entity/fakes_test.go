package entity

import (
	"context"
	"fmt"
	"sync"

	"eight_sleep_local/internal/coordinator"
	"eight_sleep_local/internal/models"
	"eight_sleep_local/internal/podclient"
)

// fakeAPI records calls as "name:side[:arg]" strings.
type fakeAPI struct {
	mu        sync.Mutex
	calls     []string
	err       error
	schedules models.Schedules
	posted    models.AlarmSchedule
}

func (f *fakeAPI) record(format string, args ...any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
	return f.err
}

func (f *fakeAPI) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeAPI) SetTemperature(_ context.Context, side models.Side, t int) error {
	return f.record("set_temperature:%s:%d", side, t)
}

func (f *fakeAPI) TurnOn(_ context.Context, side models.Side) error {
	return f.record("turn_on:%s", side)
}

func (f *fakeAPI) TurnOff(_ context.Context, side models.Side) error {
	return f.record("turn_off:%s", side)
}

func (f *fakeAPI) StopAlarm(_ context.Context, side models.Side) error {
	return f.record("stop_alarm:%s", side)
}

func (f *fakeAPI) StartPriming(_ context.Context) error {
	return f.record("start_priming")
}

func (f *fakeAPI) SetLEDBrightness(_ context.Context, b int) error {
	return f.record("led:%d", b)
}

func (f *fakeAPI) TriggerAlarm(_ context.Context, side models.Side, p podclient.AlarmParams) error {
	return f.record("trigger_alarm:%s:%d:%s:%d", side, p.Intensity, p.Pattern, p.Duration)
}

func (f *fakeAPI) Schedules(_ context.Context) (models.Schedules, error) {
	if err := f.record("schedules"); err != nil {
		return nil, err
	}
	return f.schedules, nil
}

func (f *fakeAPI) UpdateAlarmSchedule(_ context.Context, side models.Side, s models.AlarmSchedule) error {
	f.mu.Lock()
	f.posted = s
	f.mu.Unlock()
	return f.record("update_schedule:%s", side)
}

type fakeSource struct {
	mu        sync.Mutex
	snap      coordinator.Snapshot
	hasData   bool
	success   bool
	refreshes int
}

func (s *fakeSource) Data() (coordinator.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap, s.hasData
}

func (s *fakeSource) LastUpdateSuccess() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.success
}

func (s *fakeSource) RequestRefresh(context.Context) {
	s.mu.Lock()
	s.refreshes++
	s.mu.Unlock()
}

func (s *fakeSource) set(st models.DeviceStatus, p *models.Presence) {
	s.mu.Lock()
	s.snap = coordinator.Snapshot{Status: st, Presence: p}
	s.hasData = true
	s.success = true
	s.mu.Unlock()
}

func (s *fakeSource) fail() {
	s.mu.Lock()
	s.success = false
	s.mu.Unlock()
}

func (s *fakeSource) Refreshes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshes
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.PodEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev models.PodEvent) {
	p.mu.Lock()
	p.events = append(p.events, ev)
	p.mu.Unlock()
}

func (p *recordingPublisher) ofType(typ string) []models.PodEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []models.PodEvent
	for _, ev := range p.events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

func ptrFloat(v float64) *float64 { return &v }

func sampleStatus() models.DeviceStatus {
	return models.DeviceStatus{
		Left: models.SideStatus{
			CurrentTemperatureF: ptrFloat(83.5),
			TargetTemperatureF:  ptrFloat(90),
			SecondsRemaining:    ptrFloat(300),
			IsAlarmVibrating:    true,
			IsOn:                true,
		},
		Right: models.SideStatus{
			CurrentTemperatureF: ptrFloat(79),
			TargetTemperatureF:  ptrFloat(80),
		},
		WaterLevel:  true,
		Settings:    map[string]any{"ledBrightness": float64(40)},
		SensorLabel: `"00000-0000-000-00000"`,
	}
}

type fixture struct {
	api      *fakeAPI
	source   *fakeSource
	events   *recordingPublisher
	settings *Settings
	reg      *Registry
}

func newFixture() *fixture {
	f := &fixture{
		api:      &fakeAPI{},
		source:   &fakeSource{},
		events:   &recordingPublisher{},
		settings: NewSettings(false, false, podclient.DefaultAlarmParams()),
	}
	f.source.set(sampleStatus(), &models.Presence{Left: models.SidePresence{Present: true, LastUpdated: "2025-01-15T08:30:00Z"}})
	hub := NewHub(f.api, f.source, f.settings, "192.168.1.50", 3000, WithPublisher(f.events))
	f.reg = NewRegistry(hub)
	return f
}

func (f *fixture) state(id string) models.EntityState {
	st, err := f.reg.State(id)
	if err != nil {
		panic(err)
	}
	return st
}

func podclientParams(intensity int, pattern string, duration int) podclient.AlarmParams {
	return podclient.AlarmParams{Intensity: intensity, Pattern: pattern, Duration: duration}
}
