package entity

import (
	"context"
	"sync"
	"time"

	"eight_sleep_local/internal/models"
)

// Button is stateless on the device; its state is the time of the last press.
type Button struct {
	base
	press func(ctx context.Context) error

	mu          sync.Mutex
	lastPressed time.Time
}

func (b *Button) State() (string, map[string]any) {
	if !b.Available() {
		return models.StateUnavailable, b.staticAttrs()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.lastPressed.IsZero() {
		return models.StateUnknown, b.staticAttrs()
	}
	return b.lastPressed.UTC().Format(time.RFC3339), b.staticAttrs()
}

func (b *Button) Press(ctx context.Context) error {
	b.mu.Lock()
	b.lastPressed = timeNow()
	b.mu.Unlock()
	return b.press(ctx)
}

func newButton(h *Hub, kind, key, name, icon string, polled bool) *Button {
	return &Button{base: base{
		id:       sideID(kind, key),
		name:     "Eight Sleep " + name,
		platform: PlatformButton,
		device:   h.device(kind),
		attrs:    map[string]any{"icon": icon},
		polled:   polled,
		hub:      h,
	}}
}

// newStopAlarmButton stops the alarm on a side; in sync mode on both sides.
func newStopAlarmButton(h *Hub, side models.Side) *Button {
	b := newButton(h, string(side), "stop_alarm", side.Title()+" Stop Alarm", "mdi:alarm-off", true)
	b.press = func(ctx context.Context) error {
		sides := h.sides(side)
		return h.command(ctx, b.id, "press", map[string]any{"sides": sides}, func(ctx context.Context) error {
			return forSides(sides, func(s models.Side) error { return h.api.StopAlarm(ctx, s) })
		})
	}
	return b
}

// newTriggerAlarmButton fires the instant alarm with the local settings.
// With instant alarm sync the other side vibrates too.
func newTriggerAlarmButton(h *Hub, side models.Side) *Button {
	b := newButton(h, string(side), "trigger_alarm", side.Title()+" Trigger Alarm", "mdi:alarm", false)
	b.press = func(ctx context.Context) error {
		params := h.settings.Alarm()
		sides := []models.Side{side}
		if h.settings.InstantAlarmSync() {
			sides = append(sides, side.Other())
		}
		meta := map[string]any{
			"sides":     sides,
			"intensity": params.Intensity,
			"pattern":   params.Pattern,
			"duration":  params.Duration,
		}
		return h.command(ctx, b.id, "press", meta, func(ctx context.Context) error {
			return forSides(sides, func(s models.Side) error { return h.api.TriggerAlarm(ctx, s, params) })
		})
	}
	return b
}

func newPrimeButton(h *Hub) *Button {
	b := &Button{base: base{
		id:       "eight_sleep_prime_pod",
		name:     "Eight Sleep Prime Pod",
		platform: PlatformButton,
		device:   h.device(DeviceHub),
		attrs:    map[string]any{"icon": "mdi:water-sync"},
		polled:   true,
		hub:      h,
	}}
	b.press = func(ctx context.Context) error {
		return h.command(ctx, b.id, "press", nil, h.api.StartPriming)
	}
	return b
}
