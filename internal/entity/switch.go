package entity

import (
	"context"

	"eight_sleep_local/internal/models"
)

const (
	SyncModeKey         = "sync_mode"
	InstantAlarmSyncKey = "instant_alarm_sync"
)

// PowerSwitch turns a side on or off. In sync mode both sides follow.
type PowerSwitch struct {
	base
	side models.Side
}

func newPowerSwitch(h *Hub, side models.Side) *PowerSwitch {
	return &PowerSwitch{
		base: base{
			id:       sideID(string(side), "power"),
			name:     "Eight Sleep " + side.Title() + " Power",
			platform: PlatformSwitch,
			device:   h.device(string(side)),
			attrs:    map[string]any{"icon": "mdi:power"},
			polled:   true,
			hub:      h,
		},
		side: side,
	}
}

func (s *PowerSwitch) State() (string, map[string]any) {
	snap, ok := s.hub.snapshot()
	if !ok {
		return models.StateUnavailable, s.staticAttrs()
	}
	return onOff(snap.Status.Side(s.side).IsOn), s.staticAttrs()
}

func (s *PowerSwitch) TurnOn(ctx context.Context) error {
	sides := s.hub.sides(s.side)
	return s.hub.command(ctx, s.id, "turn_on", map[string]any{"sides": sides}, func(ctx context.Context) error {
		return forSides(sides, func(side models.Side) error { return s.hub.api.TurnOn(ctx, side) })
	})
}

func (s *PowerSwitch) TurnOff(ctx context.Context) error {
	sides := s.hub.sides(s.side)
	return s.hub.command(ctx, s.id, "turn_off", map[string]any{"sides": sides}, func(ctx context.Context) error {
		return forSides(sides, func(side models.Side) error { return s.hub.api.TurnOff(ctx, side) })
	})
}

// LocalSwitch toggles one of the bridge-local sync flags.
type LocalSwitch struct {
	base
	get func() bool
	set func(bool)
}

func newSyncSwitch(h *Hub, key, name, icon string, get func() bool, set func(bool)) *LocalSwitch {
	return &LocalSwitch{
		base: base{
			id:       "eight_sleep_" + key,
			name:     "Eight Sleep " + name,
			platform: PlatformSwitch,
			device:   h.device(DeviceHub),
			attrs:    map[string]any{"icon": icon},
			hub:      h,
		},
		get: get,
		set: set,
	}
}

func (s *LocalSwitch) State() (string, map[string]any) {
	return onOff(s.get()), s.staticAttrs()
}

func (s *LocalSwitch) TurnOn(ctx context.Context) error {
	s.set(true)
	s.hub.local(ctx, s.id, "turn_on", nil)
	return nil
}

func (s *LocalSwitch) TurnOff(ctx context.Context) error {
	s.set(false)
	s.hub.local(ctx, s.id, "turn_off", nil)
	return nil
}
