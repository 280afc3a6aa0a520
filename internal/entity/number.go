package entity

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"eight_sleep_local/internal/models"
	"eight_sleep_local/internal/podclient"
)

const (
	NumberModeSlider = "slider"
	NumberModeBox    = "box"
)

type numberRange struct {
	min, max, step float64
	unit           string
	mode           string
}

func (r numberRange) attrs(icon string) map[string]any {
	a := map[string]any{
		"min":  r.min,
		"max":  r.max,
		"step": r.step,
		"mode": r.mode,
		"icon": icon,
	}
	if r.unit != "" {
		a["unit_of_measurement"] = r.unit
	}
	return a
}

// check rounds v to the step and rejects it when outside the range.
func (r numberRange) check(id string, v float64) (int, error) {
	if math.IsNaN(v) || v < r.min || v > r.max {
		return 0, fmt.Errorf("%s: %v out of range (%v-%v): %w", id, v, r.min, r.max, ErrInvalidValue)
	}
	return int(math.Round(v)), nil
}

var (
	temperatureRange = numberRange{min: podclient.MinTemperatureF, max: podclient.MaxTemperatureF, step: 1, unit: "°F", mode: NumberModeSlider}
	intensityRange   = numberRange{min: podclient.MinAlarmIntensity, max: podclient.MaxAlarmIntensity, step: 1, mode: NumberModeSlider}
	durationRange    = numberRange{min: podclient.MinAlarmDuration, max: podclient.MaxAlarmDuration, step: 1, unit: "s", mode: NumberModeBox}
	ledRange         = numberRange{min: podclient.MinLEDBrightness, max: podclient.MaxLEDBrightness, step: 1, unit: "%", mode: NumberModeSlider}
)

// TemperatureNumber sets a side's target temperature. In sync mode both sides follow.
type TemperatureNumber struct {
	base
	side models.Side
}

func newTemperatureNumber(h *Hub, side models.Side) *TemperatureNumber {
	return &TemperatureNumber{
		base: base{
			id:       sideID(string(side), "temperature"),
			name:     "Eight Sleep " + side.Title() + " Temperature",
			platform: PlatformNumber,
			device:   h.device(string(side)),
			attrs:    temperatureRange.attrs("mdi:thermometer"),
			polled:   true,
			hub:      h,
		},
		side: side,
	}
}

func (n *TemperatureNumber) State() (string, map[string]any) {
	snap, ok := n.hub.snapshot()
	if !ok {
		return models.StateUnavailable, n.staticAttrs()
	}
	v, ok := floatState(snap.Status.Side(n.side).TargetTemperatureF)
	if !ok {
		return models.StateUnknown, n.staticAttrs()
	}
	return v, n.staticAttrs()
}

func (n *TemperatureNumber) SetValue(ctx context.Context, value float64) error {
	temp, err := temperatureRange.check(n.id, value)
	if err != nil {
		return err
	}
	sides := n.hub.sides(n.side)
	meta := map[string]any{"value": temp, "sides": sides}
	return n.hub.command(ctx, n.id, "set_value", meta, func(ctx context.Context) error {
		return forSides(sides, func(side models.Side) error { return n.hub.api.SetTemperature(ctx, side, temp) })
	})
}

// LEDNumber controls the hub LED brightness.
type LEDNumber struct {
	base
}

func newLEDNumber(h *Hub) *LEDNumber {
	return &LEDNumber{base: base{
		id:       sideID(DeviceHub, "led_brightness_control"),
		name:     "Eight Sleep Hub LED Brightness Control",
		platform: PlatformNumber,
		device:   h.device(DeviceHub),
		attrs:    ledRange.attrs("mdi:led-on"),
		polled:   true,
		hub:      h,
	}}
}

func (n *LEDNumber) State() (string, map[string]any) {
	snap, ok := n.hub.snapshot()
	if !ok {
		return models.StateUnavailable, n.staticAttrs()
	}
	b, ok := snap.Status.LEDBrightness()
	if !ok {
		return models.StateUnknown, n.staticAttrs()
	}
	return strconv.Itoa(b), n.staticAttrs()
}

func (n *LEDNumber) SetValue(ctx context.Context, value float64) error {
	b, err := ledRange.check(n.id, value)
	if err != nil {
		return err
	}
	return n.hub.command(ctx, n.id, "set_value", map[string]any{"value": b}, func(ctx context.Context) error {
		return n.hub.api.SetLEDBrightness(ctx, b)
	})
}

// LocalNumber edits one of the instant alarm settings.
type LocalNumber struct {
	base
	rng numberRange
	get func() int
	set func(int) error
}

func newAlarmNumber(h *Hub, key, name, icon string, rng numberRange, get func() int, set func(int) error) *LocalNumber {
	return &LocalNumber{
		base: base{
			id:       "eight_sleep_" + key,
			name:     "Eight Sleep " + name,
			platform: PlatformNumber,
			device:   h.device(DeviceHub),
			attrs:    rng.attrs(icon),
			hub:      h,
		},
		rng: rng,
		get: get,
		set: set,
	}
}

func (n *LocalNumber) State() (string, map[string]any) {
	return strconv.Itoa(n.get()), n.staticAttrs()
}

func (n *LocalNumber) SetValue(ctx context.Context, value float64) error {
	v, err := n.rng.check(n.id, value)
	if err != nil {
		return err
	}
	if err := n.set(v); err != nil {
		return err
	}
	n.hub.local(ctx, n.id, "set_value", map[string]any{"value": v})
	return nil
}
