package entity

import (
	"context"
	"fmt"

	"eight_sleep_local/internal/models"
	"eight_sleep_local/internal/podclient"
)

const (
	HVACModeOff      = "off"
	HVACModeHeatCool = "heat_cool"
)

var hvacModes = []string{HVACModeOff, HVACModeHeatCool}

// Climate presents a side as a thermostat: heat_cool while on, off otherwise.
type Climate struct {
	base
	side models.Side
}

func newClimate(h *Hub, side models.Side) *Climate {
	return &Climate{
		base: base{
			id:       sideID(string(side), "climate"),
			name:     "Eight Sleep " + side.Title(),
			platform: PlatformClimate,
			device:   h.device(string(side)),
			attrs: map[string]any{
				"icon":             "mdi:bed-clock",
				"hvac_modes":       hvacModes,
				"min_temp":         podclient.MinTemperatureF,
				"max_temp":         podclient.MaxTemperatureF,
				"target_temp_step": 1,
				"temperature_unit": "°F",
			},
			polled: true,
			hub:    h,
		},
		side: side,
	}
}

func (c *Climate) State() (string, map[string]any) {
	attrs := c.staticAttrs()
	snap, ok := c.hub.snapshot()
	if !ok {
		return models.StateUnavailable, attrs
	}
	st := snap.Status.Side(c.side)
	attrs["current_temperature"] = nil
	if st.CurrentTemperatureF != nil {
		attrs["current_temperature"] = *st.CurrentTemperatureF
	}
	attrs["temperature"] = nil
	if st.TargetTemperatureF != nil {
		attrs["temperature"] = *st.TargetTemperatureF
	}
	if st.IsOn {
		return HVACModeHeatCool, attrs
	}
	return HVACModeOff, attrs
}

// SetTemperature honours sync mode like the temperature number.
func (c *Climate) SetTemperature(ctx context.Context, temperatureF float64) error {
	temp, err := temperatureRange.check(c.id, temperatureF)
	if err != nil {
		return err
	}
	sides := c.hub.sides(c.side)
	meta := map[string]any{"temperature": temp, "sides": sides}
	return c.hub.command(ctx, c.id, "set_temperature", meta, func(ctx context.Context) error {
		return forSides(sides, func(side models.Side) error { return c.hub.api.SetTemperature(ctx, side, temp) })
	})
}

// SetHVACMode turns this side on (heat_cool) or off.
func (c *Climate) SetHVACMode(ctx context.Context, mode string) error {
	var fn func(ctx context.Context) error
	switch mode {
	case HVACModeOff:
		fn = func(ctx context.Context) error { return c.hub.api.TurnOff(ctx, c.side) }
	case HVACModeHeatCool:
		fn = func(ctx context.Context) error { return c.hub.api.TurnOn(ctx, c.side) }
	default:
		return fmt.Errorf("%s: hvac mode %q: %w", c.id, mode, ErrInvalidValue)
	}
	return c.hub.command(ctx, c.id, "set_hvac_mode", map[string]any{"hvac_mode": mode}, fn)
}
