package entity

import (
	"strconv"

	"eight_sleep_local/internal/coordinator"
	"eight_sleep_local/internal/models"
)

// sensorSpec maps one field of the status document to a sensor.
type sensorSpec struct {
	key         string
	name        string
	unit        string
	deviceClass string
	category    string
	icon        string
	// value returns the rendered state, or ok=false when the field is absent.
	value func(st models.DeviceStatus) (string, bool)
}

func sideSensorSpecs(side models.Side) []sensorSpec {
	return []sensorSpec{
		{
			key: "current_temp_f", name: "Current Temperature", unit: "°F", deviceClass: "temperature",
			value: func(st models.DeviceStatus) (string, bool) {
				return floatState(st.Side(side).CurrentTemperatureF)
			},
		},
		{
			key: "target_temp_f", name: "Target Temperature", unit: "°F", deviceClass: "temperature",
			value: func(st models.DeviceStatus) (string, bool) {
				return floatState(st.Side(side).TargetTemperatureF)
			},
		},
		{
			key: "seconds_remaining", name: "Seconds Remaining", unit: "s",
			value: func(st models.DeviceStatus) (string, bool) {
				return floatState(st.Side(side).SecondsRemaining)
			},
		},
	}
}

func hubSensorSpecs() []sensorSpec {
	return []sensorSpec{
		{
			key: "sensor_label", name: "Sensor Label", category: "diagnostic", icon: "mdi:tag",
			value: func(st models.DeviceStatus) (string, bool) {
				l := st.Label()
				return l, l != ""
			},
		},
		{
			key: "led_brightness", name: "LED Brightness", unit: "%", icon: "mdi:led-on",
			value: func(st models.DeviceStatus) (string, bool) {
				b, ok := st.LEDBrightness()
				if !ok {
					return "", false
				}
				return strconv.Itoa(b), true
			},
		},
	}
}

func floatState(v *float64) (string, bool) {
	if v == nil {
		return "", false
	}
	return strconv.FormatFloat(*v, 'f', -1, 64), true
}

// Sensor reads a numeric or text field from the latest snapshot.
type Sensor struct {
	base
	spec sensorSpec
}

func newSensor(h *Hub, kind string, spec sensorSpec) *Sensor {
	attrs := map[string]any{}
	if spec.unit != "" {
		attrs["unit_of_measurement"] = spec.unit
	}
	if spec.deviceClass != "" {
		attrs["device_class"] = spec.deviceClass
	}
	if spec.category != "" {
		attrs["entity_category"] = spec.category
	}
	if spec.icon != "" {
		attrs["icon"] = spec.icon
	}
	return &Sensor{
		base: base{
			id:       sideID(kind, spec.key),
			name:     "Eight Sleep " + models.Side(kind).Title() + " " + spec.name,
			platform: PlatformSensor,
			device:   h.device(kind),
			attrs:    attrs,
			polled:   true,
			hub:      h,
		},
		spec: spec,
	}
}

func (s *Sensor) State() (string, map[string]any) {
	snap, ok := s.hub.snapshot()
	if !ok {
		return models.StateUnavailable, s.staticAttrs()
	}
	v, ok := s.spec.value(snap.Status)
	if !ok {
		return models.StateUnknown, s.staticAttrs()
	}
	return v, s.staticAttrs()
}

// binarySpec maps a boolean of the snapshot to a binary sensor.
type binarySpec struct {
	key         string
	name        string
	deviceClass string
	icon        string
	value       func(snap coordinator.Snapshot) bool
	attrs       func(snap coordinator.Snapshot) map[string]any
}

func sideBinarySpecs(side models.Side) []binarySpec {
	return []binarySpec{
		{
			key: "is_alarm_vibrating", name: "Alarm Active", icon: "mdi:alarm-light",
			value: func(snap coordinator.Snapshot) bool { return snap.Status.Side(side).IsAlarmVibrating },
		},
		{
			key: "is_on", name: "Side On", deviceClass: "power",
			value: func(snap coordinator.Snapshot) bool { return snap.Status.Side(side).IsOn },
		},
		{
			key: "bed_presence", name: "Bed Presence", deviceClass: "occupancy", icon: "mdi:bed",
			value: func(snap coordinator.Snapshot) bool {
				return snap.Presence != nil && snap.Presence.Side(side).Present
			},
			attrs: func(snap coordinator.Snapshot) map[string]any {
				var last any
				if snap.Presence != nil && snap.Presence.Side(side).LastUpdated != "" {
					last = snap.Presence.Side(side).LastUpdated
				}
				return map[string]any{"last_updated": last}
			},
		},
	}
}

func hubBinarySpecs() []binarySpec {
	return []binarySpec{
		{
			key: "is_priming", name: "Is Priming", deviceClass: "running",
			value: func(snap coordinator.Snapshot) bool { return snap.Status.IsPriming },
		},
		{
			key: "water_level", name: "Water Level", icon: "mdi:water",
			value: func(snap coordinator.Snapshot) bool { return bool(snap.Status.WaterLevel) },
		},
	}
}

type BinarySensor struct {
	base
	spec binarySpec
}

func newBinarySensor(h *Hub, kind string, spec binarySpec) *BinarySensor {
	attrs := map[string]any{}
	if spec.deviceClass != "" {
		attrs["device_class"] = spec.deviceClass
	}
	if spec.icon != "" {
		attrs["icon"] = spec.icon
	}
	return &BinarySensor{
		base: base{
			id:       sideID(kind, spec.key),
			name:     "Eight Sleep " + models.Side(kind).Title() + " " + spec.name,
			platform: PlatformBinarySensor,
			device:   h.device(kind),
			attrs:    attrs,
			polled:   true,
			hub:      h,
		},
		spec: spec,
	}
}

func (b *BinarySensor) State() (string, map[string]any) {
	attrs := b.staticAttrs()
	snap, ok := b.hub.snapshot()
	if !ok {
		return models.StateUnavailable, attrs
	}
	if b.spec.attrs != nil {
		for k, v := range b.spec.attrs(snap) {
			attrs[k] = v
		}
	}
	return onOff(b.spec.value(snap)), attrs
}
