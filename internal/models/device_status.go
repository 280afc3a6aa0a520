package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Side is one half of the bed. The hub is not a side.
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// Sides lists both bed sides in display order.
var Sides = []Side{SideLeft, SideRight}

// Valid reports whether s names a bed side.
func (s Side) Valid() bool {
	return s == SideLeft || s == SideRight
}

// Other returns the opposite side.
func (s Side) Other() Side {
	if s == SideLeft {
		return SideRight
	}
	return SideLeft
}

// Title returns "Left" / "Right" for display names.
func (s Side) Title() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

// ParseSide normalizes user input into a Side.
func ParseSide(raw string) (Side, error) {
	s := Side(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("invalid side %q: must be left or right", raw)
	}
	return s, nil
}

// FlexBool accepts JSON booleans as well as the strings "true"/"false".
// The companion server reports waterLevel as a string.
type FlexBool bool

func (b *FlexBool) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" || raw == "" {
		*b = false
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
		if raw == "" {
			*b = false
			return nil
		}
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fmt.Errorf("flexbool: %w", err)
	}
	*b = FlexBool(v)
	return nil
}

// FlexString accepts a JSON string, or keeps any other value as its literal text.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	switch {
	case raw == "null" || raw == "":
		*f = ""
	case strings.HasPrefix(raw, `"`):
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
	default:
		*f = FlexString(raw)
	}
	return nil
}

// SideStatus is the per-side block of /api/deviceStatus.
type SideStatus struct {
	CurrentTemperatureF *float64 `json:"currentTemperatureF,omitempty"` // °F
	TargetTemperatureF  *float64 `json:"targetTemperatureF,omitempty"`  // °F
	SecondsRemaining    *float64 `json:"secondsRemaining,omitempty"`
	IsAlarmVibrating    bool     `json:"isAlarmVibrating"`
	IsOn                bool     `json:"isOn"`
}

// DeviceStatus is the document served by GET /api/deviceStatus.
type DeviceStatus struct {
	Left        SideStatus     `json:"left"`
	Right       SideStatus     `json:"right"`
	WaterLevel  FlexBool       `json:"waterLevel"`
	IsPriming   bool           `json:"isPriming"`
	Settings    map[string]any `json:"settings,omitempty"`
	SensorLabel FlexString     `json:"sensorLabel,omitempty"`
}

// Side returns the block for the given side.
func (d DeviceStatus) Side(s Side) SideStatus {
	if s == SideRight {
		return d.Right
	}
	return d.Left
}

// Label returns the sensor label with surrounding quotes stripped.
func (d DeviceStatus) Label() string {
	return unwrapQuotes(string(d.SensorLabel))
}

// LEDBrightness reads settings.ledBrightness when present.
func (d DeviceStatus) LEDBrightness() (int, bool) {
	v, ok := d.Settings["ledBrightness"]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	case string:
		i, err := strconv.Atoi(n)
		return i, err == nil
	}
	return 0, false
}

func unwrapQuotes(s string) string {
	if len(s) > 0 && s[0] == '"' {
		s = s[1:]
	}
	if len(s) > 0 && s[len(s)-1] == '"' {
		s = s[:len(s)-1]
	}
	return s
}
