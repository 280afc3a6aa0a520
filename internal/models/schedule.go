package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Weekdays in the order the companion server uses as schedule keys.
var Weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// IsWeekday reports whether day is a lowercase weekday key.
func IsWeekday(day string) bool {
	for _, d := range Weekdays {
		if d == day {
			return true
		}
	}
	return false
}

// DaySchedule holds the per-day blocks ("alarm", "power", "temperatures", ...).
// Blocks are passed through untouched.
type DaySchedule map[string]json.RawMessage

// SideSchedule is keyed by weekday.
type SideSchedule map[string]DaySchedule

// Schedules is the document served by GET /api/schedules.
type Schedules map[Side]SideSchedule

// AlarmSchedule maps weekday to its alarm settings object,
// e.g. {"monday": {"time": "07:00", "enabled": true, ...}}.
type AlarmSchedule map[string]json.RawMessage

// AlarmSchedule extracts the alarm block of every weekday for side.
func (s Schedules) AlarmSchedule(side Side) AlarmSchedule {
	out := AlarmSchedule{}
	days, ok := s[side]
	if !ok {
		return out
	}
	for _, day := range Weekdays {
		block, ok := days[day]
		if !ok {
			continue
		}
		if alarm, ok := block["alarm"]; ok {
			out[day] = alarm
		}
	}
	return out
}

// ParseAlarmSchedule decodes JSON text into an AlarmSchedule and validates its keys.
func ParseAlarmSchedule(text string) (AlarmSchedule, error) {
	var raw any
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if _, ok := raw.(map[string]any); !ok {
		return nil, fmt.Errorf("schedule must be a JSON object")
	}
	var sched AlarmSchedule
	if err := json.Unmarshal([]byte(text), &sched); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	for day := range sched {
		if !IsWeekday(day) {
			return nil, fmt.Errorf("invalid day: %s. Must be one of: %s", day, strings.Join(Weekdays, ", "))
		}
	}
	return sched, nil
}

// AlarmRequest is the body of POST /api/alarm.
type AlarmRequest struct {
	Side               Side   `json:"side"`
	VibrationIntensity int    `json:"vibrationIntensity"`
	VibrationPattern   string `json:"vibrationPattern"`
	Duration           int    `json:"duration"`
}
