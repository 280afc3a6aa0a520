package entity

import (
	"context"
	"fmt"

	"eight_sleep_local/internal/podclient"
)

// PatternSelect chooses the vibration pattern of the instant alarm.
type PatternSelect struct {
	base
}

func newPatternSelect(h *Hub) *PatternSelect {
	return &PatternSelect{base: base{
		id:       "eight_sleep_instant_alarm_pattern",
		name:     "Eight Sleep Instant Alarm Pattern",
		platform: PlatformSelect,
		device:   h.device(DeviceHub),
		attrs:    map[string]any{"icon": "mdi:sine-wave", "options": podclient.AlarmPatterns},
		hub:      h,
	}}
}

func (s *PatternSelect) Options() []string {
	out := make([]string, len(podclient.AlarmPatterns))
	copy(out, podclient.AlarmPatterns)
	return out
}

func (s *PatternSelect) State() (string, map[string]any) {
	return s.hub.settings.Alarm().Pattern, s.staticAttrs()
}

func (s *PatternSelect) SelectOption(ctx context.Context, option string) error {
	if err := s.hub.settings.SetAlarmPattern(option); err != nil {
		return fmt.Errorf("%s: %w", s.id, err)
	}
	s.hub.local(ctx, s.id, "select_option", map[string]any{"option": option})
	return nil
}
