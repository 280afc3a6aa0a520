package entity

import (
	"fmt"
	"sync"

	"eight_sleep_local/internal/podclient"
)

// Settings are bridge-local options that never reach the companion server.
// They start from configuration and live in memory.
type Settings struct {
	mu               sync.RWMutex
	syncMode         bool
	instantAlarmSync bool
	alarm            podclient.AlarmParams
}

// NewSettings seeds the local settings. Invalid alarm fields fall back to their defaults.
func NewSettings(syncMode, instantAlarmSync bool, alarm podclient.AlarmParams) *Settings {
	def := podclient.DefaultAlarmParams()
	if alarm.Intensity < podclient.MinAlarmIntensity || alarm.Intensity > podclient.MaxAlarmIntensity {
		alarm.Intensity = def.Intensity
	}
	if !podclient.IsAlarmPattern(alarm.Pattern) {
		alarm.Pattern = def.Pattern
	}
	if alarm.Duration < podclient.MinAlarmDuration || alarm.Duration > podclient.MaxAlarmDuration {
		alarm.Duration = def.Duration
	}
	return &Settings{syncMode: syncMode, instantAlarmSync: instantAlarmSync, alarm: alarm}
}

func (s *Settings) SyncMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.syncMode
}

func (s *Settings) SetSyncMode(on bool) {
	s.mu.Lock()
	s.syncMode = on
	s.mu.Unlock()
}

func (s *Settings) InstantAlarmSync() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.instantAlarmSync
}

func (s *Settings) SetInstantAlarmSync(on bool) {
	s.mu.Lock()
	s.instantAlarmSync = on
	s.mu.Unlock()
}

// Alarm returns the parameters used by the trigger alarm buttons.
func (s *Settings) Alarm() podclient.AlarmParams {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.alarm
}

func (s *Settings) SetAlarmIntensity(v int) error {
	if v < podclient.MinAlarmIntensity || v > podclient.MaxAlarmIntensity {
		return fmt.Errorf("alarm intensity %d out of range (%d-%d): %w", v, podclient.MinAlarmIntensity, podclient.MaxAlarmIntensity, ErrInvalidValue)
	}
	s.mu.Lock()
	s.alarm.Intensity = v
	s.mu.Unlock()
	return nil
}

func (s *Settings) SetAlarmDuration(v int) error {
	if v < podclient.MinAlarmDuration || v > podclient.MaxAlarmDuration {
		return fmt.Errorf("alarm duration %d out of range (%d-%d): %w", v, podclient.MinAlarmDuration, podclient.MaxAlarmDuration, ErrInvalidValue)
	}
	s.mu.Lock()
	s.alarm.Duration = v
	s.mu.Unlock()
	return nil
}

func (s *Settings) SetAlarmPattern(p string) error {
	if !podclient.IsAlarmPattern(p) {
		return fmt.Errorf("alarm pattern %q: %w", p, ErrInvalidValue)
	}
	s.mu.Lock()
	s.alarm.Pattern = p
	s.mu.Unlock()
	return nil
}
