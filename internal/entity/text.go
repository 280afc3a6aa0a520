package entity

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"unicode/utf8"

	"eight_sleep_local/internal/models"
)

// MaxScheduleLength bounds the alarm schedule text.
const MaxScheduleLength = 4096

// AlarmScheduleText exposes a side's weekly alarm schedule as JSON text.
// It is fetched explicitly, not on every poll.
type AlarmScheduleText struct {
	base
	side models.Side

	mu     sync.RWMutex
	cached models.AlarmSchedule
}

func newAlarmScheduleText(h *Hub, side models.Side) *AlarmScheduleText {
	return &AlarmScheduleText{
		base: base{
			id:       sideID(string(side), "alarm_schedule"),
			name:     "Eight Sleep " + side.Title() + " Alarm Schedule",
			platform: PlatformText,
			device:   h.device(string(side)),
			attrs:    map[string]any{"icon": "mdi:calendar-clock", "mode": "text", "max": MaxScheduleLength},
			polled:   true,
			hub:      h,
		},
		side: side,
	}
}

func (t *AlarmScheduleText) State() (string, map[string]any) {
	if !t.Available() {
		return models.StateUnavailable, t.staticAttrs()
	}
	return t.value(), t.staticAttrs()
}

// value renders the cached schedule, "{}" when nothing has been fetched.
func (t *AlarmScheduleText) value() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.cached) == 0 {
		return "{}"
	}
	b, err := json.MarshalIndent(t.cached, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}

// Update fetches the schedules and caches the alarm block of this side.
func (t *AlarmScheduleText) Update(ctx context.Context) error {
	all, err := t.hub.api.Schedules(ctx)
	if err != nil {
		t.hub.log.Errorw("alarm_schedule_fetch_failed", "entity_id", t.id, "err", err)
		return err
	}
	if _, ok := all[t.side]; !ok {
		return nil
	}
	sched := all.AlarmSchedule(t.side)
	t.mu.Lock()
	t.cached = sched
	t.mu.Unlock()
	return nil
}

// SetText validates JSON text, posts it and caches it on success.
func (t *AlarmScheduleText) SetText(ctx context.Context, value string) error {
	if utf8.RuneCountInString(value) > MaxScheduleLength {
		return fmt.Errorf("%s: schedule longer than %d characters: %w", t.id, MaxScheduleLength, ErrInvalidValue)
	}
	sched, err := models.ParseAlarmSchedule(value)
	if err != nil {
		t.hub.log.Errorw("alarm_schedule_rejected", "entity_id", t.id, "err", err)
		return fmt.Errorf("%s: %w: %w", t.id, ErrInvalidValue, err)
	}
	err = t.hub.command(ctx, t.id, "set_text", map[string]any{"days": len(sched)}, func(ctx context.Context) error {
		return t.hub.api.UpdateAlarmSchedule(ctx, t.side, sched)
	})
	if err != nil {
		return err
	}
	t.mu.Lock()
	t.cached = sched
	t.mu.Unlock()
	t.hub.log.Infow("alarm_schedule_updated", "side", t.side)
	return nil
}
