package podsim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"eight_sleep_local/internal/models"
	"eight_sleep_local/internal/podclient"
)

// ----------- Simulation constants -----------
const (
	AmbientF         = 78.0 // room temperature °F
	RampFPerSec      = 0.5  // °F per second toward target while on
	DriftFPerSec     = 0.1  // °F per second toward ambient while off
	AtTargetBandF    = 0.5  // °F band for "at target"
	DefaultTargetF   = 80
	DefaultLED       = 50
	PrimingDuration  = 2 * time.Minute
	DefaultLabel     = `"00000-0000-000-00000"`
	maxSamples       = 1440 // one day of minute samples per side
	sampleEvery      = time.Minute
	restingHeartRate = 58.0
)

var ErrInvalid = errors.New("invalid request")

type sideState struct {
	currentF         float64
	targetF          int
	secondsRemaining int
	isOn             bool
	vibrating        bool
	alarmUntil       time.Time

	present     bool
	presenceAt  time.Time
	enteredAt   time.Time
	sleepPeriod []models.Record
	samples     []models.Record
	lastSample  time.Time
}

// Pod is an in-memory companion server: it keeps a device status document and advances it over time.
type Pod struct {
	mu           sync.Mutex
	sides        map[models.Side]*sideState
	isPriming    bool
	primingUntil time.Time
	waterLevel   bool
	led          int
	label        string
	schedules    models.Schedules
	updatedAt    time.Time
	now          func() time.Time
}

type Option func(*Pod)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(p *Pod) { p.now = now }
}

// New returns a pod with both sides off at ambient temperature and a full water tank.
func New(opts ...Option) *Pod {
	p := &Pod{
		waterLevel: true,
		led:        DefaultLED,
		label:      DefaultLabel,
		schedules:  models.Schedules{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.updatedAt = p.now().UTC()
	p.sides = map[models.Side]*sideState{}
	for _, s := range models.Sides {
		p.sides[s] = &sideState{currentF: AmbientF, targetF: DefaultTargetF, presenceAt: p.updatedAt}
	}
	return p
}

// Status renders the document served by GET /api/deviceStatus.
func (p *Pod) Status() models.DeviceStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return models.DeviceStatus{
		Left:        p.sideStatus(models.SideLeft),
		Right:       p.sideStatus(models.SideRight),
		WaterLevel:  models.FlexBool(p.waterLevel),
		IsPriming:   p.isPriming,
		Settings:    map[string]any{"v": 1, "ledBrightness": p.led},
		SensorLabel: models.FlexString(p.label),
	}
}

func (p *Pod) sideStatus(side models.Side) models.SideStatus {
	s := p.sides[side]
	current := math.Round(s.currentF*10) / 10
	target := float64(s.targetF)
	remaining := float64(s.secondsRemaining)
	return models.SideStatus{
		CurrentTemperatureF: &current,
		TargetTemperatureF:  &target,
		SecondsRemaining:    &remaining,
		IsAlarmVibrating:    s.vibrating,
		IsOn:                s.isOn,
	}
}

// SidePatch is the partial per-side update of POST /api/deviceStatus.
type SidePatch struct {
	TargetTemperatureF *int  `json:"targetTemperatureF"`
	SecondsRemaining   *int  `json:"secondsRemaining"`
	IsOn               *bool `json:"isOn"`
	IsAlarmVibrating   *bool `json:"isAlarmVibrating"`
}

// StatusPatch is merged into the current document; absent fields are left alone.
type StatusPatch struct {
	Left      *SidePatch     `json:"left"`
	Right     *SidePatch     `json:"right"`
	IsPriming *bool          `json:"isPriming"`
	Settings  *SettingsPatch `json:"settings"`
}

type SettingsPatch struct {
	LEDBrightness *int `json:"ledBrightness"`
}

// Apply validates the whole patch first and then merges it.
func (p *Pod) Apply(patch StatusPatch) error {
	for _, sp := range []*SidePatch{patch.Left, patch.Right} {
		if err := sp.validate(); err != nil {
			return err
		}
	}
	if patch.Settings != nil && patch.Settings.LEDBrightness != nil {
		b := *patch.Settings.LEDBrightness
		if b < podclient.MinLEDBrightness || b > podclient.MaxLEDBrightness {
			return fmt.Errorf("ledBrightness %d: %w", b, ErrInvalid)
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.now().UTC()
	p.applySide(models.SideLeft, patch.Left, now)
	p.applySide(models.SideRight, patch.Right, now)
	if patch.IsPriming != nil {
		p.isPriming = *patch.IsPriming
		if p.isPriming {
			p.primingUntil = now.Add(PrimingDuration)
		}
	}
	if patch.Settings != nil && patch.Settings.LEDBrightness != nil {
		p.led = *patch.Settings.LEDBrightness
	}
	return nil
}

func (sp *SidePatch) validate() error {
	if sp == nil {
		return nil
	}
	if t := sp.TargetTemperatureF; t != nil && (*t < podclient.MinTemperatureF || *t > podclient.MaxTemperatureF) {
		return fmt.Errorf("targetTemperatureF %d: %w", *t, ErrInvalid)
	}
	if r := sp.SecondsRemaining; r != nil && *r < 0 {
		return fmt.Errorf("secondsRemaining %d: %w", *r, ErrInvalid)
	}
	return nil
}

func (p *Pod) applySide(side models.Side, sp *SidePatch, now time.Time) {
	if sp == nil {
		return
	}
	s := p.sides[side]
	if sp.TargetTemperatureF != nil {
		s.targetF = *sp.TargetTemperatureF
	}
	if sp.SecondsRemaining != nil {
		s.secondsRemaining = *sp.SecondsRemaining
	}
	if sp.IsOn != nil {
		s.isOn = *sp.IsOn
		if !s.isOn {
			s.secondsRemaining = 0
		}
		p.setPresence(s, s.isOn, now)
	}
	if sp.IsAlarmVibrating != nil {
		s.vibrating = *sp.IsAlarmVibrating
		if !s.vibrating {
			s.alarmUntil = time.Time{}
		}
	}
}

// setPresence records bed entry and exit. A side counts as occupied while it is on.
func (p *Pod) setPresence(s *sideState, present bool, now time.Time) {
	if s.present == present {
		return
	}
	if present {
		s.enteredAt = now
	} else if !s.enteredAt.IsZero() {
		s.sleepPeriod = append(s.sleepPeriod, models.Record{
			"enteredBedAt":       s.enteredAt.Format(time.RFC3339),
			"leftBedAt":          now.Format(time.RFC3339),
			"sleepPeriodSeconds": int(now.Sub(s.enteredAt).Seconds()),
		})
	}
	s.present = present
	s.presenceAt = now
}

// TriggerAlarm starts vibrating a side for the requested duration.
func (p *Pod) TriggerAlarm(req models.AlarmRequest) error {
	if !req.Side.Valid() {
		return fmt.Errorf("side %q: %w", req.Side, ErrInvalid)
	}
	params := podclient.AlarmParams{Intensity: req.VibrationIntensity, Pattern: req.VibrationPattern, Duration: req.Duration}
	if err := params.Validate(); err != nil {
		return fmt.Errorf("%v: %w", err, ErrInvalid)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.sides[req.Side]
	s.vibrating = true
	s.alarmUntil = p.now().UTC().Add(time.Duration(req.Duration) * time.Second)
	return nil
}

// Schedules returns a deep copy of the schedule document.
func (p *Pod) Schedules() models.Schedules {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := models.Schedules{}
	for side, days := range p.schedules {
		sd := models.SideSchedule{}
		for day, blocks := range days {
			ds := models.DaySchedule{}
			for k, v := range blocks {
				ds[k] = append(json.RawMessage(nil), v...)
			}
			sd[day] = ds
		}
		out[side] = sd
	}
	return out
}

// MergeSchedules replaces the given blocks, keeping every other day and block.
func (p *Pod) MergeSchedules(update models.Schedules) error {
	for side, days := range update {
		if !side.Valid() {
			return fmt.Errorf("side %q: %w", side, ErrInvalid)
		}
		for day := range days {
			if !models.IsWeekday(day) {
				return fmt.Errorf("day %q: %w", day, ErrInvalid)
			}
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for side, days := range update {
		if p.schedules[side] == nil {
			p.schedules[side] = models.SideSchedule{}
		}
		for day, blocks := range days {
			if p.schedules[side][day] == nil {
				p.schedules[side][day] = models.DaySchedule{}
			}
			for k, v := range blocks {
				p.schedules[side][day][k] = v
			}
		}
	}
	return nil
}

// Presence returns the document served by GET /api/presence.
func (p *Pod) Presence() models.Presence {
	p.mu.Lock()
	defer p.mu.Unlock()
	side := func(s *sideState) models.SidePresence {
		return models.SidePresence{Present: s.present, LastUpdated: s.presenceAt.Format(time.RFC3339)}
	}
	return models.Presence{Left: side(p.sides[models.SideLeft]), Right: side(p.sides[models.SideRight])}
}

// Run ticks at the given interval until ctx is canceled.
func (p *Pod) Run(ctx context.Context, tick time.Duration) {
	if tick <= 0 {
		tick = time.Second
	}
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			p.Tick(p.now())
		}
	}
}

// Tick advances the simulation to now and reports whether anything changed.
func (p *Pod) Tick(now time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	now = now.UTC()
	elapsed := math.Floor(now.Sub(p.updatedAt).Seconds())
	if elapsed < 1 {
		// less than 1s, skip until more time passes
		return false
	}

	changed := false
	for _, side := range models.Sides {
		s := p.sides[side]
		if p.advanceSide(s, elapsed, now) {
			changed = true
		}
		p.sample(side, s, now)
	}
	if p.isPriming && !now.Before(p.primingUntil) {
		p.isPriming = false
		p.waterLevel = true
		changed = true
	}
	// the fractional second carries over to the next tick
	p.updatedAt = p.updatedAt.Add(time.Duration(elapsed) * time.Second)
	return changed
}

// advanceSide ramps toward target while on, drifts to ambient while off,
// counts down the timer and stops finished alarms.
func (p *Pod) advanceSide(s *sideState, elapsed float64, now time.Time) bool {
	changed := false
	prev := s.currentF

	if s.isOn {
		s.currentF = approach(s.currentF, float64(s.targetF), RampFPerSec*elapsed)
		if s.secondsRemaining > 0 {
			dec := int(elapsed)
			if s.secondsRemaining > dec {
				s.secondsRemaining -= dec
			} else {
				s.secondsRemaining = 0
				s.isOn = false
				p.setPresence(s, false, now)
			}
			changed = true
		}
	} else {
		s.currentF = approach(s.currentF, AmbientF, DriftFPerSec*elapsed)
	}
	if s.currentF != prev {
		changed = true
	}

	if s.vibrating && !s.alarmUntil.IsZero() && !now.Before(s.alarmUntil) {
		s.vibrating = false
		s.alarmUntil = time.Time{}
		changed = true
	}
	return changed
}

// approach moves cur toward target by at most step, snapping inside the target band.
func approach(cur, target, step float64) float64 {
	diff := target - cur
	if math.Abs(diff) <= math.Max(step, AtTargetBandF) {
		return target
	}
	if diff > 0 {
		return cur + step
	}
	return cur - step
}
