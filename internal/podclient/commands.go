package podclient

import (
	"context"
	"fmt"
	"net/http"

	"eight_sleep_local/internal/models"
)

// Limits enforced before any request is sent.
const (
	MinTemperatureF = 55
	MaxTemperatureF = 110

	MinLEDBrightness = 0
	MaxLEDBrightness = 100

	MinAlarmIntensity = 1
	MaxAlarmIntensity = 100
	MinAlarmDuration  = 0
	MaxAlarmDuration  = 180

	// DefaultOnDuration is twelve hours, in seconds.
	DefaultOnDuration = 43200

	PatternRise   = "rise"
	PatternDouble = "double"

	pathAlarm     = "/api/alarm"
	pathSchedules = "/api/schedules"
	pathPresence  = "/api/presence"
)

// AlarmPatterns lists the vibration patterns the companion server accepts.
var AlarmPatterns = []string{PatternRise, PatternDouble}

// AlarmParams configures an immediate alarm.
type AlarmParams struct {
	Intensity int    // 1..100
	Pattern   string // rise | double
	Duration  int    // seconds, 0..180
}

// DefaultAlarmParams returns intensity 80, pattern rise, 60 seconds.
func DefaultAlarmParams() AlarmParams {
	return AlarmParams{Intensity: 80, Pattern: PatternRise, Duration: 60}
}

// Validate checks the alarm parameters against the server limits.
func (p AlarmParams) Validate() error {
	if p.Intensity < MinAlarmIntensity || p.Intensity > MaxAlarmIntensity {
		return fmt.Errorf("alarm intensity %d out of range (%d-%d): %w", p.Intensity, MinAlarmIntensity, MaxAlarmIntensity, ErrOutOfRange)
	}
	if !IsAlarmPattern(p.Pattern) {
		return fmt.Errorf("%w: %q", ErrInvalidPattern, p.Pattern)
	}
	if p.Duration < MinAlarmDuration || p.Duration > MaxAlarmDuration {
		return fmt.Errorf("alarm duration %d out of range (%d-%d): %w", p.Duration, MinAlarmDuration, MaxAlarmDuration, ErrOutOfRange)
	}
	return nil
}

func IsAlarmPattern(p string) bool {
	return p == PatternRise || p == PatternDouble
}

// sidePatch is the partial per-side update accepted by POST /api/deviceStatus.
type sidePatch struct {
	TargetTemperatureF *int  `json:"targetTemperatureF,omitempty"`
	SecondsRemaining   *int  `json:"secondsRemaining,omitempty"`
	IsOn               *bool `json:"isOn,omitempty"`
	IsAlarmVibrating   *bool `json:"isAlarmVibrating,omitempty"`
}

func (c *Client) checkSide(side models.Side) error {
	if !side.Valid() {
		err := fmt.Errorf("%w: %q", ErrInvalidSide, side)
		c.log.Errorw("pod_command_rejected", "err", err)
		return err
	}
	return nil
}

func (c *Client) postSide(ctx context.Context, side models.Side, patch sidePatch) error {
	payload := map[models.Side]sidePatch{side: patch}
	return c.do(ctx, http.MethodPost, pathDeviceStatus, payload, nil)
}

// SetTemperature sets the target temperature of a side.
func (c *Client) SetTemperature(ctx context.Context, side models.Side, temperatureF int) error {
	return c.setTemperature(ctx, side, temperatureF, nil)
}

// SetTemperatureFor sets the target temperature and how long the side should hold it.
func (c *Client) SetTemperatureFor(ctx context.Context, side models.Side, temperatureF, seconds int) error {
	return c.setTemperature(ctx, side, temperatureF, &seconds)
}

func (c *Client) setTemperature(ctx context.Context, side models.Side, temperatureF int, seconds *int) error {
	if err := c.checkSide(side); err != nil {
		return err
	}
	if temperatureF < MinTemperatureF || temperatureF > MaxTemperatureF {
		err := fmt.Errorf("temperature %d out of range (%d-%d): %w", temperatureF, MinTemperatureF, MaxTemperatureF, ErrOutOfRange)
		c.log.Errorw("pod_command_rejected", "err", err)
		return err
	}
	return c.postSide(ctx, side, sidePatch{TargetTemperatureF: &temperatureF, SecondsRemaining: seconds})
}

// TurnOn powers a side for DefaultOnDuration seconds.
func (c *Client) TurnOn(ctx context.Context, side models.Side) error {
	return c.TurnOnFor(ctx, side, DefaultOnDuration)
}

// TurnOnFor powers a side for the given number of seconds.
func (c *Client) TurnOnFor(ctx context.Context, side models.Side, seconds int) error {
	if err := c.checkSide(side); err != nil {
		return err
	}
	on := true
	return c.postSide(ctx, side, sidePatch{IsOn: &on, SecondsRemaining: &seconds})
}

func (c *Client) TurnOff(ctx context.Context, side models.Side) error {
	if err := c.checkSide(side); err != nil {
		return err
	}
	off := false
	return c.postSide(ctx, side, sidePatch{IsOn: &off})
}

// StopAlarm clears an active alarm on a side.
func (c *Client) StopAlarm(ctx context.Context, side models.Side) error {
	if err := c.checkSide(side); err != nil {
		return err
	}
	vibrating := false
	return c.postSide(ctx, side, sidePatch{IsAlarmVibrating: &vibrating})
}

// StartPriming starts the pod priming cycle.
func (c *Client) StartPriming(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, pathDeviceStatus, map[string]bool{"isPriming": true}, nil)
}

// SetLEDBrightness sets the hub LED brightness (0-100).
func (c *Client) SetLEDBrightness(ctx context.Context, brightness int) error {
	if brightness < MinLEDBrightness || brightness > MaxLEDBrightness {
		err := fmt.Errorf("LED brightness %d out of range (%d-%d): %w", brightness, MinLEDBrightness, MaxLEDBrightness, ErrOutOfRange)
		c.log.Errorw("pod_command_rejected", "err", err)
		return err
	}
	payload := map[string]map[string]int{"settings": {"ledBrightness": brightness}}
	return c.do(ctx, http.MethodPost, pathDeviceStatus, payload, nil)
}

// TriggerAlarm starts an alarm vibration immediately.
func (c *Client) TriggerAlarm(ctx context.Context, side models.Side, p AlarmParams) error {
	if err := c.checkSide(side); err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		c.log.Errorw("pod_command_rejected", "err", err)
		return err
	}
	return c.do(ctx, http.MethodPost, pathAlarm, models.AlarmRequest{
		Side:               side,
		VibrationIntensity: p.Intensity,
		VibrationPattern:   p.Pattern,
		Duration:           p.Duration,
	}, nil)
}

// Schedules fetches every schedule, alarms included.
func (c *Client) Schedules(ctx context.Context) (models.Schedules, error) {
	var out models.Schedules
	if err := c.do(ctx, http.MethodGet, pathSchedules, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateAlarmSchedule replaces the alarm block of the given weekdays for a side.
func (c *Client) UpdateAlarmSchedule(ctx context.Context, side models.Side, schedule models.AlarmSchedule) error {
	if err := c.checkSide(side); err != nil {
		return err
	}
	days := make(map[string]map[string]any, len(schedule))
	for day, alarm := range schedule {
		if !models.IsWeekday(day) {
			err := fmt.Errorf("%w: %q", ErrInvalidDay, day)
			c.log.Errorw("pod_command_rejected", "err", err)
			return err
		}
		days[day] = map[string]any{"alarm": alarm}
	}
	payload := map[models.Side]map[string]map[string]any{side: days}
	return c.do(ctx, http.MethodPost, pathSchedules, payload, nil)
}

// Presence fetches bed presence for both sides.
func (c *Client) Presence(ctx context.Context) (models.Presence, error) {
	var out models.Presence
	if err := c.do(ctx, http.MethodGet, pathPresence, nil, &out); err != nil {
		return models.Presence{}, err
	}
	return out, nil
}
