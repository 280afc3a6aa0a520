package entity

import (
	"context"
	"encoding/json"
	"testing"

	"eight_sleep_local/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }

func TestPowerSwitch_SyncMode(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	require.NoError(t, f.reg.Execute(ctx, "eight_sleep_right_power", Command{Name: CmdTurnOn}))
	assert.Equal(t, []string{"turn_on:right"}, f.api.Calls())

	require.NoError(t, f.reg.Execute(ctx, "eight_sleep_sync_mode", Command{Name: CmdTurnOn}))
	assert.True(t, f.settings.SyncMode())
	assert.Equal(t, models.StateOn, f.state("eight_sleep_sync_mode").State)

	require.NoError(t, f.reg.Execute(ctx, "eight_sleep_right_power", Command{Name: CmdTurnOff}))
	assert.Equal(t, []string{"turn_on:right", "turn_off:left", "turn_off:right"}, f.api.Calls())
	assert.Equal(t, 2, f.source.Refreshes())
}

func TestTemperatureNumber(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	err := f.reg.Execute(ctx, "eight_sleep_left_temperature", Command{Name: CmdSetValue, Value: f64(54)})
	assert.True(t, IsInvalid(err))
	err = f.reg.Execute(ctx, "eight_sleep_left_temperature", Command{Name: CmdSetValue, Value: f64(111)})
	assert.True(t, IsInvalid(err))
	assert.Empty(t, f.api.Calls())

	require.NoError(t, f.reg.Execute(ctx, "eight_sleep_left_temperature", Command{Name: CmdSetValue, Value: f64(72)}))
	assert.Equal(t, []string{"set_temperature:left:72"}, f.api.Calls())

	f.settings.SetSyncMode(true)
	require.NoError(t, f.reg.Execute(ctx, "eight_sleep_left_temperature", Command{Name: CmdSetValue, Value: f64(110)}))
	assert.Equal(t, []string{"set_temperature:left:72", "set_temperature:left:110", "set_temperature:right:110"}, f.api.Calls())
}

func TestLEDNumber(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.reg.Execute(ctx, "eight_sleep_hub_led_brightness_control", Command{Name: CmdSetValue, Value: f64(0)}))
	assert.Equal(t, []string{"led:0"}, f.api.Calls())
	assert.Equal(t, "40", f.state("eight_sleep_hub_led_brightness_control").State)

	err := f.reg.Execute(ctx, "eight_sleep_hub_led_brightness_control", Command{Name: CmdSetValue, Value: f64(101)})
	assert.True(t, IsInvalid(err))
}

func TestAlarmSettings(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	require.NoError(t, f.reg.Execute(ctx, "eight_sleep_instant_alarm_intensity", Command{Name: CmdSetValue, Value: f64(100)}))
	require.NoError(t, f.reg.Execute(ctx, "eight_sleep_instant_alarm_duration", Command{Name: CmdSetValue, Value: f64(0)}))
	require.NoError(t, f.reg.Execute(ctx, "eight_sleep_instant_alarm_pattern", Command{Name: CmdSelectOption, Option: "double"}))

	err := f.reg.Execute(ctx, "eight_sleep_instant_alarm_intensity", Command{Name: CmdSetValue, Value: f64(0)})
	assert.True(t, IsInvalid(err))
	err = f.reg.Execute(ctx, "eight_sleep_instant_alarm_pattern", Command{Name: CmdSelectOption, Option: "single"})
	assert.True(t, IsInvalid(err))

	assert.Equal(t, "100", f.state("eight_sleep_instant_alarm_intensity").State)
	assert.Equal(t, "0", f.state("eight_sleep_instant_alarm_duration").State)
	assert.Equal(t, "double", f.state("eight_sleep_instant_alarm_pattern").State)
	// local settings never reach the companion server
	assert.Empty(t, f.api.Calls())
	assert.Equal(t, 0, f.source.Refreshes())

	require.NoError(t, f.reg.Execute(ctx, "eight_sleep_left_trigger_alarm", Command{Name: CmdPress}))
	assert.Equal(t, []string{"trigger_alarm:left:100:double:0"}, f.api.Calls())
	assert.NotEqual(t, models.StateUnknown, f.state("eight_sleep_left_trigger_alarm").State)
}

func TestTriggerAlarm_InstantAlarmSync(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.settings.SetInstantAlarmSync(true)

	require.NoError(t, f.reg.Execute(ctx, "eight_sleep_right_trigger_alarm", Command{Name: CmdPress}))
	assert.Equal(t, []string{"trigger_alarm:right:80:rise:60", "trigger_alarm:left:80:rise:60"}, f.api.Calls())
}

func TestStopAlarmAndPrime(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	require.NoError(t, f.reg.Execute(ctx, "eight_sleep_left_stop_alarm", Command{Name: CmdPress}))
	f.settings.SetSyncMode(true)
	require.NoError(t, f.reg.Execute(ctx, "eight_sleep_left_stop_alarm", Command{Name: CmdPress}))
	require.NoError(t, f.reg.Execute(ctx, "eight_sleep_prime_pod", Command{Name: CmdPress}))

	assert.Equal(t, []string{"stop_alarm:left", "stop_alarm:left", "stop_alarm:right", "start_priming"}, f.api.Calls())
	assert.Len(t, f.events.ofType(models.EventCommand), 3)
}

func TestAlarmScheduleText(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.api.schedules = models.Schedules{
		models.SideLeft: models.SideSchedule{
			"monday": models.DaySchedule{
				"alarm": json.RawMessage(`{"time":"07:00","enabled":true}`),
				"power": json.RawMessage(`{"on":"22:00"}`),
			},
		},
	}

	f.reg.Init(ctx)
	left := f.state("eight_sleep_left_alarm_schedule")
	assert.JSONEq(t, `{"monday":{"time":"07:00","enabled":true}}`, left.State)
	assert.Equal(t, "{}", f.state("eight_sleep_right_alarm_schedule").State)

	err := f.reg.Execute(ctx, "eight_sleep_right_alarm_schedule", Command{Name: CmdSetText, Text: `{"caturday":{}}`})
	assert.True(t, IsInvalid(err))
	err = f.reg.Execute(ctx, "eight_sleep_right_alarm_schedule", Command{Name: CmdSetText, Text: `not json`})
	assert.True(t, IsInvalid(err))
	err = f.reg.Execute(ctx, "eight_sleep_right_alarm_schedule", Command{Name: CmdSetText, Text: `["monday"]`})
	assert.True(t, IsInvalid(err))

	require.NoError(t, f.reg.Execute(ctx, "eight_sleep_right_alarm_schedule", Command{
		Name: CmdSetText,
		Text: `{"friday":{"time":"06:30","enabled":true}}`,
	}))
	assert.JSONEq(t, `{"friday":{"time":"06:30","enabled":true}}`, f.state("eight_sleep_right_alarm_schedule").State)
	assert.Contains(t, f.api.Calls(), "update_schedule:right")
	assert.Contains(t, f.api.posted, "friday")
}

func TestAlarmScheduleText_FailedPostKeepsCache(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.api.err = assert.AnError

	err := f.reg.Execute(ctx, "eight_sleep_left_alarm_schedule", Command{Name: CmdSetText, Text: `{"monday":{"time":"07:00"}}`})
	require.Error(t, err)
	assert.Equal(t, "{}", f.state("eight_sleep_left_alarm_schedule").State)
}

func TestClimate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	require.NoError(t, f.reg.Execute(ctx, "eight_sleep_right_climate", Command{Name: CmdSetHVACMode, HVACMode: HVACModeHeatCool}))
	require.NoError(t, f.reg.Execute(ctx, "eight_sleep_right_climate", Command{Name: CmdSetHVACMode, HVACMode: HVACModeOff}))
	require.NoError(t, f.reg.Execute(ctx, "eight_sleep_right_climate", Command{Name: CmdSetTemperature, Temperature: f64(68)}))

	err := f.reg.Execute(ctx, "eight_sleep_right_climate", Command{Name: CmdSetHVACMode, HVACMode: "cool"})
	assert.True(t, IsInvalid(err))
	err = f.reg.Execute(ctx, "eight_sleep_right_climate", Command{Name: CmdSetTemperature})
	assert.True(t, IsInvalid(err))

	assert.Equal(t, []string{"turn_on:right", "turn_off:right", "set_temperature:right:68"}, f.api.Calls())
}

func TestSettings_InvalidSeedFallsBack(t *testing.T) {
	s := NewSettings(true, false, podclientParams(0, "wobble", 500))
	a := s.Alarm()
	assert.Equal(t, 80, a.Intensity)
	assert.Equal(t, "rise", a.Pattern)
	assert.Equal(t, 60, a.Duration)
	assert.True(t, s.SyncMode())
}
