package podclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"eight_sleep_local/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const deviceStatusFixture = `{
  "left": {"currentTemperatureF": 83, "targetTemperatureF": 90, "secondsRemaining": 300, "isAlarmVibrating": true, "isOn": true},
  "right": {"currentTemperatureF": 81, "targetTemperatureF": 85, "secondsRemaining": 120, "isAlarmVibrating": false, "isOn": false},
  "waterLevel": "true",
  "isPriming": false,
  "settings": {"ledBrightness": 50},
  "sensorLabel": "\"00000-0000-000-00000\""
}`

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Body   map[string]any
}

// fakePod records every request and answers from a per-path table.
type fakePod struct {
	mu       sync.Mutex
	requests []recordedRequest
	status   map[string]int
	bodies   map[string]string
}

func newFakePod() *fakePod {
	return &fakePod{status: map[string]int{}, bodies: map[string]string{}}
}

func (f *fakePod) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	rec := recordedRequest{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &rec.Body)
	}
	key := r.Method + " " + r.URL.Path

	f.mu.Lock()
	f.requests = append(f.requests, rec)
	code, ok := f.status[key]
	body := f.bodies[key]
	f.mu.Unlock()

	if !ok {
		if r.Method == http.MethodPost {
			code = http.StatusNoContent
		} else {
			code = http.StatusOK
		}
	}
	if code == http.StatusOK {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(code)
	if body != "" && code == http.StatusOK {
		_, _ = io.WriteString(w, body)
	}
}

func (f *fakePod) last(t *testing.T) recordedRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests, "expected at least one request")
	return f.requests[len(f.requests)-1]
}

func (f *fakePod) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func newTestClient(t *testing.T, handler http.Handler, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	host, portStr, err := net.SplitHostPort(srv.Listener.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	c := New(host, port, opts...)
	t.Cleanup(c.Close)
	return c
}

func TestNew_Defaults(t *testing.T) {
	c := New("", 0)
	assert.Equal(t, "localhost", c.Host())
	assert.Equal(t, 8080, c.Port())
	assert.Equal(t, "http://localhost:8080", c.BaseURL())
	assert.Equal(t, models.DeviceStatus{}, c.DeviceData())
	assert.Empty(t, c.History())
}

func TestUpdateDeviceData_ParsesFixture(t *testing.T) {
	pod := newFakePod()
	pod.bodies["GET /api/deviceStatus"] = deviceStatusFixture
	c := newTestClient(t, pod)

	require.NoError(t, c.UpdateDeviceData(context.Background()))

	st := c.DeviceData()
	assert.Equal(t, 83.0, *st.Left.CurrentTemperatureF)
	assert.Equal(t, 90.0, *st.Left.TargetTemperatureF)
	assert.Equal(t, 300.0, *st.Left.SecondsRemaining)
	assert.True(t, st.Left.IsAlarmVibrating)
	assert.True(t, st.Left.IsOn)
	assert.False(t, st.Right.IsOn)
	assert.True(t, bool(st.WaterLevel))
	assert.Equal(t, "00000-0000-000-00000", st.Label())

	req := pod.last(t)
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/api/deviceStatus", req.Path)
}

func TestUpdateDeviceData_LooseFieldTypes(t *testing.T) {
	pod := newFakePod()
	pod.bodies["GET /api/deviceStatus"] = `{
	  "left": {"currentTemperatureF": 83.2, "targetTemperatureF": 90.5, "secondsRemaining": 299.5, "isOn": true},
	  "right": {"targetTemperatureF": 80},
	  "waterLevel": true,
	  "sensorLabel": 12345
	}`
	c := newTestClient(t, pod)

	require.NoError(t, c.UpdateDeviceData(context.Background()))
	require.Len(t, c.History(), 1)

	st := c.DeviceData()
	assert.Equal(t, 90.5, *st.Left.TargetTemperatureF)
	assert.Equal(t, 299.5, *st.Left.SecondsRemaining)
	assert.Equal(t, 80.0, *st.Right.TargetTemperatureF)
	assert.Nil(t, st.Right.SecondsRemaining)
	assert.Equal(t, "12345", st.Label())
}

func TestUpdateDeviceData_RollingHistory(t *testing.T) {
	var n int
	var mu sync.Mutex
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		n++
		target := 60 + n
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"left":{"targetTemperatureF":`+strconv.Itoa(target)+`}}`)
	}), WithHistorySize(3))

	for i := 0; i < 5; i++ {
		require.NoError(t, c.UpdateDeviceData(context.Background()))
	}

	hist := c.History()
	require.Len(t, hist, 3)
	assert.Equal(t, 65.0, *hist[0].Left.TargetTemperatureF)
	assert.Equal(t, 64.0, *hist[1].Left.TargetTemperatureF)
	assert.Equal(t, 63.0, *hist[2].Left.TargetTemperatureF)
	assert.Equal(t, 65.0, *c.DeviceData().Left.TargetTemperatureF)
}

func TestUpdateDeviceData_UnexpectedStatusKeepsPrevious(t *testing.T) {
	pod := newFakePod()
	pod.bodies["GET /api/deviceStatus"] = deviceStatusFixture
	c := newTestClient(t, pod)
	require.NoError(t, c.UpdateDeviceData(context.Background()))

	pod.mu.Lock()
	pod.status["GET /api/deviceStatus"] = http.StatusInternalServerError
	pod.mu.Unlock()

	err := c.UpdateDeviceData(context.Background())
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.Code)
	assert.Len(t, c.History(), 1)
	assert.True(t, c.DeviceData().Left.IsOn)
}

func TestUpdateDeviceData_Timeout(t *testing.T) {
	block := make(chan struct{})
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}), WithTimeout(50*time.Millisecond))
	defer close(block)

	err := c.UpdateDeviceData(context.Background())
	require.Error(t, err)
	var se *StatusError
	assert.False(t, errors.As(err, &se))
}

func TestUpdateDeviceData_CustomHTTPClientTimeout(t *testing.T) {
	block := make(chan struct{})
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}), WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}))
	defer close(block)

	start := time.Now()
	require.Error(t, c.UpdateDeviceData(context.Background()))
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Empty(t, c.History())
}

func TestUpdateDeviceData_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.Listener.Addr().String()
	srv.Close()

	host, portStr, _ := net.SplitHostPort(addr)
	port, _ := strconv.Atoi(portStr)
	c := New(host, port)
	assert.Error(t, c.UpdateDeviceData(context.Background()))
}

func TestUpdateDeviceData_MalformedJSON(t *testing.T) {
	pod := newFakePod()
	pod.bodies["GET /api/deviceStatus"] = `{"left": [}`
	c := newTestClient(t, pod)
	assert.ErrorContains(t, c.UpdateDeviceData(context.Background()), "decode")
	assert.Empty(t, c.History())
}
