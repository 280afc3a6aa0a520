package handlers

import (
	"context"
	"net/http"
	"time"

	"eight_sleep_local/internal/entity"
	"eight_sleep_local/internal/models"
	"eight_sleep_local/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseUsername string
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(username, password string) (service.Token, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	if m.genTokenErr != nil {
		return service.Token{}, m.genTokenErr
	}
	return service.Token{AccessToken: m.genTokenToken, TokenType: "Bearer", Username: username}, nil
}
func (m *mockAuth) ParseToken(token string) (service.Identity, error) {
	m.lastParseToken = token
	if m.parseErr != nil {
		return service.Identity{}, m.parseErr
	}
	name := m.parseUsername
	if name == "" {
		name = "tester"
	}
	return service.Identity{UserID: m.parseID, Username: name}, nil
}

type mockEntities struct {
	states  []models.EntityState
	listErr error
	state   models.EntityState
	getErr  error
	execErr error

	lastPlatform string
	lastID       string
	lastCmd      entity.Command
	execCalls    int
}

func (m *mockEntities) ListStates(ctx context.Context, platform string) ([]models.EntityState, error) {
	m.lastPlatform = platform
	return m.states, m.listErr
}
func (m *mockEntities) GetState(ctx context.Context, id string) (models.EntityState, error) {
	m.lastID = id
	return m.state, m.getErr
}
func (m *mockEntities) Execute(ctx context.Context, id string, cmd entity.Command) (models.EntityState, error) {
	m.execCalls++
	m.lastID = id
	m.lastCmd = cmd
	return m.state, m.execErr
}

type mockMonitoring struct {
	status     service.PodStatus
	err        error
	history    []models.DeviceStatus
	presence   models.Presence
	refreshErr error
	refreshes  int
}

func (m *mockMonitoring) Status(ctx context.Context) (service.PodStatus, error) {
	return m.status, m.err
}
func (m *mockMonitoring) History(ctx context.Context) ([]models.DeviceStatus, error) {
	return m.history, m.err
}
func (m *mockMonitoring) Presence(ctx context.Context) (models.Presence, error) {
	return m.presence, m.err
}
func (m *mockMonitoring) Refresh(ctx context.Context) (service.PodStatus, error) {
	m.refreshes++
	return m.status, m.refreshErr
}

type mockHealth struct {
	records   []models.Record
	summary   models.Record
	schedules models.Schedules
	err       error
	lastQuery models.MetricsQuery
}

func (m *mockHealth) Vitals(ctx context.Context, q models.MetricsQuery) ([]models.Record, error) {
	m.lastQuery = q
	return m.records, m.err
}
func (m *mockHealth) VitalsSummary(ctx context.Context, q models.MetricsQuery) (models.Record, error) {
	m.lastQuery = q
	return m.summary, m.err
}
func (m *mockHealth) SleepRecords(ctx context.Context, q models.MetricsQuery) ([]models.Record, error) {
	m.lastQuery = q
	return m.records, m.err
}
func (m *mockHealth) Movement(ctx context.Context, q models.MetricsQuery) ([]models.Record, error) {
	m.lastQuery = q
	return m.records, m.err
}
func (m *mockHealth) Schedules(ctx context.Context) (models.Schedules, error) {
	return m.schedules, m.err
}

type mockEventLog struct {
	resp         []models.PodEvent
	err          error
	lastFrom     time.Time
	lastTo       time.Time
	lastType     string
	lastEntityID string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.PodEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	m.lastEntityID = f.EntityID
	return m.resp, m.err
}

// mockBus hands out a single channel the test writes events into.
type mockBus struct {
	ch        chan models.PodEvent
	cancelled chan struct{}
}

func newMockBus() *mockBus {
	return &mockBus{ch: make(chan models.PodEvent, 8), cancelled: make(chan struct{})}
}

func (b *mockBus) Subscribe(buffer int) (<-chan models.PodEvent, func()) {
	return b.ch, func() { close(b.cancelled) }
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
