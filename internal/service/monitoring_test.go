package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"eight_sleep_local/internal/coordinator"
	"eight_sleep_local/internal/models"
)

// coordinatorStub satisfies Snapshots.
type coordinatorStub struct {
	snap       coordinator.Snapshot
	hasData    bool
	success    bool
	lastUpdate time.Time
	lastErr    error
	refreshErr error
	refreshes  int
}

func (c *coordinatorStub) Data() (coordinator.Snapshot, bool) { return c.snap, c.hasData }
func (c *coordinatorStub) LastUpdateSuccess() bool            { return c.success }
func (c *coordinatorStub) LastUpdate() time.Time              { return c.lastUpdate }
func (c *coordinatorStub) LastError() error                   { return c.lastErr }
func (c *coordinatorStub) Run(ctx context.Context)            {}

func (c *coordinatorStub) Refresh(ctx context.Context) error {
	c.refreshes++
	if c.refreshErr != nil {
		c.success = false
		c.lastErr = c.refreshErr
		return c.refreshErr
	}
	c.success = true
	c.hasData = true
	c.lastErr = nil
	return nil
}

// podStub satisfies PodAPI.
type podStub struct {
	history     []models.DeviceStatus
	presence    models.Presence
	presenceErr error
	schedules   models.Schedules
	records     []models.Record
	summary     models.Record
	err         error
	gotQuery    models.MetricsQuery
}

func (p *podStub) History() []models.DeviceStatus { return p.history }

func (p *podStub) Presence(ctx context.Context) (models.Presence, error) {
	return p.presence, p.presenceErr
}

func (p *podStub) Schedules(ctx context.Context) (models.Schedules, error) {
	return p.schedules, p.err
}

func (p *podStub) Vitals(ctx context.Context, q models.MetricsQuery) ([]models.Record, error) {
	p.gotQuery = q
	return p.records, p.err
}

func (p *podStub) VitalsSummary(ctx context.Context, q models.MetricsQuery) (models.Record, error) {
	p.gotQuery = q
	return p.summary, p.err
}

func (p *podStub) SleepRecords(ctx context.Context, q models.MetricsQuery) ([]models.Record, error) {
	p.gotQuery = q
	return p.records, p.err
}

func (p *podStub) Movement(ctx context.Context, q models.MetricsQuery) ([]models.Record, error) {
	p.gotQuery = q
	return p.records, p.err
}

func TestMonitoringService_Status(t *testing.T) {
	t.Parallel()

	target := 90.0
	updated := time.Date(2025, 1, 1, 12, 0, 0, 0, time.FixedZone("UTC+2", 2*3600))

	type testCase struct {
		name       string
		coord      *coordinatorStub
		assertFunc func(t *testing.T, got PodStatus, err error)
	}

	cases := []testCase{
		{
			name:  "before first poll",
			coord: &coordinatorStub{},
			assertFunc: func(t *testing.T, got PodStatus, err error) {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got.Available || got.Status != nil || got.LastUpdate != nil {
					t.Fatalf("expected empty status, got %+v", got)
				}
			},
		},
		{
			name: "last poll failed keeps snapshot",
			coord: &coordinatorStub{
				snap:       coordinator.Snapshot{Status: models.DeviceStatus{Left: models.SideStatus{TargetTemperatureF: &target}}},
				hasData:    true,
				lastUpdate: updated,
				lastErr:    errors.New("timeout"),
			},
			assertFunc: func(t *testing.T, got PodStatus, err error) {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got.Available {
					t.Fatalf("expected unavailable")
				}
				if got.LastError != "timeout" {
					t.Fatalf("unexpected last error %q", got.LastError)
				}
				if got.Status == nil || *got.Status.Left.TargetTemperatureF != 90 {
					t.Fatalf("expected previous snapshot, got %+v", got.Status)
				}
				if got.LastUpdate == nil || got.LastUpdate.Location() != time.UTC {
					t.Fatalf("expected UTC last update, got %v", got.LastUpdate)
				}
			},
		},
		{
			name: "available with presence",
			coord: &coordinatorStub{
				snap: coordinator.Snapshot{
					Presence:  &models.Presence{Right: models.SidePresence{Present: true}},
					FetchedAt: updated,
				},
				hasData: true,
				success: true,
			},
			assertFunc: func(t *testing.T, got PodStatus, err error) {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if !got.Available || got.Presence == nil || !got.Presence.Right.Present {
					t.Fatalf("unexpected status %+v", got)
				}
				if got.FetchedAt == nil || !got.FetchedAt.Equal(updated) {
					t.Fatalf("unexpected fetched at %v", got.FetchedAt)
				}
			},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			svc := NewMonitoringService(tc.coord, &podStub{})
			got, err := svc.Status(context.Background())
			tc.assertFunc(t, got, err)
		})
	}
}

func TestMonitoringService_Refresh(t *testing.T) {
	t.Parallel()

	coord := &coordinatorStub{}
	svc := NewMonitoringService(coord, &podStub{})

	st, err := svc.Refresh(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !st.Available || coord.refreshes != 1 {
		t.Fatalf("expected one successful refresh, got %+v (refreshes=%d)", st, coord.refreshes)
	}

	coord.refreshErr = errors.New("connection refused")
	st, err = svc.Refresh(context.Background())
	if err == nil {
		t.Fatalf("expected refresh error")
	}
	if st.Available || st.LastError != "connection refused" {
		t.Fatalf("unexpected status after failure: %+v", st)
	}
}

func TestMonitoringService_HistoryAndPresence(t *testing.T) {
	t.Parallel()

	pod := &podStub{
		history:  []models.DeviceStatus{{IsPriming: true}, {}},
		presence: models.Presence{Left: models.SidePresence{Present: true}},
	}
	svc := NewMonitoringService(&coordinatorStub{}, pod)

	h, err := svc.History(context.Background())
	if err != nil || len(h) != 2 || !h[0].IsPriming {
		t.Fatalf("unexpected history %+v, err %v", h, err)
	}

	p, err := svc.Presence(context.Background())
	if err != nil || !p.Left.Present {
		t.Fatalf("unexpected presence %+v, err %v", p, err)
	}

	pod.presenceErr = errors.New("404")
	if _, err := svc.Presence(context.Background()); err == nil {
		t.Fatalf("expected presence error")
	}
}

func TestHealthService_PassThrough(t *testing.T) {
	t.Parallel()

	pod := &podStub{
		records: []models.Record{{"heart_rate": 55.0}},
		summary: models.Record{"avgHeartRate": 57.0},
	}
	svc := NewHealthService(pod)
	q := models.MetricsQuery{Side: models.SideLeft, StartTime: "2025-01-01T00:00:00Z"}

	recs, err := svc.Vitals(context.Background(), q)
	if err != nil || len(recs) != 1 {
		t.Fatalf("unexpected vitals %v, err %v", recs, err)
	}
	if pod.gotQuery != q {
		t.Fatalf("query not passed through: %+v", pod.gotQuery)
	}
	sum, err := svc.VitalsSummary(context.Background(), q)
	if err != nil || sum["avgHeartRate"] != 57.0 {
		t.Fatalf("unexpected summary %v, err %v", sum, err)
	}
	if _, err := svc.SleepRecords(context.Background(), q); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Movement(context.Background(), q); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pod.err = errors.New("502")
	if _, err := svc.Schedules(context.Background()); err == nil {
		t.Fatalf("expected schedules error to propagate")
	}
}
