package coordinator

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"time"

	"eight_sleep_local/internal/logger"
	"eight_sleep_local/internal/metrics"
	"eight_sleep_local/internal/models"

	"github.com/google/uuid"
)

const (
	Name            = "eight_sleep_local_coordinator"
	DefaultInterval = 30 * time.Second
)

// ErrNoData is returned by FirstRefresh when the companion server could not be reached.
var ErrNoData = errors.New("coordinator: no device data")

// Fetcher is the part of the pod client the coordinator polls.
type Fetcher interface {
	UpdateDeviceData(ctx context.Context) error
	DeviceData() models.DeviceStatus
	Presence(ctx context.Context) (models.Presence, error)
}

// Publisher receives availability transitions (UPDATE_FAILED / UPDATE_RECOVERED).
type Publisher interface {
	Publish(ctx context.Context, ev models.PodEvent)
}

// Snapshot is the result of one successful poll.
type Snapshot struct {
	Status    models.DeviceStatus `json:"status"`
	Presence  *models.Presence    `json:"presence,omitempty"`
	FetchedAt time.Time           `json:"fetched_at"`
}

// Update is handed to listeners whenever the snapshot or availability changed.
type Update struct {
	Snapshot  Snapshot
	Available bool
	Err       error
}

type Listener func(Update)

// Coordinator polls the companion server on a fixed interval and keeps the latest snapshot.
type Coordinator struct {
	fetcher  Fetcher
	interval time.Duration
	log      *logger.Logger
	metrics  *metrics.Metrics
	events   Publisher
	now      func() time.Time

	refreshMu sync.Mutex // one fetch in flight

	mu         sync.RWMutex
	data       Snapshot
	hasData    bool
	available  bool
	lastErr    error
	lastUpdate time.Time
	listeners  map[int]Listener
	nextID     int
}

type Option func(*Coordinator)

func WithLogger(l *logger.Logger) Option {
	return func(c *Coordinator) { c.log = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Coordinator) { c.metrics = m }
}

func WithPublisher(p Publisher) Option {
	return func(c *Coordinator) { c.events = p }
}

func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// New returns a coordinator polling f every interval (DefaultInterval when zero).
func New(f Fetcher, interval time.Duration, opts ...Option) *Coordinator {
	if interval <= 0 {
		interval = DefaultInterval
	}
	c := &Coordinator{
		fetcher:   f,
		interval:  interval,
		log:       logger.Nop(),
		now:       time.Now,
		listeners: map[int]Listener{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.Nop()
	}
	return c
}

func (c *Coordinator) Interval() time.Duration { return c.interval }

// AddListener registers l and returns a function removing it.
func (c *Coordinator) AddListener(l Listener) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = l
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// Data returns the latest snapshot and whether one exists.
func (c *Coordinator) Data() (Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data, c.hasData
}

// LastUpdateSuccess reports whether the most recent poll succeeded.
func (c *Coordinator) LastUpdateSuccess() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.available
}

func (c *Coordinator) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// LastUpdate is the time of the most recent poll, successful or not.
func (c *Coordinator) LastUpdate() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastUpdate
}

// FirstRefresh performs the initial poll. Callers abort start-up on error.
func (c *Coordinator) FirstRefresh(ctx context.Context) error {
	if err := c.Refresh(ctx); err != nil {
		return errors.Join(ErrNoData, err)
	}
	c.log.Infow("coordinator_ready", "name", Name, "interval", c.interval.String())
	return nil
}

// Refresh polls device status and presence once and notifies listeners on change.
func (c *Coordinator) Refresh(ctx context.Context) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	start := c.now()
	snap, err := c.fetch(ctx)
	c.metrics.PollCompleted(c.now().Sub(start), err)

	c.mu.Lock()
	wasAvailable := c.available
	wasFailing := c.lastErr != nil
	changed := false
	c.lastUpdate = start.UTC()
	if err != nil {
		c.available = false
		c.lastErr = err
		changed = wasAvailable
	} else {
		changed = !wasAvailable || !c.hasData || !sameContent(c.data, snap)
		c.data = snap
		c.hasData = true
		c.available = true
		c.lastErr = nil
	}
	update := Update{Snapshot: c.data, Available: c.available, Err: err}
	listeners := make([]Listener, 0, len(c.listeners))
	for id := 0; id < c.nextID; id++ {
		if l, ok := c.listeners[id]; ok {
			listeners = append(listeners, l)
		}
	}
	c.mu.Unlock()

	switch {
	case err != nil:
		c.log.Errorw("coordinator_update_failed", "name", Name, "err", err)
		if wasAvailable || !wasFailing {
			c.publish(ctx, models.EventUpdateFailed, "Error communicating with API", map[string]any{"error": err.Error()})
		}
	case wasFailing:
		c.log.Infow("coordinator_update_recovered", "name", Name)
		c.publish(ctx, models.EventUpdateRecovered, "Companion server reachable again", nil)
	}

	if changed {
		for _, l := range listeners {
			l(update)
		}
	}
	return err
}

func (c *Coordinator) fetch(ctx context.Context) (Snapshot, error) {
	if err := c.fetcher.UpdateDeviceData(ctx); err != nil {
		return Snapshot{}, err
	}
	snap := Snapshot{Status: c.fetcher.DeviceData(), FetchedAt: c.now().UTC()}

	p, err := c.fetcher.Presence(ctx)
	if err != nil {
		c.log.Warnw("coordinator_presence_failed", "name", Name, "err", err)
		c.mu.RLock()
		snap.Presence = c.data.Presence
		c.mu.RUnlock()
	} else {
		snap.Presence = &p
	}
	return snap, nil
}

// RequestRefresh polls immediately, typically after a command. Errors are logged only.
func (c *Coordinator) RequestRefresh(ctx context.Context) {
	if err := c.Refresh(ctx); err != nil {
		c.log.Debugw("coordinator_requested_refresh_failed", "name", Name, "err", err)
	}
}

// Run polls every interval until ctx is canceled.
func (c *Coordinator) Run(ctx context.Context) {
	t := time.NewTicker(c.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			_ = c.Refresh(ctx)
		}
	}
}

func (c *Coordinator) publish(ctx context.Context, typ, desc string, meta map[string]any) {
	if c.events == nil {
		return
	}
	ev := models.PodEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  c.now().UTC(),
		Type:        typ,
		Description: desc,
	}
	if meta != nil {
		ev.Metadata = meta
	}
	c.events.Publish(ctx, ev)
}

// sameContent compares two snapshots ignoring the fetch time.
func sameContent(a, b Snapshot) bool {
	return reflect.DeepEqual(a.Status, b.Status) && reflect.DeepEqual(a.Presence, b.Presence)
}
