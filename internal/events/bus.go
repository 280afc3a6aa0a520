package events

import (
	"context"
	"sync"

	"eight_sleep_local/internal/logger"
	"eight_sleep_local/internal/metrics"
	"eight_sleep_local/internal/models"
	"eight_sleep_local/internal/repository"
)

const DefaultSubscriberBuffer = 64

// Sink receives every published event after it is stored, e.g. the Kafka writer.
type Sink interface {
	Write(ctx context.Context, ev models.PodEvent) error
	Close() error
}

// Bus stores events in the event log and fans them out to subscribers and sinks.
// Publish never blocks on a slow subscriber; its events are dropped instead.
type Bus struct {
	repo    repository.EventRepo
	log     *logger.Logger
	metrics *metrics.Metrics

	mu     sync.RWMutex
	subs   map[int]chan models.PodEvent
	nextID int
	sinks  []Sink
}

type Option func(*Bus)

func WithLogger(l *logger.Logger) Option {
	return func(b *Bus) { b.log = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Bus) { b.metrics = m }
}

func WithSink(s Sink) Option {
	return func(b *Bus) {
		if s != nil {
			b.sinks = append(b.sinks, s)
		}
	}
}

func NewBus(repo repository.EventRepo, opts ...Option) *Bus {
	b := &Bus{
		repo: repo,
		log:  logger.Nop(),
		subs: map[int]chan models.PodEvent{},
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.log == nil {
		b.log = logger.Nop()
	}
	return b
}

// Publish appends ev to the event log and delivers it to subscribers and sinks.
func (b *Bus) Publish(ctx context.Context, ev models.PodEvent) {
	if b.repo != nil {
		if err := b.repo.Append(ctx, ev); err != nil {
			b.log.Errorw("event_append_failed", "type", ev.Type, "err", err)
		}
	}

	b.mu.RLock()
	for id, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			b.metrics.EventDropped()
			b.log.Warnw("event_dropped", "subscriber", id, "type", ev.Type)
		}
	}
	sinks := b.sinks
	b.mu.RUnlock()

	for _, s := range sinks {
		if err := s.Write(ctx, ev); err != nil {
			b.log.Errorw("event_sink_failed", "type", ev.Type, "err", err)
		}
	}
}

// Subscribe returns a channel of future events and a cancel func that closes it.
func (b *Bus) Subscribe(buffer int) (<-chan models.PodEvent, func()) {
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}
	ch := make(chan models.PodEvent, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close closes every sink.
func (b *Bus) Close() error {
	b.mu.Lock()
	sinks := b.sinks
	b.sinks = nil
	b.mu.Unlock()

	var first error
	for _, s := range sinks {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
