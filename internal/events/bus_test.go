package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"eight_sleep_local/internal/metrics"
	"eight_sleep_local/internal/models"
	"eight_sleep_local/internal/repository"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func event(typ, entityID string) models.PodEvent {
	return models.PodEvent{
		EventID:     "ev-" + entityID,
		OccurredAt:  time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC),
		Type:        typ,
		EntityID:    entityID,
		Description: "test",
	}
}

func TestBus_PublishStoresAndFansOut(t *testing.T) {
	ring := repository.NewEventRing(10)
	bus := NewBus(ring)

	ch1, cancel1 := bus.Subscribe(4)
	defer cancel1()
	ch2, cancel2 := bus.Subscribe(4)
	defer cancel2()
	assert.Equal(t, 2, bus.Subscribers())

	bus.Publish(context.Background(), event(models.EventStateChanged, "eight_sleep_left_power"))

	for _, ch := range []<-chan models.PodEvent{ch1, ch2} {
		select {
		case ev := <-ch:
			assert.Equal(t, "eight_sleep_left_power", ev.EntityID)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive event")
		}
	}

	stored, err := ring.List(context.Background(), time.Time{}, time.Time{}, "")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, models.EventStateChanged, stored[0].Type)
}

func TestBus_SlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	m := metrics.New()
	bus := NewBus(nil, WithMetrics(m))
	ch, cancel := bus.Subscribe(1)
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			bus.Publish(context.Background(), event(models.EventCommand, "x"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}
	assert.Len(t, ch, 1)

	n, err := testutil.GatherAndCount(m.Registry(), "eight_sleep_local_events_dropped_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestBus_CancelClosesChannel(t *testing.T) {
	bus := NewBus(nil)
	ch, cancel := bus.Subscribe(0)
	cancel()
	cancel()

	_, ok := <-ch
	assert.False(t, ok)
	assert.Equal(t, 0, bus.Subscribers())

	// publishing after unsubscribe must not panic
	bus.Publish(context.Background(), event(models.EventCommand, "x"))
}

func TestBus_SinkFailureDoesNotStopPublish(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	sink := &KafkaSink{w: w, topic: "events"}
	ring := repository.NewEventRing(10)
	bus := NewBus(ring, WithSink(sink))

	bus.Publish(context.Background(), event(models.EventCommand, "x"))
	assert.Equal(t, 1, ring.Len())

	require.NoError(t, bus.Close())
	assert.True(t, w.closed)
}

func TestKafkaSink_Write(t *testing.T) {
	w := &fakeWriter{}
	sink := &KafkaSink{w: w, topic: "eight-sleep.events", timeout: time.Second}

	require.NoError(t, sink.Write(context.Background(), event(models.EventStateChanged, "eight_sleep_left_is_on")))
	require.NoError(t, sink.Write(context.Background(), models.PodEvent{EventID: "u", Type: models.EventUpdateFailed}))

	require.Len(t, w.msgs, 2)
	assert.Equal(t, "eight_sleep_left_is_on", string(w.msgs[0].Key))
	assert.Equal(t, models.EventUpdateFailed, string(w.msgs[1].Key))
	assert.Equal(t, "type", w.msgs[0].Headers[0].Key)

	var decoded models.PodEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	assert.Equal(t, "ev-eight_sleep_left_is_on", decoded.EventID)
}

func TestNewKafkaSink_DisabledWithoutBrokers(t *testing.T) {
	assert.Nil(t, NewKafkaSink(nil, "topic"))
	assert.Nil(t, NewKafkaSink([]string{"localhost:9092"}, ""))

	s := NewKafkaSink([]string{"localhost:9092"}, "eight-sleep.events")
	require.NotNil(t, s)
	assert.Equal(t, "eight-sleep.events", s.Topic())
}
