package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"eight_sleep_local/internal/models"

	"github.com/google/uuid"
)

const DefaultEventCapacity = 500

// EventRing keeps the most recent events in memory; the oldest entry is overwritten when full.
type EventRing struct {
	mu    sync.RWMutex
	buf   []models.PodEvent
	start int
	size  int
}

func NewEventRing(capacity int) *EventRing {
	if capacity <= 0 {
		capacity = DefaultEventCapacity
	}
	return &EventRing{buf: make([]models.PodEvent, capacity)}
}

var _ EventRepo = (*EventRing)(nil)

func (r *EventRing) Capacity() int { return len(r.buf) }

func (r *EventRing) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.size
}

// Append stores a new event. If EventID or OccurredAt are empty, they’re set.
func (r *EventRing) Append(ctx context.Context, e models.PodEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	} else {
		e.OccurredAt = e.OccurredAt.UTC()
	}
	e.Type = strings.ToUpper(strings.TrimSpace(e.Type))

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.size < len(r.buf) {
		r.buf[(r.start+r.size)%len(r.buf)] = e
		r.size++
		return nil
	}
	r.buf[r.start] = e
	r.start = (r.start + 1) % len(r.buf)
	return nil
}

// List returns events filtered by [from, to] (inclusive) and/or type, ordered ASC.
func (r *EventRing) List(ctx context.Context, from, to time.Time, typ string) ([]models.PodEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	typ = strings.ToUpper(strings.TrimSpace(typ))

	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.PodEvent, 0, r.size)
	for i := 0; i < r.size; i++ {
		ev := r.buf[(r.start+i)%len(r.buf)]
		if !from.IsZero() && ev.OccurredAt.Before(from) {
			continue
		}
		if !to.IsZero() && ev.OccurredAt.After(to) {
			continue
		}
		if typ != "" && ev.Type != typ {
			continue
		}
		out = append(out, ev)
	}
	// appends normally arrive in order; keep the output sorted regardless
	sortByTime(out)
	return out, nil
}

func sortByTime(evs []models.PodEvent) {
	for i := 1; i < len(evs); i++ {
		for j := i; j > 0 && evs[j].OccurredAt.Before(evs[j-1].OccurredAt); j-- {
			evs[j], evs[j-1] = evs[j-1], evs[j]
		}
	}
}
