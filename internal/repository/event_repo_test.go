package repository

import (
	"context"
	"strconv"
	"testing"
	"time"

	"eight_sleep_local/internal/models"
)

func ctx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)
	return c
}

func TestAppend_Success_WithDefaults(t *testing.T) {
	t.Parallel()

	repo := NewEventRing(10)
	err := repo.Append(ctx(t), models.PodEvent{
		// EventID empty -> repo generates
		// OccurredAt zero -> repo sets UTC now
		Type:        "  command ",
		Description: "hello",
		Metadata:    map[string]any{"a": 1},
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, err := repo.List(ctx(t), time.Time{}, time.Time{}, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("want 1, got %d", len(got))
	}
	if got[0].EventID == "" {
		t.Fatalf("expected generated event id")
	}
	if got[0].OccurredAt.IsZero() || got[0].OccurredAt.Location() != time.UTC {
		t.Fatalf("expected UTC timestamp, got %v", got[0].OccurredAt)
	}
	if got[0].Type != models.EventCommand {
		t.Fatalf("type not normalized: %q", got[0].Type)
	}
}

func TestAppend_CanceledContext(t *testing.T) {
	t.Parallel()

	repo := NewEventRing(10)
	c, cancel := context.WithCancel(context.Background())
	cancel()

	if err := repo.Append(c, models.PodEvent{Type: "x"}); err == nil {
		t.Fatalf("expected error for canceled context")
	}
	if repo.Len() != 0 {
		t.Fatalf("nothing should be stored, got %d", repo.Len())
	}
}

func TestAppend_OverwritesOldest(t *testing.T) {
	t.Parallel()

	repo := NewEventRing(3)
	base := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		err := repo.Append(ctx(t), models.PodEvent{
			EventID:    strconv.Itoa(i),
			OccurredAt: base.Add(time.Duration(i) * time.Minute),
			Type:       models.EventStateChanged,
		})
		if err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
	}

	got, err := repo.List(ctx(t), time.Time{}, time.Time{}, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("want 3, got %d", len(got))
	}
	for i, want := range []string{"2", "3", "4"} {
		if got[i].EventID != want {
			t.Fatalf("position %d: want %s, got %s", i, want, got[i].EventID)
		}
	}
}

func TestList_Filters(t *testing.T) {
	t.Parallel()

	repo := NewEventRing(0)
	if repo.Capacity() != DefaultEventCapacity {
		t.Fatalf("want default capacity %d, got %d", DefaultEventCapacity, repo.Capacity())
	}

	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	seed := []models.PodEvent{
		{EventID: "1", OccurredAt: now, Type: models.EventCommand},
		{EventID: "2", OccurredAt: now.Add(time.Hour), Type: models.EventStateChanged},
		{EventID: "3", OccurredAt: now.Add(2 * time.Hour), Type: models.EventCommand},
	}
	for _, ev := range seed {
		if err := repo.Append(ctx(t), ev); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	tests := []struct {
		name    string
		from    time.Time
		to      time.Time
		typ     string
		wantIDs []string
	}{
		{name: "no filters", wantIDs: []string{"1", "2", "3"}},
		{name: "from inclusive", from: now.Add(time.Hour), wantIDs: []string{"2", "3"}},
		{name: "to inclusive", to: now.Add(time.Hour), wantIDs: []string{"1", "2"}},
		{name: "type lowercase", typ: " command ", wantIDs: []string{"1", "3"}},
		{name: "range and type", from: now.Add(time.Minute), to: now.Add(3 * time.Hour), typ: "COMMAND", wantIDs: []string{"3"}},
		{name: "empty result", typ: "UPDATE_FAILED", wantIDs: []string{}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.List(ctx(t), tt.from, tt.to, tt.typ)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("want %d events, got %d", len(tt.wantIDs), len(got))
			}
			for i, id := range tt.wantIDs {
				if got[i].EventID != id {
					t.Fatalf("position %d: want %s, got %s", i, id, got[i].EventID)
				}
			}
		})
	}
}

func TestList_SortsOutOfOrderAppends(t *testing.T) {
	t.Parallel()

	repo := NewEventRing(5)
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	_ = repo.Append(ctx(t), models.PodEvent{EventID: "late", OccurredAt: now.Add(time.Minute)})
	_ = repo.Append(ctx(t), models.PodEvent{EventID: "early", OccurredAt: now})

	got, _ := repo.List(ctx(t), time.Time{}, time.Time{}, "")
	if len(got) != 2 || got[0].EventID != "early" {
		t.Fatalf("expected ascending order, got %+v", got)
	}
}
