package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"eight_sleep_local/internal/models"
	"eight_sleep_local/internal/repository"
)

type EventLogService struct {
	eventRepo repository.EventRepo
}

func NewEventLogService(eventRepo repository.EventRepo) *EventLogService {
	return &EventLogService{eventRepo: eventRepo}
}

var (
	errInvalidTimeRange = errors.New("invalid time range: From must be <= To")
)

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// normalizeEventType trims spaces and uppercases the event type filter.
func normalizeEventType(s string) string {
	return strings.TrimSpace(strings.ToUpper(s))
}

// normalizeAndValidateFilter prepares query parameters and validates the time range.
func normalizeAndValidateFilter(f LogFilter) (time.Time, time.Time, string, error) {
	from := normalizeToUTC(f.From)
	to := normalizeToUTC(f.To)

	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return time.Time{}, time.Time{}, "", errInvalidTimeRange
	}

	eventType := normalizeEventType(f.Type)
	return from, to, eventType, nil
}

// List returns matching events, oldest first. EntityID is matched exactly.
func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.PodEvent, error) {
	from, to, typ, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	events, err := s.eventRepo.List(ctx, from, to, typ)
	if err != nil {
		return nil, err
	}
	entityID := strings.TrimSpace(f.EntityID)
	if entityID == "" {
		return events, nil
	}
	out := make([]models.PodEvent, 0, len(events))
	for _, ev := range events {
		if ev.EntityID == entityID {
			out = append(out, ev)
		}
	}
	return out, nil
}

// IsInvalidFilter reports whether err came from filter validation.
func IsInvalidFilter(err error) bool {
	return errors.Is(err, errInvalidTimeRange)
}
