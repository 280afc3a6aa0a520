package podsim

import (
	"fmt"
	"math"
	"time"

	"eight_sleep_local/internal/models"
)

// sample appends one vitals and movement record per minute while the side is occupied.
// Caller holds p.mu.
func (p *Pod) sample(side models.Side, s *sideState, now time.Time) {
	if !s.present || now.Sub(s.lastSample) < sampleEvery {
		return
	}
	s.lastSample = now
	phase := float64(now.Unix()%3600) / 3600 * 2 * math.Pi
	s.samples = append(s.samples, models.Record{
		"side":          string(side),
		"timestamp":     now.Format(time.RFC3339),
		"heartRate":     math.Round(restingHeartRate + 4*math.Sin(phase)),
		"hrv":           math.Round(45 + 10*math.Cos(phase)),
		"breathingRate": math.Round((14+math.Sin(phase))*10) / 10,
		"movement":      int(math.Abs(math.Sin(phase*7)) * 10),
	})
	if len(s.samples) > maxSamples {
		s.samples = s.samples[len(s.samples)-maxSamples:]
	}
}

// window is a parsed MetricsQuery.
type window struct {
	sides []models.Side
	from  time.Time
	to    time.Time
}

func parseWindow(q models.MetricsQuery) (window, error) {
	w := window{sides: models.Sides}
	if q.Side != "" {
		if !q.Side.Valid() {
			return w, fmt.Errorf("side %q: %w", q.Side, ErrInvalid)
		}
		w.sides = []models.Side{q.Side}
	}
	var err error
	if q.StartTime != "" {
		if w.from, err = time.Parse(time.RFC3339, q.StartTime); err != nil {
			return w, fmt.Errorf("startTime %q: %w", q.StartTime, ErrInvalid)
		}
	}
	if q.EndTime != "" {
		if w.to, err = time.Parse(time.RFC3339, q.EndTime); err != nil {
			return w, fmt.Errorf("endTime %q: %w", q.EndTime, ErrInvalid)
		}
	}
	return w, nil
}

func (w window) contains(ts string) bool {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return false
	}
	if !w.from.IsZero() && t.Before(w.from) {
		return false
	}
	if !w.to.IsZero() && t.After(w.to) {
		return false
	}
	return true
}

func (p *Pod) collect(q models.MetricsQuery, pick func(s *sideState) []models.Record, key string, project func(models.Record) models.Record) ([]models.Record, error) {
	w, err := parseWindow(q)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	out := []models.Record{}
	for _, side := range w.sides {
		for _, r := range pick(p.sides[side]) {
			ts, _ := r[key].(string)
			if !w.contains(ts) {
				continue
			}
			out = append(out, project(r))
		}
	}
	return out, nil
}

func samples(s *sideState) []models.Record { return s.samples }

// Vitals returns heart rate, HRV and breathing rate samples.
func (p *Pod) Vitals(q models.MetricsQuery) ([]models.Record, error) {
	return p.collect(q, samples, "timestamp", func(r models.Record) models.Record {
		return models.Record{
			"side":          r["side"],
			"timestamp":     r["timestamp"],
			"heartRate":     r["heartRate"],
			"hrv":           r["hrv"],
			"breathingRate": r["breathingRate"],
		}
	})
}

// Movement returns the per-minute movement samples.
func (p *Pod) Movement(q models.MetricsQuery) ([]models.Record, error) {
	return p.collect(q, samples, "timestamp", func(r models.Record) models.Record {
		return models.Record{
			"side":          r["side"],
			"timestamp":     r["timestamp"],
			"totalMovement": r["movement"],
		}
	})
}

// SleepRecords returns one record per finished bed occupancy.
func (p *Pod) SleepRecords(q models.MetricsQuery) ([]models.Record, error) {
	return p.collect(q, func(s *sideState) []models.Record { return s.sleepPeriod }, "enteredBedAt",
		func(r models.Record) models.Record {
			out := models.Record{}
			for k, v := range r {
				out[k] = v
			}
			return out
		})
}

// VitalsSummary aggregates the vitals samples in the window.
func (p *Pod) VitalsSummary(q models.MetricsQuery) (models.Record, error) {
	recs, err := p.Vitals(q)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return models.Record{"count": 0}, nil
	}
	var sumHR, sumHRV, sumBR float64
	minHR, maxHR := math.Inf(1), math.Inf(-1)
	for _, r := range recs {
		hr := r["heartRate"].(float64)
		sumHR += hr
		sumHRV += r["hrv"].(float64)
		sumBR += r["breathingRate"].(float64)
		minHR = math.Min(minHR, hr)
		maxHR = math.Max(maxHR, hr)
	}
	n := float64(len(recs))
	return models.Record{
		"count":            len(recs),
		"avgHeartRate":     math.Round(sumHR/n*10) / 10,
		"minHeartRate":     minHR,
		"maxHeartRate":     maxHR,
		"avgHRV":           math.Round(sumHRV/n*10) / 10,
		"avgBreathingRate": math.Round(sumBR/n*10) / 10,
	}, nil
}
