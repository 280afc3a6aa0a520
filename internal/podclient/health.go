package podclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"eight_sleep_local/internal/models"
)

const (
	pathVitals        = "/api/metrics/vitals"
	pathVitalsSummary = "/api/metrics/vitals/summary"
	pathSleep         = "/api/metrics/sleep"
	pathMovement      = "/api/metrics/movement"
)

// The health-metric endpoints are read-only pass-throughs; records are returned as sent.

func (c *Client) metricsPath(base string, q models.MetricsQuery) (string, error) {
	v := url.Values{}
	if q.Side != "" {
		if err := c.checkSide(q.Side); err != nil {
			return "", err
		}
		v.Set("side", string(q.Side))
	}
	if q.StartTime != "" {
		v.Set("startTime", q.StartTime)
	}
	if q.EndTime != "" {
		v.Set("endTime", q.EndTime)
	}
	if len(v) == 0 {
		return base, nil
	}
	return fmt.Sprintf("%s?%s", base, v.Encode()), nil
}

func (c *Client) getRecords(ctx context.Context, base string, q models.MetricsQuery) ([]models.Record, error) {
	path, err := c.metricsPath(base, q)
	if err != nil {
		return nil, err
	}
	var out []models.Record
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Vitals returns raw heart rate / HRV / breathing rate records.
func (c *Client) Vitals(ctx context.Context, q models.MetricsQuery) ([]models.Record, error) {
	return c.getRecords(ctx, pathVitals, q)
}

// VitalsSummary returns the server-side aggregate of the vitals in range.
func (c *Client) VitalsSummary(ctx context.Context, q models.MetricsQuery) (models.Record, error) {
	path, err := c.metricsPath(pathVitalsSummary, q)
	if err != nil {
		return nil, err
	}
	var out models.Record
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SleepRecords returns sleep sessions; startTime filters on leaving bed, endTime on entering it.
func (c *Client) SleepRecords(ctx context.Context, q models.MetricsQuery) ([]models.Record, error) {
	return c.getRecords(ctx, pathSleep, q)
}

func (c *Client) Movement(ctx context.Context, q models.MetricsQuery) ([]models.Record, error) {
	return c.getRecords(ctx, pathMovement, q)
}
