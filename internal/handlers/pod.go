package handlers

import (
	"net/http"

	"eight_sleep_local/internal/models"

	"github.com/gin-gonic/gin"
)

const errInvalidSide = "invalid 'side'; use left or right"

// @Summary      Companion status
// @Description  Latest polled snapshot with availability. The snapshot is kept after a failed poll.
// @Tags         pod
// @Produce      json
// @Success      200  {object}  service.PodStatus
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/pod/status [get]
// @Security     BearerAuth
func (h *Handler) podStatus(c *gin.Context) {
	st, err := h.services.Monitoring.Status(c.Request.Context())
	if err != nil {
		h.respondError(c, "pod_status_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Device status history
// @Tags         pod
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, history"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/pod/history [get]
// @Security     BearerAuth
func (h *Handler) podHistory(c *gin.Context) {
	hist, err := h.services.Monitoring.History(c.Request.Context())
	if err != nil {
		h.respondError(c, "pod_history_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":   len(hist),
		"history": hist,
	})
}

// @Summary      Poll the companion now
// @Tags         pod
// @Produce      json
// @Success      200  {object}  service.PodStatus
// @Failure      401  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/pod/refresh [post]
// @Security     BearerAuth
func (h *Handler) podRefresh(c *gin.Context) {
	st, err := h.services.Monitoring.Refresh(c.Request.Context())
	if err != nil {
		h.respondError(c, "pod_refresh_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Bed presence
// @Tags         pod
// @Produce      json
// @Success      200  {object}  models.Presence
// @Failure      401  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/pod/presence [get]
// @Security     BearerAuth
func (h *Handler) podPresence(c *gin.Context) {
	p, err := h.services.Monitoring.Presence(c.Request.Context())
	if err != nil {
		h.respondError(c, "pod_presence_failed", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary      Schedules
// @Tags         pod
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/schedules [get]
// @Security     BearerAuth
func (h *Handler) schedules(c *gin.Context) {
	s, err := h.services.Health.Schedules(c.Request.Context())
	if err != nil {
		h.respondError(c, "schedules_failed", err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// metricsQuery reads side, startTime and endTime. Times are passed through unchanged.
func metricsQuery(c *gin.Context) (models.MetricsQuery, bool) {
	q := models.MetricsQuery{
		StartTime: c.Query("startTime"),
		EndTime:   c.Query("endTime"),
	}
	if raw := c.Query("side"); raw != "" {
		side, err := models.ParseSide(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidSide})
			return q, false
		}
		q.Side = side
	}
	return q, true
}

// @Summary      Vitals records
// @Tags         metrics
// @Produce      json
// @Param        side       query  string  false  "Bed side"  Enums(left,right)
// @Param        startTime  query  string  false  "Start of range"  example(2025-01-01T00:00:00Z)
// @Param        endTime    query  string  false  "End of range"
// @Success      200  {array}   map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/metrics/vitals [get]
// @Security     BearerAuth
func (h *Handler) vitals(c *gin.Context) {
	q, ok := metricsQuery(c)
	if !ok {
		return
	}
	recs, err := h.services.Health.Vitals(c.Request.Context(), q)
	if err != nil {
		h.respondError(c, "vitals_failed", err)
		return
	}
	c.JSON(http.StatusOK, recs)
}

// @Summary      Vitals summary
// @Tags         metrics
// @Produce      json
// @Param        side       query  string  false  "Bed side"  Enums(left,right)
// @Param        startTime  query  string  false  "Start of range"
// @Param        endTime    query  string  false  "End of range"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/metrics/vitals/summary [get]
// @Security     BearerAuth
func (h *Handler) vitalsSummary(c *gin.Context) {
	q, ok := metricsQuery(c)
	if !ok {
		return
	}
	rec, err := h.services.Health.VitalsSummary(c.Request.Context(), q)
	if err != nil {
		h.respondError(c, "vitals_summary_failed", err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// @Summary      Sleep records
// @Tags         metrics
// @Produce      json
// @Param        side       query  string  false  "Bed side"  Enums(left,right)
// @Param        startTime  query  string  false  "Start of range"
// @Param        endTime    query  string  false  "End of range"
// @Success      200  {array}   map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/metrics/sleep [get]
// @Security     BearerAuth
func (h *Handler) sleepRecords(c *gin.Context) {
	q, ok := metricsQuery(c)
	if !ok {
		return
	}
	recs, err := h.services.Health.SleepRecords(c.Request.Context(), q)
	if err != nil {
		h.respondError(c, "sleep_records_failed", err)
		return
	}
	c.JSON(http.StatusOK, recs)
}

// @Summary      Movement records
// @Tags         metrics
// @Produce      json
// @Param        side       query  string  false  "Bed side"  Enums(left,right)
// @Param        startTime  query  string  false  "Start of range"
// @Param        endTime    query  string  false  "End of range"
// @Success      200  {array}   map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/metrics/movement [get]
// @Security     BearerAuth
func (h *Handler) movement(c *gin.Context) {
	q, ok := metricsQuery(c)
	if !ok {
		return
	}
	recs, err := h.services.Health.Movement(c.Request.Context(), q)
	if err != nil {
		h.respondError(c, "movement_failed", err)
		return
	}
	c.JSON(http.StatusOK, recs)
}
