package podsim

import (
	"errors"
	"net/http"

	"eight_sleep_local/internal/logger"
	"eight_sleep_local/internal/models"

	"github.com/gin-gonic/gin"
)

// Handler serves the companion REST API from a simulated Pod.
type Handler struct {
	pod *Pod
	log *logger.Logger
}

func NewHandler(pod *Pod, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{pod: pod, log: log}
}

// InitRoutes registers the companion endpoints. GETs answer 200 JSON, POSTs 204.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	api := router.Group("/api")
	{
		api.GET("/deviceStatus", h.getDeviceStatus)
		api.POST("/deviceStatus", h.postDeviceStatus)
		api.POST("/alarm", h.postAlarm)
		api.GET("/schedules", h.getSchedules)
		api.POST("/schedules", h.postSchedules)
		api.GET("/presence", h.getPresence)
	}
	m := api.Group("/metrics")
	{
		m.GET("/vitals", h.records(h.pod.Vitals))
		m.GET("/vitals/summary", h.vitalsSummary)
		m.GET("/sleep", h.records(h.pod.SleepRecords))
		m.GET("/movement", h.records(h.pod.Movement))
	}
	return router
}

func (h *Handler) badRequest(c *gin.Context, logKey string, err error) {
	h.log.Infow(logKey, "err", err)
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func (h *Handler) getDeviceStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.pod.Status())
}

func (h *Handler) postDeviceStatus(c *gin.Context) {
	var patch StatusPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		h.badRequest(c, "sim_bad_status_body", err)
		return
	}
	if err := h.pod.Apply(patch); err != nil {
		h.badRequest(c, "sim_status_rejected", err)
		return
	}
	h.log.Debugw("sim_status_applied")
	c.Status(http.StatusNoContent)
}

func (h *Handler) postAlarm(c *gin.Context) {
	var req models.AlarmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "sim_bad_alarm_body", err)
		return
	}
	if err := h.pod.TriggerAlarm(req); err != nil {
		h.badRequest(c, "sim_alarm_rejected", err)
		return
	}
	h.log.Infow("sim_alarm_triggered", "side", req.Side, "pattern", req.VibrationPattern, "duration", req.Duration)
	c.Status(http.StatusNoContent)
}

func (h *Handler) getSchedules(c *gin.Context) {
	c.JSON(http.StatusOK, h.pod.Schedules())
}

func (h *Handler) postSchedules(c *gin.Context) {
	var update models.Schedules
	if err := c.ShouldBindJSON(&update); err != nil {
		h.badRequest(c, "sim_bad_schedules_body", err)
		return
	}
	if err := h.pod.MergeSchedules(update); err != nil {
		h.badRequest(c, "sim_schedules_rejected", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) getPresence(c *gin.Context) {
	c.JSON(http.StatusOK, h.pod.Presence())
}

func metricsQuery(c *gin.Context) models.MetricsQuery {
	return models.MetricsQuery{
		Side:      models.Side(c.Query("side")),
		StartTime: c.Query("startTime"),
		EndTime:   c.Query("endTime"),
	}
}

func (h *Handler) records(fetch func(models.MetricsQuery) ([]models.Record, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		recs, err := fetch(metricsQuery(c))
		if err != nil {
			h.metricsError(c, err)
			return
		}
		c.JSON(http.StatusOK, recs)
	}
}

func (h *Handler) vitalsSummary(c *gin.Context) {
	rec, err := h.pod.VitalsSummary(metricsQuery(c))
	if err != nil {
		h.metricsError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *Handler) metricsError(c *gin.Context, err error) {
	if errors.Is(err, ErrInvalid) {
		h.badRequest(c, "sim_bad_metrics_query", err)
		return
	}
	h.log.Errorw("sim_metrics_failed", "err", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
