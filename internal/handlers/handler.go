package handlers

import (
	"context"

	"eight_sleep_local/internal/logger"
	"eight_sleep_local/internal/metrics"
	"eight_sleep_local/internal/models"
	"eight_sleep_local/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Subscriber is the event bus as seen by the websocket stream.
type Subscriber interface {
	Subscribe(buffer int) (<-chan models.PodEvent, func())
}

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services    *service.Service
	log         *logger.Logger
	events      Subscriber
	metrics     *metrics.Metrics
	authEnabled bool
}

type Option func(*Handler)

// WithEvents enables event envelopes on /ws.
func WithEvents(s Subscriber) Option {
	return func(h *Handler) { h.events = s }
}

// WithMetrics exposes /metrics and counts requests.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// WithAuth toggles bearer protection of /api/v1. It is on by default.
func WithAuth(enabled bool) Option {
	return func(h *Handler) { h.authEnabled = enabled }
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger, opts ...Option) *Handler {
	h := &Handler{services: services, log: log, authEnabled: true}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), h.metrics.GinMiddleware())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", h.health)
	router.GET("/metrics", gin.WrapH(h.metrics.Handler()))

	h.registerAuthRoutes(router)

	// Versioned API endpoints (protected when auth is enabled)
	h.registerAPIRoutes(router)

	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.userIdMiddleware)
	{
		h.registerEntityRoutes(api)
		h.registerPodRoutes(api)
		h.registerHealthRoutes(api)
		h.registerLogRoutes(api)
	}
}

func (h *Handler) registerEntityRoutes(api *gin.RouterGroup) {
	entities := api.Group("/entities")
	{
		entities.GET("", h.listEntities)
		entities.GET("/:id", h.getEntity)
		// Body example for set_value: {"value": 85}
		entities.POST("/:id/:command", h.entityCommand)
	}
}

func (h *Handler) registerPodRoutes(api *gin.RouterGroup) {
	pod := api.Group("/pod")
	{
		pod.GET("/status", h.podStatus)
		pod.GET("/history", h.podHistory)
		pod.POST("/refresh", h.podRefresh)
		pod.GET("/presence", h.podPresence)
	}
	api.GET("/schedules", h.schedules)
}

func (h *Handler) registerHealthRoutes(api *gin.RouterGroup) {
	m := api.Group("/metrics")
	{
		m.GET("/vitals", h.vitals)
		m.GET("/vitals/summary", h.vitalsSummary)
		m.GET("/sleep", h.sleepRecords)
		m.GET("/movement", h.movement)
	}
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs")
	{
		logs.GET("", h.getLogs)
	}
}

func (h *Handler) subscribe() (<-chan models.PodEvent, func()) {
	if h.events == nil {
		return nil, func() {}
	}
	return h.events.Subscribe(wsEventBuffer)
}

func (h *Handler) states(ctx context.Context) ([]models.EntityState, error) {
	return h.services.Entities.ListStates(ctx, "")
}
