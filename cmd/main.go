// @title        Eight Sleep Local Bridge API
// @version      1.0
// @description  Local bridge exposing an Eight Sleep Pod companion server as entities.
// @BasePath     /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "eight_sleep_local/docs"
	"eight_sleep_local/internal/config"
	"eight_sleep_local/internal/coordinator"
	"eight_sleep_local/internal/entity"
	"eight_sleep_local/internal/events"
	"eight_sleep_local/internal/handlers"
	"eight_sleep_local/internal/logger"
	"eight_sleep_local/internal/metrics"
	"eight_sleep_local/internal/podclient"
	"eight_sleep_local/internal/repository"
	"eight_sleep_local/internal/server"
	"eight_sleep_local/internal/service"
)

const (
	configDir       = "configs"
	shutdownTimeout = 10 * time.Second
)

func main() {
	// load config.yml (+ .env and EIGHTSLEEP_* overrides)
	cfg, err := config.Load(configDir)
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}

	// init logger
	log := logger.GetWithFormat(cfg.Log.Level, cfg.Log.Format)
	defer func() { _ = log.Sync() }()

	m := metrics.New()

	// event log + bus
	repos := repository.NewRepository(cfg.Events.LogCapacity, seedUsers(cfg.Auth.Users))
	bus := newBus(cfg, repos, m, log)
	defer func() {
		if cerr := bus.Close(); cerr != nil {
			log.Errorw("event_bus_close_failed", "err", cerr)
		}
	}()

	// companion client + coordinator
	pod := podclient.New(cfg.Pod.Host, cfg.Pod.Port,
		podclient.WithTimeout(cfg.Pod.Timeout),
		podclient.WithHistorySize(cfg.Pod.HistorySize),
		podclient.WithLogger(log.Named("podclient")),
	)
	defer pod.Close()

	coord := coordinator.New(pod, cfg.Pod.PollInterval,
		coordinator.WithLogger(log.Named("coordinator")),
		coordinator.WithMetrics(m),
		coordinator.WithPublisher(bus),
	)

	// entities
	settings := entity.NewSettings(cfg.Sync.SyncMode, cfg.Sync.InstantAlarmSync, podclient.AlarmParams{
		Intensity: cfg.Alarm.Intensity,
		Pattern:   cfg.Alarm.Pattern,
		Duration:  cfg.Alarm.Duration,
	})
	hub := entity.NewHub(pod, coord, settings, pod.Host(), pod.Port(),
		entity.WithLogger(log.Named("entity")),
		entity.WithMetrics(m),
		entity.WithPublisher(bus),
	)
	registry := entity.NewRegistry(hub)
	coord.AddListener(registry.HandleUpdate)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// the bridge does not start without a first snapshot
	if err := coord.FirstRefresh(ctx); err != nil {
		log.Fatalw("companion server not reachable", "base_url", pod.BaseURL(), "err", err)
	}
	registry.Init(ctx)

	services := service.NewService(service.Deps{
		Repos:       repos,
		Pod:         pod,
		Coordinator: coord,
		Registry:    registry,
		SigningKey:  cfg.Auth.SigningKey,
		TokenTTL:    cfg.Auth.TokenTTL,
	})
	apiHandler := handlers.NewHandler(services, log,
		handlers.WithEvents(bus),
		handlers.WithMetrics(m),
		handlers.WithAuth(cfg.Auth.Enabled),
	)

	// start polling
	go services.Poller.Run(ctx)

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, cfg.Port, apiHandler, log)
	log.Infow("bridge_started", "port", cfg.Port, "pod", pod.BaseURL(), "auth", cfg.Auth.Enabled)

	// graceful shutdown
	waitForShutdown(cancel, srv, log)
}

func seedUsers(users []config.UserConfig) []repository.SeedUser {
	out := make([]repository.SeedUser, 0, len(users))
	for _, u := range users {
		out = append(out, repository.SeedUser{Username: u.Username, PasswordHash: u.PasswordHash})
	}
	return out
}

// newBus builds the event bus and attaches the Kafka sink when brokers are configured.
func newBus(cfg config.Config, repos *repository.Repository, m *metrics.Metrics, log *logger.Logger) *events.Bus {
	opts := []events.Option{events.WithLogger(log.Named("events")), events.WithMetrics(m)}
	if sink := events.NewKafkaSink(cfg.Events.Kafka.Brokers, cfg.Events.Kafka.Topic); sink != nil {
		opts = append(opts, events.WithSink(sink))
		log.Infow("kafka_sink_enabled", "brokers", cfg.Events.Kafka.Brokers, "topic", cfg.Events.Kafka.Topic)
	}
	return events.NewBus(repos.EventRepo, opts...)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background goroutines
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
