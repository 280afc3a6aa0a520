// Command podsim serves a simulated companion server for local development.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eight_sleep_local/internal/config"
	"eight_sleep_local/internal/logger"
	"eight_sleep_local/internal/podsim"
	"eight_sleep_local/internal/server"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load("configs")
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}
	log := logger.GetWithFormat(cfg.Log.Level, cfg.Log.Format).Named("podsim")
	defer func() { _ = log.Sync() }()

	gin.SetMode(gin.ReleaseMode)
	pod := podsim.New()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go pod.Run(ctx, cfg.Sim.Tick)

	srv := &server.Server{}
	go func() {
		if err := srv.Run(cfg.Sim.Port, podsim.NewHandler(pod, log).InitRoutes()); err != nil {
			log.Fatalw("error starting simulator", "err", err)
		}
	}()
	log.Infow("podsim_started", "port", cfg.Sim.Port, "tick", cfg.Sim.Tick)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("simulator_forced_shutdown", "err", err)
	}
}
