package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"selene/internal/adapters/config"
	"selene/internal/bootstrap"
	"selene/internal/metrics"
	"selene/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize logger
	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	log := logger.Get()
	log.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Env)

	// Register Prometheus metrics
	metrics.Init()

	// Build the dependency container
	container, err := bootstrap.New(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}

	container.Start()
	log.Info("System initialized successfully")

	waitForShutdown(container, log)
}

// waitForShutdown blocks until an OS signal or internal failure, then
// runs the coordinated shutdown sequence
func waitForShutdown(container *bootstrap.Container, log *logger.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Infof("Received signal: %v", sig)
	case <-container.Context.Done():
		log.Info("Internal shutdown requested")
	}

	container.Shutdown()
}
