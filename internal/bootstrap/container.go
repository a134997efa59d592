package bootstrap

import (
	"context"
	"sync"

	"selene/internal/adapters/config"
	kafkaclient "selene/internal/adapters/kafka"
	pgclient "selene/internal/adapters/postgres"
	redisclient "selene/internal/adapters/redis"
	"selene/internal/api"
	"selene/internal/consumers"
	"selene/internal/domain/job"
	"selene/internal/domain/signal"
	"selene/internal/services/pipeline"
	"selene/pkg/errors"
	"selene/pkg/logger"
)

// Container holds all application dependencies and their lifecycle
// Components are organized in initialization order
type Container struct {
	// Core configuration & logging
	Config       *config.Config
	Log          *logger.Logger
	ErrorTracker errors.Tracker

	// Infrastructure Layer (Data stores)
	PG    *pgclient.Client
	Redis *redisclient.Client

	// Messaging
	Producer *kafkaclient.Producer

	// Domain Layer - Repositories
	Jobs    job.Repository
	Signals signal.Repository

	// Pipeline
	Orchestrator *pipeline.Orchestrator

	// Application Layer
	HTTPServer       *api.Server
	AnalysisConsumer *consumers.AnalysisConsumer

	// Lifecycle management
	Lifecycle *Lifecycle
	WG        *sync.WaitGroup
	Context   context.Context
	Cancel    context.CancelFunc
}

// New builds the full dependency graph in phases. Fails fast on any
// infrastructure error; the caller owns calling Shutdown.
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	log := logger.Get()

	runCtx, cancel := context.WithCancel(ctx)

	c := &Container{
		Config:    cfg,
		Log:       log,
		Lifecycle: NewLifecycle(),
		WG:        &sync.WaitGroup{},
		Context:   runCtx,
		Cancel:    cancel,
	}

	if err := c.provideErrorTracker(); err != nil {
		cancel()
		return nil, err
	}

	if err := c.provideInfrastructure(); err != nil {
		cancel()
		return nil, err
	}

	c.provideRepositories()

	if err := c.providePipeline(runCtx); err != nil {
		cancel()
		return nil, err
	}

	c.provideApplication()

	log.Info("Dependency container initialized")
	return c, nil
}
