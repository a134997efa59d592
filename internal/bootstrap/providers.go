package bootstrap

import (
	"context"

	"selene/internal/adapters/errors/noop"
	"selene/internal/adapters/errors/sentry"
	kafkaclient "selene/internal/adapters/kafka"
	"selene/internal/adapters/lunarcrush"
	pgclient "selene/internal/adapters/postgres"
	redisclient "selene/internal/adapters/redis"
	"selene/internal/api"
	"selene/internal/api/health"
	"selene/internal/consumers"
	"selene/internal/events"
	pgrepo "selene/internal/repository/postgres"
	"selene/internal/services/pipeline"
	"selene/internal/services/scoring"
	"selene/pkg/errors"
	"selene/pkg/logger"
)

// provideErrorTracker wires Sentry when configured, no-op otherwise
func (c *Container) provideErrorTracker() error {
	cfg := c.Config.ErrorTracking

	if !cfg.Enabled || cfg.SentryDSN == "" {
		c.Log.Info("Error tracking disabled")
		c.ErrorTracker = noop.New()
		logger.SetErrorTracker(c.ErrorTracker)
		return nil
	}

	tracker, err := sentry.New(cfg.SentryDSN, cfg.Environment)
	if err != nil {
		c.Log.Warnf("Failed to initialize Sentry, falling back to no-op: %v", err)
		c.ErrorTracker = noop.New()
		logger.SetErrorTracker(c.ErrorTracker)
		return nil
	}

	c.Log.Info("Error tracking initialized (Sentry)")
	c.ErrorTracker = tracker
	logger.SetErrorTracker(c.ErrorTracker)
	return nil
}

// provideInfrastructure connects the data stores and the broker
func (c *Container) provideInfrastructure() error {
	c.Log.Info("Initializing infrastructure...")

	pg, err := pgclient.NewClient(c.Config.Postgres)
	if err != nil {
		return errors.Wrap(err, "connect to postgres")
	}
	c.PG = pg

	rdb, err := redisclient.NewClient(c.Config.Redis)
	if err != nil {
		return errors.Wrap(err, "connect to redis")
	}
	c.Redis = rdb

	c.Producer = kafkaclient.NewProducer(kafkaclient.ProducerConfig{
		Brokers: c.Config.Kafka.Brokers,
	})

	c.Log.Info("Infrastructure initialized")
	return nil
}

// provideRepositories wires the persistence layer
func (c *Container) provideRepositories() {
	c.Jobs = pgrepo.NewJobRepository(c.PG.DB())
	c.Signals = pgrepo.NewSignalRepository(c.PG.DB())
}

// providePipeline assembles the fetcher, scorer and orchestrator
func (c *Container) providePipeline(ctx context.Context) error {
	fetcher := lunarcrush.NewClient(c.Config.LunarCrush, c.Redis)

	generator, err := scoring.NewGeminiGenerator(ctx, c.Config.Gemini)
	if err != nil {
		return errors.Wrap(err, "initialize AI generator")
	}
	scorer := scoring.NewScorer(generator)

	publisher := events.NewProgressPublisher(c.Redis.Client())
	tracker := pipeline.NewTracker(c.Jobs, publisher)

	c.Orchestrator = pipeline.NewOrchestrator(
		pipeline.Config{
			DefaultSymbols: c.Config.Pipeline.DefaultSymbols,
			SymbolCount:    c.Config.Pipeline.SymbolCount,
			FetchPace:      c.Config.Pipeline.FetchPace,
			ScorePace:      c.Config.Pipeline.ScorePace,
			HistoryDepth:   c.Config.Pipeline.HistoryDepth,
		},
		fetcher,
		scorer,
		c.Jobs,
		c.Signals,
		tracker,
	)

	return nil
}

// provideApplication wires the HTTP server and the Kafka consumers
func (c *Container) provideApplication() {
	healthHandler := health.New(c.Log, c.PG.DB(), c.Redis.Client(), c.Config.App.Name, c.Config.App.Version)
	analysisHandler := api.NewAnalysisHandler(c.Producer, c.Jobs, c.Signals)
	progressHandler := api.NewProgressSocketHandler(c.Redis.Client(), c.Jobs)

	c.HTTPServer = api.NewServer(
		api.ServerConfig{
			Port:        c.Config.HTTP.Port,
			ServiceName: c.Config.App.Name,
			Version:     c.Config.App.Version,
		},
		healthHandler,
		analysisHandler,
		progressHandler,
		c.Log,
	)

	c.AnalysisConsumer = consumers.NewAnalysisConsumer(
		c.Config.Kafka.Brokers,
		c.Config.Kafka.GroupID,
		c.Orchestrator,
	)
}
