package bootstrap

import (
	"context"
	"time"
)

// Lifecycle manages graceful startup and shutdown of components
type Lifecycle struct {
	shutdownTimeout time.Duration
}

// NewLifecycle creates a new lifecycle manager
func NewLifecycle() *Lifecycle {
	return &Lifecycle{
		shutdownTimeout: 30 * time.Second,
	}
}

// Shutdown performs coordinated cleanup in dependency order:
// 1. HTTP server stops accepting requests
// 2. Consumers close, unblocking ReadMessage before goroutines drain
// 3. Producer closes after consumers
// 4. Error tracker flushes
// 5. Data stores close last, in-flight writes may still need them
func (c *Container) Shutdown() {
	log := c.Log
	log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), c.Lifecycle.shutdownTimeout)
	defer cancel()

	// Stop accepting work
	c.Cancel()

	log.Info("[1/5] Stopping HTTP server...")
	httpCtx, httpCancel := context.WithTimeout(shutdownCtx, 5*time.Second)
	if err := c.HTTPServer.Shutdown(httpCtx); err != nil {
		log.Errorf("HTTP server shutdown failed: %v", err)
	}
	httpCancel()

	log.Info("[2/5] Closing Kafka consumers...")
	if err := c.AnalysisConsumer.Close(); err != nil {
		log.Errorf("Consumer close failed: %v", err)
	}
	c.WG.Wait()

	log.Info("[3/5] Closing Kafka producer...")
	if err := c.Producer.Close(); err != nil {
		log.Errorf("Producer close failed: %v", err)
	}

	log.Info("[4/5] Flushing error tracker...")
	flushCtx, flushCancel := context.WithTimeout(shutdownCtx, 5*time.Second)
	if err := c.ErrorTracker.Flush(flushCtx); err != nil {
		log.Errorf("Error tracker flush failed: %v", err)
	}
	flushCancel()

	log.Info("[5/5] Closing data stores...")
	if err := c.Redis.Close(); err != nil {
		log.Errorf("Redis close failed: %v", err)
	}
	if err := c.PG.Close(); err != nil {
		log.Errorf("Postgres close failed: %v", err)
	}

	log.Info("Shutdown complete")
}

// Start launches the long-running components. Blocks only on failure of
// the HTTP listener; consumers run until the container context ends.
func (c *Container) Start() {
	c.WG.Add(1)
	go func() {
		defer c.WG.Done()
		c.AnalysisConsumer.Start(c.Context)
	}()

	go func() {
		if err := c.HTTPServer.Start(); err != nil {
			c.Log.Errorf("HTTP server error: %v", err)
			c.Cancel()
		}
	}()
}
