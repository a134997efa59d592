package consumers

import (
	"context"
	"encoding/json"

	kafkago "github.com/segmentio/kafka-go"

	"selene/internal/adapters/kafka"
	"selene/internal/domain/signal"
	"selene/internal/events"
	"selene/internal/services/pipeline"
	"selene/pkg/errors"
	"selene/pkg/logger"
)

// Runner executes analysis requests. Satisfied by the pipeline
// orchestrator.
type Runner interface {
	Run(ctx context.Context, input pipeline.RunInput) (pipeline.RunResult, error)
	AnalyzeSymbol(ctx context.Context, symbol string) (signal.Signal, error)
}

// AnalysisConsumer reads analysis request events and drives the
// pipeline. It is the durable-execution boundary: the broker owns
// delivery and redelivery, the consumer only executes.
type AnalysisConsumer struct {
	batch        *kafka.Consumer
	single       *kafka.Consumer
	orchestrator Runner
	log          *logger.Logger
}

// NewAnalysisConsumer creates consumers for both the batch and
// single-symbol request topics
func NewAnalysisConsumer(brokers []string, groupID string, orchestrator Runner) *AnalysisConsumer {
	return &AnalysisConsumer{
		batch: kafka.NewConsumer(kafka.ConsumerConfig{
			Brokers: brokers,
			GroupID: groupID,
			Topic:   kafka.TopicAnalysisRequested,
		}),
		single: kafka.NewConsumer(kafka.ConsumerConfig{
			Brokers: brokers,
			GroupID: groupID,
			Topic:   kafka.TopicSymbolAnalysisRequested,
		}),
		orchestrator: orchestrator,
		log:          logger.Get().With("component", "analysis_consumer"),
	}
}

// Start launches both consume loops. Blocks until the context is
// cancelled.
func (c *AnalysisConsumer) Start(ctx context.Context) {
	go func() {
		if err := c.batch.Consume(ctx, c.handleBatchRequest); err != nil && ctx.Err() == nil {
			c.log.Errorf("Batch consumer stopped: %v", err)
		}
	}()
	go func() {
		if err := c.single.Consume(ctx, c.handleSymbolRequest); err != nil && ctx.Err() == nil {
			c.log.Errorf("Symbol consumer stopped: %v", err)
		}
	}()

	<-ctx.Done()
}

func (c *AnalysisConsumer) handleBatchRequest(ctx context.Context, msg kafkago.Message) error {
	var evt events.AnalysisRequestedEvent
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		return errors.Wrap(err, "decode analysis request")
	}

	c.log.Infof("Analysis requested: job=%s trigger=%s symbols=%d",
		evt.JobID, evt.TriggerType, len(evt.Symbols))

	res, err := c.orchestrator.Run(ctx, pipeline.RunInput{
		JobID:       evt.JobID,
		Symbols:     evt.Symbols,
		SymbolCount: evt.SymbolCount,
	})
	if err != nil {
		return errors.Wrapf(err, "run analysis for job %s", evt.JobID)
	}

	c.log.Infof("Analysis finished: job=%s signals=%d duration=%dms",
		res.JobID, res.SignalsAnalyzed, res.DurationMs)
	return nil
}

func (c *AnalysisConsumer) handleSymbolRequest(ctx context.Context, msg kafkago.Message) error {
	var evt events.SymbolAnalysisRequestedEvent
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		return errors.Wrap(err, "decode symbol analysis request")
	}

	sig, err := c.orchestrator.AnalyzeSymbol(ctx, evt.Symbol)
	if err != nil {
		return errors.Wrapf(err, "analyze %s", evt.Symbol)
	}

	c.log.Infof("Symbol analysis finished: %s -> %s (%d%%)", sig.Symbol, sig.Direction, sig.Confidence)
	return nil
}

// Close shuts both readers down
func (c *AnalysisConsumer) Close() error {
	err := c.batch.Close()
	if err2 := c.single.Close(); err == nil {
		err = err2
	}
	return err
}
