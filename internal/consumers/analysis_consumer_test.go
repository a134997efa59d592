package consumers

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"selene/internal/domain/signal"
	"selene/internal/events"
	"selene/internal/services/pipeline"
	"selene/pkg/errors"
)

type fakeRunner struct {
	runInputs []pipeline.RunInput
	runErr    error
	symbols   []string
	symbolErr error
}

func (f *fakeRunner) Run(_ context.Context, input pipeline.RunInput) (pipeline.RunResult, error) {
	f.runInputs = append(f.runInputs, input)
	if f.runErr != nil {
		return pipeline.RunResult{}, f.runErr
	}
	return pipeline.RunResult{Success: true, JobID: input.JobID, SignalsAnalyzed: 3}, nil
}

func (f *fakeRunner) AnalyzeSymbol(_ context.Context, symbol string) (signal.Signal, error) {
	f.symbols = append(f.symbols, symbol)
	if f.symbolErr != nil {
		return signal.Signal{}, f.symbolErr
	}
	return signal.New(symbol, signal.DirectionHold, 50, "neutral", signal.SymbolMetrics{}, time.Now()), nil
}

func newTestConsumer(runner Runner) *AnalysisConsumer {
	return NewAnalysisConsumer([]string{"localhost:9092"}, "test-group", runner)
}

func messageWith(t *testing.T, event interface{}) kafkago.Message {
	t.Helper()
	data, err := json.Marshal(event)
	require.NoError(t, err)
	return kafkago.Message{Value: data}
}

func TestHandleBatchRequest(t *testing.T) {
	runner := &fakeRunner{}
	c := newTestConsumer(runner)

	evt := events.AnalysisRequestedEvent{
		JobID:       "job_abc",
		Symbols:     []string{"BTC", "ETH"},
		SymbolCount: 2,
		TriggerType: "manual",
		RequestedAt: time.Now(),
	}

	err := c.handleBatchRequest(context.Background(), messageWith(t, evt))

	require.NoError(t, err)
	require.Len(t, runner.runInputs, 1)
	assert.Equal(t, "job_abc", runner.runInputs[0].JobID)
	assert.Equal(t, []string{"BTC", "ETH"}, runner.runInputs[0].Symbols)
	assert.Equal(t, 2, runner.runInputs[0].SymbolCount)
}

func TestHandleBatchRequestMalformedPayload(t *testing.T) {
	runner := &fakeRunner{}
	c := newTestConsumer(runner)

	err := c.handleBatchRequest(context.Background(), kafkago.Message{Value: []byte("not json")})

	require.Error(t, err)
	assert.Empty(t, runner.runInputs)
}

func TestHandleBatchRequestRunError(t *testing.T) {
	runner := &fakeRunner{runErr: errors.Wrap(errors.ErrNoJobID, "pipeline run")}
	c := newTestConsumer(runner)

	err := c.handleBatchRequest(context.Background(), messageWith(t, events.AnalysisRequestedEvent{}))

	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrNoJobID)
}

func TestHandleSymbolRequest(t *testing.T) {
	runner := &fakeRunner{}
	c := newTestConsumer(runner)

	evt := events.SymbolAnalysisRequestedEvent{Symbol: "SOL", RequestedAt: time.Now()}

	err := c.handleSymbolRequest(context.Background(), messageWith(t, evt))

	require.NoError(t, err)
	assert.Equal(t, []string{"SOL"}, runner.symbols)
}

func TestHandleSymbolRequestError(t *testing.T) {
	runner := &fakeRunner{symbolErr: errors.ErrNoMetrics}
	c := newTestConsumer(runner)

	err := c.handleSymbolRequest(context.Background(), messageWith(t, events.SymbolAnalysisRequestedEvent{Symbol: "XRP"}))

	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrNoMetrics)
}
