package scoring

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"selene/internal/domain/signal"
	appmetrics "selene/internal/metrics"
	"selene/pkg/logger"
)

// Generator produces free-text completions from a prompt.
// Implemented by GeminiGenerator; stubbed in tests.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Scorer converts social metrics into a trading signal via an AI call,
// with a deterministic rule-based fallback when the call fails.
type Scorer struct {
	generator Generator
	log       *logger.Logger
}

// NewScorer creates a scorer backed by the given generator
func NewScorer(generator Generator) *Scorer {
	return &Scorer{
		generator: generator,
		log:       logger.Get().With("component", "scorer"),
	}
}

// Score produces a signal for one symbol. Any failure of the external
// call, including a malformed response, falls back to deterministic
// rule-based scoring; the returned signal always carries a direction
// and a clamped confidence.
func (s *Scorer) Score(ctx context.Context, symbol string, metrics signal.SymbolMetrics, history []signal.SymbolMetrics) (signal.Signal, error) {
	prompt := buildPrompt(symbol, metrics, history)

	response, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		s.log.Warnf("AI call failed for %s, using fallback scoring: %v", symbol, err)
		appmetrics.AIGenerations.WithLabelValues("fallback").Inc()
		return FallbackSignal(symbol, metrics, time.Now().UTC()), nil
	}

	appmetrics.AIGenerations.WithLabelValues("success").Inc()
	return parseResponse(response, symbol, metrics, time.Now().UTC()), nil
}

var (
	signalRe     = regexp.MustCompile(`(?i)SIGNAL:\s*(BUY|SELL|HOLD)`)
	confidenceRe = regexp.MustCompile(`(?i)CONFIDENCE:\s*(\d+)`)
	reasoningRe  = regexp.MustCompile(`(?is)REASONING:\s*(.+?)(?:\n\n|$)`)
)

const defaultReasoning = "Analysis based on social metrics"

// parseResponse extracts the three-field response format. Missing or
// unparsable fields map to documented defaults, never to an unset state.
func parseResponse(response, symbol string, metrics signal.SymbolMetrics, at time.Time) signal.Signal {
	direction := signal.DirectionHold
	if m := signalRe.FindStringSubmatch(response); m != nil {
		direction = signal.ParseDirection(m[1])
	}

	confidence := 50
	if m := confidenceRe.FindStringSubmatch(response); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			confidence = v
		}
	}

	reasoning := defaultReasoning
	if m := reasoningRe.FindStringSubmatch(response); m != nil {
		if trimmed := strings.TrimSpace(m[1]); trimmed != "" {
			reasoning = trimmed
		}
	}

	return signal.New(symbol, direction, confidence, reasoning, metrics, at)
}
