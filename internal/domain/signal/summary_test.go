package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func makeSignal(symbol string, dir Direction, confidence int, altRank int) Signal {
	return New(symbol, dir, confidence, "test", SymbolMetrics{
		Symbol:  symbol,
		AltRank: altRank,
	}, time.Unix(1700000000, 0))
}

func TestSummarize_Empty(t *testing.T) {
	summary := Summarize(nil)

	assert.Equal(t, 0, summary.TotalAnalyzed)
	assert.Equal(t, 0, summary.HighConfidence)
	assert.Empty(t, summary.TopSignals)
	assert.Equal(t, 0, summary.Distribution[DirectionBuy])
	assert.Equal(t, 0, summary.Distribution[DirectionSell])
	assert.Equal(t, 0, summary.Distribution[DirectionHold])
}

func TestSummarize_DistributionAndHighConfidence(t *testing.T) {
	signals := []Signal{
		makeSignal("BTC", DirectionBuy, 85, 1),
		makeSignal("ETH", DirectionBuy, 70, 2),
		makeSignal("SOL", DirectionSell, 60, 40),
		makeSignal("ADA", DirectionHold, 50, 55),
		makeSignal("DOT", DirectionHold, 69, 80),
	}

	summary := Summarize(signals)

	assert.Equal(t, 5, summary.TotalAnalyzed)
	// 85 and 70 meet the threshold, 69 does not
	assert.Equal(t, 2, summary.HighConfidence)
	assert.Equal(t, 2, summary.Distribution[DirectionBuy])
	assert.Equal(t, 1, summary.Distribution[DirectionSell])
	assert.Equal(t, 2, summary.Distribution[DirectionHold])
}

func TestSummarize_TopThreeByConfidence(t *testing.T) {
	signals := []Signal{
		makeSignal("ADA", DirectionHold, 50, 55),
		makeSignal("BTC", DirectionBuy, 85, 1),
		makeSignal("SOL", DirectionSell, 60, 40),
		makeSignal("ETH", DirectionBuy, 70, 2),
	}

	summary := Summarize(signals)

	assert.Len(t, summary.TopSignals, 3)
	assert.Equal(t, "BTC", summary.TopSignals[0].Symbol)
	assert.Equal(t, "ETH", summary.TopSignals[1].Symbol)
	assert.Equal(t, "SOL", summary.TopSignals[2].Symbol)
	assert.Equal(t, 1, summary.TopSignals[0].AltRank)
}

func TestSummarize_TiesKeepProcessingOrder(t *testing.T) {
	signals := []Signal{
		makeSignal("ETH", DirectionBuy, 70, 2),
		makeSignal("BTC", DirectionBuy, 70, 1),
		makeSignal("SOL", DirectionHold, 70, 40),
	}

	summary := Summarize(signals)

	assert.Equal(t, "ETH", summary.TopSignals[0].Symbol)
	assert.Equal(t, "BTC", summary.TopSignals[1].Symbol)
	assert.Equal(t, "SOL", summary.TopSignals[2].Symbol)
}

func TestSummarize_Idempotent(t *testing.T) {
	signals := []Signal{
		makeSignal("BTC", DirectionBuy, 85, 1),
		makeSignal("ETH", DirectionBuy, 70, 2),
		makeSignal("SOL", DirectionSell, 60, 40),
	}

	first := Summarize(signals)
	second := Summarize(signals)

	assert.Equal(t, first, second)
}

func TestClampConfidence(t *testing.T) {
	tests := []struct {
		name     string
		input    int
		expected int
	}{
		{name: "negative clamps to zero", input: -10, expected: 0},
		{name: "zero stays", input: 0, expected: 0},
		{name: "in range stays", input: 73, expected: 73},
		{name: "hundred stays", input: 100, expected: 100},
		{name: "above hundred clamps", input: 150, expected: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClampConfidence(tt.input))
		})
	}
}

func TestParseDirection(t *testing.T) {
	tests := []struct {
		input    string
		expected Direction
	}{
		{input: "BUY", expected: DirectionBuy},
		{input: "buy", expected: DirectionBuy},
		{input: " SELL ", expected: DirectionSell},
		{input: "HOLD", expected: DirectionHold},
		{input: "STRONG BUY", expected: DirectionHold},
		{input: "", expected: DirectionHold},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseDirection(tt.input))
		})
	}
}
