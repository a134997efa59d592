package scoring

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"selene/internal/domain/signal"
)

// FallbackSignal scores a symbol with deterministic rules when the AI
// call is unavailable. Four boolean indicators are checked; three or
// more positives is a BUY, one or fewer is a SELL, otherwise HOLD.
func FallbackSignal(symbol string, metrics signal.SymbolMetrics, at time.Time) signal.Signal {
	mentions := metrics.Mentions
	if mentions < 1 {
		mentions = 1
	}
	engagementRatio := float64(metrics.Interactions) / float64(mentions)

	indicators := []bool{
		engagementRatio > 100,
		metrics.AltRank < 100,
		metrics.GalaxyScore > 70,
		metrics.Creators > 1000,
	}

	positives := 0
	for _, ok := range indicators {
		if ok {
			positives++
		}
	}

	direction := signal.DirectionHold
	confidence := 50
	reasoning := "Fallback analysis based on social metrics"

	switch {
	case positives >= 3:
		direction = signal.DirectionBuy
		confidence = 60 + positives*10
		reasoning = fmt.Sprintf(
			"Strong social signals: %d/4 indicators positive. High engagement ratio (%.1f), AltRank %d, %s creators.",
			positives, engagementRatio, metrics.AltRank, humanize.Comma(metrics.Creators),
		)
	case positives <= 1:
		direction = signal.DirectionSell
		confidence = 60
		reasoning = fmt.Sprintf(
			"Weak social signals: only %d/4 indicators positive. Low engagement or poor rankings.",
			positives,
		)
	}

	return signal.New(symbol, direction, confidence, reasoning, metrics, at)
}
