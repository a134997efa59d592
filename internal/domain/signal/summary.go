package signal

import (
	"sort"
)

// HighConfidenceThreshold marks signals worth alerting on
const HighConfidenceThreshold = 70

// TopSignal is a condensed view of a high-ranking signal
type TopSignal struct {
	Symbol     string    `json:"symbol"`
	Direction  Direction `json:"direction"`
	Confidence int       `json:"confidence"`
	AltRank    int       `json:"alt_rank"`
}

// RunSummary aggregates the signals produced during one pipeline run.
// Derived, never persisted as its own entity.
type RunSummary struct {
	TotalAnalyzed  int               `json:"total_analyzed"`
	HighConfidence int               `json:"high_confidence"`
	Distribution   map[Direction]int `json:"distribution"`
	TopSignals     []TopSignal       `json:"top_signals"`
}

// Summarize computes a RunSummary from the in-memory signal list.
// Pure function of its input: the same list always yields the same
// summary. Top signals are ordered by confidence descending, ties kept
// in original processing order.
func Summarize(signals []Signal) RunSummary {
	summary := RunSummary{
		TotalAnalyzed: len(signals),
		Distribution: map[Direction]int{
			DirectionBuy:  0,
			DirectionSell: 0,
			DirectionHold: 0,
		},
	}

	for _, s := range signals {
		summary.Distribution[s.Direction]++
		if s.Confidence >= HighConfidenceThreshold {
			summary.HighConfidence++
		}
	}

	ranked := make([]Signal, len(signals))
	copy(ranked, signals)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Confidence > ranked[j].Confidence
	})

	top := len(ranked)
	if top > 3 {
		top = 3
	}
	summary.TopSignals = make([]TopSignal, 0, top)
	for _, s := range ranked[:top] {
		summary.TopSignals = append(summary.TopSignals, TopSignal{
			Symbol:     s.Symbol,
			Direction:  s.Direction,
			Confidence: s.Confidence,
			AltRank:    s.Metrics.AltRank,
		})
	}

	return summary
}
