package scoring

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"selene/internal/domain/signal"
)

// buildPrompt assembles the analysis prompt for one symbol, embedding
// the current metrics and optional historical context
func buildPrompt(symbol string, current signal.SymbolMetrics, history []signal.SymbolMetrics) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are a crypto trading analyst specializing in social data signals. "+
		"Analyze the following social metrics for %s and provide a trading signal.\n\n", symbol)

	b.WriteString("FOCUS ON THESE DIFFERENTIATORS (not sentiment - everyone has that):\n\n")

	fmt.Fprintf(&b, "Current Metrics for %s:\n", symbol)
	fmt.Fprintf(&b, "- Social Mentions: %s posts in 24h\n", humanize.Comma(current.Mentions))
	fmt.Fprintf(&b, "- Total Interactions: %s engagements\n", humanize.Comma(current.Interactions))
	fmt.Fprintf(&b, "- Unique Creators: %s content creators\n", humanize.Comma(current.Creators))
	fmt.Fprintf(&b, "- AltRank: %d (lower = better, proprietary ranking)\n", current.AltRank)
	fmt.Fprintf(&b, "- Galaxy Score: %.0f/100 (ecosystem health indicator)\n", current.GalaxyScore)

	if len(history) > 0 {
		fmt.Fprintf(&b, "\nHistorical Context (last %d data points):\n", len(history))
		for i, h := range history {
			fmt.Fprintf(&b, "%d. mentions: %s, interactions: %s, creators: %s, altRank: %d\n",
				i+1, humanize.Comma(h.Mentions), humanize.Comma(h.Interactions),
				humanize.Comma(h.Creators), h.AltRank)
		}
	}

	b.WriteString(`
ANALYSIS FRAMEWORK:
1. Social Volume Surge: high mentions + interactions = increased attention
2. Creator Diversity: more unique creators = broader interest, less manipulation
3. AltRank Position: lower rank = stronger market + social performance
4. Galaxy Score Health: higher score = better ecosystem health
5. Engagement Quality: interactions per mention ratio (quality vs quantity)

Generate a trading signal with this EXACT format:
SIGNAL: [BUY/SELL/HOLD]
CONFIDENCE: [0-100]
REASONING: [2-3 sentences explaining the decision focusing on the metrics above]

Keep reasoning concise and focus on the social metrics above.`)

	return b.String()
}
