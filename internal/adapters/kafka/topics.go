package kafka

// Topic definitions for analysis event streaming
const (
	// TopicAnalysisRequested carries batch analysis trigger events
	TopicAnalysisRequested = "analysis.requested"

	// TopicSymbolAnalysisRequested carries single-symbol analysis requests
	TopicSymbolAnalysisRequested = "analysis.symbol.requested"
)
