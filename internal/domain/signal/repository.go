package signal

import (
	"context"
)

// Repository defines persistence operations for trading signals
type Repository interface {
	// Insert persists one signal row
	Insert(ctx context.Context, s *Signal) error

	// ListLatest retrieves the most recently created signals
	ListLatest(ctx context.Context, limit int) ([]Signal, error)

	// ListRecentMetricsForSymbol retrieves the metrics embedded in the
	// most recent signals for a symbol, newest first. Used as historical
	// context for scoring.
	ListRecentMetricsForSymbol(ctx context.Context, symbol string, limit int) ([]SymbolMetrics, error)
}
