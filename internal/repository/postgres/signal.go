package postgres

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"selene/internal/domain/signal"
)

// Compile-time check
var _ signal.Repository = (*SignalRepository)(nil)

// SignalRepository implements signal.Repository using sqlx
type SignalRepository struct {
	db *sqlx.DB
}

// NewSignalRepository creates a new signal repository
func NewSignalRepository(db *sqlx.DB) *SignalRepository {
	return &SignalRepository{db: db}
}

// Insert persists one trading signal
func (r *SignalRepository) Insert(ctx context.Context, s *signal.Signal) error {
	query := `
		INSERT INTO trading_signals (
			id, symbol, direction, confidence, reasoning, metrics, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.Symbol, s.Direction, s.Confidence, s.Reasoning, s.Metrics, s.CreatedAt,
	)

	return err
}

// ListLatest retrieves the most recently created signals
func (r *SignalRepository) ListLatest(ctx context.Context, limit int) ([]signal.Signal, error) {
	var signals []signal.Signal

	query := `SELECT * FROM trading_signals ORDER BY created_at DESC LIMIT $1`

	err := r.db.SelectContext(ctx, &signals, query, limit)
	if err != nil {
		return nil, err
	}

	return signals, nil
}

// ListRecentMetricsForSymbol retrieves embedded metrics from the most
// recent signals for a symbol, newest first
func (r *SignalRepository) ListRecentMetricsForSymbol(ctx context.Context, symbol string, limit int) ([]signal.SymbolMetrics, error) {
	var rows []struct {
		Metrics signal.SymbolMetrics `db:"metrics"`
	}

	query := `
		SELECT metrics FROM trading_signals
		WHERE symbol = $1
		ORDER BY created_at DESC
		LIMIT $2`

	err := r.db.SelectContext(ctx, &rows, query, strings.ToUpper(symbol), limit)
	if err != nil {
		return nil, err
	}

	metrics := make([]signal.SymbolMetrics, 0, len(rows))
	for _, row := range rows {
		metrics = append(metrics, row.Metrics)
	}

	return metrics, nil
}
