package signal

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"selene/pkg/errors"
)

// Direction is the produced trading recommendation
type Direction string

const (
	DirectionBuy  Direction = "BUY"
	DirectionSell Direction = "SELL"
	DirectionHold Direction = "HOLD"
)

// ParseDirection maps free text to a Direction, defaulting to HOLD for
// anything unrecognized. A signal is never produced without a direction.
func ParseDirection(s string) Direction {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY":
		return DirectionBuy
	case "SELL":
		return DirectionSell
	default:
		return DirectionHold
	}
}

// AltRankUnknown is the sentinel rank when the ranked-list lookup has no
// entry for a symbol. Lower ranks are better, so unknown sorts last.
const AltRankUnknown = 999

// SymbolMetrics holds normalized per-symbol social metrics for one fetch.
// Ephemeral: owned by the run, persisted only embedded in a Signal.
type SymbolMetrics struct {
	Symbol       string    `json:"symbol"`
	Mentions     int64     `json:"mentions"`
	Interactions int64     `json:"interactions"`
	Creators     int64     `json:"creators"`
	AltRank      int       `json:"alt_rank"`
	GalaxyScore  float64   `json:"galaxy_score"`
	FetchedAt    time.Time `json:"fetched_at"`
}

// Value implements driver.Valuer so metrics persist as a JSONB column
func (m SymbolMetrics) Value() (driver.Value, error) {
	return json.Marshal(m)
}

// Scan implements sql.Scanner for reading the JSONB column back
func (m *SymbolMetrics) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	case nil:
		return nil
	default:
		return errors.Newf("cannot scan %T into SymbolMetrics", src)
	}
}

// Signal is an AI-generated trading recommendation for one symbol.
// Immutable once created; persists independently of job finalization.
type Signal struct {
	ID         string        `db:"id" json:"id"`
	Symbol     string        `db:"symbol" json:"symbol"`
	Direction  Direction     `db:"direction" json:"direction"`
	Confidence int           `db:"confidence" json:"confidence"`
	Reasoning  string        `db:"reasoning" json:"reasoning"`
	Metrics    SymbolMetrics `db:"metrics" json:"metrics"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
}

// New builds a Signal with a derived id and clamped confidence
func New(symbol string, direction Direction, confidence int, reasoning string, metrics SymbolMetrics, at time.Time) Signal {
	return Signal{
		ID:         fmt.Sprintf("%s-%d", strings.ToUpper(symbol), at.UnixMilli()),
		Symbol:     strings.ToUpper(symbol),
		Direction:  direction,
		Confidence: ClampConfidence(confidence),
		Reasoning:  reasoning,
		Metrics:    metrics,
		CreatedAt:  at,
	}
}

// ClampConfidence forces a confidence value into [0,100]
func ClampConfidence(c int) int {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}
