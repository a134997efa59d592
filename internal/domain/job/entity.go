package job

import (
	"time"
)

// Status represents the lifecycle state of an analysis job.
// Transitions are forward-only; completed and failed are terminal.
type Status string

const (
	StatusStarted   Status = "started"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// IsTerminal reports whether the status allows no further transitions
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job tracks one end-to-end pipeline run for a batch of symbols.
// It is created at stage 1, mutated by every stage's progress update,
// and receives its stats fields only at the terminal write.
type Job struct {
	ID                 string     `db:"id" json:"id"`
	Status             Status     `db:"status" json:"status"`
	CurrentStep        string     `db:"current_step" json:"current_step"`
	StepMessage        string     `db:"step_message" json:"step_message"`
	ProgressPercentage int        `db:"progress_percentage" json:"progress_percentage"`
	SignalsGenerated   int        `db:"signals_generated" json:"signals_generated"`
	AlertsGenerated    int        `db:"alerts_generated" json:"alerts_generated"`
	DurationMs         int64      `db:"duration_ms" json:"duration_ms"`
	StartedAt          time.Time  `db:"started_at" json:"started_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
	CompletedAt        *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}

// ProgressUpdate carries the mutable progress fields written on every
// stage transition. Last write wins.
type ProgressUpdate struct {
	CurrentStep        string
	StepMessage        string
	ProgressPercentage int
	Status             Status
	UpdatedAt          time.Time
}

// Stats carries the fields finalized only at the terminal transition
type Stats struct {
	SignalsGenerated int
	AlertsGenerated  int
	DurationMs       int64
	CompletedAt      time.Time
}
