package events

import (
	"time"
)

// AnalysisRequestedEvent is the hand-off payload from the trigger
// endpoint to the pipeline host. The job id is generated by the trigger
// and is the sole correlation key for the whole run.
type AnalysisRequestedEvent struct {
	JobID       string    `json:"job_id"`
	Symbols     []string  `json:"symbols,omitempty"`
	SymbolCount int       `json:"symbol_count"`
	TriggerType string    `json:"trigger_type"`
	RequestedAt time.Time `json:"requested_at"`
}

// SymbolAnalysisRequestedEvent requests the single-symbol analysis path
type SymbolAnalysisRequestedEvent struct {
	Symbol      string    `json:"symbol"`
	RequestedAt time.Time `json:"requested_at"`
}

// JobProgressEvent mirrors the job-row progress fields observers
// subscribe to
type JobProgressEvent struct {
	JobID              string    `json:"job_id"`
	CurrentStep        string    `json:"current_step"`
	StepMessage        string    `json:"step_message"`
	ProgressPercentage int       `json:"progress_percentage"`
	Status             string    `json:"status"`
	UpdatedAt          time.Time `json:"updated_at"`
}
