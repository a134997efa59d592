package job

import (
	"context"
)

// Repository defines persistence operations for analysis jobs
type Repository interface {
	// Insert creates the job row. Called exactly once, at stage 1.
	Insert(ctx context.Context, j *Job) error

	// UpdateProgress performs a best-effort update of the progress
	// fields for the job matched by id
	UpdateProgress(ctx context.Context, id string, upd ProgressUpdate) error

	// UpdateStats writes the terminal count/duration fields
	UpdateStats(ctx context.Context, id string, stats Stats) error

	// GetByID retrieves one job by id
	GetByID(ctx context.Context, id string) (*Job, error)

	// GetLatest retrieves the most recently started job
	GetLatest(ctx context.Context) (*Job, error)

	// List retrieves the most recently started jobs
	List(ctx context.Context, limit int) ([]Job, error)
}
