package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"selene/internal/domain/job"
	"selene/pkg/errors"
)

// Compile-time check
var _ job.Repository = (*JobRepository)(nil)

// JobRepository implements job.Repository using sqlx
type JobRepository struct {
	db *sqlx.DB
}

// NewJobRepository creates a new job repository
func NewJobRepository(db *sqlx.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Insert creates a new analysis job row
func (r *JobRepository) Insert(ctx context.Context, j *job.Job) error {
	query := `
		INSERT INTO analysis_jobs (
			id, status, current_step, step_message, progress_percentage,
			signals_generated, alerts_generated, duration_ms,
			started_at, updated_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.ExecContext(ctx, query,
		j.ID, j.Status, j.CurrentStep, j.StepMessage, j.ProgressPercentage,
		j.SignalsGenerated, j.AlertsGenerated, j.DurationMs,
		j.StartedAt, j.UpdatedAt, j.CompletedAt,
	)

	return err
}

// UpdateProgress updates the progress fields of a job. Last write wins.
func (r *JobRepository) UpdateProgress(ctx context.Context, id string, upd job.ProgressUpdate) error {
	query := `
		UPDATE analysis_jobs
		SET current_step = $2,
		    step_message = $3,
		    progress_percentage = $4,
		    status = $5,
		    updated_at = $6
		WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query,
		id, upd.CurrentStep, upd.StepMessage, upd.ProgressPercentage,
		upd.Status, upd.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.Wrapf(errors.ErrNotFound, "job %s", id)
	}
	return nil
}

// UpdateStats writes the terminal count/duration fields
func (r *JobRepository) UpdateStats(ctx context.Context, id string, stats job.Stats) error {
	query := `
		UPDATE analysis_jobs
		SET signals_generated = $2,
		    alerts_generated = $3,
		    duration_ms = $4,
		    completed_at = $5
		WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query,
		id, stats.SignalsGenerated, stats.AlertsGenerated,
		stats.DurationMs, stats.CompletedAt,
	)

	return err
}

// GetByID retrieves a job by id
func (r *JobRepository) GetByID(ctx context.Context, id string) (*job.Job, error) {
	var j job.Job

	query := `SELECT * FROM analysis_jobs WHERE id = $1`

	err := r.db.GetContext(ctx, &j, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(errors.ErrNotFound, "job %s", id)
	}
	if err != nil {
		return nil, err
	}

	return &j, nil
}

// GetLatest retrieves the most recently started job
func (r *JobRepository) GetLatest(ctx context.Context) (*job.Job, error) {
	var j job.Job

	query := `SELECT * FROM analysis_jobs ORDER BY started_at DESC LIMIT 1`

	err := r.db.GetContext(ctx, &j, query)
	if err == sql.ErrNoRows {
		return nil, errors.Wrap(errors.ErrNotFound, "no jobs")
	}
	if err != nil {
		return nil, err
	}

	return &j, nil
}

// List retrieves the most recently started jobs
func (r *JobRepository) List(ctx context.Context, limit int) ([]job.Job, error) {
	var jobs []job.Job

	query := `SELECT * FROM analysis_jobs ORDER BY started_at DESC LIMIT $1`

	err := r.db.SelectContext(ctx, &jobs, query, limit)
	if err != nil {
		return nil, err
	}

	return jobs, nil
}
