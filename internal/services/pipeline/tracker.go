package pipeline

import (
	"context"
	"math"
	"time"

	"selene/internal/domain/job"
	"selene/internal/events"
	"selene/pkg/logger"
)

// TotalStages is the number of ordered pipeline stages
const TotalStages = 7

// ProgressPercent computes the reported percentage for a stage
func ProgressPercent(stage int) int {
	return int(math.Round(float64(stage) / float64(TotalStages) * 100))
}

// ProgressSink receives progress events for external observers.
// Implemented by events.ProgressPublisher.
type ProgressSink interface {
	Publish(ctx context.Context, evt events.JobProgressEvent) error
}

// Tracker owns the job's mutable progress record. Every update is an
// independent best-effort write: a failure is logged and swallowed,
// never aborting the pipeline. Progress reporting is observability,
// not correctness.
type Tracker struct {
	jobs job.Repository
	sink ProgressSink
	log  *logger.Logger
}

// NewTracker creates a progress tracker. sink may be nil to disable
// pub/sub notifications.
func NewTracker(jobs job.Repository, sink ProgressSink) *Tracker {
	return &Tracker{
		jobs: jobs,
		sink: sink,
		log:  logger.Get().With("component", "progress_tracker"),
	}
}

// Update writes the progress record for one stage transition and
// notifies subscribers. Last write wins.
func (t *Tracker) Update(ctx context.Context, jobID string, stage int, stepName, message string, status job.Status) {
	pct := ProgressPercent(stage)
	now := time.Now().UTC()

	t.log.Debugf("Job %s: stage %d/%d (%d%%) - %s", jobID, stage, TotalStages, pct, stepName)

	upd := job.ProgressUpdate{
		CurrentStep:        stepName,
		StepMessage:        message,
		ProgressPercentage: pct,
		Status:             status,
		UpdatedAt:          now,
	}

	if err := t.jobs.UpdateProgress(ctx, jobID, upd); err != nil {
		t.log.Errorf("Failed to update progress for job %s at stage %d: %v", jobID, stage, err)
	}

	if t.sink == nil {
		return
	}

	evt := events.JobProgressEvent{
		JobID:              jobID,
		CurrentStep:        stepName,
		StepMessage:        message,
		ProgressPercentage: pct,
		Status:             string(status),
		UpdatedAt:          now,
	}
	if err := t.sink.Publish(ctx, evt); err != nil {
		t.log.Warnf("Failed to notify subscribers for job %s: %v", jobID, err)
	}
}
