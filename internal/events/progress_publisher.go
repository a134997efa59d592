package events

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"selene/pkg/logger"
)

// ProgressChannel returns the pub/sub channel for one job's progress
func ProgressChannel(jobID string) string {
	return "jobs:progress:" + jobID
}

// ProgressPublisher pushes job progress updates over Redis pub/sub so
// subscribed observers see every transition the job record undergoes.
// Publishing is best-effort observability; failures never propagate.
type ProgressPublisher struct {
	rdb *redis.Client
	log *logger.Logger
}

// NewProgressPublisher creates a progress publisher
func NewProgressPublisher(rdb *redis.Client) *ProgressPublisher {
	return &ProgressPublisher{
		rdb: rdb,
		log: logger.Get().With("component", "progress_publisher"),
	}
}

// Publish sends one progress event to the job's channel
func (p *ProgressPublisher) Publish(ctx context.Context, evt JobProgressEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	if err := p.rdb.Publish(ctx, ProgressChannel(evt.JobID), data).Err(); err != nil {
		p.log.Warnf("Failed to publish progress for job %s: %v", evt.JobID, err)
		return err
	}

	return nil
}

// Subscribe returns a pub/sub subscription for one job's progress
// channel. The caller owns closing it.
func Subscribe(ctx context.Context, rdb *redis.Client, jobID string) *redis.PubSub {
	return rdb.Subscribe(ctx, ProgressChannel(jobID))
}
