package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"selene/internal/domain/job"
	"selene/internal/events"
	"selene/internal/metrics"
	"selene/pkg/errors"
	"selene/pkg/logger"
)

// ProgressSocketHandler streams job progress over WebSocket. Each
// connection subscribes to the job's Redis pub/sub channel; the persisted
// job row is sent first so late subscribers start from the current state.
type ProgressSocketHandler struct {
	rdb      *redis.Client
	jobs     job.Repository
	upgrader websocket.Upgrader
	log      *logger.Logger
}

// NewProgressSocketHandler creates the WebSocket progress handler
func NewProgressSocketHandler(rdb *redis.Client, jobs job.Repository) *ProgressSocketHandler {
	return &ProgressSocketHandler{
		rdb:  rdb,
		jobs: jobs,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Dashboard origin enforcement happens at the ingress
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log: logger.Get().With("component", "progress_ws"),
	}
}

// progressFrame is the wire shape pushed to subscribers
type progressFrame struct {
	JobID              string `json:"jobId"`
	CurrentStep        string `json:"currentStep"`
	StepMessage        string `json:"stepMessage"`
	ProgressPercentage int    `json:"progressPercentage"`
	Status             string `json:"status"`
	IsLoading          bool   `json:"isLoading"`
	IsComplete         bool   `json:"isComplete"`
	Error              string `json:"error,omitempty"`
}

func frameFromJob(j *job.Job) progressFrame {
	f := progressFrame{
		JobID:              j.ID,
		CurrentStep:        j.CurrentStep,
		StepMessage:        j.StepMessage,
		ProgressPercentage: j.ProgressPercentage,
		Status:             string(j.Status),
		IsLoading:          !j.Status.IsTerminal(),
		IsComplete:         j.Status == job.StatusCompleted,
	}
	if j.Status == job.StatusFailed {
		f.Error = j.StepMessage
	}
	return f
}

func frameFromEvent(evt events.JobProgressEvent) progressFrame {
	status := job.Status(evt.Status)
	f := progressFrame{
		JobID:              evt.JobID,
		CurrentStep:        evt.CurrentStep,
		StepMessage:        evt.StepMessage,
		ProgressPercentage: evt.ProgressPercentage,
		Status:             evt.Status,
		IsLoading:          !status.IsTerminal(),
		IsComplete:         status == job.StatusCompleted,
	}
	if status == job.StatusFailed {
		f.Error = evt.StepMessage
	}
	return f
}

// ServeHTTP upgrades the connection and streams progress frames until
// the job reaches a terminal state or the client disconnects.
// GET /ws/jobs?jobId=...
func (h *ProgressSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	jobID := r.URL.Query().Get("jobId")
	if jobID == "" {
		http.Error(w, "jobId is required", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Errorf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	metrics.WebSocketConnections.Inc()
	defer metrics.WebSocketConnections.Dec()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Drain client frames so close/ping control messages are processed
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	sub := events.Subscribe(ctx, h.rdb, jobID)
	defer sub.Close()

	// Initial snapshot from the job row. The row may not exist yet when
	// the client connects between trigger and stage 1.
	if j, err := h.jobs.GetByID(ctx, jobID); err == nil {
		if werr := h.writeFrame(conn, frameFromJob(j)); werr != nil {
			return
		}
		if j.Status.IsTerminal() {
			return
		}
	} else if !errors.Is(err, errors.ErrNotFound) {
		h.log.Warnf("Failed to load job %s for snapshot: %v", jobID, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}

			var evt events.JobProgressEvent
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				h.log.Warnf("Malformed progress payload for job %s: %v", jobID, err)
				continue
			}

			frame := frameFromEvent(evt)
			if err := h.writeFrame(conn, frame); err != nil {
				return
			}
			if !frame.IsLoading {
				return
			}
		}
	}
}

func (h *ProgressSocketHandler) writeFrame(conn *websocket.Conn, frame progressFrame) error {
	conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return conn.WriteJSON(frame)
}
