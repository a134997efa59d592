package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"selene/internal/adapters/kafka"
	"selene/internal/domain/job"
	"selene/internal/domain/signal"
	"selene/internal/events"
	"selene/pkg/errors"
	"selene/pkg/logger"
)

// EventPublisher sends analysis request events to the execution host.
// Satisfied by the Kafka producer.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, key string, event interface{}) error
}

// AnalysisHandler exposes the trigger and read endpoints for the
// analysis pipeline. Triggering is fire-and-forget: the endpoint
// publishes an event and returns immediately, execution happens in the
// consumer.
type AnalysisHandler struct {
	producer EventPublisher
	jobs     job.Repository
	signals  signal.Repository
	log      *logger.Logger
}

// NewAnalysisHandler creates the analysis API handler
func NewAnalysisHandler(producer EventPublisher, jobs job.Repository, signals signal.Repository) *AnalysisHandler {
	return &AnalysisHandler{
		producer: producer,
		jobs:     jobs,
		signals:  signals,
		log:      logger.Get().With("component", "analysis_api"),
	}
}

type triggerRequest struct {
	Symbols     []string `json:"symbols,omitempty"`
	SymbolCount int      `json:"symbol_count,omitempty"`
	TriggerType string   `json:"trigger_type,omitempty"`
}

type triggerResponse struct {
	Success bool   `json:"success"`
	JobID   string `json:"jobId"`
	EventID string `json:"eventId"`
	Message string `json:"message"`
}

// HandleTrigger starts a new analysis run.
// POST publishes the request event; GET describes the endpoint.
func (h *AnalysisHandler) HandleTrigger(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"service":     "analysis-trigger",
			"description": "POST to start a social-signal analysis run",
			"methods":     []string{"GET", "POST"},
		})
	case http.MethodPost:
		h.trigger(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *AnalysisHandler) trigger(w http.ResponseWriter, r *http.Request) {
	var req triggerRequest
	if r.Body != nil {
		// Empty body is a valid trigger with defaults
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, errors.Wrap(errors.ErrInvalidInput, "invalid JSON body"))
			return
		}
	}

	triggerType := req.TriggerType
	if triggerType == "" {
		triggerType = "manual"
	}

	jobID := fmt.Sprintf("job_%s", uuid.New().String())
	evt := events.AnalysisRequestedEvent{
		JobID:       jobID,
		Symbols:     req.Symbols,
		SymbolCount: req.SymbolCount,
		TriggerType: triggerType,
		RequestedAt: time.Now().UTC(),
	}

	if err := h.producer.Publish(r.Context(), kafka.TopicAnalysisRequested, jobID, evt); err != nil {
		h.log.Errorf("Failed to publish analysis request: %v", err)
		writeError(w, http.StatusServiceUnavailable, errors.Wrap(err, "queue analysis request"))
		return
	}

	h.log.Infof("Analysis triggered: job=%s trigger=%s", jobID, triggerType)

	writeJSON(w, http.StatusAccepted, triggerResponse{
		Success: true,
		JobID:   jobID,
		EventID: uuid.New().String(),
		Message: "Analysis queued",
	})
}

// HandleSymbolTrigger queues a single-symbol analysis.
// POST /api/trigger/symbol?symbol=BTC
func (h *AnalysisHandler) HandleSymbolTrigger(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		writeError(w, http.StatusBadRequest, errors.Wrap(errors.ErrInvalidInput, "symbol is required"))
		return
	}

	evt := events.SymbolAnalysisRequestedEvent{
		Symbol:      symbol,
		RequestedAt: time.Now().UTC(),
	}

	if err := h.producer.Publish(r.Context(), kafka.TopicSymbolAnalysisRequested, symbol, evt); err != nil {
		h.log.Errorf("Failed to publish symbol analysis request: %v", err)
		writeError(w, http.StatusServiceUnavailable, errors.Wrap(err, "queue symbol analysis"))
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"success": true,
		"symbol":  symbol,
	})
}

// HandleJobStatus reports one job's progress record.
// GET /api/job-status?jobId=...; without jobId returns the latest job.
func (h *AnalysisHandler) HandleJobStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var (
		j   *job.Job
		err error
	)

	if jobID := r.URL.Query().Get("jobId"); jobID != "" {
		j, err = h.jobs.GetByID(r.Context(), jobID)
	} else {
		j, err = h.jobs.GetLatest(r.Context())
	}

	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		h.log.Errorf("Failed to load job status: %v", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"job":       j,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleSignals returns the most recent signals and jobs.
// GET /api/signals
func (h *AnalysisHandler) HandleSignals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sigs, err := h.signals.ListLatest(r.Context(), 20)
	if err != nil {
		h.log.Errorf("Failed to list signals: %v", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	jobs, err := h.jobs.List(r.Context(), 10)
	if err != nil {
		h.log.Errorf("Failed to list jobs: %v", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"signals":   sigs,
		"jobs":      jobs,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   err.Error(),
	})
}
