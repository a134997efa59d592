package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"selene/internal/adapters/kafka"
	"selene/internal/domain/job"
	"selene/internal/domain/signal"
	"selene/internal/events"
	"selene/pkg/errors"
)

type fakePublisher struct {
	topics  []string
	keys    []string
	payload []interface{}
	err     error
}

func (f *fakePublisher) Publish(_ context.Context, topic, key string, event interface{}) error {
	if f.err != nil {
		return f.err
	}
	f.topics = append(f.topics, topic)
	f.keys = append(f.keys, key)
	f.payload = append(f.payload, event)
	return nil
}

type stubJobRepo struct {
	byID   map[string]*job.Job
	latest *job.Job
	list   []job.Job
}

func (s *stubJobRepo) Insert(_ context.Context, _ *job.Job) error { return nil }
func (s *stubJobRepo) UpdateProgress(_ context.Context, _ string, _ job.ProgressUpdate) error {
	return nil
}
func (s *stubJobRepo) UpdateStats(_ context.Context, _ string, _ job.Stats) error { return nil }

func (s *stubJobRepo) GetByID(_ context.Context, id string) (*job.Job, error) {
	if j, ok := s.byID[id]; ok {
		return j, nil
	}
	return nil, errors.Wrapf(errors.ErrNotFound, "job %s", id)
}

func (s *stubJobRepo) GetLatest(_ context.Context) (*job.Job, error) {
	if s.latest == nil {
		return nil, errors.Wrap(errors.ErrNotFound, "no jobs")
	}
	return s.latest, nil
}

func (s *stubJobRepo) List(_ context.Context, _ int) ([]job.Job, error) { return s.list, nil }

type stubSignalRepo struct {
	signals []signal.Signal
}

func (s *stubSignalRepo) Insert(_ context.Context, _ *signal.Signal) error { return nil }
func (s *stubSignalRepo) ListLatest(_ context.Context, _ int) ([]signal.Signal, error) {
	return s.signals, nil
}
func (s *stubSignalRepo) ListRecentMetricsForSymbol(_ context.Context, _ string, _ int) ([]signal.SymbolMetrics, error) {
	return nil, nil
}

func TestTriggerPublishesEvent(t *testing.T) {
	pub := &fakePublisher{}
	h := NewAnalysisHandler(pub, &stubJobRepo{}, &stubSignalRepo{})

	body := bytes.NewBufferString(`{"symbols":["BTC","ETH"],"symbol_count":2}`)
	req := httptest.NewRequest(http.MethodPost, "/api/trigger", body)
	rec := httptest.NewRecorder()

	h.HandleTrigger(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp triggerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.True(t, strings.HasPrefix(resp.JobID, "job_"))
	assert.NotEmpty(t, resp.EventID)

	require.Len(t, pub.payload, 1)
	assert.Equal(t, kafka.TopicAnalysisRequested, pub.topics[0])
	evt := pub.payload[0].(events.AnalysisRequestedEvent)
	assert.Equal(t, resp.JobID, evt.JobID)
	assert.Equal(t, []string{"BTC", "ETH"}, evt.Symbols)
	assert.Equal(t, 2, evt.SymbolCount)
	assert.Equal(t, "manual", evt.TriggerType)
}

func TestTriggerEmptyBodyUsesDefaults(t *testing.T) {
	pub := &fakePublisher{}
	h := NewAnalysisHandler(pub, &stubJobRepo{}, &stubSignalRepo{})

	req := httptest.NewRequest(http.MethodPost, "/api/trigger", nil)
	rec := httptest.NewRecorder()

	h.HandleTrigger(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, pub.payload, 1)
	evt := pub.payload[0].(events.AnalysisRequestedEvent)
	assert.Empty(t, evt.Symbols)
	assert.Zero(t, evt.SymbolCount)
}

func TestTriggerPublishFailure(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker unreachable")}
	h := NewAnalysisHandler(pub, &stubJobRepo{}, &stubSignalRepo{})

	req := httptest.NewRequest(http.MethodPost, "/api/trigger", nil)
	rec := httptest.NewRecorder()

	h.HandleTrigger(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestTriggerGetDescribesEndpoint(t *testing.T) {
	h := NewAnalysisHandler(&fakePublisher{}, &stubJobRepo{}, &stubSignalRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/trigger", nil)
	rec := httptest.NewRecorder()

	h.HandleTrigger(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "analysis-trigger")
}

func TestSymbolTriggerRequiresSymbol(t *testing.T) {
	h := NewAnalysisHandler(&fakePublisher{}, &stubJobRepo{}, &stubSignalRepo{})

	req := httptest.NewRequest(http.MethodPost, "/api/trigger/symbol", nil)
	rec := httptest.NewRecorder()

	h.HandleSymbolTrigger(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSymbolTriggerPublishes(t *testing.T) {
	pub := &fakePublisher{}
	h := NewAnalysisHandler(pub, &stubJobRepo{}, &stubSignalRepo{})

	req := httptest.NewRequest(http.MethodPost, "/api/trigger/symbol?symbol=SOL", nil)
	rec := httptest.NewRecorder()

	h.HandleSymbolTrigger(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, pub.payload, 1)
	assert.Equal(t, kafka.TopicSymbolAnalysisRequested, pub.topics[0])
	evt := pub.payload[0].(events.SymbolAnalysisRequestedEvent)
	assert.Equal(t, "SOL", evt.Symbol)
}

func TestJobStatusByID(t *testing.T) {
	j := &job.Job{ID: "job_abc", Status: job.StatusStarted, ProgressPercentage: 43, StartedAt: time.Now()}
	h := NewAnalysisHandler(&fakePublisher{}, &stubJobRepo{byID: map[string]*job.Job{"job_abc": j}}, &stubSignalRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/job-status?jobId=job_abc", nil)
	rec := httptest.NewRecorder()

	h.HandleJobStatus(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "job_abc")
	assert.Contains(t, rec.Body.String(), "timestamp")
}

func TestJobStatusLatestFallback(t *testing.T) {
	latest := &job.Job{ID: "job_latest", Status: job.StatusCompleted, ProgressPercentage: 100}
	h := NewAnalysisHandler(&fakePublisher{}, &stubJobRepo{latest: latest}, &stubSignalRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/job-status", nil)
	rec := httptest.NewRecorder()

	h.HandleJobStatus(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "job_latest")
}

func TestJobStatusNotFound(t *testing.T) {
	h := NewAnalysisHandler(&fakePublisher{}, &stubJobRepo{}, &stubSignalRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/job-status?jobId=missing", nil)
	rec := httptest.NewRecorder()

	h.HandleJobStatus(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSignalsListing(t *testing.T) {
	sigs := []signal.Signal{
		signal.New("BTC", signal.DirectionBuy, 85, "momentum", signal.SymbolMetrics{Symbol: "BTC"}, time.Now()),
	}
	jobs := []job.Job{{ID: "job_1", Status: job.StatusCompleted}}
	h := NewAnalysisHandler(&fakePublisher{}, &stubJobRepo{list: jobs}, &stubSignalRepo{signals: sigs})

	req := httptest.NewRequest(http.MethodGet, "/api/signals", nil)
	rec := httptest.NewRecorder()

	h.HandleSignals(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "BTC")
	assert.Contains(t, rec.Body.String(), "job_1")
}
