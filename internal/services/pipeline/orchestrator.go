package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"selene/internal/domain/job"
	"selene/internal/domain/signal"
	"selene/internal/metrics"
	"selene/pkg/errors"
	"selene/pkg/logger"
)

// stage identifies one of the seven ordered pipeline stages
type stage int

const (
	stageInitialize stage = iota + 1
	stageResolveSymbols
	stageFetchMetrics
	stageScoreSignals
	stagePersistSignals
	stageSummarize
	stageFinalize
)

func (s stage) String() string {
	switch s {
	case stageInitialize:
		return "initialize"
	case stageResolveSymbols:
		return "resolve_symbols"
	case stageFetchMetrics:
		return "fetch_metrics"
	case stageScoreSignals:
		return "score_signals"
	case stagePersistSignals:
		return "persist_signals"
	case stageSummarize:
		return "summarize"
	case stageFinalize:
		return "finalize"
	default:
		return "unknown"
	}
}

// MetricsFetcher retrieves social metrics for one symbol
type MetricsFetcher interface {
	Fetch(ctx context.Context, symbol string) (signal.SymbolMetrics, error)
}

// Scorer converts metrics into a trading signal
type Scorer interface {
	Score(ctx context.Context, symbol string, metrics signal.SymbolMetrics, history []signal.SymbolMetrics) (signal.Signal, error)
}

// Config carries pipeline tunables
type Config struct {
	DefaultSymbols []string
	SymbolCount    int
	// FetchPace is the fixed delay after every fetch attempt
	FetchPace time.Duration
	// ScorePace is the fixed delay after every scoring attempt
	ScorePace time.Duration
	// HistoryDepth is how many historical metrics rows feed the
	// single-symbol scoring prompt
	HistoryDepth int
}

// RunInput is the caller-supplied request for one pipeline run
type RunInput struct {
	JobID       string
	Symbols     []string
	SymbolCount int
}

// RunResult is returned to the execution host when a run finishes
type RunResult struct {
	Success         bool              `json:"success"`
	JobID           string            `json:"job_id"`
	DurationMs      int64             `json:"duration_ms"`
	SignalsAnalyzed int               `json:"signals_analyzed"`
	Summary         signal.RunSummary `json:"summary"`
}

// fetchResult records one symbol's fetch attempt. Failed attempts stay
// in the list so the success ratio is reportable; only successful ones
// flow downstream.
type fetchResult struct {
	Symbol  string
	Metrics signal.SymbolMetrics
	Success bool
}

// runState carries the accumulating state through the stage loop
type runState struct {
	input     RunInput
	startedAt time.Time
	symbols   []string
	fetches   []fetchResult
	signals   []signal.Signal
	summary   signal.RunSummary
}

// Orchestrator drives the seven-stage analysis pipeline. A run is
// single-threaded: stages execute strictly in order and per-symbol
// loops are sequential so pacing delays hold as a rate-limit control.
// The orchestrator never retries; whole-run retry belongs to the
// external execution host.
type Orchestrator struct {
	cfg     Config
	fetcher MetricsFetcher
	scorer  Scorer
	jobs    job.Repository
	signals signal.Repository
	tracker *Tracker
	log     *logger.Logger
}

// NewOrchestrator creates a pipeline orchestrator
func NewOrchestrator(
	cfg Config,
	fetcher MetricsFetcher,
	scorer Scorer,
	jobs job.Repository,
	signals signal.Repository,
	tracker *Tracker,
) *Orchestrator {
	return &Orchestrator{
		cfg:     cfg,
		fetcher: fetcher,
		scorer:  scorer,
		jobs:    jobs,
		signals: signals,
		tracker: tracker,
		log:     logger.Get().With("component", "pipeline"),
	}
}

// Run executes one full pipeline run. The job id is the sole
// correlation key between the run and external observers; its absence
// is fatal and unretried.
func (o *Orchestrator) Run(ctx context.Context, input RunInput) (RunResult, error) {
	if input.JobID == "" {
		return RunResult{}, errors.Wrap(errors.ErrNoJobID, "pipeline run")
	}

	log := o.log.With("job_id", input.JobID)
	log.Info("Starting signal analysis pipeline")

	st := &runState{
		input:     input,
		startedAt: time.Now(),
	}

	for s := stageInitialize; s <= stageFinalize; s++ {
		log.Debugf("Entering stage %d (%s)", s, s)
		if err := o.runStage(ctx, s, st); err != nil {
			metrics.PipelineRuns.WithLabelValues("error").Inc()
			return RunResult{JobID: input.JobID}, errors.Wrapf(err, "stage %d (%s)", s, s)
		}
		log.Debugf("Completed stage %d (%s)", s, s)
	}

	duration := time.Since(st.startedAt)
	log.Infof("Pipeline completed: %d signals in %.1fs", len(st.signals), duration.Seconds())

	metrics.PipelineRuns.WithLabelValues("success").Inc()
	metrics.PipelineDuration.Observe(duration.Seconds())

	return RunResult{
		Success:         true,
		JobID:           input.JobID,
		DurationMs:      duration.Milliseconds(),
		SignalsAnalyzed: len(st.signals),
		Summary:         st.summary,
	}, nil
}

// runStage dispatches one stage of the state machine. Only stage 1 can
// fail the run: every later stage isolates per-item failures.
func (o *Orchestrator) runStage(ctx context.Context, s stage, st *runState) error {
	switch s {
	case stageInitialize:
		return o.initialize(ctx, st)
	case stageResolveSymbols:
		o.resolveSymbols(ctx, st)
	case stageFetchMetrics:
		o.fetchMetrics(ctx, st)
	case stageScoreSignals:
		o.scoreSignals(ctx, st)
	case stagePersistSignals:
		o.persistSignals(ctx, st)
	case stageSummarize:
		o.summarize(ctx, st)
	case stageFinalize:
		o.finalize(ctx, st)
	}
	return nil
}

// initialize creates the job row in started status. Failure here is
// fatal: without a job record there is nothing to report progress into.
func (o *Orchestrator) initialize(ctx context.Context, st *runState) error {
	now := time.Now().UTC()
	j := &job.Job{
		ID:                 st.input.JobID,
		Status:             job.StatusStarted,
		CurrentStep:        "Initializing Analysis",
		StepMessage:        "Setting up trading analysis pipeline...",
		ProgressPercentage: ProgressPercent(int(stageInitialize)),
		StartedAt:          now,
		UpdatedAt:          now,
	}

	if err := o.jobs.Insert(ctx, j); err != nil {
		return errors.Wrap(err, "create job record")
	}

	return nil
}

// resolveSymbols selects and truncates the symbol batch. Pure
// computation; cannot fail.
func (o *Orchestrator) resolveSymbols(ctx context.Context, st *runState) {
	o.tracker.Update(ctx, st.input.JobID, int(stageResolveSymbols),
		"Preparing Symbol List", "Selecting cryptocurrencies for analysis...",
		job.StatusStarted)

	symbols := st.input.Symbols
	if len(symbols) == 0 {
		symbols = o.cfg.DefaultSymbols
	}

	count := st.input.SymbolCount
	if count <= 0 {
		count = o.cfg.SymbolCount
	}
	// Truncate only, never extend
	if count < len(symbols) {
		symbols = symbols[:count]
	}

	st.symbols = make([]string, len(symbols))
	for i, sym := range symbols {
		st.symbols[i] = strings.ToUpper(strings.TrimSpace(sym))
	}

	o.tracker.Update(ctx, st.input.JobID, int(stageResolveSymbols),
		"Symbol Selection Complete",
		fmt.Sprintf("Selected %d cryptocurrencies: %s", len(st.symbols), strings.Join(st.symbols, ", ")),
		job.StatusStarted)
}

// fetchMetrics retrieves social metrics for each symbol sequentially.
// Each attempt is isolated: a failure is recorded and the loop
// continues. The pacing delay applies after every attempt, success or
// failure.
func (o *Orchestrator) fetchMetrics(ctx context.Context, st *runState) {
	jobID := st.input.JobID
	total := len(st.symbols)

	o.tracker.Update(ctx, jobID, int(stageFetchMetrics),
		"Fetching Social Data",
		fmt.Sprintf("Gathering real-time social metrics for %d symbols...", total),
		job.StatusStarted)

	st.fetches = make([]fetchResult, 0, total)

	for i, sym := range st.symbols {
		o.tracker.Update(ctx, jobID, int(stageFetchMetrics),
			"Fetching Social Data",
			fmt.Sprintf("Analyzing social metrics for %s (%d/%d)...", sym, i+1, total),
			job.StatusStarted)

		m, err := o.fetcher.Fetch(ctx, sym)
		if err != nil {
			o.log.Errorf("Failed to fetch metrics for %s: %v", sym, err)
			metrics.SymbolFailures.WithLabelValues("fetch").Inc()
			st.fetches = append(st.fetches, fetchResult{Symbol: sym, Success: false})
		} else {
			o.log.Infof("%s: %s mentions, %s creators, AltRank %d",
				sym, humanize.Comma(m.Mentions), humanize.Comma(m.Creators), m.AltRank)
			st.fetches = append(st.fetches, fetchResult{Symbol: sym, Metrics: m, Success: true})
		}

		o.pace(ctx, o.cfg.FetchPace)
	}

	successCount := 0
	for _, r := range st.fetches {
		if r.Success {
			successCount++
		}
	}

	o.tracker.Update(ctx, jobID, int(stageFetchMetrics),
		"Social Data Complete",
		fmt.Sprintf("Fetched data for %d/%d cryptocurrencies", successCount, total),
		job.StatusStarted)
}

// scoreSignals runs the AI scoring over the successful fetches, in
// order. Isolation policy matches fetchMetrics: a failing symbol is
// skipped, never fatal. The larger scoring pace applies after every
// attempt.
func (o *Orchestrator) scoreSignals(ctx context.Context, st *runState) {
	jobID := st.input.JobID

	o.tracker.Update(ctx, jobID, int(stageScoreSignals),
		"AI Signal Generation",
		"AI model analyzing market sentiment and social patterns...",
		job.StatusStarted)

	successes := make([]fetchResult, 0, len(st.fetches))
	for _, r := range st.fetches {
		if r.Success {
			successes = append(successes, r)
		}
	}

	for i, r := range successes {
		o.tracker.Update(ctx, jobID, int(stageScoreSignals),
			"AI Signal Generation",
			fmt.Sprintf("AI analyzing %s (%d/%d)...", r.Symbol, i+1, len(successes)),
			job.StatusStarted)

		sig, err := o.scorer.Score(ctx, r.Symbol, r.Metrics, nil)
		if err != nil {
			o.log.Errorf("AI analysis failed for %s: %v", r.Symbol, err)
			metrics.SymbolFailures.WithLabelValues("score").Inc()
		} else {
			o.log.Infof("%s: %s signal, %d%% confidence", r.Symbol, sig.Direction, sig.Confidence)
			metrics.SignalsGenerated.WithLabelValues(string(sig.Direction)).Inc()
			st.signals = append(st.signals, sig)
		}

		o.pace(ctx, o.cfg.ScorePace)
	}

	o.tracker.Update(ctx, jobID, int(stageScoreSignals),
		"AI Analysis Complete",
		fmt.Sprintf("Generated %d trading signals with confidence scores", len(st.signals)),
		job.StatusStarted)
}

// persistSignals inserts each produced signal. A store failure for one
// row is logged and the stage continues; signals persist independently
// of each other and of job finalization.
func (o *Orchestrator) persistSignals(ctx context.Context, st *runState) {
	jobID := st.input.JobID
	total := len(st.signals)

	o.tracker.Update(ctx, jobID, int(stagePersistSignals),
		"Saving Results",
		fmt.Sprintf("Storing %d trading signals in database...", total),
		job.StatusStarted)

	saved := 0
	for i := range st.signals {
		sig := st.signals[i]
		if err := o.signals.Insert(ctx, &sig); err != nil {
			o.log.Errorf("Failed to save signal for %s: %v", sig.Symbol, err)
			metrics.SymbolFailures.WithLabelValues("persist").Inc()
			continue
		}
		saved++

		o.tracker.Update(ctx, jobID, int(stagePersistSignals),
			"Saving Results",
			fmt.Sprintf("Saved %d/%d signals to database...", i+1, total),
			job.StatusStarted)
	}

	o.log.Infof("Database save complete: %d/%d saved", saved, total)
}

// summarize computes the aggregate from the in-memory signal list.
// Persistence failures in stage 5 do not change the summary.
func (o *Orchestrator) summarize(ctx context.Context, st *runState) {
	o.tracker.Update(ctx, st.input.JobID, int(stageSummarize),
		"Generating Summary",
		"Creating analysis summary and preparing notifications...",
		job.StatusStarted)

	st.summary = signal.Summarize(st.signals)
}

// finalize reports terminal progress at 100% and then writes the job
// statistics. The stats write is best-effort: the job was already
// marked completed, so its failure is logged and the run still
// succeeds.
func (o *Orchestrator) finalize(ctx context.Context, st *runState) {
	jobID := st.input.JobID
	duration := time.Since(st.startedAt)

	o.tracker.Update(ctx, jobID, int(stageFinalize),
		"Analysis Complete",
		fmt.Sprintf("Generated %d trading signals in %ds", len(st.signals), int(duration.Seconds()+0.5)),
		job.StatusCompleted)

	stats := job.Stats{
		SignalsGenerated: len(st.signals),
		AlertsGenerated:  st.summary.HighConfidence,
		DurationMs:       duration.Milliseconds(),
		CompletedAt:      time.Now().UTC(),
	}
	if err := o.jobs.UpdateStats(ctx, jobID, stats); err != nil {
		o.log.Errorf("Failed to update final stats for job %s: %v", jobID, err)
	}
}

// AnalyzeSymbol is the reduced single-symbol path: fetch, score with
// historical context, persist, no job-progress tracking. Fetch and
// scoring failures propagate directly; only the persistence write is
// best-effort.
func (o *Orchestrator) AnalyzeSymbol(ctx context.Context, symbol string) (signal.Signal, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	o.log.Infof("Single symbol analysis: %s", symbol)

	metrics, err := o.fetcher.Fetch(ctx, symbol)
	if err != nil {
		return signal.Signal{}, errors.Wrapf(err, "fetch metrics for %s", symbol)
	}

	history, err := o.signals.ListRecentMetricsForSymbol(ctx, symbol, o.cfg.HistoryDepth)
	if err != nil {
		o.log.Warnf("No historical metrics for %s: %v", symbol, err)
		history = nil
	}

	sig, err := o.scorer.Score(ctx, symbol, metrics, history)
	if err != nil {
		return signal.Signal{}, errors.Wrapf(err, "score %s", symbol)
	}

	if err := o.signals.Insert(ctx, &sig); err != nil {
		o.log.Errorf("Failed to save signal for %s: %v", symbol, err)
	}

	o.log.Infof("Single analysis complete: %s -> %s (%d%%)", symbol, sig.Direction, sig.Confidence)
	return sig, nil
}

// pace sleeps for the fixed inter-call delay, returning early only if
// the context is cancelled. Applied unconditionally, even after
// failures; there is deliberately no backoff.
func (o *Orchestrator) pace(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
