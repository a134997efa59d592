package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"selene/internal/domain/job"
	"selene/internal/domain/signal"
	"selene/pkg/errors"
)

type fakeJobRepo struct {
	insertErr   error
	progressErr error
	statsErr    error

	inserted  []*job.Job
	updates   []job.ProgressUpdate
	statsFor  string
	lastStats job.Stats
}

func (f *fakeJobRepo) Insert(_ context.Context, j *job.Job) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, j)
	return nil
}

func (f *fakeJobRepo) UpdateProgress(_ context.Context, _ string, upd job.ProgressUpdate) error {
	if f.progressErr != nil {
		return f.progressErr
	}
	f.updates = append(f.updates, upd)
	return nil
}

func (f *fakeJobRepo) UpdateStats(_ context.Context, id string, stats job.Stats) error {
	if f.statsErr != nil {
		return f.statsErr
	}
	f.statsFor = id
	f.lastStats = stats
	return nil
}

func (f *fakeJobRepo) GetByID(_ context.Context, _ string) (*job.Job, error) { return nil, nil }
func (f *fakeJobRepo) GetLatest(_ context.Context) (*job.Job, error)         { return nil, nil }
func (f *fakeJobRepo) List(_ context.Context, _ int) ([]job.Job, error)      { return nil, nil }

type fakeSignalRepo struct {
	insertErrFor map[string]error
	history      []signal.SymbolMetrics
	historyErr   error

	inserted []signal.Signal
}

func (f *fakeSignalRepo) Insert(_ context.Context, s *signal.Signal) error {
	if err := f.insertErrFor[s.Symbol]; err != nil {
		return err
	}
	f.inserted = append(f.inserted, *s)
	return nil
}

func (f *fakeSignalRepo) ListLatest(_ context.Context, _ int) ([]signal.Signal, error) {
	return f.inserted, nil
}

func (f *fakeSignalRepo) ListRecentMetricsForSymbol(_ context.Context, _ string, _ int) ([]signal.SymbolMetrics, error) {
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return f.history, nil
}

type fakeFetcher struct {
	failFor map[string]error
	fetched []string
}

func (f *fakeFetcher) Fetch(_ context.Context, symbol string) (signal.SymbolMetrics, error) {
	f.fetched = append(f.fetched, symbol)
	if err := f.failFor[symbol]; err != nil {
		return signal.SymbolMetrics{}, err
	}
	return signal.SymbolMetrics{
		Symbol:       symbol,
		Mentions:     1000,
		Interactions: 150000,
		Creators:     1500,
		AltRank:      50,
		GalaxyScore:  80,
		FetchedAt:    time.Now(),
	}, nil
}

type fakeScorer struct {
	failFor map[string]error
	confFor map[string]int
	scored  []string
	history [][]signal.SymbolMetrics
}

func (f *fakeScorer) Score(_ context.Context, symbol string, metrics signal.SymbolMetrics, history []signal.SymbolMetrics) (signal.Signal, error) {
	f.scored = append(f.scored, symbol)
	f.history = append(f.history, history)
	if err := f.failFor[symbol]; err != nil {
		return signal.Signal{}, err
	}
	conf := 80
	if c, ok := f.confFor[symbol]; ok {
		conf = c
	}
	return signal.New(symbol, signal.DirectionBuy, conf, "strong social momentum", metrics, time.Now()), nil
}

func newTestOrchestrator(jobs *fakeJobRepo, signals *fakeSignalRepo, fetcher *fakeFetcher, scorer *fakeScorer) *Orchestrator {
	cfg := Config{
		DefaultSymbols: []string{"BTC", "ETH", "SOL", "ADA", "DOT"},
		SymbolCount:    5,
		HistoryDepth:   5,
	}
	return NewOrchestrator(cfg, fetcher, scorer, jobs, signals, NewTracker(jobs, nil))
}

func TestRunRequiresJobID(t *testing.T) {
	o := newTestOrchestrator(&fakeJobRepo{}, &fakeSignalRepo{}, &fakeFetcher{}, &fakeScorer{})

	_, err := o.Run(context.Background(), RunInput{})

	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrNoJobID)
}

func TestRunFailsWhenJobInsertFails(t *testing.T) {
	jobs := &fakeJobRepo{insertErr: errors.New("db down")}
	o := newTestOrchestrator(jobs, &fakeSignalRepo{}, &fakeFetcher{}, &fakeScorer{})

	_, err := o.Run(context.Background(), RunInput{JobID: "job-1"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "create job record")
}

func TestRunHappyPathDefaults(t *testing.T) {
	jobs := &fakeJobRepo{}
	signals := &fakeSignalRepo{}
	fetcher := &fakeFetcher{}
	scorer := &fakeScorer{}
	o := newTestOrchestrator(jobs, signals, fetcher, scorer)

	res, err := o.Run(context.Background(), RunInput{JobID: "job-1"})

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "job-1", res.JobID)
	assert.Equal(t, 5, res.SignalsAnalyzed)
	assert.Equal(t, []string{"BTC", "ETH", "SOL", "ADA", "DOT"}, fetcher.fetched)
	assert.Equal(t, fetcher.fetched, scorer.scored)
	assert.Len(t, signals.inserted, 5)

	// all five at 80 confidence count as high-confidence
	assert.Equal(t, 5, res.Summary.TotalAnalyzed)
	assert.Equal(t, 5, res.Summary.HighConfidence)

	// terminal stats mirror the summary
	assert.Equal(t, "job-1", jobs.statsFor)
	assert.Equal(t, 5, jobs.lastStats.SignalsGenerated)
	assert.Equal(t, 5, jobs.lastStats.AlertsGenerated)

	// batch scoring never carries historical context
	for _, h := range scorer.history {
		assert.Nil(t, h)
	}
}

func TestRunTruncatesNeverExtends(t *testing.T) {
	tests := []struct {
		name    string
		symbols []string
		count   int
		want    []string
	}{
		{"truncate to count", []string{"BTC", "ETH", "SOL"}, 2, []string{"BTC", "ETH"}},
		{"count beyond list", []string{"BTC", "ETH"}, 10, []string{"BTC", "ETH"}},
		{"normalizes case and space", []string{" btc ", "eth"}, 2, []string{"BTC", "ETH"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := &fakeFetcher{}
			o := newTestOrchestrator(&fakeJobRepo{}, &fakeSignalRepo{}, fetcher, &fakeScorer{})

			_, err := o.Run(context.Background(), RunInput{
				JobID:       "job-1",
				Symbols:     tt.symbols,
				SymbolCount: tt.count,
			})

			require.NoError(t, err)
			assert.Equal(t, tt.want, fetcher.fetched)
		})
	}
}

func TestRunIsolatesFetchFailure(t *testing.T) {
	jobs := &fakeJobRepo{}
	signals := &fakeSignalRepo{}
	fetcher := &fakeFetcher{failFor: map[string]error{"SOL": errors.ErrUpstreamRateLimit}}
	scorer := &fakeScorer{}
	o := newTestOrchestrator(jobs, signals, fetcher, scorer)

	res, err := o.Run(context.Background(), RunInput{JobID: "job-1"})

	require.NoError(t, err)
	assert.True(t, res.Success)
	// all five attempted, only the four successes scored
	assert.Len(t, fetcher.fetched, 5)
	assert.Equal(t, []string{"BTC", "ETH", "ADA", "DOT"}, scorer.scored)
	assert.Equal(t, 4, res.SignalsAnalyzed)
	assert.Len(t, signals.inserted, 4)
}

func TestRunIsolatesScoringFailure(t *testing.T) {
	signals := &fakeSignalRepo{}
	scorer := &fakeScorer{failFor: map[string]error{"ETH": errors.New("model timeout")}}
	o := newTestOrchestrator(&fakeJobRepo{}, signals, &fakeFetcher{}, scorer)

	res, err := o.Run(context.Background(), RunInput{JobID: "job-1"})

	require.NoError(t, err)
	assert.Equal(t, 4, res.SignalsAnalyzed)
	assert.Len(t, signals.inserted, 4)
}

func TestRunPersistFailureDoesNotChangeSummary(t *testing.T) {
	jobs := &fakeJobRepo{}
	signals := &fakeSignalRepo{insertErrFor: map[string]error{"BTC": errors.New("constraint violation")}}
	o := newTestOrchestrator(jobs, signals, &fakeFetcher{}, &fakeScorer{})

	res, err := o.Run(context.Background(), RunInput{JobID: "job-1"})

	require.NoError(t, err)
	// summary reflects the produced signals, not the saved rows
	assert.Equal(t, 5, res.SignalsAnalyzed)
	assert.Equal(t, 5, res.Summary.TotalAnalyzed)
	assert.Len(t, signals.inserted, 4)
	assert.Equal(t, 5, jobs.lastStats.SignalsGenerated)
}

func TestRunSurvivesProgressAndStatsFailures(t *testing.T) {
	jobs := &fakeJobRepo{progressErr: errors.New("db flaky"), statsErr: errors.New("db flaky")}
	o := newTestOrchestrator(jobs, &fakeSignalRepo{}, &fakeFetcher{}, &fakeScorer{})

	res, err := o.Run(context.Background(), RunInput{JobID: "job-1"})

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 5, res.SignalsAnalyzed)
}

func TestRunInitialJobRecord(t *testing.T) {
	jobs := &fakeJobRepo{}
	o := newTestOrchestrator(jobs, &fakeSignalRepo{}, &fakeFetcher{}, &fakeScorer{})

	_, err := o.Run(context.Background(), RunInput{JobID: "job-1"})

	require.NoError(t, err)
	require.Len(t, jobs.inserted, 1)
	j := jobs.inserted[0]
	assert.Equal(t, "job-1", j.ID)
	assert.Equal(t, job.StatusStarted, j.Status)
	assert.Equal(t, 14, j.ProgressPercentage)
}

func TestRunTerminalProgressUpdate(t *testing.T) {
	jobs := &fakeJobRepo{}
	o := newTestOrchestrator(jobs, &fakeSignalRepo{}, &fakeFetcher{}, &fakeScorer{})

	_, err := o.Run(context.Background(), RunInput{JobID: "job-1"})

	require.NoError(t, err)
	require.NotEmpty(t, jobs.updates)
	last := jobs.updates[len(jobs.updates)-1]
	assert.Equal(t, job.StatusCompleted, last.Status)
	assert.Equal(t, 100, last.ProgressPercentage)
	assert.Equal(t, "Analysis Complete", last.CurrentStep)
}

func TestAnalyzeSymbol(t *testing.T) {
	history := []signal.SymbolMetrics{{Symbol: "BTC", Mentions: 500}}
	signals := &fakeSignalRepo{history: history}
	scorer := &fakeScorer{}
	o := newTestOrchestrator(&fakeJobRepo{}, signals, &fakeFetcher{}, scorer)

	sig, err := o.AnalyzeSymbol(context.Background(), "btc")

	require.NoError(t, err)
	assert.Equal(t, "BTC", sig.Symbol)
	assert.Len(t, signals.inserted, 1)

	// history flows into the scoring call
	require.Len(t, scorer.history, 1)
	assert.Equal(t, history, scorer.history[0])
}

func TestAnalyzeSymbolFetchErrorPropagates(t *testing.T) {
	fetcher := &fakeFetcher{failFor: map[string]error{"BTC": errors.ErrUpstreamCredentials}}
	o := newTestOrchestrator(&fakeJobRepo{}, &fakeSignalRepo{}, fetcher, &fakeScorer{})

	_, err := o.AnalyzeSymbol(context.Background(), "BTC")

	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrUpstreamCredentials)
}

func TestAnalyzeSymbolHistoryErrorDegrades(t *testing.T) {
	signals := &fakeSignalRepo{historyErr: errors.New("query failed")}
	scorer := &fakeScorer{}
	o := newTestOrchestrator(&fakeJobRepo{}, signals, &fakeFetcher{}, scorer)

	_, err := o.AnalyzeSymbol(context.Background(), "ETH")

	require.NoError(t, err)
	require.Len(t, scorer.history, 1)
	assert.Nil(t, scorer.history[0])
}

func TestAnalyzeSymbolSaveFailureNotFatal(t *testing.T) {
	signals := &fakeSignalRepo{insertErrFor: map[string]error{"DOT": errors.New("disk full")}}
	o := newTestOrchestrator(&fakeJobRepo{}, signals, &fakeFetcher{}, &fakeScorer{})

	sig, err := o.AnalyzeSymbol(context.Background(), "DOT")

	require.NoError(t, err)
	assert.Equal(t, "DOT", sig.Symbol)
	assert.Empty(t, signals.inserted)
}
