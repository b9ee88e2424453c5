package usecase

import (
	"sync"
	"time"

	"TriSight/internal/domain/models"
)

// StageEvent is emitted to an optional listener as stages start and finish.
type StageEvent struct {
	Stage      models.Stage      `json:"stage"`
	Status     string            `json:"status"` // started | succeeded | failed
	DurationMs int64             `json:"duration_ms,omitempty"`
	Error      *models.ErrorBody `json:"error,omitempty"`
}

// StageListener receives stage events, e.g. for websocket progress streaming.
type StageListener func(ev StageEvent)

// Monitor owns one pipeline run's lifecycle: stage timings, partial results
// and the error list. The three analysis stages report concurrently, so all
// mutation is mutex-guarded; nothing outside the owning request ever holds a
// reference.
type Monitor struct {
	mu        sync.Mutex
	startedAt time.Time
	stages    map[models.Stage]*models.StageResult
	errors    []*models.AnalysisError
	partial   models.PartialResults
	listener  StageListener
	now       func() time.Time
}

// NewMonitor starts the run clock.
func NewMonitor(listener StageListener) *Monitor {
	m := &Monitor{
		stages:   make(map[models.Stage]*models.StageResult),
		listener: listener,
		now:      time.Now,
	}
	m.startedAt = m.now()
	return m
}

// StartStage records the stage start time.
func (m *Monitor) StartStage(stage models.Stage) {
	m.mu.Lock()
	m.stages[stage] = &models.StageResult{Stage: stage, StartedAt: m.now()}
	m.mu.Unlock()
	m.emit(StageEvent{Stage: stage, Status: "started"})
}

// EndStage records the stage duration and outcome. A nil err marks success.
func (m *Monitor) EndStage(stage models.Stage, err *models.AnalysisError) {
	m.mu.Lock()
	r, ok := m.stages[stage]
	if !ok {
		r = &models.StageResult{Stage: stage, StartedAt: m.now()}
		m.stages[stage] = r
	}
	r.Duration = m.now().Sub(r.StartedAt)
	r.Err = err
	if err != nil {
		m.errors = append(m.errors, err)
	}
	dur := r.Duration
	m.mu.Unlock()

	ev := StageEvent{Stage: stage, Status: "succeeded", DurationMs: dur.Milliseconds()}
	if err != nil {
		ev.Status = "failed"
		ev.Error = &models.ErrorBody{Code: string(err.Code), Message: err.Message}
	}
	m.emit(ev)
}

// RecordFundamental stores a successful fundamental payload.
func (m *Monitor) RecordFundamental(r *models.FundamentalResult) {
	m.mu.Lock()
	m.partial.Fundamental = r
	m.mu.Unlock()
}

// RecordTechnical stores a successful technical payload.
func (m *Monitor) RecordTechnical(r *models.TechnicalResult) {
	m.mu.Lock()
	m.partial.Technical = r
	m.mu.Unlock()
}

// RecordSentimentEco stores a successful sentiment/ESG payload.
func (m *Monitor) RecordSentimentEco(r *models.SentimentEcoResult) {
	m.mu.Lock()
	m.partial.SentimentEco = r
	m.mu.Unlock()
}

// CanContinueWithPartialResults applies the business rule: at least 2 of the
// 3 core analyses must have succeeded for the run to proceed.
func (m *Monitor) CanContinueWithPartialResults() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.partial.SucceededCount() >= 2
}

// PartialResults returns only the analyses that succeeded. Failed or missing
// stages are absent, never null-filled.
func (m *Monitor) PartialResults() models.PartialResults {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.partial
}

// Errors returns the errors raised so far, in arrival order.
func (m *Monitor) Errors() []*models.AnalysisError {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.AnalysisError, len(m.errors))
	copy(out, m.errors)
	return out
}

// StageDuration returns the recorded duration for a stage, or zero.
func (m *Monitor) StageDuration(stage models.Stage) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.stages[stage]; ok {
		return r.Duration
	}
	return 0
}

// Summary snapshots the run. The snapshot is detached: mutating it later has
// no effect on monitor state.
func (m *Monitor) Summary(success bool) models.PipelineSummary {
	m.mu.Lock()
	defer m.mu.Unlock()

	timings := make(map[models.Stage]time.Duration, len(m.stages))
	for stage, r := range m.stages {
		timings[stage] = r.Duration
	}
	errs := make([]*models.AnalysisError, len(m.errors))
	copy(errs, m.errors)

	return models.PipelineSummary{
		StageTimings:  timings,
		Errors:        errs,
		Partial:       m.partial,
		Success:       success,
		TotalDuration: m.now().Sub(m.startedAt),
	}
}

func (m *Monitor) emit(ev StageEvent) {
	if m.listener != nil {
		m.listener(ev)
	}
}
