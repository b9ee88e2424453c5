package models

import "time"

// StageResult records the outcome of one stage within one run. Exactly one of
// the two outcomes holds: OK (Err == nil) or failed.
type StageResult struct {
	Stage     Stage          `json:"stage"`
	StartedAt time.Time      `json:"started_at"`
	Duration  time.Duration  `json:"duration"`
	Err       *AnalysisError `json:"error,omitempty"`
}

// OK reports whether the stage completed without error.
func (r StageResult) OK() bool { return r.Err == nil }

// PipelineSummary is a read-only snapshot of one run, produced on demand from
// monitor state.
type PipelineSummary struct {
	StageTimings  map[Stage]time.Duration `json:"stage_timings"`
	Errors        []*AnalysisError        `json:"errors"`
	Partial       PartialResults          `json:"-"`
	Success       bool                    `json:"success"`
	TotalDuration time.Duration           `json:"total_duration"`
}
