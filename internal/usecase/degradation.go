package usecase

import (
	"TriSight/internal/domain/models"
)

// DegradationPolicy decides whether a run can proceed after a stage failure
// and supplies a neutral fallback so synthesis can still run numerically.
type DegradationPolicy struct {
	// FallbackConfidence is assigned to defaulted analyses.
	FallbackConfidence float64
	// PerMissingPenalty is subtracted from the confidence cap per missing
	// analysis, on top of the succeeded/total scaling.
	PerMissingPenalty float64
	// Floor keeps the cap from claiming zero reliability while a verdict is
	// still produced.
	Floor float64
}

// DefaultDegradationPolicy mirrors the production tuning.
var DefaultDegradationPolicy = DegradationPolicy{
	FallbackConfidence: 0.3,
	PerMissingPenalty:  0.15,
	Floor:              0.1,
}

// Decision is the outcome of evaluating a partial failure.
type Decision struct {
	CanContinue        bool
	Fallback           *models.ScoredAnalysis
	AdjustedConfidence float64
}

// HandlePartialFailure evaluates the run after failedStage raised err.
// The fallback is a neutral payload: score 50 with no factors.
func (p DegradationPolicy) HandlePartialFailure(m *Monitor, failedStage models.Stage, err *models.AnalysisError) Decision {
	kind := models.KindForStage(failedStage)
	d := Decision{
		CanContinue:        m.CanContinueWithPartialResults(),
		AdjustedConfidence: p.ConfidenceCap(m.PartialResults().SucceededCount()),
	}
	if kind != "" {
		d.Fallback = p.NeutralFallback(kind)
	}
	return d
}

// NeutralFallback is the defaulted payload for a missing analysis: score 50
// with no factors, confidence pinned to the policy's fallback level. Both the
// failure decision and synthesis defaulting draw from here.
func (p DegradationPolicy) NeutralFallback(kind models.Kind) *models.ScoredAnalysis {
	return &models.ScoredAnalysis{
		Kind:       kind,
		Score:      50,
		Confidence: p.FallbackConfidence,
		Factors:    []models.Factor{},
		Fallback:   true,
	}
}

// ConfidenceCap decreases monotonically with the number of missing analyses:
// scaled by succeeded/total, further reduced by a fixed penalty per missing
// stage, floored.
func (p DegradationPolicy) ConfidenceCap(succeeded int) float64 {
	total := len(models.Kinds)
	if succeeded >= total {
		return 1.0
	}
	if succeeded < 0 {
		succeeded = 0
	}
	missing := total - succeeded
	cap := float64(succeeded)/float64(total) - p.PerMissingPenalty*float64(missing)
	if cap < p.Floor {
		cap = p.Floor
	}
	return cap
}
