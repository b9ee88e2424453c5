package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TriSight/internal/domain/models"
)

func TestHandlePartialFailureFallbackIsNeutral(t *testing.T) {
	p := DefaultDegradationPolicy
	m := NewMonitor(nil)
	m.RecordFundamental(&models.FundamentalResult{Score: 80, Confidence: 0.9})
	m.RecordTechnical(&models.TechnicalResult{Score: 75, Confidence: 0.9})

	err := models.NewAnalysisError(models.CodeExternalAPI, models.StageSentimentEco, "down")
	d := p.HandlePartialFailure(m, models.StageSentimentEco, err)

	assert.True(t, d.CanContinue)
	require.NotNil(t, d.Fallback)
	assert.Equal(t, models.KindESG, d.Fallback.Kind)
	assert.Equal(t, 50.0, d.Fallback.Score)
	assert.Empty(t, d.Fallback.Factors)
	assert.True(t, d.Fallback.Fallback)
	assert.Equal(t, p.NeutralFallback(models.KindESG), d.Fallback)
}

func TestNeutralFallbackFollowsPolicyConfidence(t *testing.T) {
	p := DegradationPolicy{FallbackConfidence: 0.42, PerMissingPenalty: 0.15, Floor: 0.1}
	fb := p.NeutralFallback(models.KindTechnical)
	assert.Equal(t, models.KindTechnical, fb.Kind)
	assert.Equal(t, 50.0, fb.Score)
	assert.Equal(t, 0.42, fb.Confidence)
	assert.True(t, fb.Fallback)
}

func TestHandlePartialFailureNonAnalysisStage(t *testing.T) {
	p := DefaultDegradationPolicy
	m := NewMonitor(nil)
	d := p.HandlePartialFailure(m, models.StageSynthesis, models.NewAnalysisError(models.CodeSynthesis, models.StageSynthesis, "x"))
	assert.Nil(t, d.Fallback)
}

func TestConfidenceCapMonotonic(t *testing.T) {
	p := DefaultDegradationPolicy
	all := p.ConfidenceCap(3)
	two := p.ConfidenceCap(2)
	one := p.ConfidenceCap(1)
	zero := p.ConfidenceCap(0)

	assert.Equal(t, 1.0, all)
	assert.Less(t, two, all)
	assert.Less(t, one, two)
	assert.LessOrEqual(t, zero, one)
	assert.GreaterOrEqual(t, zero, p.Floor, "cap never claims zero reliability")
}
