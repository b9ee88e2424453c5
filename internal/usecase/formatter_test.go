package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TriSight/internal/domain/models"
)

func validResponse() *models.AnalysisResponse {
	report := models.FullReport{
		Fundamental: &models.ScoredAnalysis{Kind: models.KindFundamental, Score: 85, Confidence: 0.85},
		Technical:   &models.ScoredAnalysis{Kind: models.KindTechnical, Score: 80, Confidence: 0.85},
	}
	return BuildResponse(
		"req-1",
		models.AnalysisRequest{Ticker: "AAPL", Context: models.ContextInvestment},
		83, models.RecommendationBuy, 85,
		nil, nil,
		&models.TradeParameters{EntryPrice: 100, StopLoss: 95, TakeProfitLevels: []float64{105, 110}},
		report, nil, false, 120*time.Millisecond,
	)
}

func TestBuildResponseDefaultsCollections(t *testing.T) {
	r := validResponse()
	assert.NotNil(t, r.ConvergenceFactors)
	assert.NotNil(t, r.DivergenceFactors)
	assert.NotNil(t, r.KeyEcos)
	assert.Equal(t, int64(120), r.Metadata.DurationMs)
	assert.ElementsMatch(t, []models.Kind{models.KindFundamental, models.KindTechnical}, r.Metadata.AnalysesUsed)
}

func TestValidateResponseSchemaAccepts(t *testing.T) {
	require.NoError(t, ValidateResponseSchema(validResponse()))
}

func TestValidateResponseSchemaRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(r *models.AnalysisResponse)
	}{
		{"score above range", func(r *models.AnalysisResponse) { r.SynthesisScore = 101 }},
		{"score below range", func(r *models.AnalysisResponse) { r.SynthesisScore = -1 }},
		{"unknown recommendation", func(r *models.AnalysisResponse) { r.Recommendation = "MOON" }},
		{"confidence out of range", func(r *models.AnalysisResponse) { r.Confidence = 150 }},
		{"missing request id", func(r *models.AnalysisResponse) { r.Metadata.RequestID = "" }},
		{"missing ticker", func(r *models.AnalysisResponse) { r.Metadata.Ticker = "" }},
		{"unordered take profits", func(r *models.AnalysisResponse) {
			r.TradeParameters.TakeProfitLevels = []float64{110, 105}
		}},
		{"stop above entry on buy", func(r *models.AnalysisResponse) {
			r.TradeParameters.StopLoss = 120
		}},
		{"report score out of range", func(r *models.AnalysisResponse) {
			r.FullReport.Fundamental.Score = 180
		}},
		{"report confidence out of range", func(r *models.AnalysisResponse) {
			r.FullReport.Technical.Confidence = 1.5
		}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r := validResponse()
			c.mutate(r)
			assert.Error(t, ValidateResponseSchema(r))
		})
	}
}

func TestValidateResponseSchemaSellOrdering(t *testing.T) {
	r := validResponse()
	r.Recommendation = models.RecommendationSell
	r.SynthesisScore = 30
	r.TradeParameters = &models.TradeParameters{EntryPrice: 100, StopLoss: 105, TakeProfitLevels: []float64{95, 90}}
	assert.NoError(t, ValidateResponseSchema(r))

	r.TradeParameters.TakeProfitLevels = []float64{95, 98}
	assert.Error(t, ValidateResponseSchema(r))
}
