package usecase

import (
	"fmt"
	"strings"
	"time"

	"TriSight/internal/domain/models"
)

// BuildResponse assembles the final response object from the synthesis
// verdict and the per-analysis report.
func BuildResponse(
	requestID string,
	req models.AnalysisRequest,
	score int,
	recommendation string,
	confidence float64,
	conv []models.ConvergenceFactor,
	div []models.DivergenceFactor,
	tp *models.TradeParameters,
	report models.FullReport,
	keyEcos []string,
	degraded bool,
	total time.Duration,
) *models.AnalysisResponse {
	if conv == nil {
		conv = []models.ConvergenceFactor{}
	}
	if div == nil {
		div = []models.DivergenceFactor{}
	}
	if keyEcos == nil {
		keyEcos = []string{}
	}

	used := make([]models.Kind, 0, 3)
	for _, a := range []*models.ScoredAnalysis{report.Fundamental, report.Technical, report.SentimentEco} {
		if a != nil && !a.Fallback {
			used = append(used, a.Kind)
		}
	}

	return &models.AnalysisResponse{
		SynthesisScore:     score,
		Recommendation:     recommendation,
		Confidence:         confidence,
		ConvergenceFactors: conv,
		DivergenceFactors:  div,
		TradeParameters:    tp,
		KeyEcos:            keyEcos,
		FullReport:         report,
		Metadata: models.ResponseMetadata{
			RequestID:    requestID,
			Ticker:       req.Ticker,
			Context:      req.Context,
			Timeframe:    req.Timeframe,
			DurationMs:   total.Milliseconds(),
			Degraded:     degraded,
			AnalysesUsed: used,
			GeneratedAt:  time.Now().UTC().Format(time.RFC3339),
		},
	}
}

// ValidateResponseSchema checks the output contract: required fields, numeric
// ranges, enum membership and nested shapes. A response failing validation is
// never returned to the caller.
func ValidateResponseSchema(r *models.AnalysisResponse) error {
	var problems []string

	if r == nil {
		return fmt.Errorf("response is nil")
	}
	if r.SynthesisScore < 0 || r.SynthesisScore > 100 {
		problems = append(problems, fmt.Sprintf("synthesis_score %d out of [0,100]", r.SynthesisScore))
	}
	switch r.Recommendation {
	case models.RecommendationBuy, models.RecommendationSell, models.RecommendationHold:
	default:
		problems = append(problems, fmt.Sprintf("recommendation %q not in enum", r.Recommendation))
	}
	if r.Confidence < 0 || r.Confidence > 100 {
		problems = append(problems, fmt.Sprintf("confidence %v out of [0,100]", r.Confidence))
	}
	if r.ConvergenceFactors == nil {
		problems = append(problems, "convergence_factors missing")
	}
	if r.DivergenceFactors == nil {
		problems = append(problems, "divergence_factors missing")
	}
	if r.KeyEcos == nil {
		problems = append(problems, "key_ecos missing")
	}
	if r.Metadata.RequestID == "" {
		problems = append(problems, "metadata.request_id missing")
	}
	if r.Metadata.Ticker == "" {
		problems = append(problems, "metadata.ticker missing")
	}

	if r.TradeParameters != nil {
		problems = append(problems, validateTradeParameters(r.Recommendation, r.TradeParameters)...)
	}
	problems = append(problems, validateFullReport(r.FullReport)...)

	if len(problems) > 0 {
		return fmt.Errorf("response schema invalid: %s", strings.Join(problems, "; "))
	}
	return nil
}

func validateTradeParameters(recommendation string, tp *models.TradeParameters) []string {
	var problems []string
	if tp.EntryPrice <= 0 {
		problems = append(problems, "trade_parameters.entry_price must be positive")
	}
	if len(tp.TakeProfitLevels) == 0 {
		problems = append(problems, "trade_parameters.take_profit_levels empty")
		return problems
	}

	levels := append([]float64{tp.StopLoss, tp.EntryPrice}, tp.TakeProfitLevels...)
	for i := 1; i < len(levels); i++ {
		ok := levels[i] > levels[i-1]
		if recommendation == models.RecommendationSell {
			ok = levels[i] < levels[i-1]
		}
		if !ok {
			problems = append(problems, "trade_parameters levels out of order")
			break
		}
	}
	return problems
}

func validateFullReport(fr models.FullReport) []string {
	var problems []string
	check := func(name string, a *models.ScoredAnalysis) {
		if a == nil {
			return
		}
		if a.Score < 0 || a.Score > 100 {
			problems = append(problems, fmt.Sprintf("full_report.%s.score out of [0,100]", name))
		}
		if a.Confidence < 0 || a.Confidence > 1 {
			problems = append(problems, fmt.Sprintf("full_report.%s.confidence out of [0,1]", name))
		}
	}
	check("fundamental", fr.Fundamental)
	check("technical", fr.Technical)
	check("sentiment_eco", fr.SentimentEco)
	return problems
}
