package models

import "time"

// Recommendation values. Thresholds: BUY at score >= 70, SELL below 40.
const (
	RecommendationBuy  = "BUY"
	RecommendationSell = "SELL"
	RecommendationHold = "HOLD"
)

// ConvergenceFactor notes a category where two or more analyses agree.
type ConvergenceFactor struct {
	Category           string                 `json:"category"`
	Description        string                 `json:"description"`
	Weight             float64                `json:"weight"`
	SupportingAnalyses []Kind                 `json:"supporting_analyses"`
	Metadata           map[string]interface{} `json:"metadata,omitempty"`
}

// DivergenceFactor notes a category where analyses conflict.
type DivergenceFactor struct {
	Category            string                 `json:"category"`
	Description         string                 `json:"description"`
	Weight              float64                `json:"weight"`
	ConflictingAnalyses []Kind                 `json:"conflicting_analyses"`
	Metadata            map[string]interface{} `json:"metadata,omitempty"`
}

// TradeParameters are the derived entry/exit price levels.
type TradeParameters struct {
	EntryPrice       float64   `json:"entry_price"`
	StopLoss         float64   `json:"stop_loss"`
	TakeProfitLevels []float64 `json:"take_profit_levels"`
}

// FullReport carries the per-analysis payloads that fed the synthesis.
// An absent analysis is reported as nil, with Fallback marking defaulted ones.
type FullReport struct {
	Fundamental  *ScoredAnalysis `json:"fundamental"`
	Technical    *ScoredAnalysis `json:"technical"`
	SentimentEco *ScoredAnalysis `json:"sentiment_eco"`
}

// Set assigns the slot for the given kind.
func (fr *FullReport) Set(k Kind, a *ScoredAnalysis) {
	switch k {
	case KindFundamental:
		fr.Fundamental = a
	case KindTechnical:
		fr.Technical = a
	case KindESG:
		fr.SentimentEco = a
	}
}

// ResponseMetadata describes how the response was produced.
type ResponseMetadata struct {
	RequestID    string  `json:"request_id"`
	Ticker       string  `json:"ticker"`
	Context      string  `json:"context"`
	Timeframe    string  `json:"timeframe,omitempty"`
	DurationMs   int64   `json:"duration_ms"`
	Degraded     bool    `json:"degraded"`
	CacheHit     bool    `json:"cache_hit"`
	AnalysesUsed []Kind  `json:"analyses_used"`
	GeneratedAt  string  `json:"generated_at"`
	SchemaScore  float64 `json:"-"`
}

// AnalysisResponse is the synthesized verdict returned to the caller.
type AnalysisResponse struct {
	SynthesisScore     int                 `json:"synthesis_score"`
	Recommendation     string              `json:"recommendation"`
	Confidence         float64             `json:"confidence"`
	ConvergenceFactors []ConvergenceFactor `json:"convergence_factors"`
	DivergenceFactors  []DivergenceFactor  `json:"divergence_factors"`
	TradeParameters    *TradeParameters    `json:"trade_parameters,omitempty"`
	KeyEcos            []string            `json:"key_ecos"`
	FullReport         FullReport          `json:"full_report"`
	Metadata           ResponseMetadata    `json:"metadata"`
}

// ErrorResponse is the error envelope surfaced on a fatal pipeline error.
type ErrorResponse struct {
	Success   bool       `json:"success"`
	Error     *ErrorBody `json:"error"`
	RequestID string     `json:"requestId"`
}

// ErrorBody is the user-visible error payload.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewErrorResponse maps a fatal AnalysisError onto the error envelope.
func NewErrorResponse(requestID string, err *AnalysisError) *ErrorResponse {
	return &ErrorResponse{
		Success:   false,
		Error:     &ErrorBody{Code: string(err.Code), Message: err.Message},
		RequestID: requestID,
	}
}

// VerdictEvent is published to Kafka when a pipeline run completes.
type VerdictEvent struct {
	RequestID      string    `json:"request_id"`
	Ticker         string    `json:"ticker"`
	Context        string    `json:"context"`
	SynthesisScore int       `json:"synthesis_score"`
	Recommendation string    `json:"recommendation"`
	Confidence     float64   `json:"confidence"`
	Degraded       bool      `json:"degraded"`
	Timestamp      time.Time `json:"timestamp"`
}

// RunRecord is the row persisted per pipeline run for history/diagnostics.
type RunRecord struct {
	RequestID      string
	Ticker         string
	Context        string
	Success        bool
	SynthesisScore int
	Recommendation string
	Confidence     float64
	ErrorCode      string
	StageTimings   map[Stage]time.Duration
	TotalDuration  time.Duration
	CreatedAt      time.Time
}
