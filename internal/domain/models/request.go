package models

// AnalysisRequest is the logical request consumed by the orchestrator.
type AnalysisRequest struct {
	Ticker    string `json:"ticker" validate:"required"`
	Context   string `json:"context" default:"investment" validate:"required,oneof=investment trading"`
	Timeframe string `json:"timeframe,omitempty"`
	APIKey    string `json:"api_key" validate:"required"`
}
