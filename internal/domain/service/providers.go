package service

import (
	"context"

	"TriSight/internal/domain/models"
)

// The three analysis providers are external collaborators. The orchestrator
// does not know how their results are produced (AI call, REST call, fixture).

// FundamentalProvider computes the fundamental analysis for a ticker.
type FundamentalProvider interface {
	Analyze(ctx context.Context, ticker, apiKey string) (*models.FundamentalResult, error)
}

// TechnicalProvider computes the technical analysis for a ticker.
type TechnicalProvider interface {
	Analyze(ctx context.Context, ticker, timeframe string) (*models.TechnicalResult, error)
}

// SentimentEcoProvider computes the sentiment/ESG analysis for a ticker.
type SentimentEcoProvider interface {
	Analyze(ctx context.Context, ticker string) (*models.SentimentEcoResult, error)
}

// Providers bundles the three upstreams for injection into the orchestrator.
type Providers struct {
	Fundamental  FundamentalProvider
	Technical    TechnicalProvider
	SentimentEco SentimentEcoProvider
}
