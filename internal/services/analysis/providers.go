package analysis

import (
	"context"
	"time"

	"TriSight/internal/domain/models"
	domsvc "TriSight/internal/domain/service"
)

// ClientConfig configures one upstream analysis service client.
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
	RPS     float64
	Burst   int
}

// HTTPFundamentalProvider calls the fundamental analysis service.
type HTTPFundamentalProvider struct{ base *httpBase }

func NewHTTPFundamentalProvider(cfg ClientConfig) *HTTPFundamentalProvider {
	return &HTTPFundamentalProvider{base: newHTTPBase(cfg.BaseURL, cfg.Timeout, cfg.RPS, cfg.Burst)}
}

type fundamentalReq struct {
	Ticker string `json:"ticker"`
	APIKey string `json:"api_key"`
}

func (p *HTTPFundamentalProvider) Analyze(ctx context.Context, ticker, apiKey string) (*models.FundamentalResult, error) {
	var res models.FundamentalResult
	if err := p.base.postJSON(ctx, "/fundamental/analyze", fundamentalReq{Ticker: ticker, APIKey: apiKey}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// HTTPTechnicalProvider calls the technical analysis service.
type HTTPTechnicalProvider struct{ base *httpBase }

func NewHTTPTechnicalProvider(cfg ClientConfig) *HTTPTechnicalProvider {
	return &HTTPTechnicalProvider{base: newHTTPBase(cfg.BaseURL, cfg.Timeout, cfg.RPS, cfg.Burst)}
}

type technicalReq struct {
	Ticker    string `json:"ticker"`
	Timeframe string `json:"timeframe,omitempty"`
}

func (p *HTTPTechnicalProvider) Analyze(ctx context.Context, ticker, timeframe string) (*models.TechnicalResult, error) {
	var res models.TechnicalResult
	if err := p.base.postJSON(ctx, "/technical/analyze", technicalReq{Ticker: ticker, Timeframe: timeframe}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// HTTPSentimentEcoProvider calls the sentiment/ESG analysis service.
type HTTPSentimentEcoProvider struct{ base *httpBase }

func NewHTTPSentimentEcoProvider(cfg ClientConfig) *HTTPSentimentEcoProvider {
	return &HTTPSentimentEcoProvider{base: newHTTPBase(cfg.BaseURL, cfg.Timeout, cfg.RPS, cfg.Burst)}
}

type sentimentReq struct {
	Ticker string `json:"ticker"`
}

func (p *HTTPSentimentEcoProvider) Analyze(ctx context.Context, ticker string) (*models.SentimentEcoResult, error) {
	var res models.SentimentEcoResult
	if err := p.base.postJSON(ctx, "/sentiment/analyze", sentimentReq{Ticker: ticker}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

var (
	_ domsvc.FundamentalProvider  = (*HTTPFundamentalProvider)(nil)
	_ domsvc.TechnicalProvider    = (*HTTPTechnicalProvider)(nil)
	_ domsvc.SentimentEcoProvider = (*HTTPSentimentEcoProvider)(nil)
)
