package usecase

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TriSight/internal/domain/models"
	domsvc "TriSight/internal/domain/service"
	"TriSight/internal/service/resilience"
	"TriSight/internal/services/synthesis"
	xlogger "TriSight/pkg/logger"
)

type stubFundamental struct {
	res   *models.FundamentalResult
	err   error
	calls int32
}

func (s *stubFundamental) Analyze(ctx context.Context, ticker, apiKey string) (*models.FundamentalResult, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.err != nil {
		return nil, s.err
	}
	return s.res, nil
}

type stubTechnical struct {
	res *models.TechnicalResult
	err error
}

func (s *stubTechnical) Analyze(ctx context.Context, ticker, timeframe string) (*models.TechnicalResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.res, nil
}

type stubSentiment struct {
	res   *models.SentimentEcoResult
	err   error
	block bool
}

func (s *stubSentiment) Analyze(ctx context.Context, ticker string) (*models.SentimentEcoResult, error) {
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.res, nil
}

type nopMetrics struct{}

func (nopMetrics) RecordStageDuration(string, float64) {}
func (nopMetrics) RecordPipelineRun(string)            {}
func (nopMetrics) RecordBreakerState(string, string)   {}
func (nopMetrics) RecordRateLimitDenied(string)        {}
func (nopMetrics) RecordError(string)                  {}
func (nopMetrics) RecordCacheHit(bool)                 {}

func happyProviders() domsvc.Providers {
	return domsvc.Providers{
		Fundamental: &stubFundamental{res: &models.FundamentalResult{Score: 85, Confidence: 0.85}},
		Technical: &stubTechnical{res: &models.TechnicalResult{
			Score: 80, Confidence: 0.85,
			Indicators: models.TechnicalIndicators{CurrentPrice: 200, ATR: 4},
		}},
		SentimentEco: &stubSentiment{res: &models.SentimentEcoResult{
			Score: 82, Confidence: 0.85,
			KeyEchoes: []string{"supply chain improving"},
		}},
	}
}

func newTestOrchestrator(p domsvc.Providers) *Orchestrator {
	weights := map[string]synthesis.Weights{
		models.ContextInvestment: {Fundamental: 0.5, Technical: 0.2, ESG: 0.3},
		models.ContextTrading:    {Fundamental: 0.15, Technical: 0.6, ESG: 0.25},
	}
	return NewOrchestrator(
		p,
		resilience.NewRegistry(resilience.BreakerConfig{FailureThreshold: 5, Cooldown: time.Minute}),
		resilience.NewLimiter(),
		resilience.RetryPolicy{MaxRetries: 2, BaseDelay: time.Millisecond},
		synthesis.NewEngine(weights, synthesis.Thresholds{Buy: 70, Sell: 40}),
		DefaultDegradationPolicy,
		nil, nil, nil,
		nopMetrics{},
		xlogger.Nop(),
		PipelineConfig{
			StageTimeout: 200 * time.Millisecond,
			Quotas: map[string]resilience.QuotaConfig{
				APIFundamental:  {Limit: 100, Window: time.Minute},
				APITechnical:    {Limit: 100, Window: time.Minute},
				APISentimentEco: {Limit: 100, Window: time.Minute},
			},
		},
	)
}

func testRequest() models.AnalysisRequest {
	return models.AnalysisRequest{
		Ticker:  "AAPL",
		Context: models.ContextInvestment,
		APIKey:  "sk-ant-REDACTED",
	}
}

func TestRunAnalysisHappyPath(t *testing.T) {
	o := newTestOrchestrator(happyProviders())
	resp, err := o.RunAnalysis(context.Background(), testRequest())
	require.NoError(t, err)

	// 85*0.5 + 80*0.2 + 82*0.3 = 83.1 -> 83 -> BUY.
	assert.Equal(t, 83, resp.SynthesisScore)
	assert.Equal(t, models.RecommendationBuy, resp.Recommendation)
	assert.InDelta(t, 85.0, resp.Confidence, 0.01)
	assert.False(t, resp.Metadata.Degraded)
	assert.Equal(t, []string{"supply chain improving"}, resp.KeyEcos)
	assert.Len(t, resp.Metadata.AnalysesUsed, 3)

	require.NotNil(t, resp.TradeParameters)
	assert.Less(t, resp.TradeParameters.StopLoss, resp.TradeParameters.EntryPrice)
	assert.Less(t, resp.TradeParameters.EntryPrice, resp.TradeParameters.TakeProfitLevels[0])

	require.NotNil(t, resp.FullReport.Fundamental)
	require.NotNil(t, resp.FullReport.SentimentEco)
	assert.False(t, resp.FullReport.SentimentEco.Fallback)
}

func TestRunAnalysisSingleFailureDegrades(t *testing.T) {
	p := happyProviders()
	p.SentimentEco = &stubSentiment{err: errors.New("upstream 503")}
	o := newTestOrchestrator(p)

	resp, err := o.RunAnalysis(context.Background(), testRequest())
	require.NoError(t, err, "one failed analysis must not be fatal")

	assert.True(t, resp.Metadata.Degraded)
	require.NotNil(t, resp.FullReport.SentimentEco)
	assert.True(t, resp.FullReport.SentimentEco.Fallback)
	assert.Equal(t, 50.0, resp.FullReport.SentimentEco.Score)
	assert.Len(t, resp.Metadata.AnalysesUsed, 2)

	baseline, berr := newTestOrchestrator(happyProviders()).RunAnalysis(context.Background(), testRequest())
	require.NoError(t, berr)
	assert.Less(t, resp.Confidence, baseline.Confidence,
		"degraded confidence must be strictly below the all-succeed case")
}

func TestRunAnalysisTwoFailuresFatal(t *testing.T) {
	p := happyProviders()
	p.SentimentEco = &stubSentiment{err: errors.New("down")}
	p.Technical = &stubTechnical{err: errors.New("down")}
	o := newTestOrchestrator(p)

	resp, err := o.RunAnalysis(context.Background(), testRequest())
	require.Error(t, err)
	assert.Nil(t, resp, "no partial data on fatal errors")

	ae, ok := err.(*models.AnalysisError)
	require.True(t, ok)
	assert.Equal(t, models.CodePartialAnalysisFailure, ae.Code)
}

func TestRunAnalysisInvalidTickerFatal(t *testing.T) {
	p := happyProviders()
	fund := p.Fundamental.(*stubFundamental)
	o := newTestOrchestrator(p)

	req := testRequest()
	req.Ticker = "TOOLONG!"
	_, err := o.RunAnalysis(context.Background(), req)
	require.Error(t, err)

	ae := err.(*models.AnalysisError)
	assert.Equal(t, models.CodeValidation, ae.Code)
	assert.Equal(t, models.StageValidation, ae.Stage)
	assert.Zero(t, atomic.LoadInt32(&fund.calls), "validation failures abort before any provider call")
}

func TestRunAnalysisMissingKeyFatal(t *testing.T) {
	o := newTestOrchestrator(happyProviders())
	req := testRequest()
	req.APIKey = "   "
	_, err := o.RunAnalysis(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, models.CodeAuthentication, err.(*models.AnalysisError).Code)
}

func TestRunAnalysisMalformedKeyFatal(t *testing.T) {
	o := newTestOrchestrator(happyProviders())
	req := testRequest()
	req.APIKey = "not-a-real-key"
	_, err := o.RunAnalysis(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, models.CodeAPIKeyDecryption, err.(*models.AnalysisError).Code)
}

func TestRunAnalysisCancellation(t *testing.T) {
	p := happyProviders()
	p.SentimentEco = &stubSentiment{block: true}
	o := newTestOrchestrator(p)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := o.RunAnalysis(ctx, testRequest())
	require.Error(t, err, "a cancelled request must not report success")
}

func TestRunAnalysisRetriesTransientFailure(t *testing.T) {
	flaky := &flakyFundamental{failures: 1}
	p := happyProviders()
	p.Fundamental = flaky
	o := newTestOrchestrator(p)

	resp, err := o.RunAnalysis(context.Background(), testRequest())
	require.NoError(t, err)
	assert.False(t, resp.Metadata.Degraded, "a retried success is not a degradation")
	assert.Equal(t, int32(2), atomic.LoadInt32(&flaky.calls))
}

type flakyFundamental struct {
	failures int32
	calls    int32
}

func (f *flakyFundamental) Analyze(ctx context.Context, ticker, apiKey string) (*models.FundamentalResult, error) {
	n := atomic.AddInt32(&f.calls, 1)
	if n <= f.failures {
		return nil, errors.New("transient network error")
	}
	return &models.FundamentalResult{Score: 85, Confidence: 0.85}, nil
}

func TestRunAnalysisNormalizesTicker(t *testing.T) {
	o := newTestOrchestrator(happyProviders())
	req := testRequest()
	req.Ticker = " aapl "
	resp, err := o.RunAnalysis(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "AAPL", resp.Metadata.Ticker)
}

func TestRunAnalysisTradingContextWeights(t *testing.T) {
	o := newTestOrchestrator(happyProviders())
	req := testRequest()
	req.Context = models.ContextTrading
	resp, err := o.RunAnalysis(context.Background(), req)
	require.NoError(t, err)
	// 85*0.15 + 80*0.6 + 82*0.25 = 81.25 -> 81.
	assert.Equal(t, 81, resp.SynthesisScore)
}
