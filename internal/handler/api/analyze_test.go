package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TriSight/internal/domain/models"
	domsvc "TriSight/internal/domain/service"
	"TriSight/internal/service/resilience"
	"TriSight/internal/services/synthesis"
	"TriSight/internal/usecase"
	xlogger "TriSight/pkg/logger"
)

type stubFundamental struct{ res *models.FundamentalResult }

func (s *stubFundamental) Analyze(context.Context, string, string) (*models.FundamentalResult, error) {
	return s.res, nil
}

type stubTechnical struct{ res *models.TechnicalResult }

func (s *stubTechnical) Analyze(context.Context, string, string) (*models.TechnicalResult, error) {
	return s.res, nil
}

type stubSentiment struct{ res *models.SentimentEcoResult }

func (s *stubSentiment) Analyze(context.Context, string) (*models.SentimentEcoResult, error) {
	return s.res, nil
}

type nopMetrics struct{}

func (nopMetrics) RecordStageDuration(string, float64) {}
func (nopMetrics) RecordPipelineRun(string)            {}
func (nopMetrics) RecordBreakerState(string, string)   {}
func (nopMetrics) RecordRateLimitDenied(string)        {}
func (nopMetrics) RecordError(string)                  {}
func (nopMetrics) RecordCacheHit(bool)                 {}

func newTestHandler() *AnalysisHandler {
	providers := domsvc.Providers{
		Fundamental: &stubFundamental{res: &models.FundamentalResult{Score: 85, Confidence: 0.85}},
		Technical: &stubTechnical{res: &models.TechnicalResult{
			Score: 80, Confidence: 0.85,
			Indicators: models.TechnicalIndicators{CurrentPrice: 200, ATR: 4},
		}},
		SentimentEco: &stubSentiment{res: &models.SentimentEcoResult{Score: 82, Confidence: 0.85}},
	}
	weights := map[string]synthesis.Weights{
		models.ContextInvestment: {Fundamental: 0.5, Technical: 0.2, ESG: 0.3},
		models.ContextTrading:    {Fundamental: 0.15, Technical: 0.6, ESG: 0.25},
	}
	quotas := map[string]resilience.QuotaConfig{
		usecase.APIFundamental:  {Limit: 100, Window: time.Minute},
		usecase.APITechnical:    {Limit: 100, Window: time.Minute},
		usecase.APISentimentEco: {Limit: 100, Window: time.Minute},
	}
	breakers := resilience.NewRegistry(resilience.BreakerConfig{FailureThreshold: 5, Cooldown: time.Minute})
	limiter := resilience.NewLimiter()
	orch := usecase.NewOrchestrator(
		providers,
		breakers,
		limiter,
		resilience.RetryPolicy{MaxRetries: 2, BaseDelay: time.Millisecond},
		synthesis.NewEngine(weights, synthesis.Thresholds{Buy: 70, Sell: 40}),
		usecase.DefaultDegradationPolicy,
		nil, nil, nil,
		nopMetrics{},
		xlogger.Nop(),
		usecase.PipelineConfig{StageTimeout: time.Second, Quotas: quotas},
	)
	return NewAnalysisHandler(xlogger.Nop(), orch, breakers, limiter, quotas)
}

func doRequest(t *testing.T, h *AnalysisHandler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	h.RegisterRoutes(e)
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAnalyzeEndpoint(t *testing.T) {
	h := newTestHandler()
	rec := doRequest(t, h, http.MethodPost, "/api/analyze",
		`{"ticker":"AAPL","api_key":"sk-ant-REDACTED"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Status int `json:"status"`
		Data   struct {
			SynthesisScore int    `json:"synthesis_score"`
			Recommendation string `json:"recommendation"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, http.StatusOK, envelope.Status)
	assert.Equal(t, 83, envelope.Data.SynthesisScore)
	assert.Equal(t, models.RecommendationBuy, envelope.Data.Recommendation)
}

func TestAnalyzeEndpointMissingTicker(t *testing.T) {
	h := newTestHandler()
	rec := doRequest(t, h, http.MethodPost, "/api/analyze",
		`{"api_key":"sk-ant-REDACTED"}`)
	assert.Equal(t, http.StatusOK, rec.Code) // envelope carries the real status

	var envelope struct {
		Status int `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, http.StatusBadRequest, envelope.Status)
}

func TestAnalyzeEndpointMalformedKey(t *testing.T) {
	h := newTestHandler()
	rec := doRequest(t, h, http.MethodPost, "/api/analyze",
		`{"ticker":"AAPL","api_key":"not-a-real-key"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var envelope models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.False(t, envelope.Success)
	assert.Equal(t, string(models.CodeAPIKeyDecryption), envelope.Error.Code)
	assert.NotEmpty(t, envelope.RequestID)
}

func TestResilienceEndpoint(t *testing.T) {
	h := newTestHandler()

	// Run one analysis so breakers exist.
	rec := doRequest(t, h, http.MethodPost, "/api/analyze",
		`{"ticker":"AAPL","api_key":"sk-ant-REDACTED"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, h, http.MethodGet, "/api/resilience", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data struct {
			Breakers map[string]string                 `json:"breakers"`
			Quotas   map[string]resilience.QuotaStatus `json:"quotas"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "closed", envelope.Data.Breakers[usecase.APIFundamental])
	assert.Equal(t, 1, envelope.Data.Quotas[usecase.APIFundamental].Used)
	assert.Len(t, envelope.Data.Quotas, 3)
}

func TestStatusForCode(t *testing.T) {
	cases := map[models.ErrorCode]int{
		models.CodeValidation:             http.StatusBadRequest,
		models.CodeAuthentication:         http.StatusUnauthorized,
		models.CodeAPIKeyDecryption:       http.StatusUnauthorized,
		models.CodeRateLimitExceeded:      http.StatusTooManyRequests,
		models.CodeAnalysisTimeout:        http.StatusGatewayTimeout,
		models.CodeExternalAPI:            http.StatusBadGateway,
		models.CodePartialAnalysisFailure: http.StatusBadGateway,
		models.CodeDataQuality:            http.StatusUnprocessableEntity,
		models.CodeSynthesis:              http.StatusInternalServerError,
		models.CodeResponseFormatting:     http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, statusForCode(code), string(code))
	}
}
