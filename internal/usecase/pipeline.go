package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"TriSight/internal/domain/models"
	"TriSight/internal/domain/repository"
	domsvc "TriSight/internal/domain/service"
	"TriSight/internal/service/resilience"
	"TriSight/internal/service/validate"
	"TriSight/internal/services/synthesis"
	xlogger "TriSight/pkg/logger"
)

// Upstream API names; breaker and limiter state is keyed by these.
const (
	APIFundamental  = "fundamental-api"
	APITechnical    = "technical-api"
	APISentimentEco = "sentiment-api"
)

// PipelineConfig tunes one orchestrator instance.
type PipelineConfig struct {
	StageTimeout  time.Duration
	Quotas        map[string]resilience.QuotaConfig
	MinConfidence float64 // 0-100; below this the verdict is DATA_QUALITY_INSUFFICIENT
	CacheTTL      time.Duration
	Levels        synthesis.LevelCoefficients
}

// Orchestrator runs one logical pipeline per request: sequential validation,
// three concurrent guarded analysis calls, then synthesis, trade parameters
// and response formatting. Breaker and limiter state is the only thing shared
// across requests.
type Orchestrator struct {
	providers domsvc.Providers
	breakers  *resilience.Registry
	limiter   *resilience.Limiter
	retry     resilience.RetryPolicy
	synth     *synthesis.Engine
	degrade   DegradationPolicy
	history   repository.HistoryStore
	events    repository.EventPublisher
	cache     repository.ResponseCache
	metrics   repository.Metrics
	log       *xlogger.Logger
	cfg       PipelineConfig
}

// NewOrchestrator wires the pipeline. history, events and cache may be nil;
// the pipeline then runs without persistence, events or caching.
func NewOrchestrator(
	providers domsvc.Providers,
	breakers *resilience.Registry,
	limiter *resilience.Limiter,
	retry resilience.RetryPolicy,
	synth *synthesis.Engine,
	degrade DegradationPolicy,
	history repository.HistoryStore,
	events repository.EventPublisher,
	cache repository.ResponseCache,
	metrics repository.Metrics,
	log *xlogger.Logger,
	cfg PipelineConfig,
) *Orchestrator {
	if cfg.StageTimeout <= 0 {
		cfg.StageTimeout = 30 * time.Second
	}
	if len(cfg.Levels.TakeProfits) == 0 {
		cfg.Levels = synthesis.DefaultLevels
	}
	return &Orchestrator{
		providers: providers,
		breakers:  breakers,
		limiter:   limiter,
		retry:     retry,
		synth:     synth,
		degrade:   degrade,
		history:   history,
		events:    events,
		cache:     cache,
		metrics:   metrics,
		log:       log,
		cfg:       cfg,
	}
}

// RunAnalysis executes the full pipeline for one request.
func (o *Orchestrator) RunAnalysis(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisResponse, error) {
	return o.run(ctx, req, nil)
}

// RunAnalysisStreaming is RunAnalysis with per-stage progress events.
func (o *Orchestrator) RunAnalysisStreaming(ctx context.Context, req models.AnalysisRequest, listener StageListener) (*models.AnalysisResponse, error) {
	return o.run(ctx, req, listener)
}

func (o *Orchestrator) run(ctx context.Context, req models.AnalysisRequest, listener StageListener) (*models.AnalysisResponse, error) {
	requestID := uuid.NewString()
	m := NewMonitor(listener)

	log := o.log.With(
		xlogger.String("request_id", requestID),
		xlogger.String("ticker", req.Ticker),
		xlogger.String("context", req.Context),
	)
	log.Info("pipeline started")

	// VALIDATION
	m.StartStage(models.StageValidation)
	if verr := o.validateRequest(&req); verr != nil {
		m.EndStage(models.StageValidation, verr)
		return nil, o.finishFatal(ctx, m, req, requestID, verr, log)
	}
	m.EndStage(models.StageValidation, nil)

	// AUTHENTICATION: the credential must be present at all.
	m.StartStage(models.StageAuthentication)
	if strings.TrimSpace(req.APIKey) == "" {
		aerr := models.NewAnalysisError(models.CodeAuthentication, models.StageAuthentication, "API key is required")
		m.EndStage(models.StageAuthentication, aerr)
		return nil, o.finishFatal(ctx, m, req, requestID, aerr, log)
	}
	m.EndStage(models.StageAuthentication, nil)

	// API_KEY_DECRYPTION: shape check and type classification.
	m.StartStage(models.StageAPIKeyDecryption)
	if kres := validate.APIKey(req.APIKey); !kres.IsValid {
		kerr := models.NewAnalysisError(models.CodeAPIKeyDecryption, models.StageAPIKeyDecryption, strings.Join(kres.Errors, "; "))
		m.EndStage(models.StageAPIKeyDecryption, kerr)
		return nil, o.finishFatal(ctx, m, req, requestID, kerr, log)
	}
	m.EndStage(models.StageAPIKeyDecryption, nil)

	// A fresh verdict for the same ticker/context is served from cache.
	if o.cache != nil {
		if cached, ok, err := o.cache.Get(ctx, cacheKey(req)); err != nil {
			log.Warn("response cache read failed", xlogger.Error(err))
		} else if ok {
			o.metrics.RecordCacheHit(true)
			cached.Metadata.CacheHit = true
			log.Info("served from cache")
			return cached, nil
		}
		o.metrics.RecordCacheHit(false)
	}

	o.dispatchAnalyses(ctx, m, req)

	if ctx.Err() != nil {
		// Partial results stay recorded for diagnostics, but a cancelled
		// request never reports success.
		cerr := models.NewAnalysisError(models.CodeAnalysisTimeout, "", "request cancelled")
		return nil, o.finishFatal(ctx, m, req, requestID, cerr, log)
	}

	partial := m.PartialResults()
	if !m.CanContinueWithPartialResults() {
		perr := models.NewAnalysisError(models.CodePartialAnalysisFailure, "",
			fmt.Sprintf("only %d of %d analyses succeeded", partial.SucceededCount(), len(models.Kinds)))
		return nil, o.finishFatal(ctx, m, req, requestID, perr, log)
	}
	degraded := partial.SucceededCount() < len(models.Kinds)

	// SYNTHESIS
	m.StartStage(models.StageSynthesis)
	verdict, report, serr := o.synthesize(partial, req.Context, degraded)
	m.EndStage(models.StageSynthesis, serr)
	if serr != nil {
		return nil, o.finishFatal(ctx, m, req, requestID, serr, log)
	}
	if verdict.Confidence < o.cfg.MinConfidence {
		qerr := models.NewAnalysisError(models.CodeDataQuality, models.StageSynthesis,
			fmt.Sprintf("aggregate confidence %.1f below floor %.1f", verdict.Confidence, o.cfg.MinConfidence))
		return nil, o.finishFatal(ctx, m, req, requestID, qerr, log)
	}

	// TRADE_PARAMETERS runs only when technical data exists.
	var tp *models.TradeParameters
	if partial.Technical != nil {
		m.StartStage(models.StageTradeParameters)
		var terr *models.AnalysisError
		calc, err := synthesis.CalculateTradeParameters(verdict.Recommendation, partial.Technical.Indicators, o.cfg.Levels)
		if err != nil {
			terr = models.NewAnalysisError(models.CodeSynthesis, models.StageTradeParameters, err.Error())
		} else {
			tp = calc
		}
		m.EndStage(models.StageTradeParameters, terr)
		if terr != nil {
			return nil, o.finishFatal(ctx, m, req, requestID, terr, log)
		}
	}

	var keyEcos []string
	if partial.SentimentEco != nil {
		keyEcos = partial.SentimentEco.KeyEchoes
	}

	// RESPONSE_FORMATTING
	m.StartStage(models.StageResponseFormatting)
	summary := m.Summary(true)
	resp := BuildResponse(requestID, req, verdict.Score, verdict.Recommendation, verdict.Confidence,
		verdict.Convergence, verdict.Divergence, tp, report, keyEcos, degraded, summary.TotalDuration)
	if err := ValidateResponseSchema(resp); err != nil {
		ferr := models.NewAnalysisError(models.CodeResponseFormatting, models.StageResponseFormatting, err.Error())
		m.EndStage(models.StageResponseFormatting, ferr)
		return nil, o.finishFatal(ctx, m, req, requestID, ferr, log)
	}
	m.EndStage(models.StageResponseFormatting, nil)

	o.finishSuccess(ctx, m, req, requestID, resp, log)
	return resp, nil
}

func (o *Orchestrator) validateRequest(req *models.AnalysisRequest) *models.AnalysisError {
	tres := validate.Ticker(req.Ticker)
	if !tres.Valid {
		verr := models.NewAnalysisError(models.CodeValidation, models.StageValidation, strings.Join(tres.Errors, "; "))
		verr.Ticker = req.Ticker
		verr.Context = req.Context
		return verr
	}
	req.Ticker = tres.Normalized

	switch req.Context {
	case models.ContextInvestment, models.ContextTrading:
	default:
		verr := models.NewAnalysisError(models.CodeValidation, models.StageValidation,
			fmt.Sprintf("context must be %q or %q", models.ContextInvestment, models.ContextTrading))
		verr.Ticker = req.Ticker
		verr.Context = req.Context
		return verr
	}
	return nil
}

// dispatchAnalyses runs the three analysis stages concurrently, each wrapped
// by circuit breaker, rate limiter and retry before reaching its provider.
func (o *Orchestrator) dispatchAnalyses(ctx context.Context, m *Monitor, req models.AnalysisRequest) {
	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		o.runStage(ctx, m, models.StageFundamental, APIFundamental, func(ctx context.Context) (interface{}, error) {
			return o.providers.Fundamental.Analyze(ctx, req.Ticker, req.APIKey)
		}, func(out interface{}) {
			m.RecordFundamental(out.(*models.FundamentalResult))
		})
	}()
	go func() {
		defer wg.Done()
		o.runStage(ctx, m, models.StageTechnical, APITechnical, func(ctx context.Context) (interface{}, error) {
			return o.providers.Technical.Analyze(ctx, req.Ticker, req.Timeframe)
		}, func(out interface{}) {
			m.RecordTechnical(out.(*models.TechnicalResult))
		})
	}()
	go func() {
		defer wg.Done()
		o.runStage(ctx, m, models.StageSentimentEco, APISentimentEco, func(ctx context.Context) (interface{}, error) {
			return o.providers.SentimentEco.Analyze(ctx, req.Ticker)
		}, func(out interface{}) {
			m.RecordSentimentEco(out.(*models.SentimentEcoResult))
		})
	}()

	wg.Wait()
}

func (o *Orchestrator) runStage(
	ctx context.Context,
	m *Monitor,
	stage models.Stage,
	apiName string,
	call func(ctx context.Context) (interface{}, error),
	record func(out interface{}),
) {
	m.StartStage(stage)

	err := o.retry.Do(ctx, func(ctx context.Context) *models.AnalysisError {
		stageCtx, cancel := context.WithTimeout(ctx, o.cfg.StageTimeout)
		defer cancel()

		out, gerr := o.guardedCall(stageCtx, stage, apiName, call)
		if gerr != nil {
			return gerr
		}
		record(out)
		return nil
	})

	m.EndStage(stage, err)
	if err != nil {
		o.metrics.RecordError(string(err.Code))
		d := o.degrade.HandlePartialFailure(m, stage, err)
		o.log.Warn("analysis stage degraded",
			xlogger.String("stage", string(stage)),
			xlogger.String("code", string(err.Code)),
			xlogger.Bool("can_continue", d.CanContinue),
			xlogger.Float64("adjusted_confidence", d.AdjustedConfidence),
		)
	}
}

// guardedCall is one attempt: rate limiter first, then the circuit breaker
// around the provider call. A retry is a new call for rate-limiting purposes,
// and every failed attempt feeds the breaker.
func (o *Orchestrator) guardedCall(
	ctx context.Context,
	stage models.Stage,
	apiName string,
	call func(ctx context.Context) (interface{}, error),
) (interface{}, *models.AnalysisError) {
	if q, ok := o.cfg.Quotas[apiName]; ok {
		if res := o.limiter.Check(apiName, q); !res.Allowed {
			o.metrics.RecordRateLimitDenied(apiName)
			rerr := models.NewAnalysisError(models.CodeRateLimitExceeded, stage,
				fmt.Sprintf("rate limit exceeded for %s", apiName))
			rerr.RetryAfterSeconds = res.RetryAfter.Seconds()
			return nil, rerr
		}
	}

	out, err := o.breakers.Get(apiName).Execute(func() (interface{}, error) {
		return call(ctx)
	})
	if err != nil {
		return nil, classifyStageError(err, stage)
	}
	return out, nil
}

func classifyStageError(err error, stage models.Stage) *models.AnalysisError {
	if ae, ok := err.(*models.AnalysisError); ok {
		return models.AsAnalysisError(ae, stage)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return models.NewAnalysisError(models.CodeAnalysisTimeout, stage, "analysis timed out")
	}
	return models.NewAnalysisError(models.CodeExternalAPI, stage, err.Error())
}

// synthesize builds the scored input set, defaulting missing analyses through
// the degradation policy, and runs the engine.
func (o *Orchestrator) synthesize(partial models.PartialResults, analysisContext string, degraded bool) (synthesis.Verdict, models.FullReport, *models.AnalysisError) {
	analyses := partial.Scored()
	var report models.FullReport

	for _, kind := range models.Kinds {
		if partial.Has(kind) {
			continue
		}
		fb := o.degrade.NeutralFallback(kind)
		analyses = append(analyses, *fb)
		report.Set(kind, fb)
	}
	for _, a := range partial.Scored() {
		cp := a
		report.Set(a.Kind, &cp)
	}

	cap := 0.0
	if degraded {
		cap = o.degrade.ConfidenceCap(partial.SucceededCount())
	}

	verdict, err := o.synth.Synthesize(synthesis.Input{
		Analyses:      analyses,
		Context:       analysisContext,
		ConfidenceCap: cap,
	})
	if err != nil {
		return synthesis.Verdict{}, report, models.AsAnalysisError(err, models.StageSynthesis)
	}
	return verdict, report, nil
}

func (o *Orchestrator) finishSuccess(ctx context.Context, m *Monitor, req models.AnalysisRequest, requestID string, resp *models.AnalysisResponse, log *xlogger.Logger) {
	summary := m.Summary(true)
	o.recordSummaryMetrics(summary, "success")
	log.Info("pipeline completed",
		xlogger.Int("score", resp.SynthesisScore),
		xlogger.String("recommendation", resp.Recommendation),
		xlogger.Duration("total", summary.TotalDuration),
	)

	if o.cache != nil && o.cfg.CacheTTL > 0 {
		if err := o.cache.Set(ctx, cacheKey(req), resp, o.cfg.CacheTTL); err != nil {
			log.Warn("response cache write failed", xlogger.Error(err))
		}
	}
	o.persist(req, requestID, summary, resp, nil, log)
}

func (o *Orchestrator) finishFatal(ctx context.Context, m *Monitor, req models.AnalysisRequest, requestID string, ferr *models.AnalysisError, log *xlogger.Logger) *models.AnalysisError {
	summary := m.Summary(false)
	o.recordSummaryMetrics(summary, "fatal")
	o.metrics.RecordError(string(ferr.Code))
	log.Error("pipeline failed",
		xlogger.String("code", string(ferr.Code)),
		xlogger.String("stage", string(ferr.Stage)),
		xlogger.Error(ferr),
	)
	o.persist(req, requestID, summary, nil, ferr, log)
	return ferr.WithDetail("request_id", requestID)
}

// persist is best-effort: history and event failures are logged, never fatal.
func (o *Orchestrator) persist(req models.AnalysisRequest, requestID string, summary models.PipelineSummary, resp *models.AnalysisResponse, ferr *models.AnalysisError, log *xlogger.Logger) {
	if o.history != nil {
		rec := models.RunRecord{
			RequestID:     requestID,
			Ticker:        req.Ticker,
			Context:       req.Context,
			Success:       summary.Success,
			StageTimings:  summary.StageTimings,
			TotalDuration: summary.TotalDuration,
			CreatedAt:     time.Now().UTC(),
		}
		if resp != nil {
			rec.SynthesisScore = resp.SynthesisScore
			rec.Recommendation = resp.Recommendation
			rec.Confidence = resp.Confidence
		}
		if ferr != nil {
			rec.ErrorCode = string(ferr.Code)
		}
		saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := o.history.SaveRun(saveCtx, rec); err != nil {
			log.Warn("history store write failed", xlogger.Error(err))
		}
	}

	if o.events != nil && resp != nil {
		ev := models.VerdictEvent{
			RequestID:      requestID,
			Ticker:         req.Ticker,
			Context:        req.Context,
			SynthesisScore: resp.SynthesisScore,
			Recommendation: resp.Recommendation,
			Confidence:     resp.Confidence,
			Degraded:       resp.Metadata.Degraded,
			Timestamp:      time.Now().UTC(),
		}
		pubCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := o.events.PublishVerdict(pubCtx, ev); err != nil {
			log.Warn("verdict event publish failed", xlogger.Error(err))
		}
	}
}

func (o *Orchestrator) recordSummaryMetrics(summary models.PipelineSummary, outcome string) {
	o.metrics.RecordPipelineRun(outcome)
	for stage, d := range summary.StageTimings {
		o.metrics.RecordStageDuration(string(stage), d.Seconds())
	}
	for name, state := range o.breakers.States() {
		o.metrics.RecordBreakerState(name, state)
	}
}

func cacheKey(req models.AnalysisRequest) string {
	return fmt.Sprintf("verdict:%s:%s:%s", req.Ticker, req.Context, req.Timeframe)
}
