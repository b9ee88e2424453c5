package api

import (
	"net/http"

	models "TriSight/internal/domain/models"
	"TriSight/internal/service/resilience"
	"TriSight/internal/usecase"
	xhttp "TriSight/pkg/http"
	xlogger "TriSight/pkg/logger"

	"github.com/labstack/echo/v4"
)

// AnalysisHandler exposes the pipeline over HTTP.
type AnalysisHandler struct {
	logger   *xlogger.Logger
	orch     *usecase.Orchestrator
	breakers *resilience.Registry
	limiter  *resilience.Limiter
	quotas   map[string]resilience.QuotaConfig
}

func NewAnalysisHandler(
	logger *xlogger.Logger,
	orch *usecase.Orchestrator,
	breakers *resilience.Registry,
	limiter *resilience.Limiter,
	quotas map[string]resilience.QuotaConfig,
) *AnalysisHandler {
	return &AnalysisHandler{
		logger:   logger,
		orch:     orch,
		breakers: breakers,
		limiter:  limiter,
		quotas:   quotas,
	}
}

func (h *AnalysisHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/analyze", h.Analyze)
	g.GET("/analyze/stream", h.AnalyzeStream)
	g.GET("/resilience", h.Resilience)
	e.GET("/healthz", h.Health)
}

// Analyze runs the full pipeline for one ticker and returns the verdict.
func (h *AnalysisHandler) Analyze(c echo.Context) error {
	req := &models.AnalysisRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	resp, err := h.orch.RunAnalysis(c.Request().Context(), *req)
	if err != nil {
		return h.errorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, resp)
}

// Resilience reports breaker states and quota usage for each upstream API.
func (h *AnalysisHandler) Resilience(c echo.Context) error {
	quotas := make(map[string]resilience.QuotaStatus, len(h.quotas))
	for apiName, q := range h.quotas {
		quotas[apiName] = h.limiter.Status(apiName, q)
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"breakers": h.breakers.States(),
		"quotas":   quotas,
	})
}

// Health is a liveness probe.
func (h *AnalysisHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *AnalysisHandler) errorResponse(c echo.Context, err error) error {
	ae := models.AsAnalysisError(err, "")
	requestID := ""
	if v, ok := ae.Details["request_id"].(string); ok {
		requestID = v
	}
	h.logger.Warn("analysis request failed",
		xlogger.String("code", string(ae.Code)),
		xlogger.String("ticker", ae.Ticker),
		xlogger.Error(ae),
	)
	appErr := xhttp.NewAppError(string(ae.Code), ae.Message, statusForCode(ae.Code)).
		WithError(ae).
		WithPayload(models.NewErrorResponse(requestID, ae))
	return xhttp.AppErrorResponse(c, appErr)
}

func statusForCode(code models.ErrorCode) int {
	switch code {
	case models.CodeValidation:
		return http.StatusBadRequest
	case models.CodeAuthentication, models.CodeAPIKeyDecryption:
		return http.StatusUnauthorized
	case models.CodeRateLimitExceeded:
		return http.StatusTooManyRequests
	case models.CodeAnalysisTimeout:
		return http.StatusGatewayTimeout
	case models.CodeExternalAPI, models.CodePartialAnalysisFailure:
		return http.StatusBadGateway
	case models.CodeDataQuality:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
