package models

import "fmt"

// ErrorCode classifies pipeline failures.
type ErrorCode string

const (
	CodeValidation             ErrorCode = "VALIDATION"
	CodeAuthentication         ErrorCode = "AUTHENTICATION"
	CodeAPIKeyDecryption       ErrorCode = "API_KEY_DECRYPTION"
	CodeExternalAPI            ErrorCode = "EXTERNAL_API_ERROR"
	CodeRateLimitExceeded      ErrorCode = "RATE_LIMIT_EXCEEDED"
	CodeAnalysisTimeout        ErrorCode = "ANALYSIS_TIMEOUT"
	CodePartialAnalysisFailure ErrorCode = "PARTIAL_ANALYSIS_FAILURE"
	CodeDataQuality            ErrorCode = "DATA_QUALITY_INSUFFICIENT"
	CodeSynthesis              ErrorCode = "SYNTHESIS_ERROR"
	CodeResponseFormatting     ErrorCode = "RESPONSE_FORMATTING_ERROR"
)

// AnalysisError is the domain error raised by any pipeline stage. It is
// immutable once raised; the pipeline monitor owns the list of raised errors.
type AnalysisError struct {
	Code              ErrorCode              `json:"code"`
	Message           string                 `json:"message"`
	Stage             Stage                  `json:"stage,omitempty"`
	Details           map[string]interface{} `json:"details,omitempty"`
	RetryAfterSeconds float64                `json:"retry_after_seconds,omitempty"`
	Ticker            string                 `json:"ticker,omitempty"`
	Context           string                 `json:"context,omitempty"`
}

func (e *AnalysisError) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("%s [%s]: %s", e.Code, e.Stage, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewAnalysisError builds a stage error with the given classification.
func NewAnalysisError(code ErrorCode, stage Stage, msg string) *AnalysisError {
	return &AnalysisError{Code: code, Stage: stage, Message: msg}
}

// WithDetail returns a copy carrying one extra detail entry. The receiver is
// not mutated, keeping raised errors immutable.
func (e *AnalysisError) WithDetail(key string, val interface{}) *AnalysisError {
	cp := *e
	cp.Details = make(map[string]interface{}, len(e.Details)+1)
	for k, v := range e.Details {
		cp.Details[k] = v
	}
	cp.Details[key] = val
	return &cp
}

// IsCircuitOpen reports whether the error is a fast-fail raised by an open
// circuit breaker rather than a real upstream response.
func IsCircuitOpen(err *AnalysisError) bool {
	if err == nil || err.Code != CodeExternalAPI {
		return false
	}
	v, ok := err.Details["reason"]
	return ok && v == "circuit_open"
}

// AsAnalysisError coerces any error into an *AnalysisError, wrapping unknown
// errors as EXTERNAL_API_ERROR for the given stage.
func AsAnalysisError(err error, stage Stage) *AnalysisError {
	if err == nil {
		return nil
	}
	if ae, ok := err.(*AnalysisError); ok {
		if ae.Stage == "" {
			cp := *ae
			cp.Stage = stage
			return &cp
		}
		return ae
	}
	return NewAnalysisError(CodeExternalAPI, stage, err.Error())
}
