package resilience

import (
	"context"
	"math/rand"
	"time"

	"TriSight/internal/domain/models"
)

// RetryPolicy classifies errors as retryable and computes backoff delays.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	Jitter     bool
}

// retryableCodes are the transient classes worth another attempt. Validation
// and authentication failures are never retried.
var retryableCodes = map[models.ErrorCode]bool{
	models.CodeExternalAPI:       true,
	models.CodeAnalysisTimeout:   true,
	models.CodeRateLimitExceeded: true,
}

// ShouldRetry reports whether attempt (1-based) may be followed by another.
// A circuit-open rejection is not retried within the same request: the breaker
// will keep rejecting until its cooldown elapses.
func (p RetryPolicy) ShouldRetry(err *models.AnalysisError, attempt int) bool {
	if err == nil || attempt >= p.MaxRetries {
		return false
	}
	if models.IsCircuitOpen(err) {
		return false
	}
	return retryableCodes[err.Code]
}

// Delay computes the exponential backoff before the given attempt's retry:
// base × 2^(attempt−1), with ±25% jitter when enabled.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := p.BaseDelay << (attempt - 1)
	if p.Jitter {
		f := 0.75 + rand.Float64()*0.5
		d = time.Duration(float64(d) * f)
	}
	return d
}

// Do runs fn through an explicit retry loop. A retry counts as a new call for
// any rate limiter inside fn, and each failed attempt still feeds any breaker
// inside fn. The wait honors ctx cancellation.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) *models.AnalysisError) *models.AnalysisError {
	// fn always runs at least once, even for a zero-value policy.
	attempts := p.MaxRetries
	if attempts < 1 {
		attempts = 1
	}
	var last *models.AnalysisError
	for attempt := 1; attempt <= attempts; attempt++ {
		last = fn(ctx)
		if last == nil {
			return nil
		}
		if !p.ShouldRetry(last, attempt) {
			return last
		}

		wait := p.Delay(attempt)
		if last.RetryAfterSeconds > 0 {
			ra := time.Duration(last.RetryAfterSeconds * float64(time.Second))
			if ra > wait {
				wait = ra
			}
		}
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return models.NewAnalysisError(models.CodeAnalysisTimeout, last.Stage, "cancelled while waiting to retry")
		}
	}
	return last
}
