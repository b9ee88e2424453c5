package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TriSight/internal/domain/models"
)

func transient(code models.ErrorCode) *models.AnalysisError {
	return models.NewAnalysisError(code, models.StageFundamental, "transient")
}

func TestShouldRetryClassification(t *testing.T) {
	p := RetryPolicy{MaxRetries: 3, BaseDelay: time.Millisecond}

	assert.True(t, p.ShouldRetry(transient(models.CodeExternalAPI), 1))
	assert.True(t, p.ShouldRetry(transient(models.CodeAnalysisTimeout), 2))
	assert.True(t, p.ShouldRetry(transient(models.CodeRateLimitExceeded), 1))

	assert.False(t, p.ShouldRetry(transient(models.CodeValidation), 1))
	assert.False(t, p.ShouldRetry(transient(models.CodeAuthentication), 1))
	assert.False(t, p.ShouldRetry(transient(models.CodeExternalAPI), 3), "attempt budget exhausted")

	open := transient(models.CodeExternalAPI).WithDetail("reason", "circuit_open")
	assert.False(t, p.ShouldRetry(open, 1), "circuit-open rejections are not retried")
}

func TestDelayExponential(t *testing.T) {
	p := RetryPolicy{MaxRetries: 5, BaseDelay: 100 * time.Millisecond}
	assert.Equal(t, 100*time.Millisecond, p.Delay(1))
	assert.Equal(t, 200*time.Millisecond, p.Delay(2))
	assert.Equal(t, 400*time.Millisecond, p.Delay(3))
}

func TestDelayJitterBounds(t *testing.T) {
	p := RetryPolicy{MaxRetries: 5, BaseDelay: 100 * time.Millisecond, Jitter: true}
	for i := 0; i < 50; i++ {
		d := p.Delay(2)
		assert.GreaterOrEqual(t, d, 150*time.Millisecond)
		assert.LessOrEqual(t, d, 250*time.Millisecond)
	}
}

func TestDoStopsOnSuccess(t *testing.T) {
	p := RetryPolicy{MaxRetries: 5, BaseDelay: time.Millisecond}
	calls := 0
	err := p.Do(context.Background(), func(ctx context.Context) *models.AnalysisError {
		calls++
		if calls < 3 {
			return transient(models.CodeExternalAPI)
		}
		return nil
	})
	require.Nil(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoNonRetryableAbortsImmediately(t *testing.T) {
	p := RetryPolicy{MaxRetries: 5, BaseDelay: time.Millisecond}
	calls := 0
	err := p.Do(context.Background(), func(ctx context.Context) *models.AnalysisError {
		calls++
		return transient(models.CodeValidation)
	})
	require.NotNil(t, err)
	assert.Equal(t, models.CodeValidation, err.Code)
	assert.Equal(t, 1, calls)
}

func TestDoExhaustsBudget(t *testing.T) {
	p := RetryPolicy{MaxRetries: 3, BaseDelay: time.Millisecond}
	calls := 0
	err := p.Do(context.Background(), func(ctx context.Context) *models.AnalysisError {
		calls++
		return transient(models.CodeExternalAPI)
	})
	require.NotNil(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoZeroValuePolicyRunsOnce(t *testing.T) {
	var p RetryPolicy
	calls := 0
	err := p.Do(context.Background(), func(ctx context.Context) *models.AnalysisError {
		calls++
		return transient(models.CodeExternalAPI)
	})
	require.NotNil(t, err, "a failing call must not read as success")
	assert.Equal(t, models.CodeExternalAPI, err.Code)
	assert.Equal(t, 1, calls)
}

func TestDoHonorsCancellation(t *testing.T) {
	p := RetryPolicy{MaxRetries: 3, BaseDelay: time.Second}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan *models.AnalysisError, 1)
	go func() {
		done <- p.Do(ctx, func(ctx context.Context) *models.AnalysisError {
			return transient(models.CodeExternalAPI)
		})
	}()
	cancel()

	select {
	case err := <-done:
		require.NotNil(t, err)
		assert.Equal(t, models.CodeAnalysisTimeout, err.Code)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Do did not stop on cancellation")
	}
}

func TestDoRespectsRetryAfterHint(t *testing.T) {
	p := RetryPolicy{MaxRetries: 2, BaseDelay: time.Millisecond}
	hinted := transient(models.CodeRateLimitExceeded)
	hinted.RetryAfterSeconds = 0.02

	calls := 0
	start := time.Now()
	_ = p.Do(context.Background(), func(ctx context.Context) *models.AnalysisError {
		calls++
		if calls == 1 {
			return hinted
		}
		return nil
	})
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	assert.Equal(t, 2, calls)
}
