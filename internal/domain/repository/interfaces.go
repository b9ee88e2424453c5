package repository

import (
	"context"
	"time"

	"TriSight/internal/domain/models"
)

// Metrics records pipeline observability signals.
type Metrics interface {
	RecordStageDuration(stage string, seconds float64)
	RecordPipelineRun(outcome string)
	RecordBreakerState(apiName, state string)
	RecordRateLimitDenied(apiName string)
	RecordError(kind string)
	RecordCacheHit(hit bool)
}

// HistoryStore persists completed pipeline runs for diagnostics.
type HistoryStore interface {
	SaveRun(ctx context.Context, rec models.RunRecord) error
}

// EventPublisher publishes completed verdicts for downstream consumers.
type EventPublisher interface {
	PublishVerdict(ctx context.Context, ev models.VerdictEvent) error
	Close() error
}

// ResponseCache caches successful responses keyed by ticker+context+timeframe.
type ResponseCache interface {
	Get(ctx context.Context, key string) (*models.AnalysisResponse, bool, error)
	Set(ctx context.Context, key string, resp *models.AnalysisResponse, ttl time.Duration) error
}
