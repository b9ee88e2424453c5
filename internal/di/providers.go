package di

import (
	"context"
	"fmt"
	"time"

	"TriSight/internal/domain/repository"
	domsvc "TriSight/internal/domain/service"
	"TriSight/internal/handler/api"
	internalrepo "TriSight/internal/repository"
	"TriSight/internal/service/resilience"
	"TriSight/internal/services/analysis"
	"TriSight/internal/services/synthesis"
	"TriSight/internal/usecase"
	pkgcache "TriSight/pkg/cache"
	pkgch "TriSight/pkg/clickhouse"
	"TriSight/pkg/config"
	xhttp "TriSight/pkg/http"
	pkgkafka "TriSight/pkg/kafka"
	applogger "TriSight/pkg/logger"
	"TriSight/pkg/metrics"
	"TriSight/pkg/server"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	level := cfg.Logging.Level
	if level == "" {
		level = "info"
	}
	format := cfg.Logging.Format
	if format == "" {
		format = "json"
	}
	return applogger.New(&applogger.Config{Level: level, Format: format, Output: "stdout"})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client and ensures the runs
// table exists. Returns nil when history persistence is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.HistorySchema); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideHistoryStore creates the run history repository, or nil if disabled.
func ProvideHistoryStore(ch *pkgch.Client, l *applogger.Logger) repository.HistoryStore {
	if ch == nil {
		return nil
	}
	store := internalrepo.NewCHHistoryStore(ch)
	store.SetLogger(l)
	return store
}

// ProvideKafkaProducer creates a Kafka producer, or nil when events are
// disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.BatchTimeout),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideEventPublisher creates the verdict event publisher, or nil if
// Kafka is disabled.
func ProvideEventPublisher(producer *pkgkafka.Producer, cfg *config.Config, l *applogger.Logger) repository.EventPublisher {
	if producer == nil {
		return nil
	}
	pub := internalrepo.NewKafkaVerdictPublisher(producer, cfg.Kafka.Topic)
	pub.SetLogger(l)
	return pub
}

// ProvideCacheService creates the response cache backend: a layered
// memory+redis cache when configured, nil when caching is disabled.
func ProvideCacheService(cfg *config.Config) (pkgcache.Service, error) {
	if !cfg.Cache.Enabled {
		return nil, nil
	}
	local := pkgcache.NewMemoryCache()
	if cfg.Cache.Redis.Host == "" {
		return local, nil
	}
	remote, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(cfg.Cache.Redis.Host),
		pkgcache.WithRedisPort(cfg.Cache.Redis.Port),
		pkgcache.WithRedisPassword(cfg.Cache.Redis.Password),
		pkgcache.WithRedisDB(cfg.Cache.Redis.DB),
		pkgcache.WithRedisPoolSize(cfg.Cache.Redis.PoolSize),
		pkgcache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return pkgcache.NewLayeredCache(local, remote), nil
}

// ProvideResponseCache adapts the cache service to the domain contract.
func ProvideResponseCache(svc pkgcache.Service) repository.ResponseCache {
	if svc == nil {
		return nil
	}
	return internalrepo.NewCachedResponseStore(svc)
}

// ProvideAnalysisProviders creates the three upstream analysis clients.
func ProvideAnalysisProviders(cfg *config.Config) domsvc.Providers {
	return domsvc.Providers{
		Fundamental:  analysis.NewHTTPFundamentalProvider(clientConfig(cfg.Upstreams.Fundamental)),
		Technical:    analysis.NewHTTPTechnicalProvider(clientConfig(cfg.Upstreams.Technical)),
		SentimentEco: analysis.NewHTTPSentimentEcoProvider(clientConfig(cfg.Upstreams.Sentiment)),
	}
}

func clientConfig(u config.UpstreamConfig) analysis.ClientConfig {
	return analysis.ClientConfig{
		BaseURL: u.BaseURL,
		Timeout: u.Timeout,
		RPS:     u.RPS,
		Burst:   u.Burst,
	}
}

// ProvideBreakerRegistry creates the shared breaker registry with metrics on
// every state transition.
func ProvideBreakerRegistry(cfg *config.Config, m repository.Metrics) *resilience.Registry {
	reg := resilience.NewRegistry(resilience.BreakerConfig{
		FailureThreshold: uint32(cfg.Resilience.Breaker.FailureThreshold),
		Cooldown:         cfg.Resilience.Breaker.Cooldown,
	})
	reg.OnStateChange(func(name, state string) {
		m.RecordBreakerState(name, state)
	})
	return reg
}

// ProvideLimiter creates the shared fixed-window rate limiter.
func ProvideLimiter() *resilience.Limiter {
	return resilience.NewLimiter()
}

// ProvideRetryPolicy builds the retry policy from config.
func ProvideRetryPolicy(cfg *config.Config) resilience.RetryPolicy {
	p := resilience.RetryPolicy{
		MaxRetries: cfg.Resilience.Retry.MaxRetries,
		BaseDelay:  cfg.Resilience.Retry.BaseDelay,
		Jitter:     cfg.Resilience.Retry.Jitter,
	}
	if p.MaxRetries == 0 {
		p.MaxRetries = 3
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = time.Second
	}
	return p
}

// ProvideQuotas maps configured quotas onto the limiter's config type. APIs
// missing from config get a permissive default.
func ProvideQuotas(cfg *config.Config) map[string]resilience.QuotaConfig {
	quotas := make(map[string]resilience.QuotaConfig)
	for _, apiName := range []string{usecase.APIFundamental, usecase.APITechnical, usecase.APISentimentEco} {
		if q, ok := cfg.Resilience.Quotas[apiName]; ok {
			quotas[apiName] = resilience.QuotaConfig{Limit: q.Limit, Window: q.Window}
		} else {
			quotas[apiName] = resilience.QuotaConfig{Limit: 60, Window: time.Minute}
		}
	}
	return quotas
}

// ProvideSynthesisEngine builds the weighted synthesis engine.
func ProvideSynthesisEngine(cfg *config.Config) *synthesis.Engine {
	weights := make(map[string]synthesis.Weights, len(cfg.Synthesis.Weights))
	for name, w := range cfg.Synthesis.Weights {
		weights[name] = synthesis.Weights{
			Fundamental: w.Fundamental,
			Technical:   w.Technical,
			ESG:         w.ESG,
		}
	}
	return synthesis.NewEngine(weights, synthesis.Thresholds{
		Buy:  cfg.Synthesis.BuyThreshold,
		Sell: cfg.Synthesis.SellThreshold,
	})
}

// ProvideOrchestrator wires the analysis pipeline.
func ProvideOrchestrator(
	providers domsvc.Providers,
	breakers *resilience.Registry,
	limiter *resilience.Limiter,
	retry resilience.RetryPolicy,
	synth *synthesis.Engine,
	history repository.HistoryStore,
	events repository.EventPublisher,
	cache repository.ResponseCache,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
	quotas map[string]resilience.QuotaConfig,
) *usecase.Orchestrator {
	levels := synthesis.LevelCoefficients{
		Entry:       cfg.Synthesis.Levels.EntryATR,
		Stop:        cfg.Synthesis.Levels.StopATR,
		TakeProfits: cfg.Synthesis.Levels.TakeProfit,
	}
	pcfg := usecase.PipelineConfig{
		StageTimeout:  cfg.Resilience.StageTimeout,
		Quotas:        quotas,
		MinConfidence: cfg.Synthesis.MinConfidence,
		CacheTTL:      cfg.Cache.TTL,
		Levels:        levels,
	}
	return usecase.NewOrchestrator(
		providers, breakers, limiter, retry, synth,
		usecase.DefaultDegradationPolicy,
		history, events, cache, m, l, pcfg,
	)
}

// ProvideHandler creates the HTTP handler surface.
func ProvideHandler(
	l *applogger.Logger,
	orch *usecase.Orchestrator,
	breakers *resilience.Registry,
	limiter *resilience.Limiter,
	quotas map[string]resilience.QuotaConfig,
) xhttp.Handler {
	return api.NewAnalysisHandler(l, orch, breakers, limiter, quotas)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	publisher repository.EventPublisher,
	chClient *pkgch.Client,
	cache pkgcache.Service,
) *server.App {
	var closer interface{ Close() error }
	if cache != nil {
		closer = cache
	}
	return server.New(cfg, l, handler, publisher, chClient, closer)
}
