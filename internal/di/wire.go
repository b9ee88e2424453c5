//go:build wireinject
// +build wireinject

package di

import (
	"TriSight/pkg/config"
	"TriSight/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideCacheService,

		// Repositories
		ProvideHistoryStore,
		ProvideEventPublisher,
		ProvideResponseCache,

		// Pipeline components
		ProvideAnalysisProviders,
		ProvideBreakerRegistry,
		ProvideLimiter,
		ProvideRetryPolicy,
		ProvideQuotas,
		ProvideSynthesisEngine,
		ProvideOrchestrator,

		// HTTP surface
		ProvideHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
