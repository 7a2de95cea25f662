//go:build wireinject
// +build wireinject

package di

import (
	"OpsRecon/pkg/config"
	"OpsRecon/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient services
		ProvideLogger,
		ProvideMetrics,
		ProvideHTTPClient,
		ProvideLimiter,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideCacheService,

		// Repositories
		ProvideArchive,
		ProvideEventBus,

		// Pipelines
		ProvideEventSources,
		ProvideWriteback,
		ProvideAggregator,
		ProvideLiveChannel,
		ProvideFusionEngine,
		ProvideHistoryRing,
		ProvideBytesCache,

		// Use cases
		ProvideReconService,
		ProvideScheduler,
		ProvideHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
