//go:build wireinject
// +build wireinject

package di

import (
	"SignalFuse/pkg/config"
	"SignalFuse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient infrastructure
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideCacheService,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideJobQueue,

		// Repositories
		ProvideBarStore,
		ProvidePredictionStore,
		ProvideConsensusStore,
		ProvideConsensusPublisher,
		ProvideHistoryStore,

		// Predictor clients
		ProvidePredictors,

		// Use cases
		ProvideAnalysisUseCase,
		ProvideAggregateUseCase,
		ProvidePredictUseCase,
		ProvideBarsUseCase,
		ProvideIngestHandler,

		// HTTP surface and application server
		ProvideHTTPHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
