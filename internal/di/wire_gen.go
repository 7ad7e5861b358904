// Code generated by Wire. DO NOT EDIT.

//go:generate go run -mod=mod github.com/google/wire/cmd/wire
//go:build !wireinject
// +build !wireinject

package di

import (
	"SignalFuse/pkg/config"
	"SignalFuse/pkg/server"
)

// Injectors from wire.go:

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	logger, err := ProvideLogger(cfg)
	if err != nil {
		return nil, err
	}
	client, err := ProvideClickHouseClient(cfg)
	if err != nil {
		return nil, err
	}
	barStore, err := ProvideBarStore(cfg, client, logger)
	if err != nil {
		return nil, err
	}
	metrics := ProvideMetrics()
	analysisUseCase := ProvideAnalysisUseCase(barStore, metrics, logger)
	service, err := ProvideCacheService(cfg)
	if err != nil {
		return nil, err
	}
	predictionStore := ProvidePredictionStore(service, cfg, logger)
	consensusStore := ProvideConsensusStore(service, cfg)
	producer, err := ProvideKafkaProducer(cfg)
	if err != nil {
		return nil, err
	}
	consensusPublisher := ProvideConsensusPublisher(producer, cfg)
	historyStore := ProvideHistoryStore(client, cfg)
	aggregateUseCase := ProvideAggregateUseCase(predictionStore, consensusStore, consensusPublisher, historyStore, service, metrics, logger, cfg)
	v := ProvidePredictors(cfg)
	predictUseCase := ProvidePredictUseCase(analysisUseCase, v, predictionStore, metrics, logger)
	barsUseCase := ProvideBarsUseCase(barStore)
	handler := ProvideHTTPHandler(logger, analysisUseCase, aggregateUseCase, predictUseCase, barsUseCase)
	consumer, err := ProvideKafkaConsumer(cfg)
	if err != nil {
		return nil, err
	}
	redisQueue, err := ProvideJobQueue(cfg, logger, aggregateUseCase)
	if err != nil {
		return nil, err
	}
	messageHandler := ProvideIngestHandler(predictionStore, redisQueue, metrics, cfg)
	app := ProvideApp(cfg, logger, handler, producer, consumer, messageHandler, redisQueue, consensusPublisher, client)
	return app, nil
}
