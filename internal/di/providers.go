package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"SignalFuse/internal/consensus"
	"SignalFuse/internal/domain/repository"
	domsvc "SignalFuse/internal/domain/service"
	"SignalFuse/internal/handler/api"
	internalrepo "SignalFuse/internal/repository"
	"SignalFuse/internal/service/alphavantage"
	"SignalFuse/internal/services/predictors"
	"SignalFuse/internal/usecase"
	"SignalFuse/pkg/cache"
	pkgch "SignalFuse/pkg/clickhouse"
	"SignalFuse/pkg/config"
	xhttp "SignalFuse/pkg/http"
	pkgkafka "SignalFuse/pkg/kafka"
	applogger "SignalFuse/pkg/logger"
	"SignalFuse/pkg/metrics"
	"SignalFuse/pkg/queue"
	"SignalFuse/pkg/server"

	"github.com/redis/go-redis/v9"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	level := cfg.Logging.Level
	if level == "" {
		level = "info"
	}
	format := "json"
	if cfg.Environment == "development" {
		format = "console"
	}
	return applogger.New(&applogger.Config{Level: level, Format: format, Output: "stdout"})
}

// ProvideClickHouseClient creates a ClickHouse client, or nil when the
// warehouse is disabled.
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
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	// Initialize schema
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS signalfuse",
		"CREATE TABLE IF NOT EXISTS signalfuse.bars_5min (bucket DateTime, symbol String, open Float64, high Float64, low Float64, close Float64, vol Float64) ENGINE=MergeTree ORDER BY (symbol, bucket)",
		"CREATE TABLE IF NOT EXISTS signalfuse.bars_daily (bucket DateTime, symbol String, open Float64, high Float64, low Float64, close Float64, vol Float64) ENGINE=MergeTree ORDER BY (symbol, bucket)",
		"CREATE TABLE IF NOT EXISTS signalfuse.consensus_history (ts DateTime, symbol String, timeframe String, label String, confidence Float64, buy_votes Int32, sell_votes Int32, hold_votes Int32, sources Array(String)) ENGINE=MergeTree ORDER BY (symbol, timeframe, ts)",
	}); err != nil {
		_ = client.Close() // cannot log here (DI layer no logger); propagate error
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideCacheService creates the cache backing predictions, consensus,
// and aggregation locks.
func ProvideCacheService(cfg *config.Config) (cache.Service, error) {
	switch cfg.Cache.Type {
	case "", "memory":
		opts := []cache.MemoryOption{}
		if cfg.Cache.MemoryMaxSize > 0 {
			opts = append(opts, cache.WithMemoryMaxSize(cfg.Cache.MemoryMaxSize))
		}
		return cache.NewMemoryCache(opts...), nil
	case "redis":
		host, port, err := splitRedisAddr(cfg.Cache.Redis.Addr)
		if err != nil {
			return nil, err
		}
		return cache.NewRedisCache(
			cache.WithRedisHost(host),
			cache.WithRedisPort(port),
			cache.WithRedisPassword(cfg.Cache.Redis.Password),
			cache.WithRedisDB(cfg.Cache.Redis.DB),
		)
	case "layered":
		host, port, err := splitRedisAddr(cfg.Cache.Redis.Addr)
		if err != nil {
			return nil, err
		}
		rc, err := cache.NewRedisCache(
			cache.WithRedisHost(host),
			cache.WithRedisPort(port),
			cache.WithRedisPassword(cfg.Cache.Redis.Password),
			cache.WithRedisDB(cfg.Cache.Redis.DB),
		)
		if err != nil {
			return nil, err
		}
		layeredOpts := []cache.LayeredOption{}
		if cfg.Cache.MemoryMaxSize > 0 {
			layeredOpts = append(layeredOpts, cache.WithLayeredMemorySize(cfg.Cache.MemoryMaxSize))
		}
		return cache.NewLayeredCache(rc, layeredOpts...), nil
	default:
		return nil, fmt.Errorf("unknown cache type: %s", cfg.Cache.Type)
	}
}

func splitRedisAddr(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid redis addr %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid redis port %q: %w", portStr, err)
	}
	return host, port, nil
}

// ProvideBarStore selects the bar source per config.
func ProvideBarStore(cfg *config.Config, chClient *pkgch.Client, l *applogger.Logger) (repository.BarStore, error) {
	switch cfg.MarketData.Source {
	case "clickhouse":
		if chClient == nil {
			return nil, fmt.Errorf("marketdata.source is clickhouse but the client is disabled")
		}
		store := internalrepo.NewCHBarStore(chClient)
		store.SetLogger(l)
		return store, nil
	case "alphavantage":
		return alphavantage.NewClient(
			cfg.MarketData.APIKey,
			cfg.MarketData.Timeout,
			alphavantage.WithLogger(l),
		), nil
	default:
		return nil, fmt.Errorf("unknown marketdata source: %s", cfg.MarketData.Source)
	}
}

// ProvidePredictionStore creates the per-source prediction store.
func ProvidePredictionStore(c cache.Service, cfg *config.Config, l *applogger.Logger) repository.PredictionStore {
	return internalrepo.NewCachePredictionStore(c, cfg.Cache.TTL, l)
}

// ProvideConsensusStore creates the keyed consensus store.
func ProvideConsensusStore(c cache.Service, cfg *config.Config) repository.ConsensusStore {
	return internalrepo.NewCacheConsensusStore(c, cfg.Cache.TTL)
}

// ProvideKafkaProducer creates a Kafka producer, or nil when disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
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

// ProvideConsensusPublisher creates the Kafka publisher, or a noop
// when Kafka is disabled.
func ProvideConsensusPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.ConsensusPublisher {
	if producer == nil {
		return internalrepo.NoopPublisher{}
	}
	return internalrepo.NewKafkaConsensusPublisher(producer, cfg.Kafka.ConsensusTopic)
}

// ProvideHistoryStore creates the ClickHouse consensus archive, or nil
// when the warehouse is disabled.
func ProvideHistoryStore(chClient *pkgch.Client, cfg *config.Config) repository.HistoryStore {
	if chClient == nil {
		return nil
	}
	table := cfg.ClickHouse.HistoryTable
	if table == "" {
		table = "signalfuse.consensus_history"
	}
	return internalrepo.NewClickHouseHistory(chClient.DB(), table)
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvidePredictors builds one HTTP predictor per configured source.
func ProvidePredictors(cfg *config.Config) []domsvc.Predictor {
	out := make([]domsvc.Predictor, 0, len(cfg.Predictors))
	for _, p := range cfg.Predictors {
		out = append(out, predictors.NewHTTPPredictor(p.Name, p.BaseURL, p.Timeout, p.Retries))
	}
	return out
}

// ProvideAnalysisUseCase creates the indicator/profile read use case.
func ProvideAnalysisUseCase(store repository.BarStore, m repository.Metrics, l *applogger.Logger) *usecase.AnalysisUseCase {
	return usecase.NewAnalysisUseCase(store, m, l)
}

// ProvideAggregateUseCase creates the consensus pipeline use case.
func ProvideAggregateUseCase(
	predictions repository.PredictionStore,
	store repository.ConsensusStore,
	publisher repository.ConsensusPublisher,
	history repository.HistoryStore,
	locks cache.Service,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.AggregateUseCase {
	return usecase.NewAggregateUseCase(
		consensus.NewEngine(), predictions, store, publisher, history, locks, m, l,
		cfg.Consensus.Sources,
	)
}

// ProvidePredictUseCase creates the predictor fan-out use case.
func ProvidePredictUseCase(
	analysis *usecase.AnalysisUseCase,
	preds []domsvc.Predictor,
	store repository.PredictionStore,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.PredictUseCase {
	return usecase.NewPredictUseCase(analysis, preds, store, m, l)
}

// ProvideBarsUseCase creates the raw bars read use case.
func ProvideBarsUseCase(store repository.BarStore) *usecase.BarsUseCase {
	return usecase.NewBarsUseCase(store)
}

// ProvideJobQueue creates the Redis queue that recomputes consensus
// off the ingest path, or nil when disabled. The queue is registered
// with the aggregate job but not started; the app owns its lifecycle.
func ProvideJobQueue(cfg *config.Config, l *applogger.Logger, aggregate *usecase.AggregateUseCase) (*queue.RedisQueue, error) {
	if !cfg.Queue.Enabled {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
	})
	q := queue.NewRedisQueue(l, &queue.QueueConfig{
		Workers:    cfg.Queue.Workers,
		RetryLimit: cfg.Queue.RetryLimit,
		RetryDelay: cfg.Queue.RetryDelay,
	}, client, queue.ModeProducerConsumer)
	q.RegisterJob(usecase.NewAggregateJob(aggregate, cfg.Consensus.Infer, l))
	return q, nil
}

// ProvideKafkaConsumer creates a Kafka consumer, or nil when disabled.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || cfg.Kafka.IngestTopic == "" {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideIngestHandler registers the prediction ingest handler.
func ProvideIngestHandler(store repository.PredictionStore, jobs *queue.RedisQueue, m repository.Metrics, cfg *config.Config) pkgkafka.MessageHandler {
	var svc queue.QueueService
	if jobs != nil {
		svc = jobs
	}
	return usecase.NewPredictionIngestHandler(cfg.Kafka.IngestTopic, store, svc, m)
}

// ProvideHTTPHandler creates the analysis API handler.
func ProvideHTTPHandler(
	l *applogger.Logger,
	analysis *usecase.AnalysisUseCase,
	aggregate *usecase.AggregateUseCase,
	predict *usecase.PredictUseCase,
	bars *usecase.BarsUseCase,
) xhttp.Handler {
	return api.NewAnalysisHandler(l, analysis, aggregate, predict, bars)
}

// kafkaLogPublisher adapts the Kafka producer to the log collector's
// Publisher interface. Aggregated entries are published unkeyed.
type kafkaLogPublisher struct {
	p *pkgkafka.Producer
}

func (k kafkaLogPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return k.p.Publish(ctx, topic, nil, payload)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	producer *pkgkafka.Producer,
	consumer *pkgkafka.Consumer,
	ingest pkgkafka.MessageHandler,
	jobs *queue.RedisQueue,
	publisher repository.ConsensusPublisher,
	chClient *pkgch.Client,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	if cfg.Logging.Collector.Enabled && producer != nil {
		interval := cfg.Logging.Collector.Interval
		if interval <= 0 {
			interval = 30 * time.Second
		}
		threshold := cfg.Logging.Collector.CountThreshold
		if threshold <= 0 {
			threshold = 100
		}
		topic := cfg.Logging.Collector.Topic
		if topic == "" {
			topic = "signalfuse.logs"
		}
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   interval,
			CountThreshold: threshold,
			Topic:          topic,
			Publisher:      kafkaLogPublisher{p: producer},
		})
	}
	return server.New(cfg, l, handler, consumer, ingest, jobs, publisher, chClient)
}
