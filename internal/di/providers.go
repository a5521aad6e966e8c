package di

import (
	"context"
	"fmt"

	"NewsEdge/internal/domain/repository"
	"NewsEdge/internal/model"
	kafkarepo "NewsEdge/internal/repository"
	"NewsEdge/internal/service/polygon"
	"NewsEdge/internal/services/sentiment"
	"NewsEdge/internal/usecase"
	"NewsEdge/pkg/cache"
	"NewsEdge/pkg/config"
	"NewsEdge/pkg/kafka"
	"NewsEdge/pkg/logger"
	"NewsEdge/pkg/metrics"
	"NewsEdge/pkg/server"
)

// ProvideCleanup creates the shutdown hook registry.
func ProvideCleanup() *server.Cleanup {
	return &server.Cleanup{}
}

// ProvideLogger builds the process logger from config.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics builds the Prometheus recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCache builds the cache backend named by config. Redis-backed
// caches register a close hook.
func ProvideCache(cfg *config.Config, cleanup *server.Cleanup) (cache.Service, error) {
	switch cfg.Cache.Type {
	case "memory":
		return cache.NewMemoryCache(), nil
	case "redis", "layered":
		redisCache, err := cache.NewRedisCache(
			cache.WithRedisHost(cfg.Cache.Redis.Host),
			cache.WithRedisPort(cfg.Cache.Redis.Port),
			cache.WithRedisPassword(cfg.Cache.Redis.Password),
			cache.WithRedisDB(cfg.Cache.Redis.DB),
		)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		cleanup.Add(func(ctx context.Context) error {
			return redisCache.Close()
		})
		if cfg.Cache.Type == "layered" {
			return cache.NewLayeredCache(redisCache), nil
		}
		return redisCache, nil
	default:
		return nil, fmt.Errorf("unknown cache type %q", cfg.Cache.Type)
	}
}

// ProvideSentimentScorer builds the sentiment sidecar client.
func ProvideSentimentScorer(cfg *config.Config) *sentiment.Scorer {
	return sentiment.NewScorer(
		cfg.Model.Sentiment.ServiceURL,
		cfg.Model.Sentiment.Timeout,
		sentiment.WithBatchSize(cfg.Model.Sentiment.BatchSize),
		sentiment.WithMaxTokens(cfg.Model.Sentiment.MaxTokens),
	)
}

// ProvideManager builds the model asset manager.
func ProvideManager(cfg *config.Config, scorer *sentiment.Scorer, l *logger.Logger) *model.Manager {
	return model.NewManager(cfg.Model.BundlePath, scorer, l)
}

// ProvideMarketData builds the Polygon client.
func ProvideMarketData(cfg *config.Config, cacheSvc cache.Service, l *logger.Logger) repository.MarketData {
	return polygon.NewClient(polygon.Config{
		APIKey:            cfg.Polygon.APIKey,
		BaseURL:           cfg.Polygon.BaseURL,
		Timeout:           cfg.Polygon.Timeout,
		PriceLookbackDays: cfg.Polygon.PriceLookbackDays,
		NewsLookbackDays:  cfg.Polygon.NewsLookbackDays,
		NewsLimit:         cfg.Polygon.NewsLimit,
		CacheTTL:          cfg.Cache.TTL,
	}, cacheSvc, l)
}

// ProvidePredictor wires the prediction pipeline, attaching the Kafka
// publisher when enabled.
func ProvidePredictor(
	cfg *config.Config,
	manager *model.Manager,
	market repository.MarketData,
	scorer *sentiment.Scorer,
	m repository.Metrics,
	l *logger.Logger,
	cleanup *server.Cleanup,
) (*usecase.Predictor, error) {
	opts := []usecase.Option{}
	if cfg.Kafka.Enabled {
		producerOpts := []kafka.ProducerOption{
			kafka.WithBrokers(cfg.Kafka.Brokers),
			kafka.WithCompression(cfg.Kafka.Compression),
			kafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
			kafka.WithAsync(cfg.Kafka.Producer.Async),
		}
		if cfg.Kafka.Producer.MaxAttempts > 0 {
			producerOpts = append(producerOpts, kafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts))
		}
		if cfg.Kafka.Producer.BatchSize > 0 {
			producerOpts = append(producerOpts, kafka.WithBatchSize(cfg.Kafka.Producer.BatchSize))
		}
		if cfg.Kafka.Producer.Linger > 0 {
			producerOpts = append(producerOpts, kafka.WithBatchTimeout(cfg.Kafka.Producer.Linger))
		}
		if cfg.Kafka.Producer.WriteTimeout > 0 && cfg.Kafka.Producer.ReadTimeout > 0 {
			producerOpts = append(producerOpts, kafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout))
		}
		producer, err := kafka.NewProducer(producerOpts...)
		if err != nil {
			return nil, fmt.Errorf("kafka producer: %w", err)
		}
		publisher := kafkarepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
		cleanup.Add(func(ctx context.Context) error {
			return publisher.Close()
		})
		opts = append(opts, usecase.WithPublisher(publisher))
	}
	return usecase.NewPredictor(manager, market, scorer, m, l, opts...), nil
}
