package di

import (
	"context"
	"fmt"
	"time"

	"CPDetect/internal/domain/models"
	drepo "CPDetect/internal/domain/repository"
	"CPDetect/internal/handler/api"
	"CPDetect/internal/ingest"
	internalrepo "CPDetect/internal/repository"
	"CPDetect/internal/server"
	"CPDetect/internal/usecase"
	"CPDetect/pkg/cache"
	pkgch "CPDetect/pkg/clickhouse"
	"CPDetect/pkg/config"
	xhttp "CPDetect/pkg/http"
	pkgkafka "CPDetect/pkg/kafka"
	"CPDetect/pkg/logger"
	"CPDetect/pkg/metrics"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics creates the Prometheus metrics recorder.
func ProvideMetrics() drepo.Metrics {
	return metrics.New()
}

// ProvideStore creates the ClickHouse run store when the sink is enabled.
func ProvideStore(cfg *config.Config) (drepo.Storage, error) {
	if !cfg.Sinks.Store {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	store := internalrepo.NewClickHouseRunStore(client, cfg.ClickHouse.Database)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return store, nil
}

// ProvidePublisher creates the Kafka run publisher when the sink is enabled.
func ProvidePublisher(cfg *config.Config) (drepo.Publisher, error) {
	if !cfg.Sinks.Publish {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithWriteTimeout(cfg.Kafka.WriteTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return internalrepo.NewKafkaRunPublisher(producer, cfg.Kafka.Topic), nil
}

// ProvideCache picks the Redis backend when enabled, in-process otherwise.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if cfg.Cache.Redis {
		return cache.NewRedisCache(cfg.Cache.Addr, cfg.Cache.Password, cfg.Cache.DB)
	}
	return cache.NewMemoryCache(), nil
}

// ProvidePrices loads the configured price CSV.
func ProvidePrices(cfg *config.Config) (models.PriceSeries, error) {
	return ingest.LoadPrices(cfg.PricesPath())
}

// ProvideEvents loads the curated event table; missing file means no events.
func ProvideEvents(cfg *config.Config) ([]models.Event, error) {
	if cfg.Data.EventsPath == "" {
		return nil, nil
	}
	return ingest.LoadEvents(cfg.Data.EventsPath)
}

// ProvideDetector creates the detection use case.
func ProvideDetector(cfg *config.Config, log *logger.Logger, m drepo.Metrics, store drepo.Storage, pub drepo.Publisher) *usecase.Detector {
	return usecase.NewDetector(cfg, log, m, store, pub)
}

// ProvideHandler creates the API handler.
func ProvideHandler(cfg *config.Config, log *logger.Logger, detector *usecase.Detector, store drepo.Storage, c cache.Service, prices models.PriceSeries, evts []models.Event) xhttp.Handler {
	return api.NewHandler(log, detector, store, c, cfg.Cache.TTL, cfg.Data.Dataset, prices, evts)
}

// ProvideServer creates the HTTP server.
func ProvideServer(cfg *config.Config, handler xhttp.Handler, log *logger.Logger) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetricsPath(cfg.Metrics.Path))
	}
	return xhttp.NewServer(handler, log, opts...)
}

// ProvideApp creates the application.
func ProvideApp(cfg *config.Config, log *logger.Logger, srv *xhttp.Server, store drepo.Storage, pub drepo.Publisher, c cache.Service) *server.App {
	return server.New(cfg, log, srv, store, pub, c)
}
