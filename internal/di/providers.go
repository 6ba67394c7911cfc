package di

import (
	"context"
	"fmt"
	"time"

	"TradePlan/internal/domain/repository"
	"TradePlan/internal/handler/api"
	"TradePlan/internal/params"
	internalrepo "TradePlan/internal/repository"
	"TradePlan/internal/schema"
	"TradePlan/internal/service/quotes"
	"TradePlan/internal/usecase"
	"TradePlan/internal/validation"
	"TradePlan/pkg/cache"
	pkgch "TradePlan/pkg/clickhouse"
	"TradePlan/pkg/config"
	pkgkafka "TradePlan/pkg/kafka"
	"TradePlan/pkg/logger"
	"TradePlan/pkg/metrics"
	"TradePlan/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	format := "json"
	if cfg.Environment == "development" {
		format = "console"
	}
	return logger.New(&logger.Config{
		Level:  "info",
		Format: format,
		Output: "stdout",
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideSchemaRegistry creates the schema document registry.
func ProvideSchemaRegistry(cfg *config.Config) *schema.Registry {
	return schema.NewRegistry(cfg.Schemas.Dir)
}

// ProvideParams creates the system parameter store.
func ProvideParams(cfg *config.Config) *params.Store {
	opts := []params.Option{}
	if cfg.Parameters.TTL > 0 {
		opts = append(opts, params.WithTTL(cfg.Parameters.TTL))
	}
	return params.NewStore(cfg.Parameters.Path, opts...)
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is
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
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideAuditSink creates the validation audit sink. The Kafka producer
// mirrors audit entries when available.
func ProvideAuditSink(cfg *config.Config, producer *pkgkafka.Producer) *logger.AuditSink {
	auditCfg := &logger.AuditConfig{
		LogPath: cfg.Audit.LogPath,
		MaxSize: cfg.Audit.MaxSize,
		Topic:   cfg.Audit.Topic,
	}
	if producer != nil && cfg.Audit.Topic != "" {
		auditCfg.Publisher = producer
	}
	return logger.NewAuditSink(auditCfg)
}

// ProvideCache creates the plan cache: Redis when enabled, in-process
// memory otherwise.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if cfg.Redis.Enabled {
		return cache.NewRedisCache(
			cache.WithRedisHost(cfg.Redis.Host),
			cache.WithRedisPort(cfg.Redis.Port),
			cache.WithRedisPassword(cfg.Redis.Password),
			cache.WithRedisDB(cfg.Redis.DB),
			cache.WithRedisPrefix(cfg.Redis.Prefix),
		)
	}
	return cache.NewMemoryCache(), nil
}

// ProvideTypeValidator creates the per-type document validator.
func ProvideTypeValidator(store *params.Store, audit *logger.AuditSink, m repository.Metrics) *validation.TypeValidator {
	return validation.NewTypeValidator(store,
		validation.WithAuditSink(audit),
		validation.WithMetrics(m),
	)
}

// ProvideRepairer creates the structural validate-and-fix pipeline.
func ProvideRepairer(registry *schema.Registry, cfg *config.Config, audit *logger.AuditSink, m repository.Metrics) *validation.Repairer {
	return validation.NewRepairer(registry, validation.RepairConfig{
		MaxRetries: cfg.Validation.MaxRetries,
		RetryDelay: cfg.Validation.RetryDelay,
		Audit:      audit,
		Metrics:    m,
	})
}

// ProvideDomainValidator creates the trade-rule validator.
func ProvideDomainValidator(types *validation.TypeValidator, store *params.Store, audit *logger.AuditSink, m repository.Metrics) *validation.DomainValidator {
	return validation.NewDomainValidator(types, store,
		validation.WithDomainAudit(audit),
		validation.WithDomainMetrics(m),
	)
}

// ProvideClickHouseClient creates a ClickHouse client, or nil when the
// store is disabled.
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
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideLevelStore creates the plan run store over ClickHouse. Returns
// nil when ClickHouse is disabled; the pipeline runs without persistence.
func ProvideLevelStore(client *pkgch.Client, cfg *config.Config) (repository.LevelStore, error) {
	if client == nil {
		return nil, nil
	}
	table := cfg.ClickHouse.Table
	if table == "" {
		table = cfg.ClickHouse.Database + ".plan_runs"
	}
	store := internalrepo.NewClickHouseLevelStore(client.DB(), table)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("level store schema: %w", err)
	}
	return store, nil
}

// ProvidePlanPublisher creates the plan topic publisher, or nil without
// Kafka.
func ProvidePlanPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.PlanPublisher {
	if producer == nil || cfg.Kafka.IngestTopic == "" {
		return nil
	}
	return internalrepo.NewKafkaPlanPublisher(producer, cfg.Kafka.IngestTopic+".plans")
}

// ProvideQuoteSource creates the WebSocket quote stream, or nil when
// quotes are disabled.
func ProvideQuoteSource(cfg *config.Config, log *logger.Logger, m repository.Metrics) repository.QuoteSource {
	if !cfg.Quotes.Enabled {
		return nil
	}
	return quotes.New(
		cfg.Quotes.APIKey,
		cfg.Quotes.WebSocketURL,
		cfg.Quotes.Symbols,
		cfg.Quotes.ReconnectDelay,
		cfg.Quotes.PingInterval,
		quotes.WithLogger(log),
		quotes.WithMetrics(m),
	)
}

// ProvidePlanBuilder creates the plan pipeline.
func ProvidePlanBuilder(
	repairer *validation.Repairer,
	domain *validation.DomainValidator,
	store *params.Store,
	planCache cache.Service,
	levelStore repository.LevelStore,
	pub repository.PlanPublisher,
	quoteSource repository.QuoteSource,
	m repository.Metrics,
	log *logger.Logger,
	cfg *config.Config,
) *usecase.PlanBuilder {
	return usecase.NewPlanBuilder(usecase.PlanBuilderDeps{
		Repairer: repairer,
		Domain:   domain,
		Params:   store,
		Cache:    planCache,
		Store:    levelStore,
		Pub:      pub,
		Quotes:   quoteSource,
		Metrics:  m,
		Log:      log,
		CacheTTL: cfg.Plan.CacheTTL,
	})
}

// ProvideKafkaConsumer creates the ingest topic consumer, or nil without
// Kafka.
func ProvideKafkaConsumer(cfg *config.Config, builder *usecase.PlanBuilder, log *logger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || cfg.Kafka.IngestTopic == "" {
		return nil, nil
	}
	handler := usecase.NewIngestHandler(builder, log)
	opts := []pkgkafka.ConsumerOption{
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerTopic(cfg.Kafka.IngestTopic),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.GroupID),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.DLQTopic),
	}
	if cfg.Kafka.Workers > 0 {
		opts = append(opts, pkgkafka.WithConsumerWorkers(cfg.Kafka.Workers))
	}
	if cfg.Kafka.Consumer.RetryMax > 0 {
		opts = append(opts, pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax))
	}
	consumer, err := pkgkafka.NewConsumer(handler, opts...)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvidePlanHandler creates the HTTP handler.
func ProvidePlanHandler(
	log *logger.Logger,
	builder *usecase.PlanBuilder,
	repairer *validation.Repairer,
	types *validation.TypeValidator,
	domain *validation.DomainValidator,
) *api.PlanEchoHandler {
	return api.NewPlanEchoHandler(log, builder, repairer, types, domain)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	handler *api.PlanEchoHandler,
	consumer *pkgkafka.Consumer,
	quoteSource repository.QuoteSource,
	levelStore repository.LevelStore,
	pub repository.PlanPublisher,
	chClient *pkgch.Client,
) *server.App {
	return server.New(cfg, log, handler, consumer, quoteSource, levelStore, pub, chClient)
}
