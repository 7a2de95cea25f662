package di

import (
	"context"
	"fmt"
	"time"

	"OpsRecon/internal/adapter"
	"OpsRecon/internal/aggregator"
	"OpsRecon/internal/domain/models"
	"OpsRecon/internal/domain/repository"
	"OpsRecon/internal/fusion"
	"OpsRecon/internal/handler/api"
	"OpsRecon/internal/history"
	"OpsRecon/internal/livechan"
	internalrepo "OpsRecon/internal/repository"
	"OpsRecon/internal/scheduler"
	icache "OpsRecon/internal/service/cache"
	"OpsRecon/internal/service/ratelimit"
	"OpsRecon/internal/usecase"
	"OpsRecon/pkg/cache"
	pkgch "OpsRecon/pkg/clickhouse"
	"OpsRecon/pkg/config"
	xhttp "OpsRecon/pkg/http"
	pkgkafka "OpsRecon/pkg/kafka"
	applogger "OpsRecon/pkg/logger"
	"OpsRecon/pkg/metrics"
	"OpsRecon/pkg/server"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideHTTPClient creates the shared outbound HTTP client.
func ProvideHTTPClient(cfg *config.Config) *xhttp.Client {
	return xhttp.NewClient(xhttp.WithTimeout(cfg.Sources.Timeout))
}

// ProvideLimiter creates the per-source outbound rate limiter.
func ProvideLimiter() *ratelimit.Limiter {
	return ratelimit.New()
}

// ProvideEventSources builds one adapter per upstream feed. Compliance and
// audit payloads carry status flags instead of severities, so those two get
// inference rules.
func ProvideEventSources(
	cfg *config.Config,
	client *xhttp.Client,
	limiter *ratelimit.Limiter,
	log *applogger.Logger,
	m repository.Metrics,
) []repository.EventSource {
	mk := func(kind models.SourceKind, paths []string, rule adapter.SeverityRule) repository.EventSource {
		f := adapter.NewFetcher(string(kind), cfg.Sources.BaseURL, paths, client,
			adapter.WithLimiter(limiter),
			adapter.WithLogger(log),
			adapter.WithMetrics(m),
		)
		return adapter.NewEventAdapter(kind, f, rule)
	}

	return []repository.EventSource{
		mk(models.SourceAlerts, cfg.Sources.Alerts, nil),
		mk(models.SourceNotifications, cfg.Sources.Notifications, nil),
		mk(models.SourceCompliance, cfg.Sources.Compliance, aggregator.ComplianceSeverity),
		mk(models.SourceAudit, cfg.Sources.Audit, aggregator.AuditSeverity),
		mk(models.SourceAnomalies, cfg.Sources.Anomalies, nil),
	}
}

// ProvideWriteback creates the client for optimistic state write-backs.
func ProvideWriteback(cfg *config.Config, client *xhttp.Client) *adapter.WritebackClient {
	wb := cfg.Sources.Writeback
	return adapter.NewWritebackClient(cfg.Sources.BaseURL, client,
		wb.NotificationsMarkOne,
		wb.NotificationsMarkAll,
		wb.AnomaliesAck,
	)
}

// ProvideAggregator creates the cross-source aggregator. Write-backs are
// registered only for the sources whose upstream exposes state endpoints.
func ProvideAggregator(
	cfg *config.Config,
	sources []repository.EventSource,
	wb *adapter.WritebackClient,
	bus repository.EventBus,
	log *applogger.Logger,
	m repository.Metrics,
) *aggregator.Aggregator {
	opts := []aggregator.Option{
		aggregator.WithCapacity(cfg.Feed.Capacity),
		aggregator.WithStateWriter(models.SourceNotifications, wb),
		aggregator.WithStateWriter(models.SourceAnomalies, wb),
	}
	if bus != nil {
		opts = append(opts, aggregator.WithEventBus(bus))
	}
	return aggregator.New(sources, log, m, opts...)
}

// ProvideLiveChannel creates the live alert channel. The polling fallback
// reuses the alerts field tables so streamed and polled events normalize
// identically.
func ProvideLiveChannel(
	cfg *config.Config,
	client *xhttp.Client,
	limiter *ratelimit.Limiter,
	log *applogger.Logger,
	m repository.Metrics,
) *livechan.Manager {
	paths := cfg.Live.PollPaths
	if len(paths) == 0 {
		paths = cfg.Sources.Alerts
	}
	poll := adapter.NewFetcher("live", cfg.Sources.BaseURL, paths, client,
		adapter.WithLimiter(limiter),
		adapter.WithLogger(log),
		adapter.WithMetrics(m),
	)
	alerts := adapter.NewEventAdapter(models.SourceAlerts, poll, nil)

	return livechan.NewManager(livechan.Config{
		StreamURL:    cfg.Live.StreamURL,
		PollInterval: cfg.Live.PollInterval,
		PollLimit:    cfg.Live.PollLimit,
		Capacity:     cfg.Live.Capacity,
	}, poll, alerts.Normalize, log, m)
}

// ProvideFusionEngine creates the latency/impact fusion engine.
func ProvideFusionEngine(
	cfg *config.Config,
	client *xhttp.Client,
	limiter *ratelimit.Limiter,
	log *applogger.Logger,
	m repository.Metrics,
) *fusion.Engine {
	mk := func(name string, paths []string) *adapter.Fetcher {
		return adapter.NewFetcher(name, cfg.Sources.BaseURL, paths, client,
			adapter.WithLimiter(limiter),
			adapter.WithLogger(log),
			adapter.WithMetrics(m),
		)
	}
	lat := adapter.NewLatencyAdapter(mk("latency", cfg.Sources.Latency))
	imp := adapter.NewImpactAdapter(mk("impact", cfg.Sources.Impact))
	return fusion.New(lat, imp, cfg.Fusion.Threshold, log, m)
}

// ProvideCacheService selects the cache backend for the regime timeline.
// Redis behind a memory layer when configured, plain memory otherwise.
func ProvideCacheService(cfg *config.Config) (cache.Service, error) {
	if !cfg.Redis.Enabled {
		return cache.NewMemoryCache(), nil
	}

	opts := []cache.RedisOption{
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
	}
	if cfg.Redis.Prefix != "" {
		opts = append(opts, cache.WithRedisPrefix(cfg.Redis.Prefix))
	}
	rc, err := cache.NewRedisCache(opts...)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return cache.NewLayeredCache(rc), nil
}

// ProvideHistoryRing creates the bounded regime timeline.
func ProvideHistoryRing(cfg *config.Config, store cache.Service) *history.Ring {
	return history.NewRing(store, cfg.History.Key, cfg.History.Capacity)
}

// ProvideBytesCache creates the in-process response cache.
func ProvideBytesCache() icache.BytesCache {
	return icache.NewTTLCache()
}

// ProvideClickHouseClient creates a ClickHouse client, or nil when archiving
// is disabled.
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

	if err := client.InitSchema(ctx, internalrepo.SchemaStatements(cfg.ClickHouse.Database)); err != nil {
		_ = client.Close() // cannot log here (DI layer no logger); propagate error
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideArchive creates the telemetry archive over ClickHouse, or nil when
// disabled.
func ProvideArchive(cfg *config.Config, chClient *pkgch.Client) repository.Archive {
	if chClient == nil {
		return nil
	}
	db := cfg.ClickHouse.Database
	return internalrepo.NewClickHouseArchive(chClient.DB(), db+".recon_events", db+".recon_cells")
}

// ProvideKafkaProducer creates a Kafka producer, or nil when the bus is
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

// ProvideEventBus creates the Kafka event bus, or nil when disabled.
func ProvideEventBus(cfg *config.Config, producer *pkgkafka.Producer) repository.EventBus {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaEventBus(producer, cfg.Kafka.Topic)
}

// ProvideScheduler creates the refresh scheduler.
func ProvideScheduler(log *applogger.Logger) *scheduler.Scheduler {
	return scheduler.New(log)
}

// ProvideReconService creates the reconciliation service use case.
func ProvideReconService(
	agg *aggregator.Aggregator,
	eng *fusion.Engine,
	live *livechan.Manager,
	regimes *history.Ring,
	archive repository.Archive,
	bytes icache.BytesCache,
	log *applogger.Logger,
) *usecase.ReconService {
	return usecase.NewReconService(agg, eng, live, regimes, archive, bytes, log)
}

// ProvideHandler creates the HTTP handler.
func ProvideHandler(log *applogger.Logger, svc *usecase.ReconService) xhttp.Handler {
	return api.NewReconEchoHandler(log, svc)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	svc *usecase.ReconService,
	live *livechan.Manager,
	sched *scheduler.Scheduler,
	handler xhttp.Handler,
	chClient *pkgch.Client,
	bus repository.EventBus,
) *server.App {
	// Ship aggregated logs over the bus when one is configured.
	if bus != nil && cfg.Kafka.LogTopic != "" {
		if pub, ok := bus.(applogger.Publisher); ok {
			log.AddCollector(&applogger.CollectionConfig{
				TimeInterval:   30 * time.Second,
				CountThreshold: 100,
				Topic:          cfg.Kafka.LogTopic,
				Publisher:      pub,
			})
		}
	}
	return server.New(cfg, log, svc, live, sched, handler, chClient, bus)
}
