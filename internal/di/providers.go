package di

import (
	"fmt"

	"GeoSentry/internal/aggregator"
	"GeoSentry/internal/alert"
	"GeoSentry/internal/domain/models"
	"GeoSentry/internal/domain/repository"
	"GeoSentry/internal/geofence"
	"GeoSentry/internal/handler/api"
	"GeoSentry/internal/history"
	"GeoSentry/internal/intel"
	"GeoSentry/internal/movement"
	"GeoSentry/internal/risk"
	"GeoSentry/internal/usecase"
	"GeoSentry/pkg/cache"
	"GeoSentry/pkg/config"
	xhttp "GeoSentry/pkg/http"
	pkgkafka "GeoSentry/pkg/kafka"
	"GeoSentry/pkg/logger"
	"GeoSentry/pkg/metrics"
	"GeoSentry/pkg/server"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	l, err := logger.New(&logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCache creates the history mirror backend: Redis when enabled, an
// in-process cache otherwise.
func ProvideCache(cfg *config.Config, log *logger.Logger) cache.Service {
	if !cfg.Redis.Enabled {
		return cache.NewMemoryCache()
	}
	c, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		log.Warn("redis unavailable, using in-memory history mirror", logger.Error(err))
		return cache.NewMemoryCache()
	}
	return c
}

// ProvideKafkaProducer creates the alert producer when Kafka is enabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithTopic(cfg.Kafka.AlertTopic),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithWriteTimeout(cfg.Kafka.Producer.WriteTimeout),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideKafkaConsumer creates the incident consumer when Kafka is enabled.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideProcessor creates the incident aggregation processor.
func ProvideProcessor(cfg *config.Config, m repository.Metrics, log *logger.Logger) *aggregator.Processor {
	return aggregator.NewProcessor(cfg, m, log)
}

// ProvideIntel creates the reference crime-intelligence backend.
func ProvideIntel(cfg *config.Config, processor *aggregator.Processor) repository.CrimeIntel {
	return intel.NewService(cfg, processor)
}

// ProvidePresence creates the in-memory presence tracker.
func ProvidePresence() repository.PresenceTracker {
	return intel.NewPresence()
}

// ProvideHistoryStore creates the per-subject location history store.
func ProvideHistoryStore(cfg *config.Config, cacheSvc cache.Service, log *logger.Logger) *history.Store {
	return history.NewStore(cfg, cacheSvc, log)
}

// ProvideAnalyzer creates the movement analyzer.
func ProvideAnalyzer(cfg *config.Config, store *history.Store) *movement.Analyzer {
	return movement.NewAnalyzer(cfg, store)
}

// ProvideScorer creates the risk scorer.
func ProvideScorer(cfg *config.Config, ci repository.CrimeIntel, presence repository.PresenceTracker, analyzer *movement.Analyzer, log *logger.Logger) *risk.Scorer {
	return risk.NewScorer(cfg, ci, presence, analyzer, log)
}

// ProvideMonitor creates the geofence monitor.
func ProvideMonitor(cfg *config.Config, ci repository.CrimeIntel, log *logger.Logger) *geofence.Monitor {
	return geofence.NewMonitor(cfg, ci, log)
}

// ProvideAlertSink creates the Kafka-backed alert sink.
func ProvideAlertSink(producer *pkgkafka.Producer, log *logger.Logger) repository.AlertSink {
	return alert.NewSink(producer, log)
}

// ProvideGenerator creates the alert generator.
func ProvideGenerator(cfg *config.Config, sink repository.AlertSink, m repository.Metrics, log *logger.Logger) *alert.Generator {
	return alert.NewGenerator(cfg, sink, m, log)
}

// ProvideEngine assembles the location engine pipeline.
func ProvideEngine(
	cfg *config.Config,
	store *history.Store,
	analyzer *movement.Analyzer,
	scorer *risk.Scorer,
	monitor *geofence.Monitor,
	generator *alert.Generator,
	ci repository.CrimeIntel,
	presence repository.PresenceTracker,
	m repository.Metrics,
	log *logger.Logger,
) *usecase.LocationEngine {
	return usecase.NewLocationEngine(cfg, store, analyzer, scorer, monitor, generator, ci, presence, m, log)
}

// ProvideIncidentHandler registers the handler for the incident topic.
func ProvideIncidentHandler(cfg *config.Config, ci repository.CrimeIntel, processor *aggregator.Processor, sink repository.AlertSink, m repository.Metrics, log *logger.Logger) *usecase.IncidentHandler {
	prescorer := usecase.NewPrescorer(ci, func(lat, lng float64) int {
		return processor.IncidentsNear(lat, lng, cfg.Engine.NearbyFraudRadius)
	})
	return usecase.NewIncidentHandler(cfg.Kafka.IncidentTopic, prescorer, processor, sink, m, log)
}

// ProvideHub creates the websocket hub and connects it to the engine and
// aggregator streams.
func ProvideHub(log *logger.Logger, engine *usecase.LocationEngine, processor *aggregator.Processor) *api.Hub {
	hub := api.NewHub(log)
	hub.OnTrack(engine.Track)
	engine.Subscribe(func(r *models.TrackResult) {
		hub.Broadcast("track_result", r)
	})
	processor.Subscribe(func(s *models.PredictionSnapshot) {
		hub.Broadcast("predictions", s)
	})
	return hub
}

// ProvideHTTPHandler creates the API handler.
func ProvideHTTPHandler(log *logger.Logger, engine *usecase.LocationEngine, processor *aggregator.Processor, sink repository.AlertSink, hub *api.Hub) xhttp.Handler {
	return api.NewLocationHandler(log, engine, processor, sink, hub)
}

// ProvideApp assembles the application.
func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	handler xhttp.Handler,
	processor *aggregator.Processor,
	consumer *pkgkafka.Consumer,
	incidents *usecase.IncidentHandler,
	sink repository.AlertSink,
) *server.App {
	return server.New(cfg, log, handler, processor, consumer, incidents, sink)
}
