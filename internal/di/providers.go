package di

import (
	"context"
	"fmt"
	"time"

	"shelfcast/internal/domain/models"
	"shelfcast/internal/domain/repository"
	domsvc "shelfcast/internal/domain/service"
	mid "shelfcast/internal/middleware"
	internalrepo "shelfcast/internal/repository"
	"shelfcast/internal/service/posfeed"
	"shelfcast/internal/services/calendar"
	"shelfcast/internal/services/features"
	"shelfcast/internal/services/forecast"
	"shelfcast/internal/services/model"
	"shelfcast/internal/usecase"
	pkgch "shelfcast/pkg/clickhouse"
	"shelfcast/pkg/config"
	pkgkafka "shelfcast/pkg/kafka"
	"shelfcast/pkg/metrics"
	"shelfcast/pkg/server"

	"github.com/segmentio/kafka-go"
)

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
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
		"CREATE DATABASE IF NOT EXISTS shelfcast",
		`CREATE TABLE IF NOT EXISTS shelfcast.sales_daily (
			date Date,
			item_id String,
			store_id String,
			dept_id String,
			cat_id String,
			state_id String,
			sales Float64,
			sell_price Float64
		) ENGINE=MergeTree ORDER BY (item_id, store_id, date)`,
	}); err != nil {
		_ = client.Close() // cannot log here (DI layer no logger); propagate error
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
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

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideSalesStorage creates ClickHouse storage repository.
func ProvideSalesStorage(chClient *pkgch.Client, cfg *config.Config) repository.Storage {
	return internalrepo.NewClickHouseSalesStore(chClient.DB(), cfg.ClickHouse.Database+".sales_daily")
}

// ProvideSalesPublisher creates Kafka publisher repository.
func ProvideSalesPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	return internalrepo.NewKafkaObservationPublisher(producer, cfg.Kafka.Topic)
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML. A
// timing hook records end-to-end handle latency per message.
func ProvideKafkaConsumer(cfg *config.Config, m repository.Metrics) (*pkgkafka.Consumer, error) {
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

	consumer.WithConsumerHook(pkgkafka.HookFuncs{
		Before: func(ctx context.Context, topic string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
			return pkgkafka.WithStartTime(ctx, time.Now()), km, data, nil
		},
		After: func(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
			if start, ok := pkgkafka.StartTime(ctx); ok {
				m.RecordLatency("consumer_handle_seconds", time.Since(start).Seconds())
			}
		},
		Err: func(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
			m.RecordError("consumer_handle")
		},
	})
	return consumer, nil
}

// ProvideKafkaSalesHandler registers handler for the sales topic.
func ProvideKafkaSalesHandler(store repository.Storage, metrics repository.Metrics, cfg *config.Config) *usecase.KafkaSalesHandler {
	return usecase.NewKafkaSalesHandler(cfg.Kafka.Topic, store, metrics)
}

// ProvidePosFeedStream creates the POS gateway WebSocket stream.
func ProvidePosFeedStream(cfg *config.Config) repository.SalesStream {
	return posfeed.New(
		cfg.PosFeed.APIKey,
		cfg.PosFeed.WebSocketURL,
		cfg.PosFeed.Stores,
		cfg.PosFeed.ReconnectDelay,
		cfg.PosFeed.PingInterval,
	)
}

// ProvideObservationProcessor creates the observation processor use case.
func ProvideObservationProcessor(
	pub repository.Publisher,
	store repository.Storage,
	metrics repository.Metrics,
	cfg *config.Config,
) *usecase.ObservationProcessor {
	return usecase.NewObservationProcessor(
		pub,
		store,
		metrics,
		cfg.Backend.Type,
		cfg.Backend.BatchSize,
		cfg.Backend.BatchTimeout,
	)
}

// ProvideObservationCollector creates the observation collector use case.
func ProvideObservationCollector(
	stream repository.SalesStream,
	processor *usecase.ObservationProcessor,
	metrics repository.Metrics,
) *usecase.ObservationCollector {
	// Build middleware pipeline between the POS feed and the backend
	pipe := mid.NewIngestPipeline(processor, metrics,
		mid.WithMaxRPS(50),
		mid.WithBufferSize(2000),
	)
	return usecase.NewObservationCollector(stream, processor, metrics, pipe)
}

// ProvideModelArtifact loads the trained regressor artifact from disk.
func ProvideModelArtifact(cfg *config.Config) (*model.Artifact, error) {
	a, err := model.Load(cfg.Model.ArtifactPath)
	if err != nil {
		return nil, fmt.Errorf("model artifact: %w", err)
	}
	return a, nil
}

// ProvideRegressor binds the artifact's coefficients into a regressor.
func ProvideRegressor(a *model.Artifact) (domsvc.Regressor, error) {
	return model.NewLinearRegressor(a)
}

// ProvideModelInfo summarizes the loaded artifact for the API.
func ProvideModelInfo(a *model.Artifact) models.ModelInfo {
	return a.Info()
}

// ProvideFeatureBuilder creates the feature builder bound to the artifact's
// encoder tables.
func ProvideFeatureBuilder(a *model.Artifact) *features.Builder {
	return features.NewBuilder(a.Encoding())
}

// ProvideExpander creates the horizon expander.
func ProvideExpander() *forecast.Expander {
	return forecast.NewExpander()
}

// ProvideEventCalendar picks the configured events service or falls back to
// the Friday heuristic.
func ProvideEventCalendar(cfg *config.Config) domsvc.EventCalendar {
	if cfg.Calendar.ServiceURL != "" {
		return calendar.NewHTTPEventCalendar(cfg)
	}
	return calendar.FridayFallback{}
}

// ProvideHistoryStore creates the ClickHouse-backed sales history reader.
func ProvideHistoryStore(chClient *pkgch.Client) repository.HistoryStore {
	return internalrepo.NewCHHistoryStore(chClient)
}

// ProvideForecaster creates the forecast orchestration use case.
func ProvideForecaster(
	history repository.HistoryStore,
	cal domsvc.EventCalendar,
	builder *features.Builder,
	regressor domsvc.Regressor,
	expander *forecast.Expander,
	metrics repository.Metrics,
	cfg *config.Config,
) *usecase.Forecaster {
	return usecase.NewForecaster(history, cal, builder, regressor, expander, metrics, cfg.Model.HistoryDays, cfg.Model.PriceDays)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	collector *usecase.ObservationCollector,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaSalesHandler,
	chClient *pkgch.Client,
	forecaster *usecase.Forecaster,
	info models.ModelInfo,
) *server.App {
	app := server.New(cfg, collector, consumer, kh, chClient, forecaster, info)
	// attach observation processor to app for closing resources via collector
	if collector != nil {
		app.ObsProc = collector.Processor()
	}
	return app
}
