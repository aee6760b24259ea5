package server

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"shelfcast/internal/domain/models"
	"shelfcast/internal/handler/api"
	icache "shelfcast/internal/service/cache"
	"shelfcast/internal/usecase"
	pkgch "shelfcast/pkg/clickhouse"
	"shelfcast/pkg/config"
	xhttp "shelfcast/pkg/http"
	pkgkafka "shelfcast/pkg/kafka"
	applogger "shelfcast/pkg/logger"
	"shelfcast/pkg/queue"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	collector   *usecase.ObservationCollector
	consumer    *pkgkafka.Consumer
	kh          pkgkafka.MessageHandler
	chClient    *pkgch.Client
	forecaster  *usecase.Forecaster
	modelInfo   models.ModelInfo
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
	batchQueue  *queue.RedisQueue
	ObsProc     *usecase.ObservationProcessor
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	collector *usecase.ObservationCollector,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	chClient *pkgch.Client,
	forecaster *usecase.Forecaster,
	info models.ModelInfo,
) *App {
	return &App{
		cfg:        cfg,
		collector:  collector,
		consumer:   consumer,
		kh:         kh,
		chClient:   chClient,
		forecaster: forecaster,
		modelInfo:  info,
	}
}

// SetHTTPHandler allows DI to inject an HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// init app logger (console info by default)
	l, _ := applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})

	// Setup Echo HTTP server using pkg/http and register routes via handler
	var httpHandler xhttp.Handler
	if a.httpHandler != nil {
		httpHandler = a.httpHandler
	} else if a.forecaster != nil {
		fe := api.NewForecastEchoHandler(l, a.forecaster, a.modelInfo)

		// Forecast response cache: Redis when configured, in-process otherwise
		if a.cfg.Forecast.Redis.Enabled {
			fe.SetCache(icache.NewRedisCache(icache.RedisConfig{
				Addr:     a.cfg.Forecast.Redis.Addr,
				Password: a.cfg.Forecast.Redis.Password,
				DB:       a.cfg.Forecast.Redis.DB,
			}), a.cfg.Forecast.CacheTTL)
		} else {
			fe.SetCache(icache.NewTTLCache(), a.cfg.Forecast.CacheTTL)
		}

		// Batch forecast queue
		if a.cfg.Forecast.Batch.Enabled && a.cfg.Forecast.Redis.Addr != "" {
			rdb := redis.NewClient(&redis.Options{
				Addr:     a.cfg.Forecast.Redis.Addr,
				Password: a.cfg.Forecast.Redis.Password,
				DB:       a.cfg.Forecast.Redis.DB,
			})
			q := queue.NewRedisQueue(l, &queue.QueueConfig{
				Workers:    a.cfg.Forecast.Batch.Workers,
				QueueSize:  1000,
				RetryLimit: a.cfg.Forecast.Batch.RetryLimit,
				RetryDelay: a.cfg.Forecast.Batch.RetryDelay,
			}, rdb, queue.ModeProducerConsumer)
			q.RegisterJob(usecase.NewForecastBatchJob(a.forecaster, l))
			if err := q.Start(); err != nil {
				l.Error("batch queue start error", applogger.Error(err))
			} else {
				q.StartRetryProcessor()
				fe.SetQueue(q)
				a.batchQueue = q
				l.Info("batch queue started", applogger.Int("workers", a.cfg.Forecast.Batch.Workers))
			}
		}

		httpHandler = fe
	}

	a.httpServer = xhttp.NewServer(httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	// Start collector
	go func() {
		if err := a.collector.Start(ctx); err != nil {
			l.Error("collector error", applogger.Error(err))
		}
	}()
	l.Info("collector started", applogger.Strings("stores", a.cfg.PosFeed.Stores))

	// Start consumer if configured
	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	// Start HTTP server
	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	// best-effort logging via stdout
	l, err := applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
	if err != nil {
		log.Printf("failed to create logger: %v", err)
		return err
	}
	l.Info("shutting down...")

	// Stop collector (pipeline + stream)
	if err := a.collector.Shutdown(ctx); err != nil {
		l.Warn("collector stop error", applogger.Error(err))
	}

	// Shutdown HTTP server
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	// Drain batch queue workers
	if a.batchQueue != nil {
		if err := a.batchQueue.Stop(shutdownCtx); err != nil {
			l.Warn("batch queue stop error", applogger.Error(err))
		}
	}

	// Close infrastructure clients
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	// Stop consumer
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// Close observation processor resources (publisher/storage)
	if a.ObsProc != nil {
		a.ObsProc.Close()
	}

	l.Info("shutdown complete")
	return nil
}
