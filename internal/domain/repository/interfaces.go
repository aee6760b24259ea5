package repository

import (
	"context"
	"time"

	"shelfcast/internal/domain/models"
)

// SalesStream is a live feed of point-of-sale observations from a store
// gateway.
type SalesStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.SalesObservation, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Publisher publishes sales observations to the ingest backend.
type Publisher interface {
	Publish(ctx context.Context, o *models.SalesObservation) error
	PublishBatch(ctx context.Context, obs []*models.SalesObservation) error
	Close() error
}

// Storage persists sales observations durably.
type Storage interface {
	Init(ctx context.Context) error // ensure tables, health checks
	Store(ctx context.Context, o *models.SalesObservation) error
	StoreBatch(ctx context.Context, obs []*models.SalesObservation) error
	Health(ctx context.Context) error // ping
	Close() error
}

// HistoryStore provides read-only access to per-item sales history for
// feature engineering. An empty result is legal: the feature builder falls
// back to its cold-start heuristic.
type HistoryStore interface {
	// RecentSales returns the chronological tail (oldest first) of daily
	// sales for the item/store pair, up to n days ending at ref.
	RecentSales(ctx context.Context, itemID, storeID string, ref time.Time, n int) ([]models.SalesObservation, error)
	// PriceHistory returns known sell prices for the item, oldest first.
	PriceHistory(ctx context.Context, itemID string, ref time.Time, n int) ([]float64, error)
}

// Metrics is the injected sink for operational counters. The forecasting
// core stays pure; callers record outcomes through this interface.
type Metrics interface {
	RecordPrediction(store, category string)
	RecordObservation(backend, store string)
	RecordError(kind string)
	RecordForecastDemand(store string, units float64)
	RecordLatency(op string, seconds float64)
}
