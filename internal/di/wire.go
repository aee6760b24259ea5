//go:build wireinject
// +build wireinject

package di

import (
	"shelfcast/pkg/config"
	"shelfcast/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
    wire.Build(
        // Metrics
        ProvideMetrics,

        // Infrastructure clients
        ProvideClickHouseClient,
        ProvideKafkaProducer,
        ProvideKafkaConsumer,

        // Repositories (with business logic)
        ProvideSalesStorage,
        ProvideSalesPublisher,
        ProvideHistoryStore,
        ProvidePosFeedStream,

        // Model and forecasting services
        ProvideModelArtifact,
        ProvideRegressor,
        ProvideModelInfo,
        ProvideFeatureBuilder,
        ProvideExpander,
        ProvideEventCalendar,

        // Use cases
        ProvideObservationProcessor,
        ProvideObservationCollector,
        ProvideKafkaSalesHandler,
        ProvideForecaster,

        // Application server
        ProvideApp,
    )
    return &server.App{}, nil
}
