//go:build wireinject
// +build wireinject

package di

import (
	"GeoSentry/pkg/config"
	"GeoSentry/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideCache,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Engine components
		ProvideProcessor,
		ProvideIntel,
		ProvidePresence,
		ProvideHistoryStore,
		ProvideAnalyzer,
		ProvideScorer,
		ProvideMonitor,
		ProvideAlertSink,
		ProvideGenerator,
		ProvideEngine,
		ProvideIncidentHandler,

		// Transport
		ProvideHub,
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
