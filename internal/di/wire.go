//go:build wireinject
// +build wireinject

package di

import (
	"TradePlan/pkg/config"
	"TradePlan/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Foundation
		ProvideLogger,
		ProvideMetrics,
		ProvideSchemaRegistry,
		ProvideParams,

		// Infrastructure clients
		ProvideKafkaProducer,
		ProvideClickHouseClient,
		ProvideCache,
		ProvideAuditSink,

		// Validation pipeline
		ProvideTypeValidator,
		ProvideRepairer,
		ProvideDomainValidator,

		// Repositories
		ProvideLevelStore,
		ProvidePlanPublisher,
		ProvideQuoteSource,

		// Use cases
		ProvidePlanBuilder,
		ProvideKafkaConsumer,

		// HTTP and application server
		ProvidePlanHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
