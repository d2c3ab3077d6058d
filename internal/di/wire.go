//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"CPDetect/internal/server"
	"CPDetect/pkg/config"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation in wire_gen.go.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Sinks and cache
		ProvideStore,
		ProvidePublisher,
		ProvideCache,

		// Inputs
		ProvidePrices,
		ProvideEvents,

		// Use case and API surface
		ProvideDetector,
		ProvideHandler,
		ProvideServer,

		ProvideApp,
	)
	return &server.App{}, nil
}
