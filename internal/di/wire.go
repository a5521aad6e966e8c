//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"NewsEdge/internal/handler/api"
	"NewsEdge/pkg/config"
	"NewsEdge/pkg/server"
)

// InitializeApp builds the fully wired application.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideCleanup,
		ProvideLogger,
		ProvideMetrics,
		ProvideCache,
		ProvideSentimentScorer,
		ProvideManager,
		ProvideMarketData,
		ProvidePredictor,
		api.NewPredictEchoHandler,
		server.NewApp,
	)
	return nil, nil
}
