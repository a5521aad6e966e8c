package repository

import (
	"context"

	"NewsEdge/internal/domain/models"
)

// MarketData fetches recent daily bars and news for a ticker from the
// external price/news provider.
type MarketData interface {
	// FetchDailyBars returns ascending daily bars covering the configured
	// lookback window. Typed errors distinguish no-data, rate-limited and
	// other upstream failures.
	FetchDailyBars(ctx context.Context, ticker string) ([]models.PriceBar, error)

	// FetchNews returns recent news for the ticker. Failures are folded
	// into the NewsResult, never returned as an error.
	FetchNews(ctx context.Context, ticker string) models.NewsResult
}

// SentimentScorer reduces a list of text snippets to a single scalar in
// [-1, 1]. An unavailable model or empty input yields exactly 0.
type SentimentScorer interface {
	Score(ctx context.Context, texts []string) (float64, error)
	Available() bool
}

// Publisher emits served predictions for downstream consumers.
type Publisher interface {
	PublishPrediction(ctx context.Context, p *models.Prediction) error
	Close() error
}

// Metrics records operational metrics.
type Metrics interface {
	RecordPrediction(ticker string, signal int)
	RecordError(kind string)
	RecordSentiment(ticker string, score float64)
	RecordLatency(stage string, seconds float64)
}
