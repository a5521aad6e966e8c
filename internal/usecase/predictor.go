package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"NewsEdge/internal/domain/models"
	"NewsEdge/internal/domain/repository"
	"NewsEdge/internal/model"
	"NewsEdge/internal/service/polygon"
	"NewsEdge/internal/services/features"
	xhttp "NewsEdge/pkg/http"
	"NewsEdge/pkg/logger"
)

// Predictor runs the live prediction pipeline: fetch market data,
// score sentiment, compute features, scale, classify.
type Predictor struct {
	manager   *model.Manager
	market    repository.MarketData
	sentiment repository.SentimentScorer
	publisher repository.Publisher
	metrics   repository.Metrics
	logger    *logger.Logger
	now       func() time.Time
}

// Option configures Predictor.
type Option func(*Predictor)

// WithPublisher attaches an optional prediction event publisher.
// Publish failures are logged, never surfaced to the caller.
func WithPublisher(p repository.Publisher) Option {
	return func(pr *Predictor) { pr.publisher = p }
}

// NewPredictor wires the prediction pipeline.
func NewPredictor(
	manager *model.Manager,
	market repository.MarketData,
	sentiment repository.SentimentScorer,
	metrics repository.Metrics,
	l *logger.Logger,
	opts ...Option,
) *Predictor {
	p := &Predictor{
		manager:   manager,
		market:    market,
		sentiment: sentiment,
		metrics:   metrics,
		logger:    l,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Predict serves a live trading signal for one ticker. Ticker matching
// is case-insensitive; all errors are typed AppErrors so the handler
// can map them to HTTP statuses without inspecting messages.
func (p *Predictor) Predict(ctx context.Context, ticker string) (*models.Prediction, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	bundle := p.manager.Bundle()

	if !bundle.Supports(ticker) {
		p.metrics.RecordError("ticker_not_supported")
		return nil, xhttp.BadRequestError("ERR_TICKER_NOT_SUPPORTED", "ticker not supported by the trained model").
			WithParam("ticker", ticker).
			WithParam("available", bundle.Tickers)
	}

	bars, err := p.fetchBars(ctx, ticker)
	if err != nil {
		return nil, err
	}

	sentiment := p.scoreSentiment(ctx, ticker)

	vector, err := p.buildFeatures(ticker, bars, sentiment)
	if err != nil {
		return nil, err
	}

	ordered := make([]float64, 0, len(bundle.Features))
	for _, name := range bundle.Features {
		v, ok := vector.ByName(name)
		if !ok {
			p.logger.Error("bundle expects a feature the pipeline does not compute",
				logger.String("feature", name),
				logger.Strings("bundle_features", bundle.Features),
			)
			p.metrics.RecordError("feature_mismatch")
			return nil, xhttp.InternalError("ERR_FEATURE_MISMATCH", "model bundle and feature pipeline disagree").
				WithParam("feature", name)
		}
		ordered = append(ordered, v)
	}

	scaled, err := bundle.Scaler.Transform(ordered)
	if err != nil {
		p.metrics.RecordError("feature_mismatch")
		return nil, xhttp.InternalError("ERR_FEATURE_MISMATCH", "model bundle and feature pipeline disagree").WithError(err)
	}

	start := p.now()
	proba := bundle.Classifier.PredictProba(scaled)
	p.metrics.RecordLatency("inference", p.now().Sub(start).Seconds())

	signal := 0
	if proba >= bundle.Threshold {
		signal = 1
	}

	prediction := &models.Prediction{
		Ticker:         ticker,
		Proba:          proba,
		Signal:         signal,
		Features:       vector,
		ModelTimestamp: bundle.LastTrainDate,
		Timestamp:      p.now().UTC(),
	}

	p.metrics.RecordPrediction(ticker, signal)
	p.logger.Info("prediction served",
		logger.String("ticker", ticker),
		logger.Float64("proba", proba),
		logger.Int("signal", signal),
		logger.Float64("sentiment", sentiment),
	)

	p.publish(ctx, prediction)

	return prediction, nil
}

// ModelInfo exposes the loaded bundle metadata.
func (p *Predictor) ModelInfo() *models.ModelInfoResponse {
	bundle := p.manager.Bundle()
	return &models.ModelInfoResponse{
		Features:           bundle.Features,
		Threshold:          bundle.Threshold,
		Tickers:            bundle.Tickers,
		LastTrainDate:      bundle.LastTrainDate,
		SentimentAvailable: p.manager.SentimentAvailable(),
	}
}

// Ready reports whether the model assets finished loading.
func (p *Predictor) Ready() bool {
	return p.manager.Ready()
}

func (p *Predictor) fetchBars(ctx context.Context, ticker string) ([]models.PriceBar, error) {
	start := p.now()
	bars, err := p.market.FetchDailyBars(ctx, ticker)
	p.metrics.RecordLatency("fetch_bars", p.now().Sub(start).Seconds())
	if err == nil {
		return bars, nil
	}

	switch {
	case errors.Is(err, polygon.ErrNoData):
		p.metrics.RecordError("no_price_data")
		return nil, xhttp.NotFoundError("ERR_NO_PRICE_DATA", "no recent price data for ticker").
			WithParam("ticker", ticker).WithError(err)
	case errors.Is(err, polygon.ErrRateLimited):
		p.metrics.RecordError("upstream_rate_limited")
		return nil, xhttp.UnavailableError("ERR_UPSTREAM_RATE_LIMITED", "market data provider rate limited the service").
			WithError(err)
	default:
		p.metrics.RecordError("upstream")
		return nil, xhttp.UnavailableError("ERR_UPSTREAM", "market data provider unavailable").WithError(err)
	}
}

// scoreSentiment never fails a prediction: missing news, a broken news
// fetch or a scoring error all degrade to neutral 0.0 with a warning.
func (p *Predictor) scoreSentiment(ctx context.Context, ticker string) float64 {
	start := p.now()
	defer func() {
		p.metrics.RecordLatency("sentiment", p.now().Sub(start).Seconds())
	}()

	news := p.market.FetchNews(ctx, ticker)
	if news.Err != nil {
		p.logger.Warn("news fetch failed, sentiment degrades to neutral",
			logger.String("ticker", ticker), logger.Error(news.Err))
		p.metrics.RecordError("news_fetch")
		return 0.0
	}

	score, err := p.sentiment.Score(ctx, news.Texts())
	if err != nil {
		p.logger.Warn("sentiment scoring failed, degrading to neutral",
			logger.String("ticker", ticker), logger.Error(err))
		p.metrics.RecordError("sentiment_scoring")
		return 0.0
	}

	p.metrics.RecordSentiment(ticker, score)
	return score
}

func (p *Predictor) buildFeatures(ticker string, bars []models.PriceBar, sentiment float64) (models.FeatureVector, error) {
	start := p.now()
	vector, err := features.Compute(bars, sentiment)
	p.metrics.RecordLatency("features", p.now().Sub(start).Seconds())
	if err == nil {
		return vector, nil
	}

	if errors.Is(err, features.ErrInsufficientHistory) || errors.Is(err, features.ErrNoUsableRow) {
		p.metrics.RecordError("insufficient_history")
		return models.FeatureVector{}, xhttp.UnprocessableError("ERR_INSUFFICIENT_HISTORY", "not enough usable price history to compute features").
			WithParam("ticker", ticker).
			WithParam("bars", len(bars)).
			WithError(err)
	}
	p.metrics.RecordError("features")
	return models.FeatureVector{}, xhttp.InternalError("ERR_FEATURE_MISMATCH", "feature computation failed").WithError(err)
}

func (p *Predictor) publish(ctx context.Context, prediction *models.Prediction) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.PublishPrediction(ctx, prediction); err != nil {
		p.logger.Warn("prediction publish failed",
			logger.String("ticker", prediction.Ticker), logger.Error(err))
		p.metrics.RecordError("publish")
	}
}
