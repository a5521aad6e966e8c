package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"NewsEdge/internal/domain/models"
	"NewsEdge/internal/model"
	"NewsEdge/internal/service/polygon"
	xhttp "NewsEdge/pkg/http"
	"NewsEdge/pkg/logger"
)

type fakeMarket struct {
	bars    []models.PriceBar
	barsErr error
	news    models.NewsResult
}

func (f *fakeMarket) FetchDailyBars(ctx context.Context, ticker string) ([]models.PriceBar, error) {
	return f.bars, f.barsErr
}

func (f *fakeMarket) FetchNews(ctx context.Context, ticker string) models.NewsResult {
	return f.news
}

type fakeScorer struct {
	score     float64
	err       error
	available bool
}

func (f *fakeScorer) Score(ctx context.Context, texts []string) (float64, error) {
	if !f.available || len(texts) == 0 {
		return 0.0, nil
	}
	return f.score, f.err
}

func (f *fakeScorer) Available() bool { return f.available }

func (f *fakeScorer) Probe(ctx context.Context) error {
	if !f.available {
		return errors.New("sidecar down")
	}
	return nil
}

type noopMetrics struct{}

func (noopMetrics) RecordPrediction(string, int)    {}
func (noopMetrics) RecordError(string)              {}
func (noopMetrics) RecordSentiment(string, float64) {}
func (noopMetrics) RecordLatency(string, float64)   {}

type capturePublisher struct {
	published []*models.Prediction
	err       error
}

func (p *capturePublisher) PublishPrediction(ctx context.Context, pred *models.Prediction) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, pred)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

// singleLeafBundle writes a bundle whose classifier always returns
// sigmoid(0) = 0.5, so the served probability is exactly 0.5.
func singleLeafBundle(t *testing.T, threshold float64) string {
	t.Helper()
	bundle := map[string]interface{}{
		"model": map[string]interface{}{
			"base_score": 0.0,
			"trees": []interface{}{
				map[string]interface{}{
					"nodes": []interface{}{
						map[string]interface{}{"is_leaf": true, "leaf": 0.0},
					},
				},
			},
		},
		"scaler": map[string]interface{}{
			"mean":  []float64{0, 0, 0, 0, 0},
			"scale": []float64{1, 1, 1, 1, 1},
		},
		"features":        []string{"sma_10", "rsi", "vol_20", "sentiment", "sentiment_ma"},
		"threshold":       threshold,
		"tickers":         []string{"AAPL", "MSFT"},
		"last_train_date": "2026-08-01",
	}
	raw, err := json.Marshal(bundle)
	if err != nil {
		t.Fatalf("marshal bundle: %v", err)
	}
	path := filepath.Join(t.TempDir(), "bundle.json")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write bundle: %v", err)
	}
	return path
}

func quietLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func loadedManager(t *testing.T, threshold float64, scorer *fakeScorer) *model.Manager {
	t.Helper()
	m := model.NewManager(singleLeafBundle(t, threshold), scorer, quietLogger(t))
	if err := m.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	return m
}

func ascendingBars(n int) []models.PriceBar {
	start := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]models.PriceBar, n)
	for i := range bars {
		bars[i] = models.PriceBar{Date: start.AddDate(0, 0, i), Close: 100 + float64(i)}
	}
	return bars
}

func newTestPredictor(t *testing.T, threshold float64, market *fakeMarket, scorer *fakeScorer, opts ...Option) *Predictor {
	t.Helper()
	return NewPredictor(loadedManager(t, threshold, scorer), market, scorer, noopMetrics{}, quietLogger(t), opts...)
}

func appErrorCode(t *testing.T, err error) (string, int) {
	t.Helper()
	var appErr *xhttp.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %v", err)
	}
	return appErr.Code, appErr.Status
}

func TestPredictUnsupportedTicker(t *testing.T) {
	p := newTestPredictor(t, 0.5, &fakeMarket{}, &fakeScorer{})

	_, err := p.Predict(context.Background(), "TSLA")
	code, status := appErrorCode(t, err)
	if code != "ERR_TICKER_NOT_SUPPORTED" || status != http.StatusBadRequest {
		t.Errorf("expected ERR_TICKER_NOT_SUPPORTED/400, got %s/%d", code, status)
	}
}

func TestPredictTickerCaseInsensitive(t *testing.T) {
	market := &fakeMarket{bars: ascendingBars(30)}
	p := newTestPredictor(t, 0.5, market, &fakeScorer{})

	pred, err := p.Predict(context.Background(), "  aapl ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pred.Ticker != "AAPL" {
		t.Errorf("expected AAPL, got %s", pred.Ticker)
	}
}

func TestPredictNoPriceData(t *testing.T) {
	market := &fakeMarket{barsErr: fmt.Errorf("%w: AAPL", polygon.ErrNoData)}
	p := newTestPredictor(t, 0.5, market, &fakeScorer{})

	_, err := p.Predict(context.Background(), "AAPL")
	code, status := appErrorCode(t, err)
	if code != "ERR_NO_PRICE_DATA" || status != http.StatusNotFound {
		t.Errorf("expected ERR_NO_PRICE_DATA/404, got %s/%d", code, status)
	}
}

func TestPredictUpstreamRateLimited(t *testing.T) {
	market := &fakeMarket{barsErr: fmt.Errorf("%w: AAPL", polygon.ErrRateLimited)}
	p := newTestPredictor(t, 0.5, market, &fakeScorer{})

	_, err := p.Predict(context.Background(), "AAPL")
	code, status := appErrorCode(t, err)
	if code != "ERR_UPSTREAM_RATE_LIMITED" || status != http.StatusServiceUnavailable {
		t.Errorf("expected ERR_UPSTREAM_RATE_LIMITED/503, got %s/%d", code, status)
	}
}

func TestPredictUpstreamFailure(t *testing.T) {
	market := &fakeMarket{barsErr: errors.New("connection refused")}
	p := newTestPredictor(t, 0.5, market, &fakeScorer{})

	_, err := p.Predict(context.Background(), "AAPL")
	code, status := appErrorCode(t, err)
	if code != "ERR_UPSTREAM" || status != http.StatusServiceUnavailable {
		t.Errorf("expected ERR_UPSTREAM/503, got %s/%d", code, status)
	}
}

func TestPredictInsufficientHistory(t *testing.T) {
	market := &fakeMarket{bars: ascendingBars(10)}
	p := newTestPredictor(t, 0.5, market, &fakeScorer{})

	_, err := p.Predict(context.Background(), "AAPL")
	code, status := appErrorCode(t, err)
	if code != "ERR_INSUFFICIENT_HISTORY" || status != http.StatusUnprocessableEntity {
		t.Errorf("expected ERR_INSUFFICIENT_HISTORY/422, got %s/%d", code, status)
	}
}

func TestPredictBundleFeatureNotComputed(t *testing.T) {
	// A six-feature bundle with a matching 6-dim scaler passes load-time
	// validation; the unknown name only surfaces when the request path
	// assembles the vector.
	bundle := map[string]interface{}{
		"model": map[string]interface{}{
			"base_score": 0.0,
			"trees": []interface{}{
				map[string]interface{}{
					"nodes": []interface{}{
						map[string]interface{}{"is_leaf": true, "leaf": 0.0},
					},
				},
			},
		},
		"scaler": map[string]interface{}{
			"mean":  []float64{0, 0, 0, 0, 0, 0},
			"scale": []float64{1, 1, 1, 1, 1, 1},
		},
		"features":        []string{"sma_10", "rsi", "vol_20", "sentiment", "sentiment_ma", "momentum"},
		"threshold":       0.5,
		"tickers":         []string{"AAPL"},
		"last_train_date": "2026-08-01",
	}
	raw, err := json.Marshal(bundle)
	if err != nil {
		t.Fatalf("marshal bundle: %v", err)
	}
	path := filepath.Join(t.TempDir(), "bundle.json")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write bundle: %v", err)
	}

	scorer := &fakeScorer{}
	manager := model.NewManager(path, scorer, quietLogger(t))
	if err := manager.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	market := &fakeMarket{bars: ascendingBars(30)}
	p := NewPredictor(manager, market, scorer, noopMetrics{}, quietLogger(t))

	_, err = p.Predict(context.Background(), "AAPL")
	code, status := appErrorCode(t, err)
	if code != "ERR_FEATURE_MISMATCH" || status != http.StatusInternalServerError {
		t.Errorf("expected ERR_FEATURE_MISMATCH/500, got %s/%d", code, status)
	}

	var appErr *xhttp.AppError
	if errors.As(err, &appErr) {
		if appErr.Params["feature"] != "momentum" {
			t.Errorf("expected the offending feature in params, got %v", appErr.Params)
		}
	}
}

func TestPredictThresholdIsClosedBound(t *testing.T) {
	market := &fakeMarket{bars: ascendingBars(30)}

	// proba is exactly 0.5; threshold 0.5 must fire the signal.
	pred, err := newTestPredictor(t, 0.5, market, &fakeScorer{}).Predict(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pred.Proba != 0.5 {
		t.Fatalf("expected proba exactly 0.5, got %v", pred.Proba)
	}
	if pred.Signal != 1 {
		t.Errorf("proba == threshold should signal 1, got %d", pred.Signal)
	}

	pred, err = newTestPredictor(t, 0.51, market, &fakeScorer{}).Predict(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pred.Signal != 0 {
		t.Errorf("proba below threshold should signal 0, got %d", pred.Signal)
	}
}

func TestPredictNewsFailureDegradesToNeutral(t *testing.T) {
	market := &fakeMarket{
		bars: ascendingBars(30),
		news: models.NewsResult{Err: errors.New("news api down")},
	}
	scorer := &fakeScorer{score: 0.9, available: true}
	p := newTestPredictor(t, 0.5, market, scorer)

	pred, err := p.Predict(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("news failure must not fail the prediction: %v", err)
	}
	if pred.Features.Sentiment != 0.0 {
		t.Errorf("expected neutral sentiment, got %v", pred.Features.Sentiment)
	}
}

func TestPredictScoringFailureDegradesToNeutral(t *testing.T) {
	market := &fakeMarket{
		bars: ascendingBars(30),
		news: models.NewsResult{Articles: []models.NewsArticle{{Title: "headline"}}},
	}
	scorer := &fakeScorer{err: errors.New("sidecar timeout"), available: true}
	p := newTestPredictor(t, 0.5, market, scorer)

	pred, err := p.Predict(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("scoring failure must not fail the prediction: %v", err)
	}
	if pred.Features.Sentiment != 0.0 {
		t.Errorf("expected neutral sentiment, got %v", pred.Features.Sentiment)
	}
}

func TestPredictSentimentFlowsIntoFeatures(t *testing.T) {
	market := &fakeMarket{
		bars: ascendingBars(30),
		news: models.NewsResult{Articles: []models.NewsArticle{{Title: "great quarter"}}},
	}
	scorer := &fakeScorer{score: 0.8, available: true}
	p := newTestPredictor(t, 0.5, market, scorer)

	pred, err := p.Predict(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pred.Features.Sentiment != 0.8 {
		t.Errorf("expected sentiment 0.8, got %v", pred.Features.Sentiment)
	}
	if pred.ModelTimestamp != "2026-08-01" {
		t.Errorf("expected model timestamp from bundle, got %s", pred.ModelTimestamp)
	}
}

func TestPredictPublishesPrediction(t *testing.T) {
	market := &fakeMarket{bars: ascendingBars(30)}
	pub := &capturePublisher{}
	p := newTestPredictor(t, 0.5, market, &fakeScorer{}, WithPublisher(pub))

	if _, err := p.Predict(context.Background(), "AAPL"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pub.published) != 1 {
		t.Fatalf("expected 1 published prediction, got %d", len(pub.published))
	}
	if pub.published[0].Ticker != "AAPL" {
		t.Errorf("expected AAPL event, got %s", pub.published[0].Ticker)
	}
}

func TestPredictPublishFailureIsSwallowed(t *testing.T) {
	market := &fakeMarket{bars: ascendingBars(30)}
	pub := &capturePublisher{err: errors.New("broker down")}
	p := newTestPredictor(t, 0.5, market, &fakeScorer{}, WithPublisher(pub))

	if _, err := p.Predict(context.Background(), "AAPL"); err != nil {
		t.Fatalf("publish failure must not fail the prediction: %v", err)
	}
}

func TestModelInfo(t *testing.T) {
	p := newTestPredictor(t, 0.5, &fakeMarket{}, &fakeScorer{available: true})

	info := p.ModelInfo()
	if info.Threshold != 0.5 {
		t.Errorf("expected threshold 0.5, got %v", info.Threshold)
	}
	if len(info.Tickers) != 2 {
		t.Errorf("expected 2 tickers, got %v", info.Tickers)
	}
	if !info.SentimentAvailable {
		t.Errorf("expected sentiment available")
	}
}
