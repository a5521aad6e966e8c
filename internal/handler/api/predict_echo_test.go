package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"NewsEdge/internal/domain/models"
	"NewsEdge/internal/model"
	"NewsEdge/internal/usecase"
	"NewsEdge/pkg/logger"
)

type stubMarket struct{}

func (stubMarket) FetchDailyBars(ctx context.Context, ticker string) ([]models.PriceBar, error) {
	start := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]models.PriceBar, 30)
	for i := range bars {
		bars[i] = models.PriceBar{Date: start.AddDate(0, 0, i), Close: 100 + float64(i)}
	}
	return bars, nil
}

func (stubMarket) FetchNews(ctx context.Context, ticker string) models.NewsResult {
	return models.NewsResult{}
}

type stubScorer struct{}

func (stubScorer) Score(ctx context.Context, texts []string) (float64, error) { return 0, nil }
func (stubScorer) Available() bool                                            { return false }
func (stubScorer) Probe(ctx context.Context) error                            { return nil }

func testHandler(t *testing.T) *PredictEchoHandler {
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

	l, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	manager := model.NewManager(path, stubScorer{}, l)
	if err := manager.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	predictor := usecase.NewPredictor(manager, stubMarket{}, stubScorer{}, noopMetrics{}, l)
	return NewPredictEchoHandler(predictor, l)
}

type noopMetrics struct{}

func (noopMetrics) RecordPrediction(string, int)    {}
func (noopMetrics) RecordError(string)              {}
func (noopMetrics) RecordSentiment(string, float64) {}
func (noopMetrics) RecordLatency(string, float64)   {}

func request(t *testing.T, h *PredictEchoHandler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	h.RegisterRoutes(e)

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestPredictLiveSuccess(t *testing.T) {
	rec := request(t, testHandler(t), http.MethodPost, "/api/predict/live", `{"ticker":"aapl"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data models.PredictResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.Ticker != "AAPL" {
		t.Errorf("expected AAPL, got %s", resp.Data.Ticker)
	}
	if resp.Data.Proba != 0.5 {
		t.Errorf("expected proba 0.5, got %v", resp.Data.Proba)
	}
	if resp.Data.Signal != 1 {
		t.Errorf("expected signal 1, got %d", resp.Data.Signal)
	}
	if resp.Data.ModelTimestamp != "2026-08-01" {
		t.Errorf("expected model timestamp, got %s", resp.Data.ModelTimestamp)
	}
}

func TestPredictLiveMissingTicker(t *testing.T) {
	rec := request(t, testHandler(t), http.MethodPost, "/api/predict/live", `{}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ERR_REQUIRED") {
		t.Errorf("expected validation error code, got %s", rec.Body.String())
	}
}

func TestPredictLiveUnsupportedTicker(t *testing.T) {
	rec := request(t, testHandler(t), http.MethodPost, "/api/predict/live", `{"ticker":"TSLA"}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ERR_TICKER_NOT_SUPPORTED") {
		t.Errorf("expected ERR_TICKER_NOT_SUPPORTED, got %s", rec.Body.String())
	}
}

func TestModelInfoEndpoint(t *testing.T) {
	rec := request(t, testHandler(t), http.MethodGet, "/api/model", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Data models.ModelInfoResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.Threshold != 0.5 {
		t.Errorf("expected threshold 0.5, got %v", resp.Data.Threshold)
	}
	if len(resp.Data.Tickers) != 1 || resp.Data.Tickers[0] != "AAPL" {
		t.Errorf("expected [AAPL], got %v", resp.Data.Tickers)
	}
}

func TestHealthzReady(t *testing.T) {
	rec := request(t, testHandler(t), http.MethodGet, "/api/healthz", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
