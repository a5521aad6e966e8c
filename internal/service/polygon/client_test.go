package polygon

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"NewsEdge/pkg/logger"
)

func quietLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func testClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c := NewClient(Config{
		APIKey:            "test-key",
		BaseURL:           baseURL,
		Timeout:           2 * time.Second,
		PriceLookbackDays: 45,
		NewsLookbackDays:  7,
		NewsLimit:         100,
	}, nil, quietLogger(t))
	c.now = func() time.Time {
		return time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	}
	return c
}

func TestFetchDailyBars(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/v2/aggs/ticker/AAPL/range/1/day/") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if !strings.HasSuffix(r.URL.Path, "/2026-07-01/2026-08-15") {
			t.Errorf("unexpected date range in path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("apiKey") != "test-key" {
			t.Errorf("missing apiKey param")
		}
		if q.Get("adjusted") != "true" {
			t.Errorf("expected adjusted=true")
		}
		if q.Get("limit") != "46" {
			t.Errorf("expected limit to cover the 45-day lookback, got %s", q.Get("limit"))
		}

		// Out of order on purpose: the client must sort ascending.
		json.NewEncoder(w).Encode(map[string]interface{}{
			"resultsCount": 2,
			"results": []map[string]interface{}{
				{"t": time.Date(2026, 8, 14, 0, 0, 0, 0, time.UTC).UnixMilli(), "c": 231.5},
				{"t": time.Date(2026, 8, 13, 0, 0, 0, 0, time.UTC).UnixMilli(), "c": 230.0},
			},
		})
	}))
	defer srv.Close()

	bars, err := testClient(t, srv.URL).FetchDailyBars(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(bars))
	}
	if !bars[0].Date.Before(bars[1].Date) {
		t.Errorf("bars not ascending: %v, %v", bars[0].Date, bars[1].Date)
	}
	if bars[0].Close != 230.0 || bars[1].Close != 231.5 {
		t.Errorf("unexpected closes: %v", bars)
	}
}

func TestFetchDailyBarsLimitTracksLookback(t *testing.T) {
	var gotLimit string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLimit = r.URL.Query().Get("limit")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"resultsCount": 1,
			"results": []map[string]interface{}{
				{"t": time.Date(2026, 8, 14, 0, 0, 0, 0, time.UTC).UnixMilli(), "c": 231.5},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(Config{
		APIKey:            "test-key",
		BaseURL:           srv.URL,
		PriceLookbackDays: 365,
	}, nil, quietLogger(t))

	if _, err := c.FetchDailyBars(context.Background(), "AAPL"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotLimit != "366" {
		t.Errorf("expected limit 366 for a 365-day lookback, got %s", gotLimit)
	}
}

func TestFetchDailyBarsNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"resultsCount": 0, "results": []interface{}{}})
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL).FetchDailyBars(context.Background(), "ZZZZ")
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestFetchDailyBarsRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL).FetchDailyBars(context.Background(), "AAPL")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestFetchDailyBarsUpstream404IsNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL).FetchDailyBars(context.Background(), "AAPL")
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestFetchNews(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/reference/news" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("ticker") != "AAPL" {
			t.Errorf("expected ticker=AAPL, got %s", q.Get("ticker"))
		}
		if q.Get("published_utc.gte") != "2026-08-08" {
			t.Errorf("expected published_utc.gte=2026-08-08, got %s", q.Get("published_utc.gte"))
		}
		if q.Get("limit") != "100" {
			t.Errorf("expected limit=100, got %s", q.Get("limit"))
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"results": []map[string]string{
				{"title": "Apple beats estimates", "description": "Strong quarter"},
				{"title": "Supply chain worry", "description": ""},
			},
		})
	}))
	defer srv.Close()

	result := testClient(t, srv.URL).FetchNews(context.Background(), "AAPL")
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if len(result.Articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(result.Articles))
	}
	texts := result.Texts()
	if texts[0] != "Apple beats estimates Strong quarter" {
		t.Errorf("unexpected text: %q", texts[0])
	}
}

func TestFetchNewsFailureIsFolded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	result := testClient(t, srv.URL).FetchNews(context.Background(), "AAPL")
	if result.Err == nil {
		t.Fatal("expected folded error")
	}
	if len(result.Articles) != 0 {
		t.Errorf("expected no articles, got %d", len(result.Articles))
	}
}
