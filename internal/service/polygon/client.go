package polygon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"NewsEdge/internal/domain/models"
	"NewsEdge/pkg/cache"
	xhttp "NewsEdge/pkg/http"
	"NewsEdge/pkg/logger"
	"NewsEdge/pkg/util"
)

// Sentinel errors the prediction pipeline maps to client-facing codes.
var (
	ErrNoData      = errors.New("polygon: no price data for ticker")
	ErrRateLimited = errors.New("polygon: upstream rate limited")
)

// Config holds the Polygon REST client settings.
type Config struct {
	APIKey            string
	BaseURL           string
	Timeout           time.Duration
	PriceLookbackDays int
	NewsLookbackDays  int
	NewsLimit         int
	CacheTTL          time.Duration
}

// Client fetches daily aggregate bars and ticker news from Polygon.io.
// Responses are cached per ticker so repeated predictions inside the
// TTL do not burn upstream quota.
type Client struct {
	cfg    Config
	http   *xhttp.Client
	cache  cache.Service
	logger *logger.Logger
	now    func() time.Time
}

// NewClient creates a Polygon client. cache may be nil to disable caching.
func NewClient(cfg Config, cacheSvc cache.Service, l *logger.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.polygon.io"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.PriceLookbackDays <= 0 {
		cfg.PriceLookbackDays = 45
	}
	if cfg.NewsLookbackDays <= 0 {
		cfg.NewsLookbackDays = 7
	}
	if cfg.NewsLimit <= 0 {
		cfg.NewsLimit = 100
	}
	return &Client{
		cfg:    cfg,
		http:   xhttp.NewClient(xhttp.WithTimeout(cfg.Timeout)),
		cache:  cacheSvc,
		logger: l,
		now:    time.Now,
	}
}

type aggsResponse struct {
	Results []struct {
		Timestamp int64   `json:"t"`
		Close     float64 `json:"c"`
	} `json:"results"`
	ResultsCount int `json:"resultsCount"`
}

// FetchDailyBars returns daily close bars for the lookback window in
// ascending date order. The ticker must already be uppercased.
func (c *Client) FetchDailyBars(ctx context.Context, ticker string) ([]models.PriceBar, error) {
	cacheKey := "bars:" + ticker
	if c.cache != nil {
		var cached []models.PriceBar
		if err := c.cache.Get(ctx, cacheKey, &cached); err == nil && len(cached) > 0 {
			return cached, nil
		}
	}

	from, to := util.DayRange(c.now().UTC(), c.cfg.PriceLookbackDays)
	url := fmt.Sprintf("%s/v2/aggs/ticker/%s/range/1/day/%s/%s", c.cfg.BaseURL, ticker, from, to)

	var resp aggsResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    url,
		QueryParams: map[string][]string{
			"adjusted": {"true"},
			"sort":     {"asc"},
			// One daily aggregate per calendar day is the ceiling for the
			// window, so this can never truncate the lookback.
			"limit":  {fmt.Sprintf("%d", c.cfg.PriceLookbackDays+1)},
			"apiKey": {c.cfg.APIKey},
		},
	}, &resp)
	if err != nil {
		return nil, c.mapError(ticker, err)
	}

	if len(resp.Results) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoData, ticker)
	}

	bars := make([]models.PriceBar, 0, len(resp.Results))
	for _, r := range resp.Results {
		bars = append(bars, models.PriceBar{
			Date:  time.UnixMilli(r.Timestamp).UTC(),
			Close: r.Close,
		})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })

	if c.cache != nil && c.cfg.CacheTTL > 0 {
		if err := c.cache.Set(ctx, cacheKey, bars, c.cfg.CacheTTL); err != nil {
			c.logger.Warn("cache bars failed", logger.String("ticker", ticker), logger.Error(err))
		}
	}
	return bars, nil
}

type newsResponse struct {
	Results []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	} `json:"results"`
}

// FetchNews returns recent news articles for the ticker. News is a
// soft dependency: failures are folded into the result instead of
// returned, so the caller can degrade to neutral sentiment.
func (c *Client) FetchNews(ctx context.Context, ticker string) models.NewsResult {
	cacheKey := "news:" + ticker
	if c.cache != nil {
		var cached []models.NewsArticle
		if err := c.cache.Get(ctx, cacheKey, &cached); err == nil {
			return models.NewsResult{Articles: cached}
		}
	}

	since := c.now().UTC().AddDate(0, 0, -c.cfg.NewsLookbackDays)

	var resp newsResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.cfg.BaseURL + "/v2/reference/news",
		QueryParams: map[string][]string{
			"ticker":            {ticker},
			"published_utc.gte": {util.FormatDay(since)},
			"limit":             {fmt.Sprintf("%d", c.cfg.NewsLimit)},
			"apiKey":            {c.cfg.APIKey},
		},
	}, &resp)
	if err != nil {
		return models.NewsResult{Err: c.mapError(ticker, err)}
	}

	articles := make([]models.NewsArticle, 0, len(resp.Results))
	for _, r := range resp.Results {
		articles = append(articles, models.NewsArticle{
			Title:       r.Title,
			Description: r.Description,
		})
	}

	if c.cache != nil && c.cfg.CacheTTL > 0 {
		if err := c.cache.Set(ctx, cacheKey, articles, c.cfg.CacheTTL); err != nil {
			c.logger.Warn("cache news failed", logger.String("ticker", ticker), logger.Error(err))
		}
	}
	return models.NewsResult{Articles: articles}
}

func (c *Client) mapError(ticker string, err error) error {
	var se *xhttp.StatusError
	if errors.As(err, &se) {
		switch {
		case se.StatusCode == http.StatusTooManyRequests:
			return fmt.Errorf("%w: %s", ErrRateLimited, ticker)
		case se.StatusCode == http.StatusNotFound:
			return fmt.Errorf("%w: %s", ErrNoData, ticker)
		}
	}
	return fmt.Errorf("polygon request for %s: %w", ticker, err)
}
