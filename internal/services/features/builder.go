package features

import (
	"errors"
	"math"

	"NewsEdge/internal/domain/models"
)

const (
	smaWindow = 10
	rsiWindow = 14
	volWindow = 20

	// MinBars is the minimum usable price history; shorter series are a
	// client-facing error, not a crash.
	MinBars = 20
)

var (
	ErrInsufficientHistory = errors.New("insufficient price history")
	ErrNoUsableRow         = errors.New("no trading day with all technical features defined")
)

// Compute derives the model features for the most recent trading day
// where sma_10, rsi and vol_20 are all simultaneously defined. The
// sentiment scalar is passed through verbatim; sentiment_ma is the
// blended single-point proxy (no sentiment history is persisted).
func Compute(bars []models.PriceBar, sentiment float64) (models.FeatureVector, error) {
	if len(bars) < MinBars {
		return models.FeatureVector{}, ErrInsufficientHistory
	}

	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}

	sma := RollingMean(closes, smaWindow)
	pct := PctChange(closes)
	rsi := RSI(pct, rsiWindow)
	vol := RollingStd(pct, volWindow)

	// Latest row where all three technicals are defined.
	latest := -1
	for i := len(bars) - 1; i >= 0; i-- {
		if !math.IsNaN(sma[i]) && !math.IsNaN(rsi[i]) && !math.IsNaN(vol[i]) {
			latest = i
			break
		}
	}
	if latest < 0 {
		return models.FeatureVector{}, ErrNoUsableRow
	}

	sentimentMA := Clip(sentiment*0.7+0.3*rsi[latest]/100*0.5, -1.0, 1.0)

	return models.FeatureVector{
		SMA10:       sma[latest],
		RSI:         rsi[latest],
		Vol20:       vol[latest],
		Sentiment:   sentiment,
		SentimentMA: sentimentMA,
	}, nil
}
