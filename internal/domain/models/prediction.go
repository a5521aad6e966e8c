package models

import "time"

// PriceBar is one daily close for a ticker, ascending by date.
type PriceBar struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// NewsArticle is a single news item returned by the provider. Either
// field may be empty.
type NewsArticle struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Text returns the scoring input: title and description joined by a
// single space.
func (a NewsArticle) Text() string {
	return a.Title + " " + a.Description
}

// NewsResult keeps "no news" and "news fetch broke" distinguishable.
// Both degrade to neutral sentiment downstream; Err is logged, never
// surfaced to the caller.
type NewsResult struct {
	Articles []NewsArticle
	Err      error
}

// Texts returns the scoring inputs for all articles.
func (r NewsResult) Texts() []string {
	texts := make([]string, 0, len(r.Articles))
	for _, a := range r.Articles {
		texts = append(texts, a.Text())
	}
	return texts
}

// FeatureVector holds the five model inputs computed for the latest
// fully-resolved trading day.
type FeatureVector struct {
	SMA10       float64 `json:"sma_10"`
	RSI         float64 `json:"rsi"`
	Vol20       float64 `json:"vol_20"`
	Sentiment   float64 `json:"sentiment"`
	SentimentMA float64 `json:"sentiment_ma"`
}

// ByName looks a feature up by its bundle name. The second return is
// false for names the feature computation does not produce.
func (f FeatureVector) ByName(name string) (float64, bool) {
	switch name {
	case "sma_10":
		return f.SMA10, true
	case "rsi":
		return f.RSI, true
	case "vol_20":
		return f.Vol20, true
	case "sentiment":
		return f.Sentiment, true
	case "sentiment_ma":
		return f.SentimentMA, true
	default:
		return 0, false
	}
}

// Prediction is the served verdict for one ticker.
type Prediction struct {
	Ticker         string        `json:"ticker"`
	Proba          float64       `json:"proba"`
	Signal         int           `json:"signal"`
	Features       FeatureVector `json:"calculated_features"`
	ModelTimestamp string        `json:"model_timestamp"`
	Timestamp      time.Time     `json:"timestamp"`
}
