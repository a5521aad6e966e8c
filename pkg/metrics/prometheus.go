package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain repository.Metrics using Prometheus.
type Recorder struct {
	predictions *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	sentiment   *prometheus.GaugeVec
	latency     *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		predictions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "newsedge_predictions_total",
				Help: "Total number of predictions served",
			},
			[]string{"ticker", "signal"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "newsedge_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		sentiment: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "newsedge_sentiment_score",
				Help: "Last computed sentiment score for a ticker",
			},
			[]string{"ticker"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "newsedge_stage_duration_seconds",
				Help:    "Duration of pipeline stages in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
	}
}

// RecordPrediction records a served prediction.
func (r *Recorder) RecordPrediction(ticker string, signal int) {
	label := "0"
	if signal == 1 {
		label = "1"
	}
	r.predictions.WithLabelValues(ticker, label).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordSentiment records the last sentiment score for a ticker.
func (r *Recorder) RecordSentiment(ticker string, score float64) {
	r.sentiment.WithLabelValues(ticker).Set(score)
}

// RecordLatency records pipeline stage latency in seconds.
func (r *Recorder) RecordLatency(stage string, seconds float64) {
	r.latency.WithLabelValues(stage).Observe(seconds)
}
