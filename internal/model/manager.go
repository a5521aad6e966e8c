package model

import (
	"context"
	"fmt"

	"NewsEdge/pkg/logger"
)

// State is the asset manager lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	default:
		return "uninitialized"
	}
}

// SentimentLoader is probed once at startup. A probe failure leaves
// sentiment scoring degraded to neutral but does not gate readiness.
type SentimentLoader interface {
	Probe(ctx context.Context) error
	Available() bool
}

// Manager owns the model asset lifecycle. Load runs once at startup;
// after it returns the bundle is immutable and read-only, so concurrent
// request access needs no locking.
type Manager struct {
	bundlePath string
	sentiment  SentimentLoader
	logger     *logger.Logger

	state  State
	bundle *Bundle
}

// NewManager creates an unloaded asset manager.
func NewManager(bundlePath string, sentiment SentimentLoader, l *logger.Logger) *Manager {
	return &Manager{
		bundlePath: bundlePath,
		sentiment:  sentiment,
		logger:     l,
		state:      StateUninitialized,
	}
}

// Load loads the classifier bundle and probes the sentiment model.
// A bundle failure is fatal; a sentiment probe failure is logged and
// the scorer stays permanently neutral for this process.
func (m *Manager) Load(ctx context.Context) error {
	if m.state != StateUninitialized {
		return fmt.Errorf("model assets already loaded (state %s)", m.state)
	}
	m.state = StateLoading

	m.logger.Info("loading model assets", logger.String("bundle", m.bundlePath))
	b, err := LoadBundle(m.bundlePath)
	if err != nil {
		return fmt.Errorf("load classifier bundle: %w", err)
	}
	m.bundle = b
	m.logger.Info("classifier bundle loaded",
		logger.Strings("features", b.Features),
		logger.Strings("tickers", b.Tickers),
		logger.Float64("threshold", b.Threshold),
		logger.String("last_train_date", b.LastTrainDate),
	)

	if m.sentiment != nil {
		if err := m.sentiment.Probe(ctx); err != nil {
			m.logger.Warn("sentiment model unavailable, scores degrade to neutral", logger.Error(err))
		} else {
			m.logger.Info("sentiment model ready")
		}
	}

	m.state = StateReady
	return nil
}

// Bundle returns the loaded bundle. Nil before Load succeeds.
func (m *Manager) Bundle() *Bundle {
	return m.bundle
}

// State returns the lifecycle state.
func (m *Manager) State() State {
	return m.state
}

// Ready reports whether the service can serve predictions.
func (m *Manager) Ready() bool {
	return m.state == StateReady
}

// SentimentAvailable reports whether the sentiment model loaded.
func (m *Manager) SentimentAvailable() bool {
	return m.sentiment != nil && m.sentiment.Available()
}
