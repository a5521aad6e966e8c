package model

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Bundle is the immutable set of trained-model artifacts and metadata.
// It is loaded exactly once at startup and read concurrently by all
// requests afterwards.
type Bundle struct {
	Classifier    *BoostedTrees
	Scaler        *StandardScaler
	Features      []string
	Threshold     float64
	Tickers       []string
	LastTrainDate string

	tickerSet map[string]struct{}
}

// bundleFile mirrors the exported artifact keys. Pointer fields detect
// missing keys at load time instead of failing in a request path.
type bundleFile struct {
	Model         *BoostedTrees   `json:"model"`
	Scaler        *StandardScaler `json:"scaler"`
	Features      []string        `json:"features"`
	Threshold     *float64        `json:"threshold"`
	Tickers       []string        `json:"tickers"`
	LastTrainDate *string         `json:"last_train_date"`
}

// LoadBundle reads and validates a model bundle. Any failure here is a
// fatal startup error: the service must not serve without a valid
// classifier, scaler and metadata.
func LoadBundle(path string) (*Bundle, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bundle: %w", err)
	}

	var bf bundleFile
	if err := json.Unmarshal(raw, &bf); err != nil {
		return nil, fmt.Errorf("parse bundle: %w", err)
	}

	if bf.Model == nil {
		return nil, fmt.Errorf("bundle missing key 'model'")
	}
	if bf.Scaler == nil {
		return nil, fmt.Errorf("bundle missing key 'scaler'")
	}
	if len(bf.Features) == 0 {
		return nil, fmt.Errorf("bundle missing key 'features'")
	}
	if bf.Threshold == nil {
		return nil, fmt.Errorf("bundle missing key 'threshold'")
	}
	if len(bf.Tickers) == 0 {
		return nil, fmt.Errorf("bundle missing key 'tickers'")
	}
	if bf.LastTrainDate == nil {
		return nil, fmt.Errorf("bundle missing key 'last_train_date'")
	}

	if *bf.Threshold < 0 || *bf.Threshold > 1 {
		return nil, fmt.Errorf("bundle threshold %v outside [0,1]", *bf.Threshold)
	}
	if err := bf.Model.validate(len(bf.Features)); err != nil {
		return nil, fmt.Errorf("bundle classifier: %w", err)
	}
	if err := bf.Scaler.validate(len(bf.Features)); err != nil {
		return nil, fmt.Errorf("bundle scaler: %w", err)
	}

	b := &Bundle{
		Classifier:    bf.Model,
		Scaler:        bf.Scaler,
		Features:      bf.Features,
		Threshold:     *bf.Threshold,
		Tickers:       make([]string, 0, len(bf.Tickers)),
		LastTrainDate: *bf.LastTrainDate,
		tickerSet:     make(map[string]struct{}, len(bf.Tickers)),
	}
	for _, t := range bf.Tickers {
		upper := strings.ToUpper(t)
		b.Tickers = append(b.Tickers, upper)
		b.tickerSet[upper] = struct{}{}
	}

	return b, nil
}

// Supports reports whether the bundle was trained for ticker. The
// ticker must already be uppercased.
func (b *Bundle) Supports(ticker string) bool {
	_, ok := b.tickerSet[ticker]
	return ok
}
