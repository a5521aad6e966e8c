package sentiment

import (
	"context"
	"fmt"
	"math"
	"time"

	xhttp "NewsEdge/pkg/http"
)

// Scorer reduces news text to a single sentiment scalar in [-1, 1].
//
// The FinBERT weights are opaque and served by an inference sidecar:
// the sidecar tokenizes (truncating to MaxTokens) and runs the forward
// pass, returning raw 3-class logits per text in input order
// [negative, neutral, positive]. Batching, softmax and score
// aggregation happen here, so batch boundaries cannot affect the
// aggregate: the mean runs over the concatenation of all batch
// results.
type Scorer struct {
	baseURL   string
	client    *xhttp.Client
	batchSize int
	maxTokens int
	available bool
}

// Option configures Scorer.
type Option func(*Scorer)

// NewScorer builds a scorer for the given sidecar URL. The scorer is
// unavailable until Probe succeeds; an unavailable scorer returns a
// neutral 0.0 for every input.
func NewScorer(baseURL string, timeout time.Duration, opts ...Option) *Scorer {
	s := &Scorer{
		baseURL:   baseURL,
		client:    xhttp.NewClient(xhttp.WithTimeout(timeout)),
		batchSize: 32,
		maxTokens: 512,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithBatchSize bounds per-call compute by splitting input into batches.
func WithBatchSize(n int) Option {
	return func(s *Scorer) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithMaxTokens sets the tokenizer truncation length sent to the sidecar.
func WithMaxTokens(n int) Option {
	return func(s *Scorer) {
		if n > 0 {
			s.maxTokens = n
		}
	}
}

// Probe checks sidecar health once at startup. Failure is non-fatal:
// the scorer stays neutral for the process lifetime.
func (s *Scorer) Probe(ctx context.Context) error {
	if s.baseURL == "" {
		return fmt.Errorf("sentiment service url not configured")
	}
	err := s.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    s.baseURL + "/health",
	}, nil)
	if err != nil {
		s.available = false
		return fmt.Errorf("sentiment sidecar health: %w", err)
	}
	s.available = true
	return nil
}

// Available reports whether the sentiment model loaded.
func (s *Scorer) Available() bool {
	return s.available
}

type classifyRequest struct {
	Texts     []string `json:"texts"`
	MaxLength int      `json:"max_length"`
}

type classifyResponse struct {
	Logits [][]float64 `json:"logits"`
}

// Score returns the mean of per-snippet p(positive)-p(negative) over
// all texts. Empty input or an unavailable model yields exactly 0.0.
// A failure inside any batch fails the whole call; there are no
// retries.
func (s *Scorer) Score(ctx context.Context, texts []string) (float64, error) {
	if !s.available || len(texts) == 0 {
		return 0.0, nil
	}

	scores := make([]float64, 0, len(texts))
	for start := 0; start < len(texts); start += s.batchSize {
		end := start + s.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := s.scoreBatch(ctx, texts[start:end])
		if err != nil {
			return 0, fmt.Errorf("sentiment batch [%d:%d]: %w", start, end, err)
		}
		scores = append(scores, batch...)
	}

	sum := 0.0
	for _, v := range scores {
		sum += v
	}
	return sum / float64(len(scores)), nil
}

func (s *Scorer) scoreBatch(ctx context.Context, texts []string) ([]float64, error) {
	var resp classifyResponse
	err := s.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    s.baseURL + "/classify",
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
		Body: classifyRequest{Texts: texts, MaxLength: s.maxTokens},
	}, &resp)
	if err != nil {
		return nil, err
	}

	if len(resp.Logits) != len(texts) {
		return nil, fmt.Errorf("sidecar returned %d rows for %d texts", len(resp.Logits), len(texts))
	}

	out := make([]float64, len(resp.Logits))
	for i, logits := range resp.Logits {
		if len(logits) != 3 {
			return nil, fmt.Errorf("expected 3-class logits, got %d", len(logits))
		}
		p := softmax(logits)
		out[i] = p[2] - p[0] // p(positive) - p(negative)
	}
	return out, nil
}

func softmax(logits []float64) []float64 {
	maxLogit := logits[0]
	for _, v := range logits[1:] {
		if v > maxLogit {
			maxLogit = v
		}
	}
	sum := 0.0
	out := make([]float64, len(logits))
	for i, v := range logits {
		out[i] = math.Exp(v - maxLogit)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
