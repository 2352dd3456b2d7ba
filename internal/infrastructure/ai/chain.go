package ai

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Attempt records one provider call made by a chain
type Attempt struct {
	Provider   string `json:"provider"`
	Outcome    string `json:"outcome"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

// Result is the answer of the first provider that succeeded
type Result struct {
	Answer   string
	Provider string
	Attempts []Attempt
}

// ChainError is returned when every provider failed
type ChainError struct {
	Attempts []Attempt
}

func (e *ChainError) Error() string {
	if len(e.Attempts) == 0 {
		return ErrNoProviders.Error()
	}
	last := e.Attempts[len(e.Attempts)-1]
	return fmt.Sprintf("all %d AI providers failed, last %s: %s", len(e.Attempts), last.Provider, last.Error)
}

// FallbackChain tries chat providers in order until one answers
type FallbackChain struct {
	providers []ChatProvider
	timeout   time.Duration
	recorder  AttemptRecorder
	logger    *zap.Logger
}

// ChainOption configures a FallbackChain
type ChainOption func(*FallbackChain)

// WithProviderTimeout bounds each provider call
func WithProviderTimeout(d time.Duration) ChainOption {
	return func(c *FallbackChain) {
		c.timeout = d
	}
}

// WithAttemptRecorder reports every attempt to r
func WithAttemptRecorder(r AttemptRecorder) ChainOption {
	return func(c *FallbackChain) {
		c.recorder = r
	}
}

// WithChainLogger sets the logger
func WithChainLogger(logger *zap.Logger) ChainOption {
	return func(c *FallbackChain) {
		c.logger = logger
	}
}

// NewFallbackChain creates a chain. Nil providers are skipped.
func NewFallbackChain(providers []ChatProvider, opts ...ChainOption) *FallbackChain {
	c := &FallbackChain{logger: zap.NewNop()}
	for _, p := range providers {
		if p != nil {
			c.providers = append(c.providers, p)
		}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Providers returns the names of the providers in order
func (c *FallbackChain) Providers() []string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return names
}

// Generate returns the first successful answer. A cancelled parent context
// stops the chain.
func (c *FallbackChain) Generate(ctx context.Context, prompt Prompt) (*Result, error) {
	if len(c.providers) == 0 {
		return nil, ErrNoProviders
	}

	attempts := make([]Attempt, 0, len(c.providers))
	for _, p := range c.providers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		answer, attempt := c.try(ctx, p, prompt)
		attempts = append(attempts, attempt)
		if c.recorder != nil {
			c.recorder.RecordAIAttempt(ctx, attempt.Provider, attempt.Outcome)
		}
		if attempt.Outcome == OutcomeSuccess {
			return &Result{Answer: answer, Provider: p.Name(), Attempts: attempts}, nil
		}
		c.logger.Warn("AI provider failed, trying next",
			zap.String("provider", attempt.Provider),
			zap.String("outcome", attempt.Outcome),
			zap.String("error", attempt.Error))
	}
	return nil, &ChainError{Attempts: attempts}
}

func (c *FallbackChain) try(ctx context.Context, p ChatProvider, prompt Prompt) (string, Attempt) {
	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	answer, err := p.Generate(callCtx, prompt)
	attempt := Attempt{Provider: p.Name(), DurationMS: time.Since(start).Milliseconds()}
	if err == nil && answer == "" {
		err = ErrEmptyResponse
	}
	switch {
	case err == nil:
		attempt.Outcome = OutcomeSuccess
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		attempt.Outcome = OutcomeTimeout
		attempt.Error = err.Error()
	default:
		attempt.Outcome = OutcomeError
		attempt.Error = err.Error()
	}
	return answer, attempt
}

// ErrDimensionMismatch is returned when an embedder produces vectors of a
// different dimension than the chain
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// EmbedderChain embeds with the first embedder that succeeds. Every embedder
// must produce vectors of the chain's dimension: fallbacks of a known different
// dimension are dropped at construction, and mismatched vectors count as a failure.
type EmbedderChain struct {
	embedders []Embedder
	dims      atomic.Int64
	recorder  AttemptRecorder
	logger    *zap.Logger
}

// NewEmbedderChain returns nil when no embedder is given, so callers can treat
// a nil Embedder as text-only search.
func NewEmbedderChain(embedders []Embedder, recorder AttemptRecorder, logger *zap.Logger) Embedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	var (
		kept []Embedder
		dims int
	)
	for _, e := range embedders {
		if e == nil {
			continue
		}
		d := e.Dimensions()
		if d > 0 && dims > 0 && d != dims {
			logger.Warn("Dropping embedder with a different dimension",
				zap.String("embedder", e.Name()),
				zap.Int("dimensions", d),
				zap.Int("chain_dimensions", dims))
			continue
		}
		if dims == 0 {
			dims = d
		}
		kept = append(kept, e)
	}
	if len(kept) == 0 {
		return nil
	}
	c := &EmbedderChain{embedders: kept, recorder: recorder, logger: logger}
	c.dims.Store(int64(dims))
	return c
}

// Name returns the name of the first embedder
func (c *EmbedderChain) Name() string {
	return c.embedders[0].Name()
}

// Dimensions returns the chain dimension, 0 until known
func (c *EmbedderChain) Dimensions() int {
	return int(c.dims.Load())
}

// EmbedTexts tries each embedder in turn
func (c *EmbedderChain) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, _, err := c.EmbedTextsWithModel(ctx, texts)
	return vectors, err
}

// EmbedTextsWithModel tries each embedder in turn and names the one that answered
func (c *EmbedderChain) EmbedTextsWithModel(ctx context.Context, texts []string) ([][]float32, string, error) {
	var lastErr error
	for _, e := range c.embedders {
		vectors, err := e.EmbedTexts(ctx, texts)
		if err == nil && len(vectors) != len(texts) {
			err = fmt.Errorf("%s returned %d vectors for %d texts", e.Name(), len(vectors), len(texts))
		}
		if err == nil {
			err = c.checkDimensions(e.Name(), vectors)
		}
		outcome := OutcomeSuccess
		if err != nil {
			outcome = OutcomeError
		}
		if c.recorder != nil {
			c.recorder.RecordAIAttempt(ctx, e.Name(), outcome)
		}
		if err == nil {
			return vectors, e.Name(), nil
		}
		lastErr = err
		c.logger.Warn("embedder failed", zap.String("embedder", e.Name()), zap.Error(err))
		if ctx.Err() != nil {
			break
		}
	}
	return nil, "", fmt.Errorf("embedding failed: %w", lastErr)
}

// checkDimensions pins the chain dimension on the first answer and rejects any other
func (c *EmbedderChain) checkDimensions(name string, vectors [][]float32) error {
	for _, v := range vectors {
		want := c.dims.Load()
		if want == 0 && c.dims.CompareAndSwap(0, int64(len(v))) {
			continue
		}
		if want = c.dims.Load(); int64(len(v)) != want {
			return fmt.Errorf("%w: %s returned %d, chain uses %d", ErrDimensionMismatch, name, len(v), want)
		}
	}
	return nil
}
