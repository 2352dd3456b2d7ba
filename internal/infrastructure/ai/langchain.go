package ai

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	lcopenai "github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

// Secondary provider kinds
const (
	KindOllama           = "ollama"
	KindOpenAICompatible = "openai_compatible"
)

// LangChainConfig configures the secondary provider
type LangChainConfig struct {
	Kind           string
	BaseURL        string
	APIKey         string
	Model          string
	EmbeddingModel string
	Timeout        time.Duration
}

// normalizedBaseURL adds the /v1 suffix OpenAI-compatible servers expect
func (c LangChainConfig) normalizedBaseURL() string {
	if c.Kind != KindOpenAICompatible || c.BaseURL == "" {
		return c.BaseURL
	}
	base := strings.TrimSuffix(c.BaseURL, "/")
	if !strings.HasSuffix(base, "/v1") {
		base += "/v1"
	}
	return base
}

func (c LangChainConfig) token() string {
	// Local OpenAI-compatible servers usually accept any token
	if c.APIKey == "" {
		return "none"
	}
	return c.APIKey
}

type embeddingClient interface {
	llms.Model
	embeddings.EmbedderClient
}

func newLangChainClient(cfg LangChainConfig, model string) (embeddingClient, error) {
	switch cfg.Kind {
	case KindOllama:
		opts := []ollama.Option{ollama.WithModel(model)}
		if cfg.BaseURL != "" {
			opts = append(opts, ollama.WithServerURL(cfg.BaseURL))
		}
		return ollama.New(opts...)
	case KindOpenAICompatible:
		opts := []lcopenai.Option{
			lcopenai.WithToken(cfg.token()),
			lcopenai.WithModel(model),
			lcopenai.WithEmbeddingModel(model),
		}
		if base := cfg.normalizedBaseURL(); base != "" {
			opts = append(opts, lcopenai.WithBaseURL(base))
		}
		return lcopenai.New(opts...)
	default:
		return nil, fmt.Errorf("unsupported secondary AI provider kind %q", cfg.Kind)
	}
}

// LangChainProvider answers chat prompts through a langchaingo model
type LangChainProvider struct {
	llm    llms.Model
	name   string
	logger *zap.Logger
}

// NewLangChainProvider returns nil, nil when the provider is not configured
func NewLangChainProvider(cfg LangChainConfig, logger *zap.Logger) (*LangChainProvider, error) {
	if cfg.Kind == "" || cfg.Model == "" {
		return nil, nil
	}
	client, err := newLangChainClient(cfg, cfg.Model)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LangChainProvider{llm: client, name: cfg.Kind + ":" + cfg.Model, logger: logger}, nil
}

// NewLangChainProviderFromModel wraps an existing model
func NewLangChainProviderFromModel(name string, llm llms.Model) *LangChainProvider {
	return &LangChainProvider{llm: llm, name: name, logger: zap.NewNop()}
}

// Name implements ChatProvider
func (p *LangChainProvider) Name() string {
	return p.name
}

// Generate implements ChatProvider
func (p *LangChainProvider) Generate(ctx context.Context, prompt Prompt) (string, error) {
	system := prompt.System
	if system == "" {
		system = DefaultSystemPrompt
	}
	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt.Render()),
	}
	resp, err := p.llm.GenerateContent(ctx, content, llms.WithTemperature(0.2))
	if err != nil {
		return "", fmt.Errorf("%s generate: %w", p.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return strings.TrimSpace(resp.Choices[0].Content), nil
}

// LangChainEmbedder creates embeddings through a langchaingo client
type LangChainEmbedder struct {
	embedder embeddings.Embedder
	name     string
	dims     atomic.Int64
}

// NewLangChainEmbedder returns nil, nil when no embedding model is configured
func NewLangChainEmbedder(cfg LangChainConfig, batchSize int) (*LangChainEmbedder, error) {
	if cfg.Kind == "" || cfg.EmbeddingModel == "" {
		return nil, nil
	}
	client, err := newLangChainClient(cfg, cfg.EmbeddingModel)
	if err != nil {
		return nil, err
	}
	opts := []embeddings.Option{embeddings.WithStripNewLines(true)}
	if batchSize > 0 {
		opts = append(opts, embeddings.WithBatchSize(batchSize))
	}
	e, err := embeddings.NewEmbedder(client, opts...)
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}
	return &LangChainEmbedder{embedder: e, name: cfg.Kind + ":" + cfg.EmbeddingModel}, nil
}

// Name implements Embedder
func (e *LangChainEmbedder) Name() string {
	return e.name
}

// Dimensions implements Embedder. It reports 0 until the first call.
func (e *LangChainEmbedder) Dimensions() int {
	return int(e.dims.Load())
}

// EmbedTexts implements Embedder
func (e *LangChainEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%s embed: %w", e.name, err)
	}
	if len(vectors) > 0 {
		e.dims.Store(int64(len(vectors[0])))
	}
	return vectors, nil
}
