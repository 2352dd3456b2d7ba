package ai

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"
)

// DefaultSystemPrompt frames the assistant for business users
const DefaultSystemPrompt = "You are the PayAid business assistant. Answer briefly and accurately. " +
	"When sources are given, rely on them and say so when they do not contain the answer."

var knownEmbeddingDims = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// OpenAIConfig configures the openai-go client
type OpenAIConfig struct {
	APIKey         string
	BaseURL        string // empty for api.openai.com
	ChatModel      string
	EmbeddingModel string
	Timeout        time.Duration
}

func newOpenAIClient(cfg OpenAIConfig) openai.Client {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		// FallbackChain moves on to the next provider instead of retrying
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		base := cfg.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		opts = append(opts, option.WithBaseURL(base))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	return openai.NewClient(opts...)
}

// OpenAIProvider answers chat prompts through the OpenAI API
type OpenAIProvider struct {
	client openai.Client
	model  string
	logger *zap.Logger
}

// NewOpenAIProvider returns nil when no API key is configured
func NewOpenAIProvider(cfg OpenAIConfig, logger *zap.Logger) *OpenAIProvider {
	if cfg.APIKey == "" {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpenAIProvider{
		client: newOpenAIClient(cfg),
		model:  cfg.ChatModel,
		logger: logger,
	}
}

// Name implements ChatProvider
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Generate implements ChatProvider
func (p *OpenAIProvider) Generate(ctx context.Context, prompt Prompt) (string, error) {
	system := prompt.System
	if system == "" {
		system = DefaultSystemPrompt
	}
	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(prompt.Render()),
		},
		Temperature: openai.Float(0.2),
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	p.logger.Debug("openai answered",
		zap.String("model", p.model),
		zap.Int64("total_tokens", resp.Usage.TotalTokens))
	return answer, nil
}

// OpenAIEmbedder creates embeddings through the OpenAI API
type OpenAIEmbedder struct {
	client openai.Client
	model  string
	dims   atomic.Int64
}

// NewOpenAIEmbedder returns nil when no API key is configured
func NewOpenAIEmbedder(cfg OpenAIConfig) *OpenAIEmbedder {
	if cfg.APIKey == "" || cfg.EmbeddingModel == "" {
		return nil
	}
	e := &OpenAIEmbedder{client: newOpenAIClient(cfg), model: cfg.EmbeddingModel}
	e.dims.Store(int64(knownEmbeddingDims[cfg.EmbeddingModel]))
	return e
}

// Name implements Embedder
func (e *OpenAIEmbedder) Name() string {
	return "openai:" + e.model
}

// Dimensions implements Embedder. Unknown models report 0 until the first call.
func (e *OpenAIEmbedder) Dimensions() int {
	return int(e.dims.Load())
}

// EmbedTexts implements Embedder
func (e *OpenAIEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model:          openai.EmbeddingModel(e.model),
		Input:          openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai embeddings: got %d vectors for %d inputs", len(resp.Data), len(texts))
	}

	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || int(d.Index) >= len(out) {
			return nil, fmt.Errorf("openai embeddings: index %d out of range", d.Index)
		}
		vec := make([]float32, len(d.Embedding))
		for i, v := range d.Embedding {
			vec[i] = float32(v)
		}
		out[d.Index] = vec
	}
	e.dims.Store(int64(len(out[0])))
	return out, nil
}
