package ai

import (
	"github.com/payaid/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Providers holds everything built from configuration
type Providers struct {
	Chat     *FallbackChain
	Embedder Embedder // nil when no embedding backend is configured
}

// NewProviders builds the chat chain and embedder chain from configuration.
// Providers without credentials are left out; the rule-based generator is always last.
func NewProviders(cfg config.AIConfig, embedBatchSize int, recorder AttemptRecorder, logger *zap.Logger) (*Providers, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	primary := OpenAIConfig{
		APIKey:         cfg.OpenAIAPIKey,
		BaseURL:        cfg.OpenAIBaseURL,
		ChatModel:      cfg.OpenAIChatModel,
		EmbeddingModel: cfg.OpenAIEmbeddingModel,
		Timeout:        cfg.RequestTimeout,
	}
	secondary := LangChainConfig{
		Kind:           cfg.SecondaryKind,
		BaseURL:        cfg.SecondaryBaseURL,
		APIKey:         cfg.SecondaryAPIKey,
		Model:          cfg.SecondaryModel,
		EmbeddingModel: cfg.SecondaryEmbeddingModel,
		Timeout:        cfg.RequestTimeout,
	}

	var chat []ChatProvider
	if p := NewOpenAIProvider(primary, logger); p != nil {
		chat = append(chat, p)
	}
	lc, err := NewLangChainProvider(secondary, logger)
	if err != nil {
		return nil, err
	}
	if lc != nil {
		chat = append(chat, lc)
	}
	chat = append(chat, NewRuleBasedProvider())

	var embedders []Embedder
	if e := NewOpenAIEmbedder(primary); e != nil {
		embedders = append(embedders, e)
	}
	lce, err := NewLangChainEmbedder(secondary, embedBatchSize)
	if err != nil {
		return nil, err
	}
	if lce != nil {
		embedders = append(embedders, lce)
	}

	chain := NewFallbackChain(chat,
		WithProviderTimeout(cfg.RequestTimeout),
		WithAttemptRecorder(recorder),
		WithChainLogger(logger))
	logger.Info("AI providers configured",
		zap.Strings("chat", chain.Providers()),
		zap.Int("embedders", len(embedders)))

	return &Providers{
		Chat:     chain,
		Embedder: NewEmbedderChain(embedders, recorder, logger),
	}, nil
}
