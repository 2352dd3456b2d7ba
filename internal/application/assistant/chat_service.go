package assistant

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/payaid/backend/internal/application/knowledge"
	"github.com/payaid/backend/internal/domain/identity"
	"github.com/payaid/backend/internal/domain/shared"
	"github.com/payaid/backend/internal/infrastructure/ai"
	"github.com/payaid/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const (
	maxMessageLength = 4000
	defaultSources   = 4
)

// SystemPrompt frames every assistant conversation
const SystemPrompt = "You are PayAid, an assistant for a small-business operations platform covering " +
	"CRM, invoicing, HR and projects. Answer concisely. When sources are provided, rely on them " +
	"and cite them as [n]. If the sources do not contain the answer, say so."

// Searcher retrieves knowledge chunks for grounding
type Searcher interface {
	Search(ctx context.Context, tenantID uuid.UUID, input knowledge.SearchInput) (*knowledge.SearchResult, error)
}

// Generator produces an answer, trying providers in order
type Generator interface {
	Generate(ctx context.Context, prompt ai.Prompt) (*ai.Result, error)
}

// ChatInput is one user question
type ChatInput struct {
	UserID       uuid.UUID
	Message      string
	UseKnowledge bool
}

// Source is a knowledge chunk the answer was grounded on, numbered as cited
type Source struct {
	Index         int       `json:"index"`
	DocumentID    uuid.UUID `json:"document_id"`
	DocumentTitle string    `json:"document_title"`
	ChunkID       uuid.UUID `json:"chunk_id"`
	Score         float64   `json:"score"`
	Excerpt       string    `json:"excerpt"`
}

// ChatResponse is the assistant answer
type ChatResponse struct {
	Answer     string       `json:"answer"`
	Provider   string       `json:"provider"`
	Sources    []Source     `json:"sources"`
	SearchMode string       `json:"search_mode,omitempty"`
	Attempts   []ai.Attempt `json:"attempts"`
}

// ChatService answers questions through the provider chain, optionally grounded on the knowledge base
type ChatService struct {
	tenantRepo identity.TenantRepository
	searcher   Searcher
	generator  Generator
	sources    int
	logger     *zap.Logger
}

// NewChatService creates the assistant. searcher may be nil to disable grounding.
func NewChatService(
	tenantRepo identity.TenantRepository,
	searcher Searcher,
	generator Generator,
	logger *zap.Logger,
) *ChatService {
	return &ChatService{
		tenantRepo: tenantRepo,
		searcher:   searcher,
		generator:  generator,
		sources:    defaultSources,
		logger:     logger,
	}
}

// WithSourceLimit sets how many chunks are retrieved per question
func (s *ChatService) WithSourceLimit(n int) *ChatService {
	if n > 0 {
		s.sources = n
	}
	return s
}

// Chat answers one message for a tenant user
func (s *ChatService) Chat(ctx context.Context, tenantID uuid.UUID, input ChatInput) (_ *ChatResponse, err error) {
	message := strings.TrimSpace(input.Message)
	if message == "" {
		return nil, shared.NewDomainError("INVALID_MESSAGE", "Message is required")
	}
	if utf8.RuneCountInString(message) > maxMessageLength {
		return nil, shared.NewDomainError("INVALID_MESSAGE", "Message is too long").
			WithDetail("max_length", maxMessageLength)
	}

	tenant, err := s.tenantRepo.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if !tenant.HasModule(identity.ModuleAIAssistant) {
		return nil, shared.ErrModuleNotLicensed.WithDetail("module", string(identity.ModuleAIAssistant))
	}
	if input.UseKnowledge && !tenant.HasModule(identity.ModuleKnowledge) {
		return nil, shared.ErrModuleNotLicensed.WithDetail("module", string(identity.ModuleKnowledge))
	}

	ctx, span := telemetry.StartSpan(ctx, "assistant", "chat",
		telemetry.AttrTenantID.String(tenantID.String()))
	defer func() { telemetry.EndSpan(span, err) }()

	response := &ChatResponse{Sources: []Source{}}
	prompt := ai.Prompt{System: SystemPrompt, Question: message}
	if input.UseKnowledge && s.searcher != nil {
		s.ground(ctx, tenantID, &prompt, response)
	}

	result, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		var chainErr *ai.ChainError
		if errors.As(err, &chainErr) {
			s.logger.Error("Every AI provider failed",
				zap.String("tenant_id", tenantID.String()),
				zap.Int("attempts", len(chainErr.Attempts)))
		}
		return nil, err
	}
	span.SetAttributes(telemetry.AttrProvider.String(result.Provider))

	response.Answer = result.Answer
	response.Provider = result.Provider
	response.Attempts = result.Attempts
	s.logger.Info("Assistant answered",
		zap.String("tenant_id", tenantID.String()),
		zap.String("user_id", input.UserID.String()),
		zap.String("provider", result.Provider),
		zap.Int("sources", len(response.Sources)),
		zap.Int("attempts", len(result.Attempts)))
	return response, nil
}

// ground adds retrieved chunks to the prompt. Search failures leave the question ungrounded.
func (s *ChatService) ground(ctx context.Context, tenantID uuid.UUID, prompt *ai.Prompt, response *ChatResponse) {
	found, err := s.searcher.Search(ctx, tenantID, knowledge.SearchInput{
		Query: prompt.Question,
		TopK:  s.sources,
		Mode:  knowledge.ModeAuto,
	})
	if err != nil {
		s.logger.Warn("Knowledge retrieval failed, answering without sources",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err))
		return
	}
	response.SearchMode = found.Mode
	for i, hit := range found.Hits {
		prompt.Sources = append(prompt.Sources, ai.Snippet{
			Title:   hit.DocumentTitle,
			Content: hit.Content,
			Score:   hit.Score,
		})
		response.Sources = append(response.Sources, Source{
			Index:         i + 1,
			DocumentID:    hit.DocumentID,
			DocumentTitle: hit.DocumentTitle,
			ChunkID:       hit.ChunkID,
			Score:         hit.Score,
			Excerpt:       ai.Excerpt(hit.Content),
		})
	}
}
