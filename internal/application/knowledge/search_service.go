package knowledge

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/payaid/backend/internal/domain/knowledge"
	"github.com/payaid/backend/internal/domain/shared"
	"github.com/payaid/backend/internal/infrastructure/ai"
	"github.com/payaid/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const (
	defaultTopK = 5
	maxTopK     = 50

	// text search loads this many candidates per requested hit before ranking
	textCandidateFactor = 10
	minTextCandidates   = 50
)

// SearchOptions tunes ranking defaults
type SearchOptions struct {
	DefaultTopK int
	MinScore    float64
}

// SearchService answers knowledge queries by vector similarity with a text fallback
type SearchService struct {
	docRepo   knowledge.DocumentRepository
	chunkRepo knowledge.ChunkRepository
	embedder  ai.Embedder
	opts      SearchOptions
	recorder  Recorder
	logger    *zap.Logger
}

// NewSearchService creates the search service. embedder may be nil.
func NewSearchService(
	docRepo knowledge.DocumentRepository,
	chunkRepo knowledge.ChunkRepository,
	embedder ai.Embedder,
	recorder Recorder,
	opts SearchOptions,
	logger *zap.Logger,
) *SearchService {
	if opts.DefaultTopK <= 0 {
		opts.DefaultTopK = defaultTopK
	}
	if opts.DefaultTopK > maxTopK {
		opts.DefaultTopK = maxTopK
	}
	if opts.MinScore < 0 {
		opts.MinScore = 0
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &SearchService{
		docRepo:   docRepo,
		chunkRepo: chunkRepo,
		embedder:  embedder,
		opts:      opts,
		recorder:  recorder,
		logger:    logger,
	}
}

// Search ranks the tenant's chunks against the query
func (s *SearchService) Search(ctx context.Context, tenantID uuid.UUID, input SearchInput) (_ *SearchResult, err error) {
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return nil, shared.NewDomainError("INVALID_QUERY", "Query is required")
	}
	mode := strings.ToLower(strings.TrimSpace(input.Mode))
	if mode == "" {
		mode = ModeAuto
	}
	if mode != ModeAuto && mode != ModeVector && mode != ModeText {
		return nil, shared.NewDomainError("INVALID_MODE", "Mode must be auto, vector or text").
			WithDetail("mode", input.Mode)
	}
	topK := input.TopK
	if topK <= 0 {
		topK = s.opts.DefaultTopK
	}
	topK = min(topK, maxTopK)
	minScore := s.opts.MinScore
	if input.MinScore != nil {
		minScore = max(*input.MinScore, 0)
	}

	ctx, span := telemetry.StartSpan(ctx, "knowledge", "search",
		telemetry.AttrTenantID.String(tenantID.String()),
		telemetry.AttrMode.String(mode))
	defer func() { telemetry.EndSpan(span, err) }()

	start := time.Now()
	result := &SearchResult{Query: query, Hits: []SearchHit{}}
	var scored []knowledge.ScoredChunk

	switch mode {
	case ModeText:
		scored, err = s.searchText(ctx, tenantID, query, topK)
		result.Mode = ModeText
	case ModeVector:
		if s.embedder == nil {
			return nil, ErrEmbedderUnavailable
		}
		scored, _, err = s.searchVector(ctx, tenantID, query, topK, minScore)
		result.Mode = ModeVector
	default:
		scored, result.FallbackReason, err = s.searchAuto(ctx, tenantID, query, topK, minScore)
		result.Mode = ModeVector
		if result.FallbackReason != "" {
			result.Mode = ModeText
		}
	}
	if err != nil {
		return nil, err
	}

	result.Hits, err = s.hydrate(ctx, tenantID, scored)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(telemetry.AttrResult.Int(len(result.Hits)))
	s.recorder.RecordKnowledgeSearch(ctx, result.Mode, time.Since(start), len(result.Hits))
	s.logger.Debug("Knowledge search",
		zap.String("tenant_id", tenantID.String()),
		zap.String("mode", result.Mode),
		zap.String("fallback_reason", result.FallbackReason),
		zap.Int("hits", len(result.Hits)))
	return result, nil
}

// searchAuto tries vector ranking and falls back to text search, returning the reason it fell back
func (s *SearchService) searchAuto(ctx context.Context, tenantID uuid.UUID, query string, topK int, minScore float64) ([]knowledge.ScoredChunk, string, error) {
	reason := FallbackNoEmbedder
	if s.embedder != nil {
		scored, embedded, err := s.searchVector(ctx, tenantID, query, topK, minScore)
		switch {
		case errors.Is(err, errEmbedQuery):
			s.logger.Warn("Query embedding failed, using text search", zap.Error(err))
			reason = FallbackEmbedFailed
		case err != nil:
			return nil, "", err
		case embedded == 0:
			reason = FallbackNoEmbeddings
		case len(scored) == 0:
			reason = FallbackBelowThreshold
		default:
			return scored, "", nil
		}
	}
	scored, err := s.searchText(ctx, tenantID, query, topK)
	return scored, reason, err
}

var errEmbedQuery = errors.New("embed query")

// searchVector returns the ranked chunks and how many embedded chunks were compared
func (s *SearchService) searchVector(ctx context.Context, tenantID uuid.UUID, query string, topK int, minScore float64) ([]knowledge.ScoredChunk, int, error) {
	chunks, err := s.chunkRepo.FindEmbedded(ctx, tenantID)
	if err != nil {
		return nil, 0, err
	}
	if len(chunks) == 0 {
		return nil, 0, nil
	}
	vectors, model, err := ai.Embed(ctx, s.embedder, []string{query})
	if err != nil {
		return nil, len(chunks), errors.Join(errEmbedQuery, err)
	}
	if len(vectors) == 0 {
		return nil, len(chunks), errEmbedQuery
	}
	chunks = sameModel(chunks, model)
	return knowledge.RankByVector(knowledge.Vector(vectors[0]), chunks, topK, minScore), len(chunks), nil
}

// sameModel keeps chunks embedded by model. Chunks with no recorded model are kept.
func sameModel(chunks []knowledge.Chunk, model string) []knowledge.Chunk {
	kept := chunks[:0]
	for _, c := range chunks {
		if c.EmbeddingModel == "" || c.EmbeddingModel == model {
			kept = append(kept, c)
		}
	}
	return kept
}

func (s *SearchService) searchText(ctx context.Context, tenantID uuid.UUID, query string, topK int) ([]knowledge.ScoredChunk, error) {
	terms := knowledge.Tokenize(query)
	if len(terms) == 0 {
		return nil, nil
	}
	chunks, err := s.chunkRepo.SearchText(ctx, tenantID, terms, max(topK*textCandidateFactor, minTextCandidates))
	if err != nil {
		return nil, err
	}
	return knowledge.RankByText(query, chunks, topK), nil
}

// hydrate attaches document titles to the ranked chunks
func (s *SearchService) hydrate(ctx context.Context, tenantID uuid.UUID, scored []knowledge.ScoredChunk) ([]SearchHit, error) {
	hits := make([]SearchHit, 0, len(scored))
	titles := make(map[uuid.UUID]string)
	for _, sc := range scored {
		title, ok := titles[sc.Chunk.DocumentID]
		if !ok {
			doc, err := s.docRepo.FindByIDForTenant(ctx, tenantID, sc.Chunk.DocumentID)
			switch {
			case errors.Is(err, shared.ErrNotFound):
				// deleted between ranking and hydration
				titles[sc.Chunk.DocumentID] = ""
				continue
			case err != nil:
				return nil, err
			}
			title = doc.Title
			titles[sc.Chunk.DocumentID] = title
		}
		if title == "" {
			continue
		}
		hits = append(hits, SearchHit{
			ChunkID:       sc.Chunk.ID,
			DocumentID:    sc.Chunk.DocumentID,
			DocumentTitle: title,
			Seq:           sc.Chunk.Seq,
			Content:       sc.Chunk.Content,
			Score:         sc.Score,
		})
	}
	return hits, nil
}
