package knowledge

import (
	"context"
	"errors"
	"hash/fnv"
	"io"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/payaid/backend/internal/domain/knowledge"
	"github.com/payaid/backend/internal/domain/shared"
)

// memoryStore keeps documents and chunks for one test
type memoryStore struct {
	mu     sync.Mutex
	docs   map[uuid.UUID]knowledge.Document
	chunks map[uuid.UUID][]knowledge.Chunk
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		docs:   make(map[uuid.UUID]knowledge.Document),
		chunks: make(map[uuid.UUID][]knowledge.Chunk),
	}
}

type memoryDocuments struct{ *memoryStore }

func (r memoryDocuments) FindByIDForTenant(_ context.Context, tenantID, id uuid.UUID) (*knowledge.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok || doc.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return &doc, nil
}

func (r memoryDocuments) FindAllForTenant(_ context.Context, tenantID uuid.UUID, filter shared.Filter) ([]knowledge.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []knowledge.Document
	for _, d := range r.docs {
		if d.TenantID != tenantID {
			continue
		}
		if s := filter.StringFilter("status"); s != "" && string(d.Status) != s {
			continue
		}
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b knowledge.Document) int { return a.CreatedAt.Compare(b.CreatedAt) })
	start := min(filter.Offset(), len(out))
	end := min(start+filter.Limit(), len(out))
	return out[start:end], nil
}

func (r memoryDocuments) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	filter.Page, filter.PageSize = 1, shared.MaxPageSize
	docs, err := r.FindAllForTenant(ctx, tenantID, filter)
	return int64(len(docs)), err
}

func (r memoryDocuments) Save(_ context.Context, doc *knowledge.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[doc.ID] = *doc
	return nil
}

func (r memoryDocuments) DeleteForTenant(_ context.Context, tenantID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.docs[id]; !ok || d.TenantID != tenantID {
		return shared.ErrNotFound
	}
	delete(r.docs, id)
	return nil
}

type memoryChunks struct{ *memoryStore }

func (r memoryChunks) ReplaceForDocument(_ context.Context, _, documentID uuid.UUID, chunks []knowledge.Chunk) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chunks[documentID] = slices.Clone(chunks)
	return nil
}

func (r memoryChunks) FindByDocument(_ context.Context, _, documentID uuid.UUID) ([]knowledge.Chunk, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.chunks[documentID]), nil
}

func (r memoryChunks) searchable(tenantID uuid.UUID, keep func(knowledge.Chunk) bool) []knowledge.Chunk {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []knowledge.Chunk
	for docID, chunks := range r.chunks {
		doc, ok := r.docs[docID]
		if !ok || doc.TenantID != tenantID || !doc.IsSearchable() {
			continue
		}
		for _, c := range chunks {
			if keep(c) {
				out = append(out, c)
			}
		}
	}
	return out
}

func (r memoryChunks) FindEmbedded(_ context.Context, tenantID uuid.UUID) ([]knowledge.Chunk, error) {
	return r.searchable(tenantID, func(c knowledge.Chunk) bool { return c.HasEmbedding() }), nil
}

func (r memoryChunks) SearchText(_ context.Context, tenantID uuid.UUID, terms []string, limit int) ([]knowledge.Chunk, error) {
	out := r.searchable(tenantID, func(c knowledge.Chunk) bool {
		content := strings.ToLower(c.Content)
		return slices.ContainsFunc(terms, func(t string) bool { return strings.Contains(content, t) })
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memoryChunks) DeleteByDocument(_ context.Context, _, documentID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.chunks, documentID)
	return nil
}

// hashEmbedder maps each word to one of 64 buckets
type hashEmbedder struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (e *hashEmbedder) Name() string    { return "hash-embed" }
func (e *hashEmbedder) Dimensions() int { return 64 }

func (e *hashEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.calls++
	err := e.err
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, e.Dimensions())
		for _, w := range knowledge.Tokenize(text) {
			h := fnv.New32a()
			_, _ = h.Write([]byte(w))
			vec[h.Sum32()%uint32(len(vec))]++
		}
		out[i] = vec
	}
	return out, nil
}

func (e *hashEmbedder) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

type failingExtractor struct{}

func (failingExtractor) Extract(_ io.Reader, _ knowledge.SourceType) (string, error) {
	return "", errors.New("corrupt file")
}

type recordingRecorder struct {
	mu       sync.Mutex
	searches []string
	ingested []string
}

func (r *recordingRecorder) RecordKnowledgeSearch(_ context.Context, mode string, _ time.Duration, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.searches = append(r.searches, mode)
}

func (r *recordingRecorder) RecordDocumentIngested(_ context.Context, sourceType, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ingested = append(r.ingested, sourceType+":"+status)
}
