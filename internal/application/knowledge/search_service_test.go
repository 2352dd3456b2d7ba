package knowledge

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedPolicies(t *testing.T, f *knowledgeFixture, tenantID uuid.UUID) (invoices, leave *DocumentDTO) {
	t.Helper()
	invoices = f.ingest(t, tenantID, "Invoice policy", "Invoice payment terms are net thirty days from issue.")
	leave = f.ingest(t, tenantID, "Leave policy", "Employees request holiday leave through the portal.")
	return invoices, leave
}

func TestSearchService_AutoUsesVectors(t *testing.T) {
	ctx := context.Background()
	f := newKnowledgeFixture(t, true)
	tenantID := uuid.New()
	invoices, _ := seedPolicies(t, f, tenantID)

	result, err := f.search.Search(ctx, tenantID, SearchInput{Query: "invoice payment terms"})
	require.NoError(t, err)

	assert.Equal(t, ModeVector, result.Mode)
	assert.Empty(t, result.FallbackReason)
	require.NotEmpty(t, result.Hits)
	assert.Equal(t, invoices.ID, result.Hits[0].DocumentID)
	assert.Equal(t, "Invoice policy", result.Hits[0].DocumentTitle)
	assert.Equal(t, []string{ModeVector}, f.recorder.searches)
}

func TestSearchService_AutoFallsBackToText(t *testing.T) {
	ctx := context.Background()

	t.Run("no embedder", func(t *testing.T) {
		f := newKnowledgeFixture(t, false)
		tenantID := uuid.New()
		_, leave := seedPolicies(t, f, tenantID)

		result, err := f.search.Search(ctx, tenantID, SearchInput{Query: "holiday leave"})
		require.NoError(t, err)
		assert.Equal(t, ModeText, result.Mode)
		assert.Equal(t, FallbackNoEmbedder, result.FallbackReason)
		require.Len(t, result.Hits, 1)
		assert.Equal(t, leave.ID, result.Hits[0].DocumentID)
		assert.InDelta(t, 1.0, result.Hits[0].Score, 1e-9)
	})

	t.Run("no stored embeddings", func(t *testing.T) {
		f := newKnowledgeFixture(t, true)
		tenantID := uuid.New()
		f.embedder.err = errors.New("provider down")
		seedPolicies(t, f, tenantID)
		f.embedder.err = nil

		result, err := f.search.Search(ctx, tenantID, SearchInput{Query: "payment terms"})
		require.NoError(t, err)
		assert.Equal(t, FallbackNoEmbeddings, result.FallbackReason)
		assert.NotEmpty(t, result.Hits)
	})

	t.Run("query embedding fails", func(t *testing.T) {
		f := newKnowledgeFixture(t, true)
		tenantID := uuid.New()
		seedPolicies(t, f, tenantID)
		f.embedder.err = errors.New("provider down")

		result, err := f.search.Search(ctx, tenantID, SearchInput{Query: "payment terms"})
		require.NoError(t, err)
		assert.Equal(t, ModeText, result.Mode)
		assert.Equal(t, FallbackEmbedFailed, result.FallbackReason)
		assert.NotEmpty(t, result.Hits)
	})

	t.Run("nothing clears the threshold", func(t *testing.T) {
		f := newKnowledgeFixture(t, true)
		tenantID := uuid.New()
		seedPolicies(t, f, tenantID)
		impossible := 1.5

		result, err := f.search.Search(ctx, tenantID, SearchInput{Query: "payment terms", MinScore: &impossible})
		require.NoError(t, err)
		assert.Equal(t, FallbackBelowThreshold, result.FallbackReason)
		assert.NotEmpty(t, result.Hits)
	})
}

func TestSearchService_ForcedModes(t *testing.T) {
	ctx := context.Background()

	t.Run("text mode skips the embedder", func(t *testing.T) {
		f := newKnowledgeFixture(t, true)
		tenantID := uuid.New()
		seedPolicies(t, f, tenantID)
		calls := f.embedder.Calls()

		result, err := f.search.Search(ctx, tenantID, SearchInput{Query: "portal", Mode: "text"})
		require.NoError(t, err)
		assert.Equal(t, ModeText, result.Mode)
		assert.Empty(t, result.FallbackReason)
		assert.Len(t, result.Hits, 1)
		assert.Equal(t, calls, f.embedder.Calls())
	})

	t.Run("vector mode without embedder", func(t *testing.T) {
		f := newKnowledgeFixture(t, false)
		_, err := f.search.Search(ctx, uuid.New(), SearchInput{Query: "anything", Mode: "vector"})
		assertDomainCode(t, err, "EMBEDDER_UNAVAILABLE")
	})

	t.Run("vector mode returns no hits instead of falling back", func(t *testing.T) {
		f := newKnowledgeFixture(t, true)
		tenantID := uuid.New()
		seedPolicies(t, f, tenantID)
		impossible := 1.5

		result, err := f.search.Search(ctx, tenantID, SearchInput{Query: "payment", Mode: "vector", MinScore: &impossible})
		require.NoError(t, err)
		assert.Equal(t, ModeVector, result.Mode)
		assert.Empty(t, result.Hits)
	})
}

func TestSearchService_Isolation(t *testing.T) {
	ctx := context.Background()
	f := newKnowledgeFixture(t, false)
	seedPolicies(t, f, uuid.New())

	result, err := f.search.Search(ctx, uuid.New(), SearchInput{Query: "invoice payment"})
	require.NoError(t, err)
	assert.Empty(t, result.Hits)
	assert.NotNil(t, result.Hits)
}

func TestSearchService_TopK(t *testing.T) {
	ctx := context.Background()
	f := newKnowledgeFixture(t, false)
	tenantID := uuid.New()
	for i := 0; i < 5; i++ {
		f.ingest(t, tenantID, "Note", "quarterly revenue review")
	}

	result, err := f.search.Search(ctx, tenantID, SearchInput{Query: "revenue"})
	require.NoError(t, err)
	assert.Len(t, result.Hits, 3)

	result, err = f.search.Search(ctx, tenantID, SearchInput{Query: "revenue", TopK: 1})
	require.NoError(t, err)
	assert.Len(t, result.Hits, 1)
}

func TestSearchService_Validation(t *testing.T) {
	ctx := context.Background()
	f := newKnowledgeFixture(t, false)

	_, err := f.search.Search(ctx, uuid.New(), SearchInput{Query: "  "})
	assertDomainCode(t, err, "INVALID_QUERY")

	_, err = f.search.Search(ctx, uuid.New(), SearchInput{Query: "x", Mode: "semantic"})
	assertDomainCode(t, err, "INVALID_MODE")
}

func TestSearchService_SkipsChunksFromOtherModels(t *testing.T) {
	ctx := context.Background()

	restamp := func(f *knowledgeFixture, docID uuid.UUID, model string) {
		f.store.mu.Lock()
		defer f.store.mu.Unlock()
		for i := range f.store.chunks[docID] {
			f.store.chunks[docID][i].EmbeddingModel = model
		}
	}

	t.Run("ingestion records the model", func(t *testing.T) {
		f := newKnowledgeFixture(t, true)
		invoices, _ := seedPolicies(t, f, uuid.New())

		chunks, err := memoryChunks{f.store}.FindByDocument(ctx, uuid.Nil, invoices.ID)
		require.NoError(t, err)
		require.NotEmpty(t, chunks)
		for _, c := range chunks {
			assert.Equal(t, "hash-embed", c.EmbeddingModel)
		}
	})

	t.Run("vector hits only come from the query model", func(t *testing.T) {
		f := newKnowledgeFixture(t, true)
		tenantID := uuid.New()
		invoices, leave := seedPolicies(t, f, tenantID)
		restamp(f, leave.ID, "legacy-embed")
		zero := 0.0

		result, err := f.search.Search(ctx, tenantID, SearchInput{Query: "holiday leave", Mode: ModeVector, MinScore: &zero})
		require.NoError(t, err)
		assert.Equal(t, ModeVector, result.Mode)
		for _, hit := range result.Hits {
			assert.Equal(t, invoices.ID, hit.DocumentID)
		}
	})

	t.Run("falls back to text when no chunk shares the model", func(t *testing.T) {
		f := newKnowledgeFixture(t, true)
		tenantID := uuid.New()
		invoices, leave := seedPolicies(t, f, tenantID)
		restamp(f, invoices.ID, "legacy-embed")
		restamp(f, leave.ID, "legacy-embed")

		result, err := f.search.Search(ctx, tenantID, SearchInput{Query: "holiday leave"})
		require.NoError(t, err)
		assert.Equal(t, ModeText, result.Mode)
		assert.Equal(t, FallbackNoEmbeddings, result.FallbackReason)
		require.Len(t, result.Hits, 1)
		assert.Equal(t, leave.ID, result.Hits[0].DocumentID)
	})
}
