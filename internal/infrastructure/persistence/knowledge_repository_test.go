package persistence

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/payaid/backend/internal/domain/knowledge"
	"github.com/payaid/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func saveDocument(t *testing.T, repo *GormDocumentRepository, tenantID uuid.UUID, fileName string) *knowledge.Document {
	t.Helper()
	doc, err := knowledge.NewDocument(tenantID, "", fileName, knowledge.SourceTypeText, "text/plain", 128)
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), doc))
	return doc
}

func TestGormDocumentRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormDocumentRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	policy := saveDocument(t, repo, tenantID, "leave-policy.txt")
	handbook := saveDocument(t, repo, tenantID, "handbook.txt")
	handbook.SetTags([]string{"hr", "onboarding"})
	require.NoError(t, handbook.MarkProcessing())
	handbook.MarkIndexed(4, "text-embedding-3-small")
	require.NoError(t, repo.Save(ctx, handbook))

	t.Run("round trips status and tags", func(t *testing.T) {
		found, err := repo.FindByIDForTenant(ctx, tenantID, handbook.ID)
		require.NoError(t, err)
		assert.Equal(t, knowledge.DocumentStatusIndexed, found.Status)
		assert.Equal(t, 4, found.ChunkCount)
		assert.ElementsMatch(t, []string{"hr", "onboarding"}, found.Tags)
		assert.Equal(t, handbook.ObjectKey, found.ObjectKey)
	})

	t.Run("filters by status", func(t *testing.T) {
		filter := shared.DefaultFilter()
		filter.Filters["status"] = string(knowledge.DocumentStatusPending)
		docs, err := repo.FindAllForTenant(ctx, tenantID, filter)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, policy.ID, docs[0].ID)
	})

	t.Run("deletes softly", func(t *testing.T) {
		require.NoError(t, repo.DeleteForTenant(ctx, tenantID, policy.ID))
		count, err := repo.CountForTenant(ctx, tenantID, shared.DefaultFilter())
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})
}

func TestGormChunkRepository(t *testing.T) {
	db := newTestDB(t)
	docs := NewGormDocumentRepository(db)
	repo := NewGormChunkRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	indexed := saveDocument(t, docs, tenantID, "benefits.txt")
	failed := saveDocument(t, docs, tenantID, "broken.txt")

	indexedChunks := []knowledge.Chunk{
		knowledge.NewChunk(tenantID, indexed.ID, 0, "Employees get 24 days of annual leave."),
		knowledge.NewChunk(tenantID, indexed.ID, 1, "Health insurance covers the family."),
		knowledge.NewChunk(tenantID, indexed.ID, 2, "Travel is reimbursed within 30 days."),
	}
	indexedChunks[0].Embedding = knowledge.Vector{1, 0}
	indexedChunks[1].Embedding = knowledge.Vector{0, 1}
	indexedChunks[0].EmbeddingModel = "text-embedding-3-small"
	require.NoError(t, repo.ReplaceForDocument(ctx, tenantID, indexed.ID, indexedChunks))
	require.NoError(t, indexed.MarkProcessing())
	indexed.MarkIndexed(len(indexedChunks), "test-model")
	require.NoError(t, docs.Save(ctx, indexed))

	failedChunks := []knowledge.Chunk{knowledge.NewChunk(tenantID, failed.ID, 0, "Annual leave draft")}
	failedChunks[0].Embedding = knowledge.Vector{1, 1}
	require.NoError(t, repo.ReplaceForDocument(ctx, tenantID, failed.ID, failedChunks))
	require.NoError(t, failed.MarkProcessing())
	failed.MarkFailed(errors.New("extraction failed"))
	require.NoError(t, docs.Save(ctx, failed))

	t.Run("returns chunks in sequence order", func(t *testing.T) {
		chunks, err := repo.FindByDocument(ctx, tenantID, indexed.ID)
		require.NoError(t, err)
		require.Len(t, chunks, 3)
		for i, c := range chunks {
			assert.Equal(t, i, c.Seq)
		}
		assert.Equal(t, knowledge.Vector{1, 0}, chunks[0].Embedding)
		assert.Equal(t, "text-embedding-3-small", chunks[0].EmbeddingModel)
	})

	t.Run("embedded chunks come only from indexed documents", func(t *testing.T) {
		chunks, err := repo.FindEmbedded(ctx, tenantID)
		require.NoError(t, err)
		require.Len(t, chunks, 2)
		for _, c := range chunks {
			assert.Equal(t, indexed.ID, c.DocumentID)
			assert.True(t, c.HasEmbedding())
		}
	})

	t.Run("text search matches any term case-insensitively", func(t *testing.T) {
		chunks, err := repo.SearchText(ctx, tenantID, []string{"LEAVE", "insurance"}, 10)
		require.NoError(t, err)
		require.Len(t, chunks, 2)
		assert.Equal(t, 0, chunks[0].Seq)
		assert.Equal(t, 1, chunks[1].Seq)

		chunks, err = repo.SearchText(ctx, tenantID, []string{"leave"}, 10)
		require.NoError(t, err)
		assert.Len(t, chunks, 1)
	})

	t.Run("text search without terms returns nothing", func(t *testing.T) {
		chunks, err := repo.SearchText(ctx, tenantID, []string{" ", ""}, 10)
		require.NoError(t, err)
		assert.Empty(t, chunks)
	})

	t.Run("other tenants see nothing", func(t *testing.T) {
		chunks, err := repo.FindEmbedded(ctx, uuid.New())
		require.NoError(t, err)
		assert.Empty(t, chunks)
	})

	t.Run("replace swaps the whole set", func(t *testing.T) {
		replacement := []knowledge.Chunk{knowledge.NewChunk(tenantID, indexed.ID, 0, "Rewritten policy")}
		require.NoError(t, repo.ReplaceForDocument(ctx, tenantID, indexed.ID, replacement))

		chunks, err := repo.FindByDocument(ctx, tenantID, indexed.ID)
		require.NoError(t, err)
		require.Len(t, chunks, 1)
		assert.Equal(t, "Rewritten policy", chunks[0].Content)
		assert.False(t, chunks[0].HasEmbedding())
	})

	t.Run("deletes by document", func(t *testing.T) {
		require.NoError(t, repo.DeleteByDocument(ctx, tenantID, failed.ID))
		chunks, err := repo.FindByDocument(ctx, tenantID, failed.ID)
		require.NoError(t, err)
		assert.Empty(t, chunks)
	})
}

func TestGormChunkRepository_SearchTextPrefersMoreTerms(t *testing.T) {
	db := newTestDB(t)
	docs := NewGormDocumentRepository(db)
	repo := NewGormChunkRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	index := func(fileName string, contents ...string) *knowledge.Document {
		doc := saveDocument(t, docs, tenantID, fileName)
		chunks := make([]knowledge.Chunk, len(contents))
		for i, c := range contents {
			chunks[i] = knowledge.NewChunk(tenantID, doc.ID, i, c)
		}
		require.NoError(t, repo.ReplaceForDocument(ctx, tenantID, doc.ID, chunks))
		require.NoError(t, doc.MarkProcessing())
		doc.MarkIndexed(len(chunks), "")
		require.NoError(t, docs.Save(ctx, doc))
		return doc
	}

	general := make([]string, 60)
	for i := range general {
		general[i] = fmt.Sprintf("Section %d of the privacy policy.", i+1)
	}
	index("general.txt", general...)
	refunds := index("refunds.txt", "Our refund policy allows returns within 7 working days.")

	chunks, err := repo.SearchText(ctx, tenantID, []string{"refund", "policy"}, 5)
	require.NoError(t, err)
	require.Len(t, chunks, 5)
	assert.Equal(t, refunds.ID, chunks[0].DocumentID)
	assert.Contains(t, chunks[0].Content, "refund policy")
}
