package integration

import (
	"net/http"
	"testing"

	"github.com/payaid/backend/internal/application/assistant"
	knowledgeapp "github.com/payaid/backend/internal/application/knowledge"
	"github.com/payaid/backend/internal/infrastructure/ai"
	"github.com/payaid/backend/internal/interfaces/http/dto"
	"github.com/payaid/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const refundPolicy = `# Refund policy

Refunds are processed within 7 working days of approval.
Annual subscriptions cancelled in the first 30 days get a full refund.

# Support hours

Support is available Monday to Saturday, 9am to 7pm IST.`

func TestKnowledgeFlow(t *testing.T) {
	s := newStack(t, NewSharedTestDB(t))
	owner := s.register(t, "kbflow", "enterprise")

	w := owner.Do(t, http.MethodPost, "/api/v1/knowledge/documents/text", map[string]any{
		"title":   "Customer policies",
		"content": refundPolicy,
		"format":  "markdown",
		"tags":    []string{"policy"},
		"sync":    true,
	})
	testutil.AssertSuccess(t, w, http.StatusCreated)
	doc := testutil.DecodeData[knowledgeapp.DocumentDTO](t, w)
	assert.Equal(t, "indexed", doc.Status)
	assert.Positive(t, doc.ChunkCount)

	t.Run("search falls back to text without an embedder", func(t *testing.T) {
		w := owner.Do(t, http.MethodPost, "/api/v1/knowledge/search", map[string]any{
			"query": "how many days for refunds",
			"top_k": 3,
		})
		testutil.AssertSuccess(t, w, http.StatusOK)
		result := testutil.DecodeData[knowledgeapp.SearchResult](t, w)

		assert.Equal(t, knowledgeapp.ModeText, result.Mode)
		assert.Equal(t, knowledgeapp.FallbackNoEmbedder, result.FallbackReason)
		require.NotEmpty(t, result.Hits)
		assert.Equal(t, doc.ID, result.Hits[0].DocumentID)
		assert.Contains(t, result.Hits[0].Content, "7 working days")
	})

	t.Run("grounded chat cites the document", func(t *testing.T) {
		w := owner.Do(t, http.MethodPost, "/api/v1/ai/chat", map[string]any{
			"message":       "How long do refunds take?",
			"use_knowledge": true,
		})
		testutil.AssertSuccess(t, w, http.StatusOK)
		answer := testutil.DecodeData[assistant.ChatResponse](t, w)

		assert.Equal(t, ai.RuleBasedName, answer.Provider)
		assert.NotEmpty(t, answer.Answer)
		require.NotEmpty(t, answer.Sources)
		assert.Equal(t, doc.ID, answer.Sources[0].DocumentID)
		assert.Equal(t, 1, answer.Sources[0].Index)
	})

	t.Run("reindex rebuilds chunks", func(t *testing.T) {
		w := owner.Do(t, http.MethodPost, "/api/v1/knowledge/documents/"+doc.ID.String()+"/reindex", nil)
		require.Contains(t, []int{http.StatusOK, http.StatusAccepted}, w.Code, w.Body.String())

		testutil.RequireEventually(t, func() bool {
			w := owner.Do(t, http.MethodGet, "/api/v1/knowledge/documents/"+doc.ID.String(), nil)
			return w.Code == http.StatusOK &&
				testutil.DecodeData[knowledgeapp.DocumentDTO](t, w).Status == "indexed"
		}, defaultWait, pollInterval)
	})

	t.Run("deleted documents leave search", func(t *testing.T) {
		w := owner.Do(t, http.MethodDelete, "/api/v1/knowledge/documents/"+doc.ID.String(), nil)
		require.Less(t, w.Code, 300, w.Body.String())

		w = owner.Do(t, http.MethodPost, "/api/v1/knowledge/search", map[string]any{"query": "refunds", "mode": "text"})
		testutil.AssertSuccess(t, w, http.StatusOK)
		assert.Empty(t, testutil.DecodeData[knowledgeapp.SearchResult](t, w).Hits)
	})
}

func TestKnowledge_RequiresLicense(t *testing.T) {
	s := newStack(t, NewSharedTestDB(t))
	owner := s.register(t, "kbstarter", "starter")

	w := owner.Do(t, http.MethodPost, "/api/v1/knowledge/search", map[string]any{"query": "refunds"})
	testutil.AssertError(t, w, http.StatusForbidden, dto.ErrCodeModuleNotLicensed)
}
