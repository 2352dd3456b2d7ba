package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOpenAI serves the chat completion and embedding endpoints
func fakeOpenAI(t *testing.T, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = io.WriteString(w, `{"error":{"message":"boom","type":"server_error"}}`)
			return
		}
		switch {
		case strings.HasSuffix(r.URL.Path, "/chat/completions"):
			var req map[string]any
			require.NoError(t, json.Unmarshal(body, &req))
			_, _ = io.WriteString(w, `{"id":"c1","object":"chat.completion","created":1,"model":"gpt-test",
				"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"  Net 30.  "}}],
				"usage":{"prompt_tokens":3,"completion_tokens":2,"total_tokens":5}}`)
		case strings.HasSuffix(r.URL.Path, "/embeddings"):
			var req struct {
				Input []string `json:"input"`
			}
			require.NoError(t, json.Unmarshal(body, &req))
			data := make([]map[string]any, len(req.Input))
			// reversed order to check index handling
			for i := range req.Input {
				idx := len(req.Input) - 1 - i
				data[i] = map[string]any{"object": "embedding", "index": idx, "embedding": []float64{float64(idx), 1}}
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"object": "list", "data": data, "model": "text-embedding-3-small",
				"usage": map[string]any{"prompt_tokens": 1, "total_tokens": 1},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestNewOpenAIProvider_RequiresKey(t *testing.T) {
	assert.Nil(t, NewOpenAIProvider(OpenAIConfig{}, nil))
	assert.Nil(t, NewOpenAIEmbedder(OpenAIConfig{EmbeddingModel: "text-embedding-3-small"}))
}

func TestOpenAIProvider_Generate(t *testing.T) {
	srv := fakeOpenAI(t, http.StatusOK)
	defer srv.Close()

	p := NewOpenAIProvider(OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL, ChatModel: "gpt-test"}, nil)
	require.NotNil(t, p)
	assert.Equal(t, "openai", p.Name())

	answer, err := p.Generate(context.Background(), Prompt{Question: "payment terms?"})
	require.NoError(t, err)
	assert.Equal(t, "Net 30.", answer)
}

func TestOpenAIProvider_ServerError(t *testing.T) {
	srv := fakeOpenAI(t, http.StatusInternalServerError)
	defer srv.Close()

	p := NewOpenAIProvider(OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL, ChatModel: "gpt-test"}, nil)
	_, err := p.Generate(context.Background(), Prompt{Question: "q"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai chat completion")
}

func TestOpenAIEmbedder_EmbedTexts(t *testing.T) {
	srv := fakeOpenAI(t, http.StatusOK)
	defer srv.Close()

	e := NewOpenAIEmbedder(OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL, EmbeddingModel: "text-embedding-3-small"})
	require.NotNil(t, e)
	assert.Equal(t, 1536, e.Dimensions())

	vectors, err := e.EmbedTexts(context.Background(), []string{"first", "second", "third"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0, 1}, {1, 1}, {2, 1}}, vectors)
	assert.Equal(t, 2, e.Dimensions())

	vectors, err = e.EmbedTexts(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vectors)
}
