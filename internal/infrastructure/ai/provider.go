package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyResponse is returned when a provider answers with no content
	ErrEmptyResponse = errors.New("provider returned an empty response")

	// ErrNoProviders is returned by a chain with nothing to try
	ErrNoProviders = errors.New("no AI providers configured")
)

// Snippet is a numbered knowledge source included in a prompt
type Snippet struct {
	Title   string
	Content string
	Score   float64
}

// Prompt is a chat request
type Prompt struct {
	System   string
	Question string
	Sources  []Snippet
}

// Render builds the user message: numbered sources followed by the question
func (p Prompt) Render() string {
	if len(p.Sources) == 0 {
		return p.Question
	}
	var b strings.Builder
	b.WriteString("Answer using only the sources below. Cite sources as [n].\n\n")
	for i, s := range p.Sources {
		fmt.Fprintf(&b, "[%d] %s\n%s\n\n", i+1, s.Title, strings.TrimSpace(s.Content))
	}
	b.WriteString("Question: ")
	b.WriteString(p.Question)
	return b.String()
}

// ChatProvider generates an answer for a prompt
type ChatProvider interface {
	Name() string
	Generate(ctx context.Context, prompt Prompt) (string, error)
}

// Embedder turns texts into vectors
type Embedder interface {
	Name() string
	Dimensions() int
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// modelReporter is implemented by embedders that may delegate to one of several models
type modelReporter interface {
	EmbedTextsWithModel(ctx context.Context, texts []string) ([][]float32, string, error)
}

// Embed embeds texts and returns the name of the model that produced the vectors
func Embed(ctx context.Context, e Embedder, texts []string) ([][]float32, string, error) {
	if r, ok := e.(modelReporter); ok {
		return r.EmbedTextsWithModel(ctx, texts)
	}
	vectors, err := e.EmbedTexts(ctx, texts)
	return vectors, e.Name(), err
}

// AttemptRecorder receives one call per provider attempt
type AttemptRecorder interface {
	RecordAIAttempt(ctx context.Context, provider, outcome string)
}

// Attempt outcomes
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeTimeout = "timeout"
)
