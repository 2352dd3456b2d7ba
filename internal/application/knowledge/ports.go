package knowledge

import (
	"context"
	"io"
	"time"

	"github.com/payaid/backend/internal/domain/knowledge"
)

// ObjectStorage keeps the original uploaded files
type ObjectStorage interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// TextExtractor turns a document body into plain text
type TextExtractor interface {
	Extract(r io.Reader, sourceType knowledge.SourceType) (string, error)
}

// Recorder observes ingestion and search activity
type Recorder interface {
	RecordKnowledgeSearch(ctx context.Context, mode string, elapsed time.Duration, hits int)
	RecordDocumentIngested(ctx context.Context, sourceType, status string)
}

type nopRecorder struct{}

func (nopRecorder) RecordKnowledgeSearch(context.Context, string, time.Duration, int) {}
func (nopRecorder) RecordDocumentIngested(context.Context, string, string)            {}
