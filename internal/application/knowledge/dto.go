package knowledge

import (
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/payaid/backend/internal/domain/knowledge"
	"github.com/payaid/backend/internal/domain/shared"
)

// UploadInput describes an uploaded file
type UploadInput struct {
	Title       string
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
	Tags        []string
	Sync        bool
	CreatedBy   uuid.UUID
}

// TextInput ingests a document given inline as text or markdown
type TextInput struct {
	Title     string
	Content   string
	Format    string // text or markdown
	Tags      []string
	Sync      bool
	CreatedBy uuid.UUID
}

// DocumentListFilter represents filter for querying documents
type DocumentListFilter struct {
	Page     int
	PageSize int
	SortBy   string
	SortDir  string
	Keyword  string
	Status   string
}

// ToSharedFilter converts DocumentListFilter to shared.Filter
func (f DocumentListFilter) ToSharedFilter() shared.Filter {
	filter := shared.Filter{
		Page:     f.Page,
		PageSize: f.PageSize,
		OrderBy:  f.SortBy,
		OrderDir: f.SortDir,
		Search:   f.Keyword,
		Filters:  map[string]any{},
	}
	if f.Status != "" {
		filter.Filters["status"] = f.Status
	}
	return filter.Normalize()
}

// DocumentDTO is the API view of a knowledge document
type DocumentDTO struct {
	ID             uuid.UUID `json:"id"`
	Title          string    `json:"title"`
	FileName       string    `json:"file_name"`
	SourceType     string    `json:"source_type"`
	ContentType    string    `json:"content_type,omitempty"`
	SizeBytes      int64     `json:"size_bytes"`
	Status         string    `json:"status"`
	ChunkCount     int       `json:"chunk_count"`
	EmbeddingModel string    `json:"embedding_model,omitempty"`
	Error          string    `json:"error,omitempty"`
	Tags           []string  `json:"tags"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ToDocumentDTO converts a domain document
func ToDocumentDTO(d *knowledge.Document) DocumentDTO {
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	return DocumentDTO{
		ID:             d.ID,
		Title:          d.Title,
		FileName:       d.FileName,
		SourceType:     string(d.SourceType),
		ContentType:    d.ContentType,
		SizeBytes:      d.SizeBytes,
		Status:         string(d.Status),
		ChunkCount:     d.ChunkCount,
		EmbeddingModel: d.EmbeddingModel,
		Error:          d.Error,
		Tags:           tags,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

// Search modes
const (
	ModeAuto   = "auto"
	ModeVector = "vector"
	ModeText   = "text"
)

// Fallback reasons reported when auto mode answers from text search
const (
	FallbackNoEmbedder     = "embedder_unavailable"
	FallbackEmbedFailed    = "embedding_failed"
	FallbackNoEmbeddings   = "no_embeddings"
	FallbackBelowThreshold = "below_threshold"
)

// SearchInput is a knowledge query
type SearchInput struct {
	Query    string
	TopK     int
	MinScore *float64
	Mode     string
}

// SearchHit is one matching chunk
type SearchHit struct {
	ChunkID       uuid.UUID `json:"chunk_id"`
	DocumentID    uuid.UUID `json:"document_id"`
	DocumentTitle string    `json:"document_title"`
	Seq           int       `json:"seq"`
	Content       string    `json:"content"`
	Score         float64   `json:"score"`
}

// SearchResult lists hits and states which path produced them
type SearchResult struct {
	Query          string      `json:"query"`
	Mode           string      `json:"mode"`
	FallbackReason string      `json:"fallback_reason,omitempty"`
	Hits           []SearchHit `json:"hits"`
}
