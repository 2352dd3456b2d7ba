package knowledge

import (
	"context"

	"github.com/google/uuid"
	"github.com/payaid/backend/internal/domain/shared"
)

// DocumentRepository defines persistence for knowledge documents
type DocumentRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Document, error)

	// FindAllForTenant supports the "status" filter
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Document, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	Save(ctx context.Context, doc *Document) error
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error
}

// ChunkRepository defines persistence for document chunks
type ChunkRepository interface {
	// ReplaceForDocument deletes existing chunks of the document and stores the new set
	ReplaceForDocument(ctx context.Context, tenantID, documentID uuid.UUID, chunks []Chunk) error

	FindByDocument(ctx context.Context, tenantID, documentID uuid.UUID) ([]Chunk, error)

	// FindEmbedded returns chunks of indexed documents that carry an embedding
	FindEmbedded(ctx context.Context, tenantID uuid.UUID) ([]Chunk, error)

	// SearchText returns chunks of indexed documents containing any of the terms, case-insensitively
	SearchText(ctx context.Context, tenantID uuid.UUID, terms []string, limit int) ([]Chunk, error)

	DeleteByDocument(ctx context.Context, tenantID, documentID uuid.UUID) error
}
