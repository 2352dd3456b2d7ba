package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/payaid/backend/internal/domain/knowledge"
	"github.com/payaid/backend/internal/domain/shared"
	"github.com/payaid/backend/internal/infrastructure/persistence/models"
	"github.com/payaid/backend/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
)

// GormDocumentRepository implements knowledge.DocumentRepository using GORM
type GormDocumentRepository struct {
	db *gorm.DB
}

// NewGormDocumentRepository creates a new GormDocumentRepository
func NewGormDocumentRepository(db *gorm.DB) *GormDocumentRepository {
	return &GormDocumentRepository{db: db}
}

// FindByIDForTenant finds a document by ID within a tenant
func (r *GormDocumentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*knowledge.Document, error) {
	var model models.DocumentModel
	if err := r.db.WithContext(ctx).Scopes(tenant.Owned(tenantID, id)).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

func (r *GormDocumentRepository) filtered(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.DocumentModel{}).Scopes(
		tenant.Scope(tenantID),
		searchScope(filter.Search, "title", "file_name"),
		eqFilter(filter, "status", "status"),
		eqFilter(filter, "source_type", "source_type"),
	)
}

// FindAllForTenant lists documents of a tenant
func (r *GormDocumentRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]knowledge.Document, error) {
	var rows []models.DocumentModel
	if err := r.filtered(ctx, tenantID, filter).Scopes(pageScope(filter, DocumentSortFields)).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]knowledge.Document, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// CountForTenant counts documents matching the filter
func (r *GormDocumentRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	err := r.filtered(ctx, tenantID, filter).Count(&count).Error
	return count, err
}

// Save creates or updates a document
func (r *GormDocumentRepository) Save(ctx context.Context, d *knowledge.Document) error {
	return translateError(r.db.WithContext(ctx).Save(models.DocumentModelFromDomain(d)).Error)
}

// DeleteForTenant soft deletes a document
func (r *GormDocumentRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	return softDelete(ctx, r.db, &models.DocumentModel{}, tenantID, id)
}

// chunkInsertBatch bounds the rows per INSERT when storing a document's chunks.
const chunkInsertBatch = 100

// GormChunkRepository implements knowledge.ChunkRepository using GORM
type GormChunkRepository struct {
	db *gorm.DB
}

// NewGormChunkRepository creates a new GormChunkRepository
func NewGormChunkRepository(db *gorm.DB) *GormChunkRepository {
	return &GormChunkRepository{db: db}
}

// ReplaceForDocument swaps the chunk set of a document in one transaction
func (r *GormChunkRepository) ReplaceForDocument(ctx context.Context, tenantID, documentID uuid.UUID, chunks []knowledge.Chunk) error {
	rows := make([]models.ChunkModel, len(chunks))
	for i, c := range chunks {
		rows[i] = models.ChunkModelFromDomain(c)
		rows[i].TenantID = tenantID
		rows[i].DocumentID = documentID
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Scopes(tenant.Scope(tenantID)).
			Where("document_id = ?", documentID).
			Delete(&models.ChunkModel{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, chunkInsertBatch).Error
	})
}

// FindByDocument returns a document's chunks in sequence order
func (r *GormChunkRepository) FindByDocument(ctx context.Context, tenantID, documentID uuid.UUID) ([]knowledge.Chunk, error) {
	var rows []models.ChunkModel
	if err := r.db.WithContext(ctx).Scopes(tenant.Scope(tenantID)).
		Where("document_id = ?", documentID).
		Order("seq ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return chunksToDomain(rows), nil
}

// searchable joins chunks to live, indexed documents of the tenant.
func (r *GormChunkRepository) searchable(ctx context.Context, tenantID uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.ChunkModel{}).
		Joins("JOIN knowledge_documents d ON d.id = knowledge_chunks.document_id AND d.deleted_at IS NULL AND d.status = ?",
			knowledge.DocumentStatusIndexed).
		Where("knowledge_chunks.tenant_id = ?", tenantID)
}

// FindEmbedded returns chunks of indexed documents that carry an embedding
func (r *GormChunkRepository) FindEmbedded(ctx context.Context, tenantID uuid.UUID) ([]knowledge.Chunk, error) {
	var rows []models.ChunkModel
	if err := r.searchable(ctx, tenantID).
		Select("knowledge_chunks.*").
		Where("knowledge_chunks.embedding IS NOT NULL AND knowledge_chunks.embedding NOT IN ('', '[]')").
		Order("knowledge_chunks.document_id, knowledge_chunks.seq").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return chunksToDomain(rows), nil
}

// SearchText returns chunks of indexed documents containing any of the terms, case-insensitively.
// Chunks matching more terms come first so the limit never cuts a better match.
func (r *GormChunkRepository) SearchText(ctx context.Context, tenantID uuid.UUID, terms []string, limit int) ([]knowledge.Chunk, error) {
	conds := make([]string, 0, len(terms))
	args := make([]any, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		conds = append(conds, "LOWER(knowledge_chunks.content) LIKE ? ESCAPE '\\'")
		args = append(args, "%"+escapeLike(t)+"%")
	}
	if len(conds) == 0 {
		return nil, nil
	}

	hits := make([]string, len(conds))
	for i, c := range conds {
		hits[i] = "CASE WHEN " + c + " THEN 1 ELSE 0 END"
	}

	q := r.searchable(ctx, tenantID).
		Select("knowledge_chunks.*, ("+strings.Join(hits, " + ")+") AS term_hits", args...).
		Where("("+strings.Join(conds, " OR ")+")", args...).
		Order("term_hits DESC").
		Order("knowledge_chunks.document_id, knowledge_chunks.seq")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []models.ChunkModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return chunksToDomain(rows), nil
}

// DeleteByDocument removes all chunks of a document
func (r *GormChunkRepository) DeleteByDocument(ctx context.Context, tenantID, documentID uuid.UUID) error {
	return r.db.WithContext(ctx).Scopes(tenant.Scope(tenantID)).
		Where("document_id = ?", documentID).
		Delete(&models.ChunkModel{}).Error
}

func chunksToDomain(rows []models.ChunkModel) []knowledge.Chunk {
	out := make([]knowledge.Chunk, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out
}
