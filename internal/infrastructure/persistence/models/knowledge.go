package models

import (
	"github.com/google/uuid"
	"github.com/payaid/backend/internal/domain/knowledge"
)

// DocumentModel is the persistence model for the Document aggregate.
type DocumentModel struct {
	TenantAggregateModel
	Title          string                   `gorm:"type:varchar(300);not null"`
	FileName       string                   `gorm:"type:varchar(300);not null"`
	SourceType     knowledge.SourceType     `gorm:"type:varchar(20);not null"`
	ContentType    string                   `gorm:"type:varchar(100)"`
	ObjectKey      string                   `gorm:"type:varchar(600);not null"`
	SizeBytes      int64                    `gorm:"not null;default:0"`
	Status         knowledge.DocumentStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	ChunkCount     int                      `gorm:"not null;default:0"`
	EmbeddingModel string                   `gorm:"type:varchar(100)"`
	Error          string                   `gorm:"type:text"`
	Tags           StringList               `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (DocumentModel) TableName() string {
	return "knowledge_documents"
}

// ToDomain converts the persistence model to a domain Document.
func (m *DocumentModel) ToDomain() *knowledge.Document {
	return &knowledge.Document{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		Title:               m.Title,
		FileName:            m.FileName,
		SourceType:          m.SourceType,
		ContentType:         m.ContentType,
		ObjectKey:           m.ObjectKey,
		SizeBytes:           m.SizeBytes,
		Status:              m.Status,
		ChunkCount:          m.ChunkCount,
		EmbeddingModel:      m.EmbeddingModel,
		Error:               m.Error,
		Tags:                []string(m.Tags),
	}
}

// DocumentModelFromDomain creates a persistence model from a domain Document.
func DocumentModelFromDomain(d *knowledge.Document) *DocumentModel {
	m := &DocumentModel{
		Title:          d.Title,
		FileName:       d.FileName,
		SourceType:     d.SourceType,
		ContentType:    d.ContentType,
		ObjectKey:      d.ObjectKey,
		SizeBytes:      d.SizeBytes,
		Status:         d.Status,
		ChunkCount:     d.ChunkCount,
		EmbeddingModel: d.EmbeddingModel,
		Error:          d.Error,
		Tags:           StringList(d.Tags),
	}
	m.FromDomainTenantAggregateRoot(d.TenantAggregateRoot)
	return m
}

// ChunkModel is the persistence model for a document chunk. Chunks are
// replaced wholesale on reindex and are hard deleted.
type ChunkModel struct {
	BaseModel
	TenantID       uuid.UUID        `gorm:"type:uuid;not null;index"`
	DocumentID     uuid.UUID        `gorm:"type:uuid;not null;index"`
	Seq            int              `gorm:"not null"`
	Content        string           `gorm:"type:text;not null"`
	Embedding      knowledge.Vector `gorm:"type:text"`
	EmbeddingModel string           `gorm:"type:varchar(100)"`
	TokenCount     int              `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (ChunkModel) TableName() string {
	return "knowledge_chunks"
}

// ToDomain converts the persistence model to a domain Chunk.
func (m *ChunkModel) ToDomain() knowledge.Chunk {
	return knowledge.Chunk{
		BaseEntity:     m.BaseModel.ToDomain(),
		TenantID:       m.TenantID,
		DocumentID:     m.DocumentID,
		Seq:            m.Seq,
		Content:        m.Content,
		Embedding:      m.Embedding,
		EmbeddingModel: m.EmbeddingModel,
		TokenCount:     m.TokenCount,
	}
}

// ChunkModelFromDomain creates a persistence model from a domain Chunk.
func ChunkModelFromDomain(c knowledge.Chunk) ChunkModel {
	m := ChunkModel{
		TenantID:       c.TenantID,
		DocumentID:     c.DocumentID,
		Seq:            c.Seq,
		Content:        c.Content,
		Embedding:      c.Embedding,
		EmbeddingModel: c.EmbeddingModel,
		TokenCount:     c.TokenCount,
	}
	m.FromDomainBaseEntity(c.BaseEntity)
	return m
}
