package knowledge

import (
	"path"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/payaid/backend/internal/domain/shared"
)

// SourceType is the format of an uploaded document
type SourceType string

const (
	SourceTypeText     SourceType = "text"
	SourceTypeMarkdown SourceType = "markdown"
	SourceTypePDF      SourceType = "pdf"
)

// IsValid reports whether the source type is supported
func (s SourceType) IsValid() bool {
	return s == SourceTypeText || s == SourceTypeMarkdown || s == SourceTypePDF
}

// DetectSourceType infers the type from a content type or file name
func DetectSourceType(contentType, filename string) SourceType {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "pdf"):
		return SourceTypePDF
	case strings.Contains(ct, "markdown"):
		return SourceTypeMarkdown
	}
	switch strings.ToLower(path.Ext(filename)) {
	case ".pdf":
		return SourceTypePDF
	case ".md", ".markdown":
		return SourceTypeMarkdown
	case ".txt", ".text", "":
		return SourceTypeText
	}
	if strings.HasPrefix(ct, "text/") {
		return SourceTypeText
	}
	return ""
}

// DocumentStatus tracks the indexing pipeline
type DocumentStatus string

const (
	DocumentStatusPending    DocumentStatus = "pending"
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusIndexed    DocumentStatus = "indexed"
	DocumentStatusFailed     DocumentStatus = "failed"
)

// MaxDocumentSize is the largest upload accepted, in bytes
const MaxDocumentSize = 20 << 20

// Document is a knowledge base source file
type Document struct {
	shared.TenantAggregateRoot
	Title          string
	FileName       string
	SourceType     SourceType
	ContentType    string
	ObjectKey      string
	SizeBytes      int64
	Status         DocumentStatus
	ChunkCount     int
	EmbeddingModel string
	Error          string
	Tags           []string
}

// NewDocument registers an upload awaiting processing
func NewDocument(tenantID uuid.UUID, title, fileName string, sourceType SourceType, contentType string, size int64) (*Document, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		base := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
		title = strings.TrimSuffix(base, path.Ext(base))
	}
	if title == "" || len(title) > 255 {
		return nil, shared.NewDomainError("INVALID_TITLE", "Document title must be between 1 and 255 characters")
	}
	if !sourceType.IsValid() {
		return nil, shared.NewDomainError("UNSUPPORTED_FORMAT", "Only text, markdown and PDF documents are supported")
	}
	if size <= 0 {
		return nil, shared.NewDomainError("EMPTY_DOCUMENT", "Document is empty")
	}
	if size > MaxDocumentSize {
		return nil, shared.NewDomainError("DOCUMENT_TOO_LARGE", "Document exceeds the 20MB limit")
	}
	doc := &Document{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Title:               title,
		FileName:            path.Base(strings.ReplaceAll(fileName, "\\", "/")),
		SourceType:          sourceType,
		ContentType:         contentType,
		SizeBytes:           size,
		Status:              DocumentStatusPending,
		Tags:                []string{},
	}
	doc.ObjectKey = ObjectKeyFor(tenantID, doc.ID, doc.FileName)
	return doc, nil
}

// ObjectKeyFor builds the storage key of a document's original file
func ObjectKeyFor(tenantID, documentID uuid.UUID, fileName string) string {
	name := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "document"
	}
	return "tenants/" + tenantID.String() + "/knowledge/" + documentID.String() + "/" + name
}

// SetTags replaces the document tags
func (d *Document) SetTags(tags []string) {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag != "" && !slices.Contains(out, tag) {
			out = append(out, tag)
		}
	}
	d.Tags = out
	d.MarkModified()
}

// MarkProcessing moves the document into the pipeline
func (d *Document) MarkProcessing() error {
	if d.Status == DocumentStatusProcessing {
		return shared.NewDomainError("ALREADY_PROCESSING", "Document is already being processed")
	}
	d.Status = DocumentStatusProcessing
	d.Error = ""
	d.MarkModified()
	return nil
}

// MarkIndexed records a successful indexing run
func (d *Document) MarkIndexed(chunkCount int, model string) {
	d.Status = DocumentStatusIndexed
	d.ChunkCount = chunkCount
	d.EmbeddingModel = model
	d.Error = ""
	d.MarkModified()
}

// MarkFailed records why indexing failed
func (d *Document) MarkFailed(err error) {
	d.Status = DocumentStatusFailed
	if err != nil {
		msg := err.Error()
		if len(msg) > 1000 {
			msg = msg[:1000]
		}
		d.Error = msg
	}
	d.MarkModified()
}

// IsSearchable reports whether the document's chunks may be returned
func (d *Document) IsSearchable() bool {
	return d.Status == DocumentStatusIndexed
}
