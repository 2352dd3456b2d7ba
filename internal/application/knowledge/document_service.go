package knowledge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/payaid/backend/internal/domain/knowledge"
	"github.com/payaid/backend/internal/domain/shared"
	"github.com/payaid/backend/internal/infrastructure/ai"
	"github.com/payaid/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// processTimeout bounds one background processing run
const processTimeout = 10 * time.Minute

// ErrEmbedderUnavailable is returned when an operation needs embeddings and none are configured
var ErrEmbedderUnavailable = shared.NewDomainError("EMBEDDER_UNAVAILABLE", "No embedding provider is configured")

// Options tunes ingestion
type Options struct {
	ChunkSize         int
	ChunkOverlap      int
	EmbedBatchSize    int
	EmbedWorkers      int
	BackgroundWorkers int
}

func (o Options) withDefaults() Options {
	if o.ChunkSize <= 0 {
		o.ChunkSize = 1000
	}
	if o.ChunkOverlap < 0 || o.ChunkOverlap >= o.ChunkSize {
		o.ChunkOverlap = 0
	}
	if o.EmbedBatchSize <= 0 {
		o.EmbedBatchSize = 32
	}
	if o.EmbedWorkers <= 0 {
		o.EmbedWorkers = 4
	}
	if o.BackgroundWorkers <= 0 {
		o.BackgroundWorkers = 2
	}
	return o
}

// DocumentService stores, indexes and removes knowledge documents
type DocumentService struct {
	docRepo    knowledge.DocumentRepository
	chunkRepo  knowledge.ChunkRepository
	storage    ObjectStorage
	extractor  TextExtractor
	embedder   ai.Embedder
	chunker    *knowledge.Chunker
	batchSize  int
	embedPool  *ants.Pool
	background *ants.Pool
	pending    sync.WaitGroup
	recorder   Recorder
	logger     *zap.Logger
}

// NewDocumentService creates the ingestion service. embedder may be nil, in which
// case chunks are stored without vectors and only text search finds them.
func NewDocumentService(
	docRepo knowledge.DocumentRepository,
	chunkRepo knowledge.ChunkRepository,
	storage ObjectStorage,
	extractor TextExtractor,
	embedder ai.Embedder,
	recorder Recorder,
	opts Options,
	logger *zap.Logger,
) (*DocumentService, error) {
	opts = opts.withDefaults()
	if recorder == nil {
		recorder = nopRecorder{}
	}
	s := &DocumentService{
		docRepo:   docRepo,
		chunkRepo: chunkRepo,
		storage:   storage,
		extractor: extractor,
		embedder:  embedder,
		chunker:   knowledge.NewChunker(opts.ChunkSize, opts.ChunkOverlap),
		batchSize: opts.EmbedBatchSize,
		recorder:  recorder,
		logger:    logger,
	}

	panicHandler := func(p any) {
		logger.Error("knowledge worker panicked", zap.Any("panic", p))
	}
	embedPool, err := ants.NewPool(opts.EmbedWorkers, ants.WithPanicHandler(panicHandler))
	if err != nil {
		return nil, fmt.Errorf("create embedding pool: %w", err)
	}
	background, err := ants.NewPool(opts.BackgroundWorkers,
		ants.WithNonblocking(true),
		ants.WithPanicHandler(panicHandler))
	if err != nil {
		embedPool.Release()
		return nil, fmt.Errorf("create processing pool: %w", err)
	}
	s.embedPool = embedPool
	s.background = background
	return s, nil
}

// Close waits for queued processing and releases the worker pools
func (s *DocumentService) Close() {
	s.pending.Wait()
	s.background.Release()
	s.embedPool.Release()
}

// HasEmbedder reports whether documents get vectors
func (s *DocumentService) HasEmbedder() bool {
	return s.embedder != nil
}

// Upload stores a file and schedules its processing
func (s *DocumentService) Upload(ctx context.Context, tenantID uuid.UUID, input UploadInput) (*DocumentDTO, error) {
	sourceType := knowledge.DetectSourceType(input.ContentType, input.FileName)
	doc, err := knowledge.NewDocument(tenantID, input.Title, input.FileName, sourceType, input.ContentType, input.Size)
	if err != nil {
		return nil, err
	}
	if len(input.Tags) > 0 {
		doc.SetTags(input.Tags)
	}
	doc.SetCreatedBy(input.CreatedBy)

	if err := s.storage.Put(ctx, doc.ObjectKey, input.Body, input.Size, input.ContentType); err != nil {
		s.logger.Error("Failed to store document", zap.String("key", doc.ObjectKey), zap.Error(err))
		return nil, fmt.Errorf("store document: %w", err)
	}
	if err := s.docRepo.Save(ctx, doc); err != nil {
		if delErr := s.storage.Delete(context.WithoutCancel(ctx), doc.ObjectKey); delErr != nil {
			s.logger.Warn("Failed to remove orphaned object", zap.String("key", doc.ObjectKey), zap.Error(delErr))
		}
		return nil, err
	}
	s.logger.Info("Document uploaded",
		zap.String("tenant_id", tenantID.String()),
		zap.String("document_id", doc.ID.String()),
		zap.String("source_type", string(doc.SourceType)),
		zap.Int64("size", doc.SizeBytes))

	return s.schedule(ctx, doc, input.Sync)
}

// IngestText stores inline text as a document and schedules its processing
func (s *DocumentService) IngestText(ctx context.Context, tenantID uuid.UUID, input TextInput) (*DocumentDTO, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, shared.NewDomainError("EMPTY_DOCUMENT", "Document is empty")
	}
	fileName, contentType := "document.txt", "text/plain; charset=utf-8"
	switch input.Format {
	case "", "text":
	case "markdown":
		fileName, contentType = "document.md", "text/markdown; charset=utf-8"
	default:
		return nil, shared.NewDomainError("UNSUPPORTED_FORMAT", "Inline documents must be text or markdown")
	}
	return s.Upload(ctx, tenantID, UploadInput{
		Title:       input.Title,
		FileName:    fileName,
		ContentType: contentType,
		Size:        int64(len(content)),
		Body:        strings.NewReader(content),
		Tags:        input.Tags,
		Sync:        input.Sync,
		CreatedBy:   input.CreatedBy,
	})
}

// schedule processes the document inline or queues it on the background pool.
// A full queue leaves the document pending for a later reindex.
func (s *DocumentService) schedule(ctx context.Context, doc *knowledge.Document, sync bool) (*DocumentDTO, error) {
	if sync {
		if err := s.process(ctx, doc); err != nil {
			s.logger.Warn("Document processing failed", zap.String("document_id", doc.ID.String()), zap.Error(err))
		}
		dto := ToDocumentDTO(doc)
		return &dto, nil
	}

	dto := ToDocumentDTO(doc)
	tenantID, docID := doc.TenantID, doc.ID
	s.pending.Add(1)
	err := s.background.Submit(func() {
		defer s.pending.Done()
		bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), processTimeout)
		defer cancel()
		if _, err := s.Process(bg, tenantID, docID); err != nil {
			s.logger.Warn("Background processing failed", zap.String("document_id", docID.String()), zap.Error(err))
		}
	})
	if err != nil {
		s.pending.Done()
		s.logger.Warn("Processing queue full, document left pending",
			zap.String("document_id", docID.String()),
			zap.Error(err))
	}
	return &dto, nil
}

// Process extracts, chunks, embeds and stores a document
func (s *DocumentService) Process(ctx context.Context, tenantID, id uuid.UUID) (*DocumentDTO, error) {
	doc, err := s.docRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := s.process(ctx, doc); err != nil {
		return nil, err
	}
	dto := ToDocumentDTO(doc)
	return &dto, nil
}

func (s *DocumentService) process(ctx context.Context, doc *knowledge.Document) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "knowledge", "process_document",
		telemetry.AttrTenantID.String(doc.TenantID.String()),
		telemetry.AttrSourceType.String(string(doc.SourceType)),
		attribute.String("document_id", doc.ID.String()))
	defer func() { telemetry.EndSpan(span, err) }()

	if err := doc.MarkProcessing(); err != nil {
		return err
	}
	if err := s.docRepo.Save(ctx, doc); err != nil {
		return err
	}

	chunks, model, err := s.buildChunks(ctx, doc)
	if err == nil {
		err = s.chunkRepo.ReplaceForDocument(ctx, doc.TenantID, doc.ID, chunks)
	}
	if err != nil {
		doc.MarkFailed(err)
		if saveErr := s.docRepo.Save(context.WithoutCancel(ctx), doc); saveErr != nil {
			s.logger.Error("Failed to record processing failure", zap.String("document_id", doc.ID.String()), zap.Error(saveErr))
		}
		s.recorder.RecordDocumentIngested(ctx, string(doc.SourceType), string(knowledge.DocumentStatusFailed))
		return err
	}

	doc.MarkIndexed(len(chunks), model)
	if err := s.docRepo.Save(ctx, doc); err != nil {
		return err
	}
	s.recorder.RecordDocumentIngested(ctx, string(doc.SourceType), string(knowledge.DocumentStatusIndexed))
	s.logger.Info("Document indexed",
		zap.String("document_id", doc.ID.String()),
		zap.Int("chunks", len(chunks)),
		zap.String("embedding_model", model))
	return nil
}

func (s *DocumentService) buildChunks(ctx context.Context, doc *knowledge.Document) ([]knowledge.Chunk, string, error) {
	body, err := s.storage.Get(ctx, doc.ObjectKey)
	if err != nil {
		return nil, "", fmt.Errorf("load document: %w", err)
	}
	defer body.Close()

	text, err := s.extractor.Extract(body, doc.SourceType)
	if err != nil {
		return nil, "", err
	}
	pieces := s.chunker.Split(text)
	if len(pieces) == 0 {
		return nil, "", errors.New("document produced no text chunks")
	}
	chunks := make([]knowledge.Chunk, len(pieces))
	for i, p := range pieces {
		chunks[i] = knowledge.NewChunk(doc.TenantID, doc.ID, i, p)
	}

	if s.embedder == nil {
		return chunks, "", nil
	}
	if err := s.embed(ctx, chunks); err != nil {
		// chunks remain reachable through text search
		s.logger.Warn("Embedding failed, storing chunks without vectors",
			zap.String("document_id", doc.ID.String()),
			zap.Error(err))
		for i := range chunks {
			chunks[i].Embedding = nil
			chunks[i].EmbeddingModel = ""
		}
		return chunks, "", nil
	}
	return chunks, chunks[0].EmbeddingModel, nil
}

// embed fills in chunk embeddings, one batch per pool task
func (s *DocumentService) embed(ctx context.Context, chunks []knowledge.Chunk) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
	}

	for start := 0; start < len(chunks); start += s.batchSize {
		batch := chunks[start:min(start+s.batchSize, len(chunks))]
		wg.Add(1)
		err := s.embedPool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			texts := make([]string, len(batch))
			for i := range batch {
				texts[i] = batch[i].Content
			}
			vectors, model, err := ai.Embed(ctx, s.embedder, texts)
			if err != nil {
				fail(err)
				return
			}
			for i := range batch {
				batch[i].Embedding = knowledge.Vector(vectors[i])
				batch[i].EmbeddingModel = model
			}
		})
		if err != nil {
			wg.Done()
			fail(err)
			break
		}
	}
	wg.Wait()
	return firstErr
}

// Reindex re-embeds the stored chunks of one document
func (s *DocumentService) Reindex(ctx context.Context, tenantID, id uuid.UUID) (*DocumentDTO, error) {
	if s.embedder == nil {
		return nil, ErrEmbedderUnavailable
	}
	doc, err := s.docRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	chunks, err := s.chunkRepo.FindByDocument(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		// nothing stored yet, run the full pipeline
		if err := s.process(ctx, doc); err != nil {
			return nil, err
		}
		dto := ToDocumentDTO(doc)
		return &dto, nil
	}
	if err := s.embed(ctx, chunks); err != nil {
		return nil, fmt.Errorf("reindex %s: %w", id, err)
	}
	if err := s.chunkRepo.ReplaceForDocument(ctx, tenantID, id, chunks); err != nil {
		return nil, err
	}
	doc.MarkIndexed(len(chunks), chunks[0].EmbeddingModel)
	if err := s.docRepo.Save(ctx, doc); err != nil {
		return nil, err
	}
	s.logger.Info("Document reindexed", zap.String("document_id", id.String()), zap.Int("chunks", len(chunks)))
	dto := ToDocumentDTO(doc)
	return &dto, nil
}

// ReindexResult summarizes a tenant-wide reindex
type ReindexResult struct {
	Reindexed int         `json:"reindexed"`
	Failed    []uuid.UUID `json:"failed"`
}

// ReindexAll reindexes every document of a tenant, continuing past failures
func (s *DocumentService) ReindexAll(ctx context.Context, tenantID uuid.UUID) (*ReindexResult, error) {
	if s.embedder == nil {
		return nil, ErrEmbedderUnavailable
	}
	result := &ReindexResult{Failed: []uuid.UUID{}}
	filter := shared.Filter{Page: 1, PageSize: shared.MaxPageSize, OrderBy: "created_at", OrderDir: "asc"}.Normalize()
	for {
		docs, err := s.docRepo.FindAllForTenant(ctx, tenantID, filter)
		if err != nil {
			return nil, err
		}
		for i := range docs {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			if _, err := s.Reindex(ctx, tenantID, docs[i].ID); err != nil {
				s.logger.Warn("Reindex failed", zap.String("document_id", docs[i].ID.String()), zap.Error(err))
				result.Failed = append(result.Failed, docs[i].ID)
				continue
			}
			result.Reindexed++
		}
		if len(docs) < filter.PageSize {
			return result, nil
		}
		filter.Page++
	}
}

// Get returns a document by ID
func (s *DocumentService) Get(ctx context.Context, tenantID, id uuid.UUID) (*DocumentDTO, error) {
	doc, err := s.docRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	dto := ToDocumentDTO(doc)
	return &dto, nil
}

// List returns a page of documents
func (s *DocumentService) List(ctx context.Context, tenantID uuid.UUID, filter DocumentListFilter) (*shared.Paginated[DocumentDTO], error) {
	f := filter.ToSharedFilter()
	docs, err := s.docRepo.FindAllForTenant(ctx, tenantID, f)
	if err != nil {
		return nil, err
	}
	total, err := s.docRepo.CountForTenant(ctx, tenantID, f)
	if err != nil {
		return nil, err
	}
	items := make([]DocumentDTO, len(docs))
	for i := range docs {
		items[i] = ToDocumentDTO(&docs[i])
	}
	page := shared.NewPaginated(items, total, f.Page, f.PageSize)
	return &page, nil
}

// Delete removes a document, its chunks and the stored file
func (s *DocumentService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	doc, err := s.docRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if err := s.chunkRepo.DeleteByDocument(ctx, tenantID, id); err != nil {
		return err
	}
	if err := s.docRepo.DeleteForTenant(ctx, tenantID, id); err != nil {
		return err
	}
	if err := s.storage.Delete(ctx, doc.ObjectKey); err != nil {
		s.logger.Warn("Failed to delete stored document", zap.String("key", doc.ObjectKey), zap.Error(err))
	}
	s.logger.Info("Document deleted",
		zap.String("tenant_id", tenantID.String()),
		zap.String("document_id", id.String()))
	return nil
}
