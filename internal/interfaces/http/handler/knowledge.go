package handler

import (
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	knowledgeapp "github.com/payaid/backend/internal/application/knowledge"
	"github.com/payaid/backend/internal/domain/knowledge"
	"github.com/payaid/backend/internal/interfaces/http/dto"
)

// KnowledgeHandler handles knowledge base documents and search
type KnowledgeHandler struct {
	BaseHandler
	documentService *knowledgeapp.DocumentService
	searchService   *knowledgeapp.SearchService
}

// NewKnowledgeHandler creates a new KnowledgeHandler
func NewKnowledgeHandler(documentService *knowledgeapp.DocumentService, searchService *knowledgeapp.SearchService) *KnowledgeHandler {
	return &KnowledgeHandler{
		documentService: documentService,
		searchService:   searchService,
	}
}

// IngestTextRequest stores inline text as a knowledge document
type IngestTextRequest struct {
	Title   string   `json:"title" binding:"required,max=200" example:"Refund policy"`
	Content string   `json:"content" binding:"required" example:"Refunds are processed within 7 working days."`
	Format  string   `json:"format" binding:"omitempty,oneof=text markdown" example:"markdown"`
	Tags    []string `json:"tags" binding:"omitempty,max=20,dive,min=1,max=50"`
	Sync    bool     `json:"sync"`
}

// DocumentListQuery filters the document listing
type DocumentListQuery struct {
	dto.ListRequest
	Status string `form:"status" binding:"omitempty,oneof=pending processing indexed failed"`
}

// SearchRequest queries the knowledge base
type SearchRequest struct {
	Query    string   `json:"query" binding:"required,max=1000" example:"how long do refunds take"`
	TopK     int      `json:"top_k" binding:"omitempty,min=1,max=50" example:"5"`
	MinScore *float64 `json:"min_score" binding:"omitempty,min=0,max=1" example:"0.3"`
	Mode     string   `json:"mode" binding:"omitempty,oneof=auto vector text" example:"auto"`
}

// Upload godoc
// @ID           uploadKnowledgeDocument
// @Summary      Upload knowledge document
// @Description  Stores a PDF, text or markdown file and indexes it. Without sync=true indexing continues in the background and the response is 202.
// @Tags         knowledge
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData file   true  "Document file"
// @Param        title formData string false "Title, defaults to the file name"
// @Param        tags  formData string false "Comma separated tags"
// @Param        sync  formData bool   false "Index before responding"
// @Success      201 {object} APIResponse[knowledgeapp.DocumentDTO]
// @Success      202 {object} APIResponse[knowledgeapp.DocumentDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      413 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /knowledge/documents [post]
func (h *KnowledgeHandler) Upload(c *gin.Context) {
	tenantID, userID, ok := h.requestScope(c)
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		h.bindError(c, err)
		return
	}
	if header.Size > knowledge.MaxDocumentSize {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodePayloadTooLarge, "Document exceeds the 20MB limit")
		return
	}
	file, err := header.Open()
	if err != nil {
		h.BadRequest(c, "Unable to read uploaded file")
		return
	}
	defer file.Close()

	sync, _ := strconv.ParseBool(c.PostForm("sync"))
	doc, err := h.documentService.Upload(c.Request.Context(), tenantID, knowledgeapp.UploadInput{
		Title:       c.PostForm("title"),
		FileName:    header.Filename,
		ContentType: uploadContentType(header.Header.Get("Content-Type")),
		Size:        header.Size,
		Body:        file,
		Tags:        splitTags(c.PostForm("tags")),
		Sync:        sync,
		CreatedBy:   userID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.respondIngested(c, doc, sync)
}

// IngestText godoc
// @ID           ingestKnowledgeText
// @Summary      Add text document
// @Tags         knowledge
// @Accept       json
// @Produce      json
// @Param        request body IngestTextRequest true "Document content"
// @Success      201 {object} APIResponse[knowledgeapp.DocumentDTO]
// @Success      202 {object} APIResponse[knowledgeapp.DocumentDTO]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /knowledge/documents/text [post]
func (h *KnowledgeHandler) IngestText(c *gin.Context) {
	tenantID, userID, ok := h.requestScope(c)
	if !ok {
		return
	}

	var req IngestTextRequest
	if !h.bindJSON(c, &req) {
		return
	}

	doc, err := h.documentService.IngestText(c.Request.Context(), tenantID, knowledgeapp.TextInput{
		Title:     req.Title,
		Content:   req.Content,
		Format:    req.Format,
		Tags:      req.Tags,
		Sync:      req.Sync,
		CreatedBy: userID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.respondIngested(c, doc, req.Sync)
}

func (h *KnowledgeHandler) respondIngested(c *gin.Context, doc *knowledgeapp.DocumentDTO, sync bool) {
	if sync {
		h.Created(c, doc)
		return
	}
	h.Accepted(c, doc)
}

// List godoc
// @ID           listKnowledgeDocuments
// @Summary      List knowledge documents
// @Tags         knowledge
// @Produce      json
// @Param        search    query string false "Search title or file name"
// @Param        status    query string false "Indexing status" Enums(pending, processing, indexed, failed)
// @Param        page      query int    false "Page number" default(1)
// @Param        page_size query int    false "Page size" default(20) maximum(100)
// @Param        order_by  query string false "Order by field"
// @Param        order_dir query string false "Order direction" Enums(asc, desc)
// @Success      200 {object} APIResponse[[]knowledgeapp.DocumentDTO]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /knowledge/documents [get]
func (h *KnowledgeHandler) List(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	var q DocumentListQuery
	if !h.bindQuery(c, &q) {
		return
	}

	page, err := h.documentService.List(c.Request.Context(), tenantID, knowledgeapp.DocumentListFilter{
		Page:     q.Page,
		PageSize: q.PageSize,
		SortBy:   q.OrderBy,
		SortDir:  q.OrderDir,
		Keyword:  q.Search,
		Status:   q.Status,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	respondPage(&h.BaseHandler, c, page)
}

// Get godoc
// @ID           getKnowledgeDocument
// @Summary      Get knowledge document
// @Tags         knowledge
// @Produce      json
// @Param        id path string true "Document ID" format(uuid)
// @Success      200 {object} APIResponse[knowledgeapp.DocumentDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /knowledge/documents/{id} [get]
func (h *KnowledgeHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "document")
	if !ok {
		return
	}

	doc, err := h.documentService.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, doc)
}

// Reindex godoc
// @ID           reindexKnowledgeDocument
// @Summary      Reindex knowledge document
// @Description  Re-embeds every chunk of the document with the current embedding provider
// @Tags         knowledge
// @Produce      json
// @Param        id path string true "Document ID" format(uuid)
// @Success      200 {object} APIResponse[knowledgeapp.DocumentDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /knowledge/documents/{id}/reindex [post]
func (h *KnowledgeHandler) Reindex(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "document")
	if !ok {
		return
	}

	doc, err := h.documentService.Reindex(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, doc)
}

// Delete godoc
// @ID           deleteKnowledgeDocument
// @Summary      Delete knowledge document
// @Description  Removes the document, its chunks and the stored file
// @Tags         knowledge
// @Param        id path string true "Document ID" format(uuid)
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /knowledge/documents/{id} [delete]
func (h *KnowledgeHandler) Delete(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "document")
	if !ok {
		return
	}

	if err := h.documentService.Delete(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Search godoc
// @ID           searchKnowledge
// @Summary      Search knowledge base
// @Description  Ranks chunks by embedding similarity. In auto mode the result falls back to keyword matching and reports why.
// @Tags         knowledge
// @Accept       json
// @Produce      json
// @Param        request body SearchRequest true "Query"
// @Success      200 {object} APIResponse[knowledgeapp.SearchResult]
// @Failure      400 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /knowledge/search [post]
func (h *KnowledgeHandler) Search(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	var req SearchRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.searchService.Search(c.Request.Context(), tenantID, knowledgeapp.SearchInput{
		Query:    req.Query,
		TopK:     req.TopK,
		MinScore: req.MinScore,
		Mode:     req.Mode,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// uploadContentType drops parameters and the generic binary type so the file extension decides
func uploadContentType(header string) string {
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil || mediaType == "application/octet-stream" {
		return ""
	}
	return mediaType
}

func splitTags(raw string) []string {
	var tags []string
	for _, tag := range strings.Split(raw, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
