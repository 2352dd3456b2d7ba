package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	crmapp "github.com/payaid/backend/internal/application/crm"
	"github.com/payaid/backend/internal/domain/crm"
	"github.com/payaid/backend/internal/interfaces/http/dto"
)

// TerritoryHandler handles sales territory endpoints
type TerritoryHandler struct {
	BaseHandler
	territoryService *crmapp.TerritoryService
}

// NewTerritoryHandler creates a new TerritoryHandler
func NewTerritoryHandler(territoryService *crmapp.TerritoryService) *TerritoryHandler {
	return &TerritoryHandler{
		territoryService: territoryService,
	}
}

// TerritoryCriteriaRequest lists the values a contact must match, per dimension.
// Empty dimensions are unconstrained.
type TerritoryCriteriaRequest struct {
	Countries      []string `json:"countries" binding:"omitempty,dive,min=1,max=100" example:"IN"`
	States         []string `json:"states" binding:"omitempty,dive,min=1,max=100" example:"Maharashtra"`
	Cities         []string `json:"cities" binding:"omitempty,dive,min=1,max=100" example:"Pune"`
	PostalPrefixes []string `json:"postal_prefixes" binding:"omitempty,dive,min=1,max=20" example:"411"`
	Industries     []string `json:"industries" binding:"omitempty,dive,min=1,max=100" example:"manufacturing"`
}

// TerritoryRequest creates or replaces a territory
// @Name HandlerTerritoryRequest
type TerritoryRequest struct {
	Name        string                   `json:"name" binding:"required,min=1,max=100" example:"West Maharashtra"`
	Description string                   `json:"description" binding:"max=500"`
	Criteria    TerritoryCriteriaRequest `json:"criteria"`
	Priority    int                      `json:"priority" binding:"min=0,max=1000" example:"10"`
	RepIDs      []uuid.UUID              `json:"rep_ids"`
	Active      *bool                    `json:"active" example:"true"`
}

func (r TerritoryRequest) toInput() crmapp.TerritoryInput {
	return crmapp.TerritoryInput{
		Name:        r.Name,
		Description: r.Description,
		Criteria: crm.TerritoryCriteria{
			Countries:      r.Criteria.Countries,
			States:         r.Criteria.States,
			Cities:         r.Criteria.Cities,
			PostalPrefixes: r.Criteria.PostalPrefixes,
			Industries:     r.Criteria.Industries,
		},
		Priority: r.Priority,
		RepIDs:   r.RepIDs,
		Active:   r.Active,
	}
}

// TerritoryListQuery filters the territory listing
type TerritoryListQuery struct {
	dto.ListRequest
	Active *bool `form:"active"`
}

// Create godoc
// @ID           createTerritory
// @Summary      Create territory
// @Tags         crm
// @Accept       json
// @Produce      json
// @Param        request body TerritoryRequest true "Territory definition"
// @Success      201 {object} APIResponse[crmapp.TerritoryDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/territories [post]
func (h *TerritoryHandler) Create(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	var req TerritoryRequest
	if !h.bindJSON(c, &req) {
		return
	}

	territory, err := h.territoryService.Create(c.Request.Context(), tenantID, req.toInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, territory)
}

// List godoc
// @ID           listTerritories
// @Summary      List territories
// @Tags         crm
// @Produce      json
// @Param        search    query string false "Search name"
// @Param        active    query bool   false "Active flag"
// @Param        page      query int    false "Page number" default(1)
// @Param        page_size query int    false "Page size" default(20) maximum(100)
// @Param        order_by  query string false "Order by field"
// @Param        order_dir query string false "Order direction" Enums(asc, desc)
// @Success      200 {object} APIResponse[[]crmapp.TerritoryDTO]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/territories [get]
func (h *TerritoryHandler) List(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	var q TerritoryListQuery
	if !h.bindQuery(c, &q) {
		return
	}

	page, err := h.territoryService.List(c.Request.Context(), tenantID, crmapp.TerritoryListFilter{
		ListQuery: listQuery(q.ListRequest),
		Active:    q.Active,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	respondPage(&h.BaseHandler, c, page)
}

// Get godoc
// @ID           getTerritory
// @Summary      Get territory
// @Tags         crm
// @Produce      json
// @Param        id path string true "Territory ID" format(uuid)
// @Success      200 {object} APIResponse[crmapp.TerritoryDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/territories/{id} [get]
func (h *TerritoryHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "territory")
	if !ok {
		return
	}

	territory, err := h.territoryService.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, territory)
}

// Update godoc
// @ID           updateTerritory
// @Summary      Update territory
// @Tags         crm
// @Accept       json
// @Produce      json
// @Param        id      path string           true "Territory ID" format(uuid)
// @Param        request body TerritoryRequest true "Territory definition"
// @Success      200 {object} APIResponse[crmapp.TerritoryDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/territories/{id} [put]
func (h *TerritoryHandler) Update(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "territory")
	if !ok {
		return
	}

	var req TerritoryRequest
	if !h.bindJSON(c, &req) {
		return
	}

	territory, err := h.territoryService.Update(c.Request.Context(), tenantID, id, req.toInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, territory)
}

// Delete godoc
// @ID           deleteTerritory
// @Summary      Delete territory
// @Tags         crm
// @Param        id path string true "Territory ID" format(uuid)
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/territories/{id} [delete]
func (h *TerritoryHandler) Delete(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "territory")
	if !ok {
		return
	}

	if err := h.territoryService.Delete(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// PreviewMatch godoc
// @ID           previewTerritoryMatch
// @Summary      Preview territory match
// @Description  Show which active territories a contact with these attributes would fall into, best match first
// @Tags         crm
// @Accept       json
// @Produce      json
// @Param        request body ContactRequest true "Contact attributes"
// @Success      200 {object} APIResponse[crmapp.MatchPreview]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/territories/preview [post]
func (h *TerritoryHandler) PreviewMatch(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	var req ContactRequest
	if !h.bindJSON(c, &req) {
		return
	}

	preview, err := h.territoryService.PreviewMatch(c.Request.Context(), tenantID, req.toInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, preview)
}
