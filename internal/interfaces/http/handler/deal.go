package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	crmapp "github.com/payaid/backend/internal/application/crm"
	"github.com/payaid/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
)

// DealHandler handles CRM deal endpoints
type DealHandler struct {
	BaseHandler
	dealService *crmapp.DealService
}

// NewDealHandler creates a new DealHandler
func NewDealHandler(dealService *crmapp.DealService) *DealHandler {
	return &DealHandler{
		dealService: dealService,
	}
}

// CreateDealRequest opens a deal for a contact.
// Without owner_id the deal goes to the contact's assigned rep.
// @Name HandlerCreateDealRequest
type CreateDealRequest struct {
	ContactID         uuid.UUID       `json:"contact_id" binding:"required" example:"550e8400-e29b-41d4-a716-446655440000"`
	Title             string          `json:"title" binding:"required,min=1,max=200" example:"Annual AMC renewal"`
	Value             decimal.Decimal `json:"value" swaggertype:"string" example:"250000.00"`
	Currency          string          `json:"currency" binding:"omitempty,len=3" example:"INR"`
	OwnerID           *uuid.UUID      `json:"owner_id"`
	ExpectedCloseDate string          `json:"expected_close_date" binding:"omitempty,datetime=2006-01-02" example:"2026-03-31"`
}

// UpdateDealRequest edits an open deal
// @Name HandlerUpdateDealRequest
type UpdateDealRequest struct {
	Title             string          `json:"title" binding:"required,min=1,max=200" example:"Annual AMC renewal"`
	Value             decimal.Decimal `json:"value" swaggertype:"string" example:"275000.00"`
	Currency          string          `json:"currency" binding:"omitempty,len=3" example:"INR"`
	ExpectedCloseDate string          `json:"expected_close_date" binding:"omitempty,datetime=2006-01-02" example:"2026-04-15"`
	Probability       *int            `json:"probability" binding:"omitempty,min=0,max=100" example:"60"`
	OwnerID           *uuid.UUID      `json:"owner_id"`
}

// DealListQuery filters the deal listing
type DealListQuery struct {
	dto.ListRequest
	Stage     string `form:"stage" binding:"omitempty,oneof=prospecting qualification proposal negotiation won lost"`
	OwnerID   string `form:"owner_id" binding:"omitempty,uuid"`
	ContactID string `form:"contact_id" binding:"omitempty,uuid"`
}

// Create godoc
// @ID           createDeal
// @Summary      Create deal
// @Tags         crm
// @Accept       json
// @Produce      json
// @Param        request body CreateDealRequest true "Deal details"
// @Success      201 {object} APIResponse[crmapp.DealDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/deals [post]
func (h *DealHandler) Create(c *gin.Context) {
	tenantID, userID, ok := h.requestScope(c)
	if !ok {
		return
	}

	var req CreateDealRequest
	if !h.bindJSON(c, &req) {
		return
	}

	deal, err := h.dealService.Create(c.Request.Context(), tenantID, crmapp.CreateDealInput{
		ContactID:         req.ContactID,
		Title:             req.Title,
		Value:             req.Value,
		Currency:          req.Currency,
		OwnerID:           req.OwnerID,
		ExpectedCloseDate: parseDate(req.ExpectedCloseDate),
		CreatedBy:         userID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, deal)
}

// List godoc
// @ID           listDeals
// @Summary      List deals
// @Tags         crm
// @Produce      json
// @Param        search     query string false "Search title"
// @Param        stage      query string false "Stage" Enums(prospecting, qualification, proposal, negotiation, won, lost)
// @Param        owner_id   query string false "Owner ID" format(uuid)
// @Param        contact_id query string false "Contact ID" format(uuid)
// @Param        page       query int    false "Page number" default(1)
// @Param        page_size  query int    false "Page size" default(20) maximum(100)
// @Param        order_by   query string false "Order by field"
// @Param        order_dir  query string false "Order direction" Enums(asc, desc)
// @Success      200 {object} APIResponse[[]crmapp.DealDTO]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/deals [get]
func (h *DealHandler) List(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	var q DealListQuery
	if !h.bindQuery(c, &q) {
		return
	}

	page, err := h.dealService.List(c.Request.Context(), tenantID, crmapp.DealListFilter{
		ListQuery: listQuery(q.ListRequest),
		Stage:     q.Stage,
		OwnerID:   q.OwnerID,
		ContactID: q.ContactID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	respondPage(&h.BaseHandler, c, page)
}

// Get godoc
// @ID           getDeal
// @Summary      Get deal
// @Tags         crm
// @Produce      json
// @Param        id path string true "Deal ID" format(uuid)
// @Success      200 {object} APIResponse[crmapp.DealDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/deals/{id} [get]
func (h *DealHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "deal")
	if !ok {
		return
	}

	deal, err := h.dealService.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, deal)
}

// Update godoc
// @ID           updateDeal
// @Summary      Update deal
// @Tags         crm
// @Accept       json
// @Produce      json
// @Param        id      path string            true "Deal ID" format(uuid)
// @Param        request body UpdateDealRequest true "Deal details"
// @Success      200 {object} APIResponse[crmapp.DealDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/deals/{id} [put]
func (h *DealHandler) Update(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "deal")
	if !ok {
		return
	}

	var req UpdateDealRequest
	if !h.bindJSON(c, &req) {
		return
	}

	deal, err := h.dealService.Update(c.Request.Context(), tenantID, id, crmapp.UpdateDealInput{
		Title:             req.Title,
		Value:             req.Value,
		Currency:          req.Currency,
		ExpectedCloseDate: parseDate(req.ExpectedCloseDate),
		Probability:       req.Probability,
		OwnerID:           req.OwnerID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, deal)
}

// MoveStage godoc
// @ID           moveDealStage
// @Summary      Move deal stage
// @Description  Advance a deal through the pipeline. Won and lost are final.
// @Tags         crm
// @Accept       json
// @Produce      json
// @Param        id      path string           true "Deal ID" format(uuid)
// @Param        request body MoveStageRequest true "Target stage"
// @Success      200 {object} APIResponse[crmapp.DealDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/deals/{id}/stage [put]
func (h *DealHandler) MoveStage(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "deal")
	if !ok {
		return
	}

	var req MoveStageRequest
	if !h.bindJSON(c, &req) {
		return
	}

	deal, err := h.dealService.MoveStage(c.Request.Context(), tenantID, id, req.Stage)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, deal)
}

// Delete godoc
// @ID           deleteDeal
// @Summary      Delete deal
// @Tags         crm
// @Param        id path string true "Deal ID" format(uuid)
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/deals/{id} [delete]
func (h *DealHandler) Delete(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "deal")
	if !ok {
		return
	}

	if err := h.dealService.Delete(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
