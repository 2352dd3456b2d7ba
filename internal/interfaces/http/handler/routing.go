package handler

import (
	"github.com/gin-gonic/gin"
	crmapp "github.com/payaid/backend/internal/application/crm"
)

// RoutingHandler exposes lead routing
type RoutingHandler struct {
	BaseHandler
	routingService *crmapp.RoutingService
}

// NewRoutingHandler creates a new RoutingHandler
func NewRoutingHandler(routingService *crmapp.RoutingService) *RoutingHandler {
	return &RoutingHandler{
		routingService: routingService,
	}
}

// RouteLeadRequest selects the routing strategy. Empty uses the tenant default.
type RouteLeadRequest struct {
	Strategy string `json:"strategy" binding:"omitempty,routing_strategy" example:"least_loaded"`
}

// RouteUnassignedRequest routes a batch of unassigned open leads
type RouteUnassignedRequest struct {
	Strategy string `json:"strategy" binding:"omitempty,routing_strategy" example:"round_robin"`
	Limit    int    `json:"limit" binding:"omitempty,min=1,max=500" example:"100"`
}

// RouteLead godoc
// @ID           routeLead
// @Summary      Route a lead
// @Description  Assign one open lead to a sales rep. Territory routing falls back to least loaded when no territory matches.
// @Tags         crm
// @Accept       json
// @Produce      json
// @Param        id      path string           true  "Contact ID" format(uuid)
// @Param        request body RouteLeadRequest false "Strategy"
// @Success      200 {object} APIResponse[crmapp.RoutingResult]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/routing/contacts/{id} [post]
func (h *RoutingHandler) RouteLead(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "contact")
	if !ok {
		return
	}

	var req RouteLeadRequest
	if c.Request.ContentLength > 0 && !h.bindJSON(c, &req) {
		return
	}

	result, err := h.routingService.RouteLead(c.Request.Context(), tenantID, id, req.Strategy)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// RouteUnassigned godoc
// @ID           routeUnassignedLeads
// @Summary      Route unassigned leads
// @Description  Assign up to limit unassigned open leads, oldest first. Leads no rep can take are reported as unrouted.
// @Tags         crm
// @Accept       json
// @Produce      json
// @Param        request body RouteUnassignedRequest false "Strategy and batch size"
// @Success      200 {object} APIResponse[crmapp.BatchRoutingResult]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/routing/unassigned [post]
func (h *RoutingHandler) RouteUnassigned(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	var req RouteUnassignedRequest
	if c.Request.ContentLength > 0 && !h.bindJSON(c, &req) {
		return
	}

	result, err := h.routingService.RouteUnassigned(c.Request.Context(), tenantID, req.Strategy, req.Limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}
