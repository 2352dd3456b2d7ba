package handler

import (
	"github.com/gin-gonic/gin"
	reportapp "github.com/payaid/backend/internal/application/report"
)

// DashboardHandler serves tenant dashboard statistics
type DashboardHandler struct {
	BaseHandler
	dashboardService *reportapp.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(dashboardService *reportapp.DashboardService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
	}
}

// DashboardQuery controls stats caching
type DashboardQuery struct {
	Refresh bool `form:"refresh"`
}

// Stats godoc
// @ID           getDashboardStats
// @Summary      Get dashboard stats
// @Description  Aggregates figures for each licensed module. Results are cached briefly; refresh=true recomputes them.
// @Tags         dashboard
// @Produce      json
// @Param        refresh query bool false "Bypass the cache"
// @Success      200 {object} APIResponse[report.DashboardStats]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /dashboard/stats [get]
func (h *DashboardHandler) Stats(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	var q DashboardQuery
	if !h.bindQuery(c, &q) {
		return
	}

	stats, err := h.dashboardService.Stats(c.Request.Context(), tenantID, q.Refresh)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, stats)
}
