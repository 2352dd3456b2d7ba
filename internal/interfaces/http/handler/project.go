package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	projectsapp "github.com/payaid/backend/internal/application/projects"
	"github.com/payaid/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
)

// ProjectHandler handles project endpoints
type ProjectHandler struct {
	BaseHandler
	projectService *projectsapp.ProjectService
}

// NewProjectHandler creates a new ProjectHandler
func NewProjectHandler(projectService *projectsapp.ProjectService) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
	}
}

// ProjectRequest holds the editable fields of a project
// @Name HandlerProjectRequest
type ProjectRequest struct {
	Name        string          `json:"name" binding:"required,min=1,max=200" example:"CRM rollout - Phase 1"`
	Description string          `json:"description" binding:"max=4000"`
	Budget      decimal.Decimal `json:"budget" swaggertype:"string" example:"1200000.00"`
	StartDate   string          `json:"start_date" binding:"omitempty,datetime=2006-01-02" example:"2026-02-01"`
	EndDate     string          `json:"end_date" binding:"omitempty,datetime=2006-01-02" example:"2026-06-30"`
	ManagerID   *uuid.UUID      `json:"manager_id"`
	ContactID   *uuid.UUID      `json:"contact_id"`
}

func (r ProjectRequest) toInput() projectsapp.ProjectInput {
	return projectsapp.ProjectInput{
		Name:        r.Name,
		Description: r.Description,
		Budget:      r.Budget,
		StartDate:   parseDate(r.StartDate),
		EndDate:     parseDate(r.EndDate),
		ManagerID:   r.ManagerID,
		ContactID:   r.ContactID,
	}
}

// CreateProjectRequest creates a project
// @Name HandlerCreateProjectRequest
type CreateProjectRequest struct {
	ProjectRequest
	Code string `json:"code" binding:"required,min=1,max=50" example:"PRJ-CRM-01"`
}

// ProjectTransitionRequest applies a lifecycle action
type ProjectTransitionRequest struct {
	Action string `json:"action" binding:"required,oneof=start hold resume complete cancel" example:"start"`
}

// ProjectProgressRequest records percent complete
type ProjectProgressRequest struct {
	Progress int `json:"progress" binding:"min=0,max=100" example:"40"`
}

// ProjectListQuery filters the project listing
type ProjectListQuery struct {
	dto.ListRequest
	Status    string `form:"status" binding:"omitempty,oneof=planned active on_hold completed cancelled"`
	ManagerID string `form:"manager_id" binding:"omitempty,uuid"`
}

// Create godoc
// @ID           createProject
// @Summary      Create project
// @Tags         projects
// @Accept       json
// @Produce      json
// @Param        request body CreateProjectRequest true "Project details"
// @Success      201 {object} APIResponse[projectsapp.ProjectDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /projects [post]
func (h *ProjectHandler) Create(c *gin.Context) {
	tenantID, userID, ok := h.requestScope(c)
	if !ok {
		return
	}

	var req CreateProjectRequest
	if !h.bindJSON(c, &req) {
		return
	}

	project, err := h.projectService.Create(c.Request.Context(), tenantID, projectsapp.CreateProjectInput{
		ProjectInput: req.toInput(),
		Code:         req.Code,
		CreatedBy:    userID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, project)
}

// List godoc
// @ID           listProjects
// @Summary      List projects
// @Tags         projects
// @Produce      json
// @Param        search     query string false "Search code or name"
// @Param        status     query string false "Status" Enums(planned, active, on_hold, completed, cancelled)
// @Param        manager_id query string false "Manager ID" format(uuid)
// @Param        page       query int    false "Page number" default(1)
// @Param        page_size  query int    false "Page size" default(20) maximum(100)
// @Param        order_by   query string false "Order by field"
// @Param        order_dir  query string false "Order direction" Enums(asc, desc)
// @Success      200 {object} APIResponse[[]projectsapp.ProjectDTO]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /projects [get]
func (h *ProjectHandler) List(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	var q ProjectListQuery
	if !h.bindQuery(c, &q) {
		return
	}

	page, err := h.projectService.List(c.Request.Context(), tenantID, projectsapp.ProjectListFilter{
		Page:      q.Page,
		PageSize:  q.PageSize,
		SortBy:    q.OrderBy,
		SortDir:   q.OrderDir,
		Keyword:   q.Search,
		Status:    q.Status,
		ManagerID: q.ManagerID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	respondPage(&h.BaseHandler, c, page)
}

// Get godoc
// @ID           getProject
// @Summary      Get project
// @Tags         projects
// @Produce      json
// @Param        id path string true "Project ID" format(uuid)
// @Success      200 {object} APIResponse[projectsapp.ProjectDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /projects/{id} [get]
func (h *ProjectHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "project")
	if !ok {
		return
	}

	project, err := h.projectService.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, project)
}

// Update godoc
// @ID           updateProject
// @Summary      Update project
// @Tags         projects
// @Accept       json
// @Produce      json
// @Param        id      path string         true "Project ID" format(uuid)
// @Param        request body ProjectRequest true "Project details"
// @Success      200 {object} APIResponse[projectsapp.ProjectDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /projects/{id} [put]
func (h *ProjectHandler) Update(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "project")
	if !ok {
		return
	}

	var req ProjectRequest
	if !h.bindJSON(c, &req) {
		return
	}

	project, err := h.projectService.Update(c.Request.Context(), tenantID, id, req.toInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, project)
}

// Transition godoc
// @ID           transitionProject
// @Summary      Change project status
// @Tags         projects
// @Accept       json
// @Produce      json
// @Param        id      path string                   true "Project ID" format(uuid)
// @Param        request body ProjectTransitionRequest true "Lifecycle action"
// @Success      200 {object} APIResponse[projectsapp.ProjectDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /projects/{id}/transition [post]
func (h *ProjectHandler) Transition(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "project")
	if !ok {
		return
	}

	var req ProjectTransitionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	project, err := h.projectService.Transition(c.Request.Context(), tenantID, id, req.Action)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, project)
}

// UpdateProgress godoc
// @ID           updateProjectProgress
// @Summary      Update project progress
// @Tags         projects
// @Accept       json
// @Produce      json
// @Param        id      path string                 true "Project ID" format(uuid)
// @Param        request body ProjectProgressRequest true "Percent complete"
// @Success      200 {object} APIResponse[projectsapp.ProjectDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /projects/{id}/progress [put]
func (h *ProjectHandler) UpdateProgress(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "project")
	if !ok {
		return
	}

	var req ProjectProgressRequest
	if !h.bindJSON(c, &req) {
		return
	}

	project, err := h.projectService.UpdateProgress(c.Request.Context(), tenantID, id, req.Progress)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, project)
}

// Delete godoc
// @ID           deleteProject
// @Summary      Delete project
// @Tags         projects
// @Param        id path string true "Project ID" format(uuid)
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /projects/{id} [delete]
func (h *ProjectHandler) Delete(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "project")
	if !ok {
		return
	}

	if err := h.projectService.Delete(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
