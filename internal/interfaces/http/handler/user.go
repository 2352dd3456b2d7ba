package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/payaid/backend/internal/application/identity"
	"github.com/payaid/backend/internal/interfaces/http/dto"
)

// UserHandler handles user administration within a tenant
type UserHandler struct {
	BaseHandler
	userService *identity.UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService *identity.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// CreateUserRequest adds a user to the tenant
// @Name HandlerCreateUserRequest
type CreateUserRequest struct {
	Email        string `json:"email" binding:"required,email,max=200" example:"ravi@acme.in"`
	Name         string `json:"name" binding:"required,min=1,max=100" example:"Ravi Kumar"`
	Password     string `json:"password" binding:"required,min=8,max=128" example:"Welcome-123"`
	Role         string `json:"role" binding:"omitempty,oneof=admin manager sales_rep member" example:"sales_rep"`
	IsSalesRep   *bool  `json:"is_sales_rep" example:"true"`
	MaxOpenLeads int    `json:"max_open_leads" binding:"omitempty,min=0,max=10000" example:"25"`
}

// SalesSettingsRequest changes routing eligibility and capacity
type SalesSettingsRequest struct {
	IsSalesRep   bool `json:"is_sales_rep" example:"true"`
	MaxOpenLeads int  `json:"max_open_leads" binding:"min=0,max=10000" example:"25"`
}

// ChangeRoleRequest changes a user's role
type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=admin manager sales_rep member" example:"manager"`
}

// UserListQuery filters the user listing
type UserListQuery struct {
	dto.ListRequest
	Role   string `form:"role" binding:"omitempty,oneof=owner admin manager sales_rep member"`
	Status string `form:"status" binding:"omitempty,oneof=active inactive locked"`
}

// List godoc
// @ID           listUsers
// @Summary      List users
// @Description  List the tenant's users
// @Tags         users
// @Produce      json
// @Param        search    query string false "Search name or email"
// @Param        role      query string false "Role" Enums(owner, admin, manager, sales_rep, member)
// @Param        status    query string false "Status" Enums(active, inactive, locked)
// @Param        page      query int    false "Page number" default(1)
// @Param        page_size query int    false "Page size" default(20) maximum(100)
// @Param        order_by  query string false "Order by field"
// @Param        order_dir query string false "Order direction" Enums(asc, desc)
// @Success      200 {object} APIResponse[[]identity.UserDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /users [get]
func (h *UserHandler) List(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	var q UserListQuery
	if !h.bindQuery(c, &q) {
		return
	}

	page, err := h.userService.List(c.Request.Context(), tenantID, identity.UserListFilter{
		Page:     q.Page,
		PageSize: q.PageSize,
		SortBy:   q.OrderBy,
		SortDir:  q.OrderDir,
		Keyword:  q.Search,
		Role:     q.Role,
		Status:   q.Status,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	respondPage(&h.BaseHandler, c, page)
}

// Get godoc
// @ID           getUser
// @Summary      Get user
// @Tags         users
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Success      200 {object} APIResponse[identity.UserDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /users/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "user")
	if !ok {
		return
	}

	user, err := h.userService.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, user)
}

// Create godoc
// @ID           createUser
// @Summary      Create user
// @Description  Add a user to the tenant. The owner role cannot be assigned.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request body CreateUserRequest true "User details"
// @Success      201 {object} APIResponse[identity.UserDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /users [post]
func (h *UserHandler) Create(c *gin.Context) {
	tenantID, userID, ok := h.requestScope(c)
	if !ok {
		return
	}

	var req CreateUserRequest
	if !h.bindJSON(c, &req) {
		return
	}

	user, err := h.userService.Create(c.Request.Context(), tenantID, identity.CreateUserInput{
		Email:        req.Email,
		Name:         req.Name,
		Password:     req.Password,
		Role:         req.Role,
		IsSalesRep:   req.IsSalesRep,
		MaxOpenLeads: req.MaxOpenLeads,
		CreatedBy:    userID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, user)
}

// UpdateSalesSettings godoc
// @ID           updateUserSalesSettings
// @Summary      Update sales settings
// @Description  Toggle whether leads may be routed to the user and cap their open leads (0 means unlimited)
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id      path string               true "User ID" format(uuid)
// @Param        request body SalesSettingsRequest true "Sales settings"
// @Success      200 {object} APIResponse[identity.UserDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /users/{id}/sales-settings [put]
func (h *UserHandler) UpdateSalesSettings(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "user")
	if !ok {
		return
	}

	var req SalesSettingsRequest
	if !h.bindJSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateSalesSettings(c.Request.Context(), tenantID, id, req.IsSalesRep, req.MaxOpenLeads)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, user)
}

// ChangeRole godoc
// @ID           changeUserRole
// @Summary      Change role
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id      path string            true "User ID" format(uuid)
// @Param        request body ChangeRoleRequest true "New role"
// @Success      200 {object} APIResponse[identity.UserDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /users/{id}/role [put]
func (h *UserHandler) ChangeRole(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "user")
	if !ok {
		return
	}

	var req ChangeRoleRequest
	if !h.bindJSON(c, &req) {
		return
	}

	user, err := h.userService.ChangeRole(c.Request.Context(), tenantID, id, req.Role)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, user)
}

// Deactivate godoc
// @ID           deactivateUser
// @Summary      Deactivate user
// @Description  Disable the user and revoke all of their sessions
// @Tags         users
// @Param        id path string true "User ID" format(uuid)
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /users/{id}/deactivate [post]
func (h *UserHandler) Deactivate(c *gin.Context) {
	tenantID, userID, ok := h.requestScope(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "user")
	if !ok {
		return
	}
	if id == userID {
		h.BadRequest(c, "You cannot deactivate your own account")
		return
	}

	if err := h.userService.Deactivate(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Activate godoc
// @ID           activateUser
// @Summary      Activate user
// @Tags         users
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Success      200 {object} APIResponse[identity.UserDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /users/{id}/activate [post]
func (h *UserHandler) Activate(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "user")
	if !ok {
		return
	}

	user, err := h.userService.Activate(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, user)
}
