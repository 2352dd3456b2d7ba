package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	hrapp "github.com/payaid/backend/internal/application/hr"
	"github.com/payaid/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
)

// EmployeeHandler handles HR employee endpoints
type EmployeeHandler struct {
	BaseHandler
	employeeService *hrapp.EmployeeService
}

// NewEmployeeHandler creates a new EmployeeHandler
func NewEmployeeHandler(employeeService *hrapp.EmployeeService) *EmployeeHandler {
	return &EmployeeHandler{
		employeeService: employeeService,
	}
}

// EmployeeRequest holds the editable fields of an employee
// @Name HandlerEmployeeRequest
type EmployeeRequest struct {
	Name          string          `json:"name" binding:"required,min=1,max=100" example:"Neha Iyer"`
	Email         string          `json:"email" binding:"omitempty,email,max=200" example:"neha@acme.in"`
	Phone         string          `json:"phone" binding:"max=50" example:"+91 99000 11223"`
	Department    string          `json:"department" binding:"max=100" example:"Sales"`
	Designation   string          `json:"designation" binding:"max=100" example:"Account Executive"`
	MonthlySalary decimal.Decimal `json:"monthly_salary" swaggertype:"string" example:"65000.00"`
	UserID        *uuid.UUID      `json:"user_id"`
}

func (r EmployeeRequest) toInput() hrapp.EmployeeInput {
	return hrapp.EmployeeInput{
		Name:          r.Name,
		Email:         r.Email,
		Phone:         r.Phone,
		Department:    r.Department,
		Designation:   r.Designation,
		MonthlySalary: r.MonthlySalary,
		UserID:        r.UserID,
	}
}

// CreateEmployeeRequest onboards an employee
// @Name HandlerCreateEmployeeRequest
type CreateEmployeeRequest struct {
	EmployeeRequest
	EmployeeCode string `json:"employee_code" binding:"required,min=1,max=50" example:"EMP-0042"`
	JoinDate     string `json:"join_date" binding:"omitempty,datetime=2006-01-02" example:"2026-01-05"`
}

// EmployeeStatusRequest starts leave, ends leave or terminates an employee
type EmployeeStatusRequest struct {
	Action string `json:"action" binding:"required,oneof=leave return terminate" example:"leave"`
	Date   string `json:"date" binding:"omitempty,datetime=2006-01-02" example:"2026-06-30"`
}

// EmployeeListQuery filters the employee listing
type EmployeeListQuery struct {
	dto.ListRequest
	Status     string `form:"status" binding:"omitempty,oneof=active on_leave terminated"`
	Department string `form:"department" binding:"max=100"`
}

// Create godoc
// @ID           createEmployee
// @Summary      Create employee
// @Tags         hr
// @Accept       json
// @Produce      json
// @Param        request body CreateEmployeeRequest true "Employee details"
// @Success      201 {object} APIResponse[hrapp.EmployeeDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /hr/employees [post]
func (h *EmployeeHandler) Create(c *gin.Context) {
	tenantID, userID, ok := h.requestScope(c)
	if !ok {
		return
	}

	var req CreateEmployeeRequest
	if !h.bindJSON(c, &req) {
		return
	}

	employee, err := h.employeeService.Create(c.Request.Context(), tenantID, hrapp.CreateEmployeeInput{
		EmployeeInput: req.toInput(),
		EmployeeCode:  req.EmployeeCode,
		JoinDate:      dateOr(req.JoinDate, time.Now()),
		CreatedBy:     userID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, employee)
}

// List godoc
// @ID           listEmployees
// @Summary      List employees
// @Tags         hr
// @Produce      json
// @Param        search     query string false "Search name, code or email"
// @Param        status     query string false "Status" Enums(active, on_leave, terminated)
// @Param        department query string false "Department"
// @Param        page       query int    false "Page number" default(1)
// @Param        page_size  query int    false "Page size" default(20) maximum(100)
// @Param        order_by   query string false "Order by field"
// @Param        order_dir  query string false "Order direction" Enums(asc, desc)
// @Success      200 {object} APIResponse[[]hrapp.EmployeeDTO]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /hr/employees [get]
func (h *EmployeeHandler) List(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	var q EmployeeListQuery
	if !h.bindQuery(c, &q) {
		return
	}

	page, err := h.employeeService.List(c.Request.Context(), tenantID, hrapp.EmployeeListFilter{
		Page:       q.Page,
		PageSize:   q.PageSize,
		SortBy:     q.OrderBy,
		SortDir:    q.OrderDir,
		Keyword:    q.Search,
		Status:     q.Status,
		Department: q.Department,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	respondPage(&h.BaseHandler, c, page)
}

// Get godoc
// @ID           getEmployee
// @Summary      Get employee
// @Tags         hr
// @Produce      json
// @Param        id path string true "Employee ID" format(uuid)
// @Success      200 {object} APIResponse[hrapp.EmployeeDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /hr/employees/{id} [get]
func (h *EmployeeHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "employee")
	if !ok {
		return
	}

	employee, err := h.employeeService.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, employee)
}

// Update godoc
// @ID           updateEmployee
// @Summary      Update employee
// @Tags         hr
// @Accept       json
// @Produce      json
// @Param        id      path string          true "Employee ID" format(uuid)
// @Param        request body EmployeeRequest true "Employee details"
// @Success      200 {object} APIResponse[hrapp.EmployeeDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /hr/employees/{id} [put]
func (h *EmployeeHandler) Update(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "employee")
	if !ok {
		return
	}

	var req EmployeeRequest
	if !h.bindJSON(c, &req) {
		return
	}

	employee, err := h.employeeService.Update(c.Request.Context(), tenantID, id, req.toInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, employee)
}

// ChangeStatus godoc
// @ID           changeEmployeeStatus
// @Summary      Change employee status
// @Description  Start leave, return from leave or terminate. Terminated employees cannot change again.
// @Tags         hr
// @Accept       json
// @Produce      json
// @Param        id      path string                true "Employee ID" format(uuid)
// @Param        request body EmployeeStatusRequest true "Status action"
// @Success      200 {object} APIResponse[hrapp.EmployeeDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /hr/employees/{id}/status [post]
func (h *EmployeeHandler) ChangeStatus(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "employee")
	if !ok {
		return
	}

	var req EmployeeStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	employee, err := h.employeeService.ChangeStatus(c.Request.Context(), tenantID, id, hrapp.StatusChangeInput{
		Action: req.Action,
		Date:   parseDate(req.Date),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, employee)
}

// Delete godoc
// @ID           deleteEmployee
// @Summary      Delete employee
// @Tags         hr
// @Param        id path string true "Employee ID" format(uuid)
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /hr/employees/{id} [delete]
func (h *EmployeeHandler) Delete(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "employee")
	if !ok {
		return
	}

	if err := h.employeeService.Delete(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
