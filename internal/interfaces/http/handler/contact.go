package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	crmapp "github.com/payaid/backend/internal/application/crm"
	"github.com/payaid/backend/internal/interfaces/http/dto"
)

// ContactHandler handles CRM contact endpoints
type ContactHandler struct {
	BaseHandler
	contactService *crmapp.ContactService
}

// NewContactHandler creates a new ContactHandler
func NewContactHandler(contactService *crmapp.ContactService) *ContactHandler {
	return &ContactHandler{
		contactService: contactService,
	}
}

// ContactRequest holds the editable fields of a contact
// @Name HandlerContactRequest
type ContactRequest struct {
	Name       string   `json:"name" binding:"required,min=1,max=200" example:"Priya Sharma"`
	Email      string   `json:"email" binding:"omitempty,email,max=200" example:"priya@sharmaexports.in"`
	Phone      string   `json:"phone" binding:"max=50" example:"+91 98200 12345"`
	Company    string   `json:"company" binding:"max=200" example:"Sharma Exports"`
	Industry   string   `json:"industry" binding:"max=100" example:"textiles"`
	City       string   `json:"city" binding:"max=100" example:"Surat"`
	State      string   `json:"state" binding:"max=100" example:"Gujarat"`
	Country    string   `json:"country" binding:"max=100" example:"IN"`
	PostalCode string   `json:"postal_code" binding:"max=20" example:"395003"`
	Notes      string   `json:"notes" binding:"max=4000"`
	Tags       []string `json:"tags" binding:"omitempty,max=20,dive,max=50"`
	LeadScore  *int     `json:"lead_score" binding:"omitempty,min=0,max=100" example:"60"`
}

func (r ContactRequest) toInput() crmapp.ContactInput {
	return crmapp.ContactInput{
		Name:       r.Name,
		Email:      r.Email,
		Phone:      r.Phone,
		Company:    r.Company,
		Industry:   r.Industry,
		City:       r.City,
		State:      r.State,
		Country:    r.Country,
		PostalCode: r.PostalCode,
		Notes:      r.Notes,
		Tags:       r.Tags,
		LeadScore:  r.LeadScore,
	}
}

// CreateContactRequest creates a contact and optionally routes it to a rep
// @Name HandlerCreateContactRequest
type CreateContactRequest struct {
	ContactRequest
	Source     string `json:"source" binding:"omitempty,oneof=website referral campaign manual import other" example:"website"`
	AutoAssign bool   `json:"auto_assign" example:"true"`
	Strategy   string `json:"strategy" binding:"omitempty,routing_strategy" example:"territory"`
}

// MoveStageRequest moves a contact or deal through its pipeline
type MoveStageRequest struct {
	Stage string `json:"stage" binding:"required,max=30" example:"qualified"`
}

// AssignContactRequest assigns a contact to a specific rep
type AssignContactRequest struct {
	RepID uuid.UUID `json:"rep_id" binding:"required" example:"550e8400-e29b-41d4-a716-446655440000"`
}

// ContactListQuery filters the contact listing
type ContactListQuery struct {
	dto.ListRequest
	Stage      string `form:"stage" binding:"omitempty,oneof=lead qualified prospect customer lost"`
	Source     string `form:"source" binding:"omitempty,oneof=website referral campaign manual import other"`
	AssignedTo string `form:"assigned_to" binding:"omitempty,uuid"`
	Unassigned bool   `form:"unassigned"`
}

// Create godoc
// @ID           createContact
// @Summary      Create contact
// @Description  Create a contact. With auto_assign the new lead is routed to a rep using the given strategy.
// @Tags         crm
// @Accept       json
// @Produce      json
// @Param        request body CreateContactRequest true "Contact details"
// @Success      201 {object} APIResponse[crmapp.ContactResult]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/contacts [post]
func (h *ContactHandler) Create(c *gin.Context) {
	tenantID, userID, ok := h.requestScope(c)
	if !ok {
		return
	}

	var req CreateContactRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.contactService.Create(c.Request.Context(), tenantID, crmapp.CreateContactInput{
		ContactInput: req.toInput(),
		Source:       req.Source,
		AutoAssign:   req.AutoAssign,
		Strategy:     req.Strategy,
		CreatedBy:    userID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// List godoc
// @ID           listContacts
// @Summary      List contacts
// @Tags         crm
// @Produce      json
// @Param        search      query string false "Search name, email, phone or company"
// @Param        stage       query string false "Stage" Enums(lead, qualified, prospect, customer, lost)
// @Param        source      query string false "Source" Enums(website, referral, campaign, manual, import, other)
// @Param        assigned_to query string false "Assigned rep ID" format(uuid)
// @Param        unassigned  query bool   false "Only unassigned contacts"
// @Param        page        query int    false "Page number" default(1)
// @Param        page_size   query int    false "Page size" default(20) maximum(100)
// @Param        order_by    query string false "Order by field"
// @Param        order_dir   query string false "Order direction" Enums(asc, desc)
// @Success      200 {object} APIResponse[[]crmapp.ContactDTO]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/contacts [get]
func (h *ContactHandler) List(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	var q ContactListQuery
	if !h.bindQuery(c, &q) {
		return
	}

	page, err := h.contactService.List(c.Request.Context(), tenantID, crmapp.ContactListFilter{
		ListQuery:  listQuery(q.ListRequest),
		Stage:      q.Stage,
		Source:     q.Source,
		AssignedTo: q.AssignedTo,
		Unassigned: q.Unassigned,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	respondPage(&h.BaseHandler, c, page)
}

// Get godoc
// @ID           getContact
// @Summary      Get contact
// @Tags         crm
// @Produce      json
// @Param        id path string true "Contact ID" format(uuid)
// @Success      200 {object} APIResponse[crmapp.ContactDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/contacts/{id} [get]
func (h *ContactHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "contact")
	if !ok {
		return
	}

	contact, err := h.contactService.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, contact)
}

// Update godoc
// @ID           updateContact
// @Summary      Update contact
// @Tags         crm
// @Accept       json
// @Produce      json
// @Param        id      path string         true "Contact ID" format(uuid)
// @Param        request body ContactRequest true "Contact details"
// @Success      200 {object} APIResponse[crmapp.ContactDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/contacts/{id} [put]
func (h *ContactHandler) Update(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "contact")
	if !ok {
		return
	}

	var req ContactRequest
	if !h.bindJSON(c, &req) {
		return
	}

	contact, err := h.contactService.Update(c.Request.Context(), tenantID, id, req.toInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, contact)
}

// MoveStage godoc
// @ID           moveContactStage
// @Summary      Move contact stage
// @Tags         crm
// @Accept       json
// @Produce      json
// @Param        id      path string           true "Contact ID" format(uuid)
// @Param        request body MoveStageRequest true "Target stage"
// @Success      200 {object} APIResponse[crmapp.ContactDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/contacts/{id}/stage [put]
func (h *ContactHandler) MoveStage(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "contact")
	if !ok {
		return
	}

	var req MoveStageRequest
	if !h.bindJSON(c, &req) {
		return
	}

	contact, err := h.contactService.MoveStage(c.Request.Context(), tenantID, id, req.Stage)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, contact)
}

// Assign godoc
// @ID           assignContact
// @Summary      Assign contact
// @Description  Assign a contact to a specific sales rep, bypassing routing
// @Tags         crm
// @Accept       json
// @Produce      json
// @Param        id      path string               true "Contact ID" format(uuid)
// @Param        request body AssignContactRequest true "Rep"
// @Success      200 {object} APIResponse[crmapp.ContactDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/contacts/{id}/assign [put]
func (h *ContactHandler) Assign(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "contact")
	if !ok {
		return
	}

	var req AssignContactRequest
	if !h.bindJSON(c, &req) {
		return
	}

	contact, err := h.contactService.Assign(c.Request.Context(), tenantID, id, req.RepID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, contact)
}

// Unassign godoc
// @ID           unassignContact
// @Summary      Unassign contact
// @Tags         crm
// @Produce      json
// @Param        id path string true "Contact ID" format(uuid)
// @Success      200 {object} APIResponse[crmapp.ContactDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/contacts/{id}/assign [delete]
func (h *ContactHandler) Unassign(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "contact")
	if !ok {
		return
	}

	contact, err := h.contactService.Unassign(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, contact)
}

// Delete godoc
// @ID           deleteContact
// @Summary      Delete contact
// @Tags         crm
// @Param        id path string true "Contact ID" format(uuid)
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/contacts/{id} [delete]
func (h *ContactHandler) Delete(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "contact")
	if !ok {
		return
	}

	if err := h.contactService.Delete(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// listQuery converts the shared list parameters for CRM services
func listQuery(r dto.ListRequest) crmapp.ListQuery {
	return crmapp.ListQuery{
		Page:     r.Page,
		PageSize: r.PageSize,
		SortBy:   r.OrderBy,
		SortDir:  r.OrderDir,
		Keyword:  r.Search,
	}
}
