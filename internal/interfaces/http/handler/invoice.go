package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	financeapp "github.com/payaid/backend/internal/application/finance"
	"github.com/payaid/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
)

// InvoiceHandler handles invoicing endpoints
type InvoiceHandler struct {
	BaseHandler
	invoiceService *financeapp.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoiceService *financeapp.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
	}
}

// InvoiceLineRequest describes one billable line. tax_rate is a percentage.
type InvoiceLineRequest struct {
	Description string          `json:"description" binding:"required,min=1,max=500" example:"Implementation services"`
	Quantity    decimal.Decimal `json:"quantity" swaggertype:"string" example:"2"`
	UnitPrice   decimal.Decimal `json:"unit_price" swaggertype:"string" example:"15000.00"`
	TaxRate     decimal.Decimal `json:"tax_rate" swaggertype:"string" example:"18"`
}

func (r InvoiceLineRequest) toInput() financeapp.LineInput {
	return financeapp.LineInput{
		Description: r.Description,
		Quantity:    r.Quantity,
		UnitPrice:   r.UnitPrice,
		TaxRate:     r.TaxRate,
	}
}

// CreateInvoiceRequest drafts an invoice. An empty number is generated.
// @Name HandlerCreateInvoiceRequest
type CreateInvoiceRequest struct {
	Number    string               `json:"number" binding:"max=50" example:"INV-202601-0001"`
	ContactID uuid.UUID            `json:"contact_id" binding:"required" example:"550e8400-e29b-41d4-a716-446655440000"`
	IssueDate string               `json:"issue_date" binding:"omitempty,datetime=2006-01-02" example:"2026-01-15"`
	DueDate   string               `json:"due_date" binding:"omitempty,datetime=2006-01-02" example:"2026-02-14"`
	Currency  string               `json:"currency" binding:"omitempty,len=3" example:"INR"`
	Notes     string               `json:"notes" binding:"max=2000"`
	Lines     []InvoiceLineRequest `json:"lines" binding:"omitempty,max=200,dive"`
}

// RecordPaymentRequest applies money received
// @Name HandlerRecordPaymentRequest
type RecordPaymentRequest struct {
	Amount    decimal.Decimal `json:"amount" swaggertype:"string" example:"17700.00"`
	Method    string          `json:"method" binding:"omitempty,oneof=cash bank_transfer upi card cheque other" example:"upi"`
	Reference string          `json:"reference" binding:"max=100" example:"UTR2026011512345"`
	PaidAt    string          `json:"paid_at" binding:"omitempty,datetime=2006-01-02" example:"2026-01-20"`
}

// InvoiceListQuery filters the invoice listing
type InvoiceListQuery struct {
	dto.ListRequest
	Status    string `form:"status" binding:"omitempty,oneof=draft sent partially_paid paid overdue cancelled"`
	ContactID string `form:"contact_id" binding:"omitempty,uuid"`
}

// OverdueResult reports how many invoices were flagged overdue
type OverdueResult struct {
	Updated int `json:"updated" example:"3"`
}

// Create godoc
// @ID           createInvoice
// @Summary      Create invoice
// @Description  Draft an invoice for a contact
// @Tags         finance
// @Accept       json
// @Produce      json
// @Param        request body CreateInvoiceRequest true "Invoice details"
// @Success      201 {object} APIResponse[financeapp.InvoiceDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /finance/invoices [post]
func (h *InvoiceHandler) Create(c *gin.Context) {
	tenantID, userID, ok := h.requestScope(c)
	if !ok {
		return
	}

	var req CreateInvoiceRequest
	if !h.bindJSON(c, &req) {
		return
	}

	lines := make([]financeapp.LineInput, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = l.toInput()
	}

	invoice, err := h.invoiceService.Create(c.Request.Context(), tenantID, financeapp.CreateInvoiceInput{
		Number:    req.Number,
		ContactID: req.ContactID,
		IssueDate: dateOr(req.IssueDate, time.Time{}),
		DueDate:   dateOr(req.DueDate, time.Time{}),
		Currency:  req.Currency,
		Notes:     req.Notes,
		Lines:     lines,
		CreatedBy: userID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, invoice)
}

// List godoc
// @ID           listInvoices
// @Summary      List invoices
// @Tags         finance
// @Produce      json
// @Param        search     query string false "Search number"
// @Param        status     query string false "Status" Enums(draft, sent, partially_paid, paid, overdue, cancelled)
// @Param        contact_id query string false "Contact ID" format(uuid)
// @Param        page       query int    false "Page number" default(1)
// @Param        page_size  query int    false "Page size" default(20) maximum(100)
// @Param        order_by   query string false "Order by field"
// @Param        order_dir  query string false "Order direction" Enums(asc, desc)
// @Success      200 {object} APIResponse[[]financeapp.InvoiceDTO]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /finance/invoices [get]
func (h *InvoiceHandler) List(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	var q InvoiceListQuery
	if !h.bindQuery(c, &q) {
		return
	}

	page, err := h.invoiceService.List(c.Request.Context(), tenantID, financeapp.InvoiceListFilter{
		Page:      q.Page,
		PageSize:  q.PageSize,
		SortBy:    q.OrderBy,
		SortDir:   q.OrderDir,
		Keyword:   q.Search,
		Status:    q.Status,
		ContactID: q.ContactID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	respondPage(&h.BaseHandler, c, page)
}

// Get godoc
// @ID           getInvoice
// @Summary      Get invoice
// @Tags         finance
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} APIResponse[financeapp.InvoiceDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /finance/invoices/{id} [get]
func (h *InvoiceHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "invoice")
	if !ok {
		return
	}

	invoice, err := h.invoiceService.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, invoice)
}

// AddLine godoc
// @ID           addInvoiceLine
// @Summary      Add invoice line
// @Description  Add a line to a draft invoice
// @Tags         finance
// @Accept       json
// @Produce      json
// @Param        id      path string             true "Invoice ID" format(uuid)
// @Param        request body InvoiceLineRequest true "Line"
// @Success      200 {object} APIResponse[financeapp.InvoiceDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /finance/invoices/{id}/lines [post]
func (h *InvoiceHandler) AddLine(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "invoice")
	if !ok {
		return
	}

	var req InvoiceLineRequest
	if !h.bindJSON(c, &req) {
		return
	}

	invoice, err := h.invoiceService.AddLine(c.Request.Context(), tenantID, id, req.toInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, invoice)
}

// RemoveLine godoc
// @ID           removeInvoiceLine
// @Summary      Remove invoice line
// @Tags         finance
// @Produce      json
// @Param        id      path string true "Invoice ID" format(uuid)
// @Param        line_id path string true "Line ID" format(uuid)
// @Success      200 {object} APIResponse[financeapp.InvoiceDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /finance/invoices/{id}/lines/{line_id} [delete]
func (h *InvoiceHandler) RemoveLine(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "invoice")
	if !ok {
		return
	}
	lineID, ok := h.pathID(c, "line_id", "line")
	if !ok {
		return
	}

	invoice, err := h.invoiceService.RemoveLine(c.Request.Context(), tenantID, id, lineID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, invoice)
}

// Send godoc
// @ID           sendInvoice
// @Summary      Send invoice
// @Description  Issue a draft invoice to the customer
// @Tags         finance
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} APIResponse[financeapp.InvoiceDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /finance/invoices/{id}/send [post]
func (h *InvoiceHandler) Send(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "invoice")
	if !ok {
		return
	}

	invoice, err := h.invoiceService.Send(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, invoice)
}

// RecordPayment godoc
// @ID           recordInvoicePayment
// @Summary      Record payment
// @Description  Apply a payment. The invoice becomes partially paid or paid; overpayment is rejected.
// @Tags         finance
// @Accept       json
// @Produce      json
// @Param        id      path string               true "Invoice ID" format(uuid)
// @Param        request body RecordPaymentRequest true "Payment"
// @Success      200 {object} APIResponse[financeapp.InvoiceDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /finance/invoices/{id}/payments [post]
func (h *InvoiceHandler) RecordPayment(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "invoice")
	if !ok {
		return
	}

	var req RecordPaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	invoice, err := h.invoiceService.RecordPayment(c.Request.Context(), tenantID, id, financeapp.RecordPaymentInput{
		Amount:    req.Amount,
		Method:    req.Method,
		Reference: req.Reference,
		PaidAt:    parseDate(req.PaidAt),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, invoice)
}

// Cancel godoc
// @ID           cancelInvoice
// @Summary      Cancel invoice
// @Tags         finance
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} APIResponse[financeapp.InvoiceDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /finance/invoices/{id}/cancel [post]
func (h *InvoiceHandler) Cancel(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "invoice")
	if !ok {
		return
	}

	invoice, err := h.invoiceService.Cancel(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, invoice)
}

// Delete godoc
// @ID           deleteInvoice
// @Summary      Delete invoice
// @Description  Delete a draft or cancelled invoice
// @Tags         finance
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /finance/invoices/{id} [delete]
func (h *InvoiceHandler) Delete(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "invoice")
	if !ok {
		return
	}

	if err := h.invoiceService.Delete(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// MarkOverdue godoc
// @ID           markInvoicesOverdue
// @Summary      Flag overdue invoices
// @Description  Mark every unpaid invoice past its due date as overdue
// @Tags         finance
// @Produce      json
// @Success      200 {object} APIResponse[OverdueResult]
// @Security     BearerAuth
// @Router       /finance/invoices/mark-overdue [post]
func (h *InvoiceHandler) MarkOverdue(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	n, err := h.invoiceService.MarkOverdue(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, OverdueResult{Updated: n})
}
