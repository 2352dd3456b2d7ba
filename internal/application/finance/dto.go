package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/payaid/backend/internal/domain/finance"
	"github.com/payaid/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// LineInput describes one billable line
type LineInput struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	TaxRate     decimal.Decimal
}

// CreateInvoiceInput contains input for creating an invoice.
// An empty Number is generated from the issue date.
type CreateInvoiceInput struct {
	Number    string
	ContactID uuid.UUID
	IssueDate time.Time
	DueDate   time.Time
	Currency  string
	Notes     string
	Lines     []LineInput
	CreatedBy uuid.UUID
}

// RecordPaymentInput contains input for applying a payment
type RecordPaymentInput struct {
	Amount    decimal.Decimal
	Method    string
	Reference string
	PaidAt    *time.Time
}

// InvoiceListFilter represents filter for querying invoices
type InvoiceListFilter struct {
	Page      int
	PageSize  int
	SortBy    string
	SortDir   string
	Keyword   string
	Status    string
	ContactID string
}

// ToSharedFilter converts InvoiceListFilter to shared.Filter
func (f InvoiceListFilter) ToSharedFilter() shared.Filter {
	filter := shared.Filter{
		Page:     f.Page,
		PageSize: f.PageSize,
		OrderBy:  f.SortBy,
		OrderDir: f.SortDir,
		Search:   f.Keyword,
		Filters:  map[string]any{},
	}
	if f.Status != "" {
		filter.Filters["status"] = f.Status
	}
	if f.ContactID != "" {
		filter.Filters["contact_id"] = f.ContactID
	}
	return filter.Normalize()
}

// InvoiceLineDTO is the API view of an invoice line
type InvoiceLineDTO struct {
	ID          uuid.UUID       `json:"id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	Amount      decimal.Decimal `json:"amount"`
	Tax         decimal.Decimal `json:"tax"`
}

// PaymentDTO is the API view of a payment
type PaymentDTO struct {
	ID        uuid.UUID       `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	Reference string          `json:"reference,omitempty"`
	PaidAt    time.Time       `json:"paid_at"`
}

// InvoiceDTO is the API view of an invoice
type InvoiceDTO struct {
	ID         uuid.UUID        `json:"id"`
	Number     string           `json:"number"`
	ContactID  uuid.UUID        `json:"contact_id"`
	IssueDate  time.Time        `json:"issue_date"`
	DueDate    time.Time        `json:"due_date"`
	Currency   string           `json:"currency"`
	Status     string           `json:"status"`
	Lines      []InvoiceLineDTO `json:"lines"`
	Payments   []PaymentDTO     `json:"payments"`
	Subtotal   decimal.Decimal  `json:"subtotal"`
	TaxTotal   decimal.Decimal  `json:"tax_total"`
	Total      decimal.Decimal  `json:"total"`
	AmountPaid decimal.Decimal  `json:"amount_paid"`
	Balance    decimal.Decimal  `json:"balance"`
	Notes      string           `json:"notes,omitempty"`
	SentAt     *time.Time       `json:"sent_at,omitempty"`
	PaidAt     *time.Time       `json:"paid_at,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
	Version    int              `json:"version"`
}

// ToInvoiceDTO converts a domain invoice
func ToInvoiceDTO(inv *finance.Invoice) InvoiceDTO {
	lines := make([]InvoiceLineDTO, len(inv.Lines))
	for i, l := range inv.Lines {
		lines[i] = InvoiceLineDTO{
			ID:          l.ID,
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			TaxRate:     l.TaxRate,
			Amount:      l.Amount(),
			Tax:         l.Tax(),
		}
	}
	payments := make([]PaymentDTO, len(inv.Payments))
	for i, p := range inv.Payments {
		payments[i] = PaymentDTO(p)
	}
	return InvoiceDTO{
		ID:         inv.ID,
		Number:     inv.Number,
		ContactID:  inv.ContactID,
		IssueDate:  inv.IssueDate,
		DueDate:    inv.DueDate,
		Currency:   inv.Currency,
		Status:     string(inv.Status),
		Lines:      lines,
		Payments:   payments,
		Subtotal:   inv.Subtotal,
		TaxTotal:   inv.TaxTotal,
		Total:      inv.Total,
		AmountPaid: inv.AmountPaid,
		Balance:    inv.Balance(),
		Notes:      inv.Notes,
		SentAt:     inv.SentAt,
		PaidAt:     inv.PaidAt,
		CreatedAt:  inv.CreatedAt,
		UpdatedAt:  inv.UpdatedAt,
		Version:    inv.Version,
	}
}
