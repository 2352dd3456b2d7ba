package finance

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/payaid/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents where an invoice is in its lifecycle
type InvoiceStatus string

const (
	InvoiceStatusDraft         InvoiceStatus = "draft"
	InvoiceStatusSent          InvoiceStatus = "sent"
	InvoiceStatusPartiallyPaid InvoiceStatus = "partially_paid"
	InvoiceStatusPaid          InvoiceStatus = "paid"
	InvoiceStatusOverdue       InvoiceStatus = "overdue"
	InvoiceStatusCancelled     InvoiceStatus = "cancelled"
)

// IsValid checks if the status is known
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPartiallyPaid,
		InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCancelled:
		return true
	}
	return false
}

// CanApplyPayment returns true if payments can be recorded in this status
func (s InvoiceStatus) CanApplyPayment() bool {
	return s == InvoiceStatusSent || s == InvoiceStatusPartiallyPaid || s == InvoiceStatusOverdue
}

// IsOutstanding reports whether money is still expected on the invoice
func (s InvoiceStatus) IsOutstanding() bool {
	return s.CanApplyPayment()
}

// InvoiceLine is a billable item
type InvoiceLine struct {
	ID          uuid.UUID
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	TaxRate     decimal.Decimal // percent, e.g. 18 for 18% GST
}

// Amount is quantity times unit price, before tax
func (l InvoiceLine) Amount() decimal.Decimal {
	return l.Quantity.Mul(l.UnitPrice).Round(2)
}

// Tax is the tax due on the line
func (l InvoiceLine) Tax() decimal.Decimal {
	return l.Amount().Mul(l.TaxRate).Div(decimal.NewFromInt(100)).Round(2)
}

// Payment is money received against an invoice
type Payment struct {
	ID        uuid.UUID       `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	Reference string          `json:"reference,omitempty"`
	PaidAt    time.Time       `json:"paid_at"`
}

// Payments is stored as a JSON column
type Payments []Payment

// Value implements driver.Valuer
func (p Payments) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]Payment(p))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (p *Payments) Scan(value any) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*p = Payments{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return errors.New("payments: unsupported scan type")
	}
	if len(raw) == 0 {
		*p = Payments{}
		return nil
	}
	return json.Unmarshal(raw, (*[]Payment)(p))
}

// Invoice is a bill issued to a contact
type Invoice struct {
	shared.TenantAggregateRoot
	Number     string
	ContactID  uuid.UUID
	IssueDate  time.Time
	DueDate    time.Time
	Currency   string
	Lines      []InvoiceLine
	Subtotal   decimal.Decimal
	TaxTotal   decimal.Decimal
	Total      decimal.Decimal
	AmountPaid decimal.Decimal
	Payments   Payments
	Status     InvoiceStatus
	Notes      string
	SentAt     *time.Time
	PaidAt     *time.Time
}

// NewInvoice creates a draft invoice
func NewInvoice(tenantID uuid.UUID, number string, contactID uuid.UUID, issueDate, dueDate time.Time, currency string) (*Invoice, error) {
	number = strings.TrimSpace(number)
	if number == "" || len(number) > 50 {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Invoice number must be between 1 and 50 characters")
	}
	if contactID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CONTACT", "Invoice must reference a contact")
	}
	if dueDate.Before(issueDate) {
		return nil, shared.NewDomainError("INVALID_DUE_DATE", "Due date cannot be before the issue date")
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = "INR"
	}
	if len(currency) != 3 {
		return nil, shared.NewDomainError("INVALID_CURRENCY", "Currency must be a 3-letter ISO code")
	}
	return &Invoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Number:              number,
		ContactID:           contactID,
		IssueDate:           issueDate,
		DueDate:             dueDate,
		Currency:            currency,
		Lines:               []InvoiceLine{},
		Subtotal:            decimal.Zero,
		TaxTotal:            decimal.Zero,
		Total:               decimal.Zero,
		AmountPaid:          decimal.Zero,
		Payments:            Payments{},
		Status:              InvoiceStatusDraft,
	}, nil
}

// AddLine appends a line to a draft invoice
func (inv *Invoice) AddLine(description string, quantity, unitPrice, taxRate decimal.Decimal) error {
	if inv.Status != InvoiceStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Lines can only be changed on draft invoices")
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return shared.NewDomainError("INVALID_LINE", "Line description cannot be empty")
	}
	if !quantity.IsPositive() {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	if taxRate.IsNegative() || taxRate.GreaterThan(decimal.NewFromInt(100)) {
		return shared.NewDomainError("INVALID_TAX_RATE", "Tax rate must be between 0 and 100")
	}
	inv.Lines = append(inv.Lines, InvoiceLine{
		ID:          uuid.New(),
		Description: description,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		TaxRate:     taxRate,
	})
	inv.recalculate()
	inv.MarkModified()
	return nil
}

// RemoveLine drops a line from a draft invoice
func (inv *Invoice) RemoveLine(lineID uuid.UUID) error {
	if inv.Status != InvoiceStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Lines can only be changed on draft invoices")
	}
	for i, l := range inv.Lines {
		if l.ID == lineID {
			inv.Lines = append(inv.Lines[:i], inv.Lines[i+1:]...)
			inv.recalculate()
			inv.MarkModified()
			return nil
		}
	}
	return shared.ErrNotFound
}

func (inv *Invoice) recalculate() {
	subtotal, tax := decimal.Zero, decimal.Zero
	for _, l := range inv.Lines {
		subtotal = subtotal.Add(l.Amount())
		tax = tax.Add(l.Tax())
	}
	inv.Subtotal = subtotal
	inv.TaxTotal = tax
	inv.Total = subtotal.Add(tax)
}

// Send issues the invoice to the customer
func (inv *Invoice) Send() error {
	if inv.Status != InvoiceStatusDraft {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot send invoice in %s status", inv.Status))
	}
	if len(inv.Lines) == 0 {
		return shared.NewDomainError("EMPTY_INVOICE", "Cannot send an invoice without lines")
	}
	now := time.Now()
	inv.Status = InvoiceStatusSent
	inv.SentAt = &now
	inv.MarkModified()
	return nil
}

// RecordPayment applies money received to the invoice
func (inv *Invoice) RecordPayment(amount decimal.Decimal, method, reference string, paidAt time.Time) error {
	if !inv.Status.CanApplyPayment() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot record payment on invoice in %s status", inv.Status))
	}
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if amount.GreaterThan(inv.Balance()) {
		return shared.NewDomainError("OVERPAYMENT", "Payment exceeds the outstanding balance")
	}
	if method = strings.TrimSpace(method); method == "" {
		method = "bank_transfer"
	}
	inv.Payments = append(inv.Payments, Payment{
		ID:        uuid.New(),
		Amount:    amount,
		Method:    method,
		Reference: strings.TrimSpace(reference),
		PaidAt:    paidAt,
	})
	inv.AmountPaid = inv.AmountPaid.Add(amount)
	if inv.Balance().IsZero() {
		inv.Status = InvoiceStatusPaid
		inv.PaidAt = &paidAt
	} else {
		inv.Status = InvoiceStatusPartiallyPaid
	}
	inv.MarkModified()
	return nil
}

// MarkOverdue flags an unpaid invoice past its due date.
// Returns true if the status changed.
func (inv *Invoice) MarkOverdue(now time.Time) bool {
	if inv.Status != InvoiceStatusSent && inv.Status != InvoiceStatusPartiallyPaid {
		return false
	}
	if !now.After(inv.DueDate) {
		return false
	}
	inv.Status = InvoiceStatusOverdue
	inv.MarkModified()
	return true
}

// Cancel voids an invoice that has not received payments
func (inv *Invoice) Cancel() error {
	if inv.Status == InvoiceStatusCancelled {
		return shared.NewDomainError("INVALID_STATE", "Invoice is already cancelled")
	}
	if inv.AmountPaid.IsPositive() {
		return shared.NewDomainError("INVALID_STATE", "Invoices with payments cannot be cancelled")
	}
	inv.Status = InvoiceStatusCancelled
	inv.MarkModified()
	return nil
}

// Balance is the amount still owed
func (inv *Invoice) Balance() decimal.Decimal {
	return inv.Total.Sub(inv.AmountPaid)
}

// SetNotes updates the free-text notes
func (inv *Invoice) SetNotes(notes string) {
	inv.Notes = strings.TrimSpace(notes)
	inv.MarkModified()
}
