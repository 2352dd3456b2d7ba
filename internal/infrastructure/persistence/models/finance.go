package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/payaid/backend/internal/domain/finance"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the persistence model for the Invoice aggregate.
type InvoiceModel struct {
	TenantAggregateModel
	Number     string                `gorm:"type:varchar(50);not null;index"`
	ContactID  uuid.UUID             `gorm:"type:uuid;not null;index"`
	IssueDate  time.Time             `gorm:"type:date;not null"`
	DueDate    time.Time             `gorm:"type:date;not null;index"`
	Currency   string                `gorm:"type:varchar(3);not null"`
	Subtotal   decimal.Decimal       `gorm:"type:decimal(18,2);not null;default:0"`
	TaxTotal   decimal.Decimal       `gorm:"type:decimal(18,2);not null;default:0"`
	Total      decimal.Decimal       `gorm:"type:decimal(18,2);not null;default:0"`
	AmountPaid decimal.Decimal       `gorm:"type:decimal(18,2);not null;default:0"`
	Payments   finance.Payments      `gorm:"type:text;not null"`
	Status     finance.InvoiceStatus `gorm:"type:varchar(20);not null;default:'draft';index"`
	Notes      string                `gorm:"type:text"`
	SentAt     *time.Time
	PaidAt     *time.Time
	Lines      []InvoiceLineModel `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// InvoiceLineModel is one billed line of an invoice.
type InvoiceLineModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Position    int             `gorm:"not null"`
	Description string          `gorm:"type:varchar(500);not null"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	TaxRate     decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
}

// TableName returns the table name for GORM
func (InvoiceLineModel) TableName() string {
	return "invoice_lines"
}

// ToDomain converts the persistence model to a domain Invoice. Lines are
// expected in Position order.
func (m *InvoiceModel) ToDomain() *finance.Invoice {
	lines := make([]finance.InvoiceLine, len(m.Lines))
	for i, l := range m.Lines {
		lines[i] = finance.InvoiceLine{
			ID:          l.ID,
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			TaxRate:     l.TaxRate,
		}
	}
	payments := m.Payments
	if payments == nil {
		payments = finance.Payments{}
	}
	return &finance.Invoice{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		Number:              m.Number,
		ContactID:           m.ContactID,
		IssueDate:           m.IssueDate,
		DueDate:             m.DueDate,
		Currency:            m.Currency,
		Lines:               lines,
		Subtotal:            m.Subtotal,
		TaxTotal:            m.TaxTotal,
		Total:               m.Total,
		AmountPaid:          m.AmountPaid,
		Payments:            payments,
		Status:              m.Status,
		Notes:               m.Notes,
		SentAt:              m.SentAt,
		PaidAt:              m.PaidAt,
	}
}

// InvoiceModelFromDomain creates a persistence model, lines included, from a domain Invoice.
func InvoiceModelFromDomain(inv *finance.Invoice) *InvoiceModel {
	m := &InvoiceModel{
		Number:     inv.Number,
		ContactID:  inv.ContactID,
		IssueDate:  inv.IssueDate,
		DueDate:    inv.DueDate,
		Currency:   inv.Currency,
		Subtotal:   inv.Subtotal,
		TaxTotal:   inv.TaxTotal,
		Total:      inv.Total,
		AmountPaid: inv.AmountPaid,
		Payments:   inv.Payments,
		Status:     inv.Status,
		Notes:      inv.Notes,
		SentAt:     inv.SentAt,
		PaidAt:     inv.PaidAt,
		Lines:      make([]InvoiceLineModel, len(inv.Lines)),
	}
	m.FromDomainTenantAggregateRoot(inv.TenantAggregateRoot)
	for i, l := range inv.Lines {
		m.Lines[i] = InvoiceLineModel{
			ID:          l.ID,
			InvoiceID:   inv.ID,
			Position:    i,
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			TaxRate:     l.TaxRate,
		}
	}
	return m
}
