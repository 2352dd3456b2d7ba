package finance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/payaid/backend/internal/domain/crm"
	"github.com/payaid/backend/internal/domain/finance"
	"github.com/payaid/backend/internal/domain/shared"
	"github.com/payaid/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// defaultPaymentTerms applies when no due date is given
const defaultPaymentTerms = 30 * 24 * time.Hour

// InvoiceService handles invoicing and collections
type InvoiceService struct {
	invoiceRepo finance.InvoiceRepository
	contactRepo crm.ContactRepository
	now         func() time.Time
	logger      *zap.Logger
}

// NewInvoiceService creates a new invoice service
func NewInvoiceService(
	invoiceRepo finance.InvoiceRepository,
	contactRepo crm.ContactRepository,
	logger *zap.Logger,
) *InvoiceService {
	return &InvoiceService{
		invoiceRepo: invoiceRepo,
		contactRepo: contactRepo,
		now:         time.Now,
		logger:      logger,
	}
}

// Create drafts an invoice for a contact
func (s *InvoiceService) Create(ctx context.Context, tenantID uuid.UUID, input CreateInvoiceInput) (*InvoiceDTO, error) {
	if _, err := s.contactRepo.FindByIDForTenant(ctx, tenantID, input.ContactID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("CONTACT_NOT_FOUND", "Contact not found")
		}
		return nil, err
	}

	issueDate := input.IssueDate
	if issueDate.IsZero() {
		issueDate = s.now()
	}
	dueDate := input.DueDate
	if dueDate.IsZero() {
		dueDate = issueDate.Add(defaultPaymentTerms)
	}
	number := strings.TrimSpace(input.Number)
	if number == "" {
		number = generateInvoiceNumber(issueDate)
	}

	exists, err := s.invoiceRepo.ExistsByNumber(ctx, tenantID, number)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("INVOICE_NUMBER_EXISTS", "An invoice with this number already exists")
	}

	invoice, err := finance.NewInvoice(tenantID, number, input.ContactID, issueDate, dueDate, input.Currency)
	if err != nil {
		return nil, err
	}
	for _, line := range input.Lines {
		if err := invoice.AddLine(line.Description, line.Quantity, line.UnitPrice, line.TaxRate); err != nil {
			return nil, err
		}
	}
	if input.Notes != "" {
		invoice.SetNotes(input.Notes)
	}
	invoice.SetCreatedBy(input.CreatedBy)

	if err := s.invoiceRepo.Save(ctx, invoice); err != nil {
		s.logger.Error("Failed to create invoice", zap.Error(err))
		return nil, err
	}
	s.logger.Info("Invoice created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("number", invoice.Number),
		zap.String("total", invoice.Total.String()))
	dto := ToInvoiceDTO(invoice)
	return &dto, nil
}

// Get returns an invoice by ID
func (s *InvoiceService) Get(ctx context.Context, tenantID, id uuid.UUID) (*InvoiceDTO, error) {
	invoice, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	dto := ToInvoiceDTO(invoice)
	return &dto, nil
}

// List returns a page of invoices
func (s *InvoiceService) List(ctx context.Context, tenantID uuid.UUID, filter InvoiceListFilter) (*shared.Paginated[InvoiceDTO], error) {
	f := filter.ToSharedFilter()
	invoices, err := s.invoiceRepo.FindAllForTenant(ctx, tenantID, f)
	if err != nil {
		return nil, err
	}
	total, err := s.invoiceRepo.CountForTenant(ctx, tenantID, f)
	if err != nil {
		return nil, err
	}
	items := make([]InvoiceDTO, len(invoices))
	for i := range invoices {
		items[i] = ToInvoiceDTO(&invoices[i])
	}
	page := shared.NewPaginated(items, total, f.Page, f.PageSize)
	return &page, nil
}

// AddLine appends a line to a draft invoice
func (s *InvoiceService) AddLine(ctx context.Context, tenantID, id uuid.UUID, line LineInput) (*InvoiceDTO, error) {
	return s.mutate(ctx, tenantID, id, func(inv *finance.Invoice) error {
		return inv.AddLine(line.Description, line.Quantity, line.UnitPrice, line.TaxRate)
	})
}

// RemoveLine drops a line from a draft invoice
func (s *InvoiceService) RemoveLine(ctx context.Context, tenantID, id, lineID uuid.UUID) (*InvoiceDTO, error) {
	return s.mutate(ctx, tenantID, id, func(inv *finance.Invoice) error {
		return inv.RemoveLine(lineID)
	})
}

// Send issues a draft invoice
func (s *InvoiceService) Send(ctx context.Context, tenantID, id uuid.UUID) (*InvoiceDTO, error) {
	dto, err := s.mutate(ctx, tenantID, id, func(inv *finance.Invoice) error {
		return inv.Send()
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Invoice sent", zap.String("invoice_id", id.String()), zap.String("number", dto.Number))
	return dto, nil
}

// RecordPayment applies money received to an invoice
func (s *InvoiceService) RecordPayment(ctx context.Context, tenantID, id uuid.UUID, input RecordPaymentInput) (_ *InvoiceDTO, err error) {
	ctx, span := telemetry.StartSpan(ctx, "finance", "record_payment",
		telemetry.AttrTenantID.String(tenantID.String()),
		attribute.String("invoice_id", id.String()),
		attribute.String("amount", input.Amount.String()))
	defer func() { telemetry.EndSpan(span, err) }()

	paidAt := s.now()
	if input.PaidAt != nil {
		paidAt = *input.PaidAt
	}
	dto, err := s.mutate(ctx, tenantID, id, func(inv *finance.Invoice) error {
		return inv.RecordPayment(input.Amount, input.Method, input.Reference, paidAt)
	})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(telemetry.AttrStatus.String(dto.Status))
	s.logger.Info("Payment recorded",
		zap.String("invoice_id", id.String()),
		zap.String("amount", input.Amount.String()),
		zap.String("balance", dto.Balance.String()),
		zap.String("status", dto.Status))
	return dto, nil
}

// Cancel voids an unpaid invoice
func (s *InvoiceService) Cancel(ctx context.Context, tenantID, id uuid.UUID) (*InvoiceDTO, error) {
	return s.mutate(ctx, tenantID, id, func(inv *finance.Invoice) error {
		return inv.Cancel()
	})
}

// Delete removes a draft or cancelled invoice
func (s *InvoiceService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	invoice, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if invoice.Status != finance.InvoiceStatusDraft && invoice.Status != finance.InvoiceStatusCancelled {
		return shared.NewDomainError("INVALID_STATE", "Only draft or cancelled invoices can be deleted")
	}
	if err := s.invoiceRepo.DeleteForTenant(ctx, tenantID, id); err != nil {
		return err
	}
	s.logger.Info("Invoice deleted",
		zap.String("tenant_id", tenantID.String()),
		zap.String("invoice_id", id.String()))
	return nil
}

// MarkOverdue flags every unpaid invoice of the tenant that is past due.
// Returns the number of invoices changed.
func (s *InvoiceService) MarkOverdue(ctx context.Context, tenantID uuid.UUID) (int, error) {
	now := s.now()
	invoices, err := s.invoiceRepo.FindDueBefore(ctx, tenantID, now)
	if err != nil {
		return 0, err
	}
	changed := 0
	for i := range invoices {
		inv := &invoices[i]
		if !inv.MarkOverdue(now) {
			continue
		}
		if err := s.invoiceRepo.Save(ctx, inv); err != nil {
			return changed, err
		}
		changed++
	}
	if changed > 0 {
		s.logger.Info("Invoices marked overdue",
			zap.String("tenant_id", tenantID.String()),
			zap.Int("count", changed))
	}
	return changed, nil
}

func (s *InvoiceService) mutate(ctx context.Context, tenantID, id uuid.UUID, apply func(*finance.Invoice) error) (*InvoiceDTO, error) {
	invoice, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := apply(invoice); err != nil {
		return nil, err
	}
	if err := s.invoiceRepo.Save(ctx, invoice); err != nil {
		return nil, err
	}
	dto := ToInvoiceDTO(invoice)
	return &dto, nil
}

// generateInvoiceNumber builds INV-YYYYMM-XXXXXX from the issue month and a random suffix
func generateInvoiceNumber(issueDate time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("INV-%s-%s", issueDate.Format("200601"), suffix)
}
