package finance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/payaid/backend/internal/domain/crm"
	"github.com/payaid/backend/internal/domain/finance"
	"github.com/payaid/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

type invoiceFixture struct {
	tenantID uuid.UUID
	contact  *crm.Contact
	repo     *MockInvoiceRepository
	svc      *InvoiceService
}

func newInvoiceFixture(t *testing.T) *invoiceFixture {
	t.Helper()
	tenantID := uuid.New()
	contact, err := crm.NewContact(tenantID, crm.ContactProfile{Name: "Acme Traders"}, crm.ContactSourceManual)
	require.NoError(t, err)

	repo := new(MockInvoiceRepository)
	svc := NewInvoiceService(repo, &stubContacts{known: map[uuid.UUID]*crm.Contact{contact.ID: contact}}, zap.NewNop())
	svc.now = func() time.Time { return fixedNow }
	return &invoiceFixture{tenantID: tenantID, contact: contact, repo: repo, svc: svc}
}

func (f *invoiceFixture) sentInvoice(t *testing.T, total int64) *finance.Invoice {
	t.Helper()
	inv, err := finance.NewInvoice(f.tenantID, "INV-"+uuid.NewString()[:8], f.contact.ID, fixedNow.AddDate(0, 0, -40), fixedNow.AddDate(0, 0, -10), "INR")
	require.NoError(t, err)
	require.NoError(t, inv.AddLine("Consulting", decimal.NewFromInt(1), decimal.NewFromInt(total), decimal.Zero))
	require.NoError(t, inv.Send())
	return inv
}

func assertDomainCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var de *shared.DomainError
	require.True(t, errors.As(err, &de), "expected domain error, got %v", err)
	assert.Equal(t, code, de.Code)
}

func TestInvoiceService_Create(t *testing.T) {
	ctx := context.Background()
	f := newInvoiceFixture(t)
	f.repo.On("ExistsByNumber", mock.Anything, f.tenantID, mock.AnythingOfType("string")).Return(false, nil)
	f.repo.On("Save", mock.Anything, mock.AnythingOfType("*finance.Invoice")).Return(nil)

	dto, err := f.svc.Create(ctx, f.tenantID, CreateInvoiceInput{
		ContactID: f.contact.ID,
		Lines: []LineInput{
			{Description: "Setup", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(5000), TaxRate: decimal.NewFromInt(18)},
			{Description: "Support hours", Quantity: decimal.NewFromInt(10), UnitPrice: decimal.RequireFromString("250.50")},
		},
		Notes: " Net 30 ",
	})
	require.NoError(t, err)
	assert.Regexp(t, `^INV-202603-[0-9A-F]{6}$`, dto.Number)
	assert.Equal(t, "draft", dto.Status)
	assert.Equal(t, fixedNow, dto.IssueDate)
	assert.Equal(t, fixedNow.Add(defaultPaymentTerms), dto.DueDate)
	assert.True(t, decimal.RequireFromString("7505").Equal(dto.Subtotal))
	assert.True(t, decimal.NewFromInt(900).Equal(dto.TaxTotal))
	assert.True(t, decimal.RequireFromString("8405").Equal(dto.Total))
	assert.True(t, dto.Total.Equal(dto.Balance))
	assert.Len(t, dto.Lines, 2)
	assert.Equal(t, "Net 30", dto.Notes)
}

func TestInvoiceService_Create_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown contact", func(t *testing.T) {
		f := newInvoiceFixture(t)
		_, err := f.svc.Create(ctx, f.tenantID, CreateInvoiceInput{ContactID: uuid.New()})
		assertDomainCode(t, err, "CONTACT_NOT_FOUND")
	})

	t.Run("contact of another tenant", func(t *testing.T) {
		f := newInvoiceFixture(t)
		_, err := f.svc.Create(ctx, uuid.New(), CreateInvoiceInput{ContactID: f.contact.ID})
		assertDomainCode(t, err, "CONTACT_NOT_FOUND")
	})

	t.Run("duplicate number", func(t *testing.T) {
		f := newInvoiceFixture(t)
		f.repo.On("ExistsByNumber", mock.Anything, f.tenantID, "INV-1").Return(true, nil)
		_, err := f.svc.Create(ctx, f.tenantID, CreateInvoiceInput{ContactID: f.contact.ID, Number: " INV-1 "})
		assertDomainCode(t, err, "INVOICE_NUMBER_EXISTS")
	})

	t.Run("due before issue", func(t *testing.T) {
		f := newInvoiceFixture(t)
		f.repo.On("ExistsByNumber", mock.Anything, f.tenantID, "INV-2").Return(false, nil)
		_, err := f.svc.Create(ctx, f.tenantID, CreateInvoiceInput{
			ContactID: f.contact.ID,
			Number:    "INV-2",
			IssueDate: fixedNow,
			DueDate:   fixedNow.AddDate(0, 0, -1),
		})
		assertDomainCode(t, err, "INVALID_DUE_DATE")
	})
}

func TestInvoiceService_PaymentFlow(t *testing.T) {
	ctx := context.Background()
	f := newInvoiceFixture(t)
	inv := f.sentInvoice(t, 1000)
	f.repo.On("FindByIDForTenant", mock.Anything, f.tenantID, inv.ID).Return(inv, nil)
	f.repo.On("Save", mock.Anything, inv).Return(nil)

	dto, err := f.svc.RecordPayment(ctx, f.tenantID, inv.ID, RecordPaymentInput{Amount: decimal.NewFromInt(400), Method: "upi"})
	require.NoError(t, err)
	assert.Equal(t, "partially_paid", dto.Status)
	assert.True(t, decimal.NewFromInt(600).Equal(dto.Balance))
	require.Len(t, dto.Payments, 1)
	assert.Equal(t, fixedNow, dto.Payments[0].PaidAt)

	_, err = f.svc.RecordPayment(ctx, f.tenantID, inv.ID, RecordPaymentInput{Amount: decimal.NewFromInt(601)})
	assertDomainCode(t, err, "OVERPAYMENT")

	_, err = f.svc.Cancel(ctx, f.tenantID, inv.ID)
	assertDomainCode(t, err, "INVALID_STATE")

	dto, err = f.svc.RecordPayment(ctx, f.tenantID, inv.ID, RecordPaymentInput{Amount: decimal.NewFromInt(600)})
	require.NoError(t, err)
	assert.Equal(t, "paid", dto.Status)
	assert.True(t, dto.Balance.IsZero())
	assert.NotNil(t, dto.PaidAt)
}

func TestInvoiceService_DraftLines(t *testing.T) {
	ctx := context.Background()
	f := newInvoiceFixture(t)
	inv, err := finance.NewInvoice(f.tenantID, "INV-9", f.contact.ID, fixedNow, fixedNow, "")
	require.NoError(t, err)
	f.repo.On("FindByIDForTenant", mock.Anything, f.tenantID, inv.ID).Return(inv, nil)
	f.repo.On("Save", mock.Anything, inv).Return(nil)

	_, err = f.svc.Send(ctx, f.tenantID, inv.ID)
	assertDomainCode(t, err, "EMPTY_INVOICE")

	dto, err := f.svc.AddLine(ctx, f.tenantID, inv.ID, LineInput{Description: "Widget", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(50)})
	require.NoError(t, err)
	require.Len(t, dto.Lines, 1)
	assert.True(t, decimal.NewFromInt(100).Equal(dto.Total))

	dto, err = f.svc.RemoveLine(ctx, f.tenantID, inv.ID, dto.Lines[0].ID)
	require.NoError(t, err)
	assert.Empty(t, dto.Lines)
	assert.True(t, dto.Total.IsZero())

	_, err = f.svc.RemoveLine(ctx, f.tenantID, inv.ID, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestInvoiceService_Delete(t *testing.T) {
	ctx := context.Background()
	f := newInvoiceFixture(t)
	sent := f.sentInvoice(t, 100)
	draft, err := finance.NewInvoice(f.tenantID, "INV-D", f.contact.ID, fixedNow, fixedNow, "")
	require.NoError(t, err)
	f.repo.On("FindByIDForTenant", mock.Anything, f.tenantID, sent.ID).Return(sent, nil)
	f.repo.On("FindByIDForTenant", mock.Anything, f.tenantID, draft.ID).Return(draft, nil)
	f.repo.On("DeleteForTenant", mock.Anything, f.tenantID, draft.ID).Return(nil)

	assertDomainCode(t, f.svc.Delete(ctx, f.tenantID, sent.ID), "INVALID_STATE")
	require.NoError(t, f.svc.Delete(ctx, f.tenantID, draft.ID))
	f.repo.AssertNotCalled(t, "DeleteForTenant", mock.Anything, f.tenantID, sent.ID)
}

func TestInvoiceService_MarkOverdue(t *testing.T) {
	ctx := context.Background()
	f := newInvoiceFixture(t)
	late := f.sentInvoice(t, 100)
	onTime := f.sentInvoice(t, 100)
	onTime.DueDate = fixedNow.AddDate(0, 0, 5)

	f.repo.On("FindDueBefore", mock.Anything, f.tenantID, fixedNow).Return([]finance.Invoice{*late, *onTime}, nil)
	f.repo.On("Save", mock.Anything, mock.MatchedBy(func(inv *finance.Invoice) bool { return inv.ID == late.ID })).Return(nil).Once()

	changed, err := f.svc.MarkOverdue(ctx, f.tenantID)
	require.NoError(t, err)
	assert.Equal(t, 1, changed)
	f.repo.AssertExpectations(t)
}

func TestInvoiceService_List(t *testing.T) {
	ctx := context.Background()
	f := newInvoiceFixture(t)
	inv := f.sentInvoice(t, 100)
	filter := InvoiceListFilter{Status: "sent", ContactID: f.contact.ID.String()}
	expected := filter.ToSharedFilter()
	f.repo.On("FindAllForTenant", mock.Anything, f.tenantID, expected).Return([]finance.Invoice{*inv}, nil)
	f.repo.On("CountForTenant", mock.Anything, f.tenantID, expected).Return(int64(1), nil)

	page, err := f.svc.List(ctx, f.tenantID, filter)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, inv.Number, page.Items[0].Number)
}
