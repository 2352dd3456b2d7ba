package finance

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/payaid/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newDraft(t *testing.T) *Invoice {
	t.Helper()
	issue := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	inv, err := NewInvoice(uuid.New(), "INV-0001", uuid.New(), issue, issue.AddDate(0, 0, 30), "")
	require.NoError(t, err)
	return inv
}

func TestNewInvoice(t *testing.T) {
	inv := newDraft(t)
	assert.Equal(t, InvoiceStatusDraft, inv.Status)
	assert.Equal(t, "INR", inv.Currency)
	assert.True(t, inv.Total.IsZero())

	issue := time.Now()
	_, err := NewInvoice(uuid.New(), "", uuid.New(), issue, issue, "INR")
	assert.Error(t, err)
	_, err = NewInvoice(uuid.New(), "INV-2", uuid.Nil, issue, issue, "INR")
	assert.Error(t, err)
	_, err = NewInvoice(uuid.New(), "INV-2", uuid.New(), issue, issue.Add(-time.Hour), "INR")
	assert.Error(t, err)
}

func TestInvoice_Totals(t *testing.T) {
	inv := newDraft(t)
	require.NoError(t, inv.AddLine("Consulting", d("3"), d("1500"), d("18")))
	require.NoError(t, inv.AddLine("Travel", d("1"), d("999.99"), d("0")))

	assert.True(t, inv.Subtotal.Equal(d("5499.99")))
	assert.True(t, inv.TaxTotal.Equal(d("810")))
	assert.True(t, inv.Total.Equal(d("6309.99")))

	require.NoError(t, inv.RemoveLine(inv.Lines[1].ID))
	assert.True(t, inv.Total.Equal(d("5310")))
	assert.ErrorIs(t, inv.RemoveLine(uuid.New()), shared.ErrNotFound)
}

func TestInvoice_LineValidation(t *testing.T) {
	inv := newDraft(t)
	assert.Error(t, inv.AddLine("", d("1"), d("1"), d("0")))
	assert.Error(t, inv.AddLine("x", d("0"), d("1"), d("0")))
	assert.Error(t, inv.AddLine("x", d("1"), d("-1"), d("0")))
	assert.Error(t, inv.AddLine("x", d("1"), d("1"), d("101")))
}

func TestInvoice_PaymentFlow(t *testing.T) {
	inv := newDraft(t)
	assert.Error(t, inv.Send(), "empty invoices cannot be sent")
	require.NoError(t, inv.AddLine("Subscription", d("1"), d("1000"), d("0")))

	assert.Error(t, inv.RecordPayment(d("100"), "", "", time.Now()), "draft invoices take no payments")
	require.NoError(t, inv.Send())
	assert.Error(t, inv.AddLine("Late", d("1"), d("1"), d("0")))

	require.NoError(t, inv.RecordPayment(d("400"), "upi", "UTR123", time.Now()))
	assert.Equal(t, InvoiceStatusPartiallyPaid, inv.Status)
	assert.True(t, inv.Balance().Equal(d("600")))

	assert.Error(t, inv.RecordPayment(d("600.01"), "upi", "", time.Now()))
	assert.Error(t, inv.RecordPayment(d("0"), "upi", "", time.Now()))
	assert.Error(t, inv.Cancel(), "cannot cancel once paid partially")

	require.NoError(t, inv.RecordPayment(d("600"), "", "", time.Now()))
	assert.Equal(t, InvoiceStatusPaid, inv.Status)
	assert.NotNil(t, inv.PaidAt)
	require.Len(t, inv.Payments, 2)
	assert.Equal(t, "bank_transfer", inv.Payments[1].Method)
}

func TestInvoice_MarkOverdue(t *testing.T) {
	inv := newDraft(t)
	require.NoError(t, inv.AddLine("Subscription", d("1"), d("1000"), d("0")))

	assert.False(t, inv.MarkOverdue(inv.DueDate.AddDate(0, 0, 1)), "drafts are never overdue")
	require.NoError(t, inv.Send())
	assert.False(t, inv.MarkOverdue(inv.DueDate))
	assert.True(t, inv.MarkOverdue(inv.DueDate.Add(time.Second)))
	assert.Equal(t, InvoiceStatusOverdue, inv.Status)
	assert.False(t, inv.MarkOverdue(inv.DueDate.AddDate(0, 1, 0)))

	require.NoError(t, inv.RecordPayment(d("1000"), "cash", "", time.Now()))
	assert.Equal(t, InvoiceStatusPaid, inv.Status)
}

func TestInvoice_Cancel(t *testing.T) {
	inv := newDraft(t)
	require.NoError(t, inv.Cancel())
	assert.Error(t, inv.Cancel())
	assert.Error(t, inv.Send())
}

func TestPayments_ValueScan(t *testing.T) {
	var empty Payments
	v, err := empty.Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)

	p := Payments{{ID: uuid.New(), Amount: d("12.50"), Method: "upi", PaidAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)}}
	v, err = p.Value()
	require.NoError(t, err)

	var out Payments
	require.NoError(t, out.Scan(v))
	require.Len(t, out, 1)
	assert.True(t, out[0].Amount.Equal(d("12.5")))

	require.NoError(t, out.Scan(nil))
	assert.Empty(t, out)
	assert.Error(t, out.Scan(3))
}
