package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/payaid/backend/internal/domain/finance"
	"github.com/payaid/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newSentInvoice(t *testing.T, tenantID uuid.UUID, number string, due time.Time) *finance.Invoice {
	t.Helper()
	issue := due.AddDate(0, 0, -30)
	inv, err := finance.NewInvoice(tenantID, number, uuid.New(), issue, due, "INR")
	require.NoError(t, err)
	require.NoError(t, inv.AddLine("Consulting", dec("10"), dec("1500"), dec("18")))
	require.NoError(t, inv.AddLine("Support plan", dec("1"), dec("5000"), dec("0")))
	require.NoError(t, inv.Send())
	return inv
}

func TestGormInvoiceRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	today := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)

	pastDue := newSentInvoice(t, tenantID, "INV-001", today.AddDate(0, 0, -5))
	current := newSentInvoice(t, tenantID, "INV-002", today.AddDate(0, 0, 10))
	require.NoError(t, repo.Save(ctx, pastDue))
	require.NoError(t, repo.Save(ctx, current))

	t.Run("loads lines in order with totals", func(t *testing.T) {
		found, err := repo.FindByIDForTenant(ctx, tenantID, pastDue.ID)
		require.NoError(t, err)
		require.Len(t, found.Lines, 2)
		assert.Equal(t, "Consulting", found.Lines[0].Description)
		assert.Equal(t, "Support plan", found.Lines[1].Description)
		assert.True(t, pastDue.Total.Equal(found.Total), "total %s", found.Total)
		assert.Equal(t, finance.InvoiceStatusSent, found.Status)
	})

	t.Run("saving replaces lines and keeps payments", func(t *testing.T) {
		require.NoError(t, current.RecordPayment(dec("1000"), "upi", "UTR123", today))
		require.NoError(t, repo.Save(ctx, current))

		found, err := repo.FindByIDForTenant(ctx, tenantID, current.ID)
		require.NoError(t, err)
		assert.Len(t, found.Lines, 2)
		require.Len(t, found.Payments, 1)
		assert.Equal(t, "upi", found.Payments[0].Method)
		assert.Equal(t, finance.InvoiceStatusPartiallyPaid, found.Status)

		var lineCount int64
		require.NoError(t, db.Table("invoice_lines").Where("invoice_id = ?", current.ID).Count(&lineCount).Error)
		assert.Equal(t, int64(2), lineCount)
	})

	t.Run("finds open invoices due before a date", func(t *testing.T) {
		due, err := repo.FindDueBefore(ctx, tenantID, today)
		require.NoError(t, err)
		require.Len(t, due, 1)
		assert.Equal(t, pastDue.ID, due[0].ID)
		assert.Len(t, due[0].Lines, 2)
	})

	t.Run("number existence is tenant scoped", func(t *testing.T) {
		exists, err := repo.ExistsByNumber(ctx, tenantID, "INV-001")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.ExistsByNumber(ctx, uuid.New(), "INV-001")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("filters by status", func(t *testing.T) {
		filter := shared.DefaultFilter()
		filter.Filters["status"] = string(finance.InvoiceStatusPartiallyPaid)
		list, err := repo.FindAllForTenant(ctx, tenantID, filter)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, current.ID, list[0].ID)
		assert.Len(t, list[0].Lines, 2)
	})
}
