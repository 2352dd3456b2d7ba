package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/payaid/backend/internal/domain/crm"
	"github.com/payaid/backend/internal/domain/finance"
	"github.com/payaid/backend/internal/domain/identity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringList(t *testing.T) {
	v, err := StringList(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)

	var l StringList
	require.NoError(t, l.Scan(`["a","b"]`))
	assert.Equal(t, StringList{"a", "b"}, l)

	require.NoError(t, l.Scan(nil))
	assert.Error(t, l.Scan(42))
}

func TestUUIDList(t *testing.T) {
	id := uuid.New()
	v, err := UUIDList{id}.Value()
	require.NoError(t, err)

	var l UUIDList
	require.NoError(t, l.Scan([]byte(v.(string))))
	assert.Equal(t, UUIDList{id}, l)
}

func TestCriteriaColumn(t *testing.T) {
	c := CriteriaColumn(crm.TerritoryCriteria{Countries: []string{"india"}, PostalPrefixes: []string{"411"}})
	v, err := c.Value()
	require.NoError(t, err)

	var out CriteriaColumn
	require.NoError(t, out.Scan(v))
	assert.Equal(t, c, out)
}

func TestTenantModel_Modules(t *testing.T) {
	tenant, err := identity.NewTenant("acme", "Acme")
	require.NoError(t, err)
	require.NoError(t, tenant.EnableModule(identity.ModuleKnowledge))

	m := TenantModelFromDomain(tenant)
	back := m.ToDomain()
	assert.True(t, back.HasModule(identity.ModuleKnowledge))
	assert.Equal(t, tenant.Modules.String(), back.Modules.String())
}

func TestInvoiceModel_LinePositions(t *testing.T) {
	issue := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	inv, err := finance.NewInvoice(uuid.New(), "INV-9", uuid.New(), issue, issue.AddDate(0, 0, 15), "inr")
	require.NoError(t, err)
	require.NoError(t, inv.AddLine("First", decimal.NewFromInt(1), decimal.NewFromInt(100), decimal.Zero))
	require.NoError(t, inv.AddLine("Second", decimal.NewFromInt(2), decimal.NewFromInt(50), decimal.Zero))

	m := InvoiceModelFromDomain(inv)
	require.Len(t, m.Lines, 2)
	for i, l := range m.Lines {
		assert.Equal(t, i, l.Position)
		assert.Equal(t, inv.ID, l.InvoiceID)
	}

	back := m.ToDomain()
	assert.Equal(t, "INR", back.Currency)
	assert.Equal(t, "Second", back.Lines[1].Description)
	assert.True(t, inv.Total.Equal(back.Total))
}

func TestAll_ListsEveryTable(t *testing.T) {
	names := make(map[string]bool)
	for _, m := range All() {
		tabler, ok := m.(interface{ TableName() string })
		require.True(t, ok, "%T has no table name", m)
		names[tabler.TableName()] = true
	}
	for _, want := range []string{"tenants", "users", "contacts", "territories", "deals", "knowledge_documents", "knowledge_chunks", "invoices", "invoice_lines", "employees", "projects"} {
		assert.True(t, names[want], want)
	}
}
