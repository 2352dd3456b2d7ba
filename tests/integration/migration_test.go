package integration

import (
	"testing"

	"github.com/payaid/backend/internal/infrastructure/migration"
	"github.com/payaid/backend/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMigrations_RoundTrip(t *testing.T) {
	db := NewTestDB(t)

	m, err := migration.NewWithFS(db.SqlDB, migrations.FS, zap.NewNop())
	require.NoError(t, err)

	st, err := m.Status(migrations.FS)
	require.NoError(t, err)
	assert.False(t, st.Dirty)
	assert.Equal(t, st.Latest, st.Version)
	assert.Zero(t, st.Pending)
	latest := st.Latest

	require.NoError(t, m.Steps(-1))
	st, err = m.Status(migrations.FS)
	require.NoError(t, err)
	assert.Equal(t, latest-1, st.Version)
	assert.Equal(t, 1, st.Pending)

	require.NoError(t, m.Up())
	require.NoError(t, m.Up(), "up on a current schema is a no-op")
	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, latest, version)

	require.NoError(t, m.Down())
	version, _, err = m.Version()
	require.NoError(t, err)
	assert.Zero(t, version)

	var tables int64
	require.NoError(t, db.DB.Raw(`SELECT COUNT(*) FROM pg_tables WHERE schemaname = 'public' AND tablename != 'schema_migrations'`).Scan(&tables).Error)
	assert.Zero(t, tables, "down removes every table")

	require.NoError(t, m.Up())
}
