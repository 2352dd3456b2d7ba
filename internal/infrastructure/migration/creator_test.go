package migration

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/payaid/backend/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add users table", "add_users_table"},
		{"Add-Deals-Stage", "add_deals_stage"},
		{"ADD__CHUNK__INDEX", "add_chunk_index"},
		{"  spaces  ", "spaces"},
		{"special!@#$chars 2", "specialchars_2"},
		{"_leading", "leading"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration_Sequential(t *testing.T) {
	dir := t.TempDir()

	first, err := CreateMigration(dir, "add contacts", "Contacts table")
	require.NoError(t, err)
	assert.Equal(t, uint(1), first.Version)
	assert.Equal(t, filepath.Join(dir, "000001_add_contacts.up.sql"), first.UpPath)

	second, err := CreateMigration(dir, "Add Deals", "")
	require.NoError(t, err)
	assert.Equal(t, uint(2), second.Version)
	assert.Equal(t, filepath.Join(dir, "000002_add_deals.down.sql"), second.DownPath)

	up, err := os.ReadFile(first.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "-- add_contacts")
	assert.Contains(t, string(up), "-- Contacts table")

	down, err := os.ReadFile(second.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "Rollback for add_deals")

	_, err = CreateMigration(dir, "!!!", "")
	assert.Error(t, err)
}

func TestListMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"000002_crm.up.sql":        {},
		"000002_crm.down.sql":      {},
		"000001_identity.up.sql":   {},
		"000001_identity.down.sql": {},
		"000010_late.up.sql":       {},
		"README.md":                {},
		"embed.go":                 {},
	}
	files, err := ListMigrations(fsys)
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, []uint{1, 2, 10}, []uint{files[0].Version, files[1].Version, files[2].Version})
	assert.Equal(t, "identity", files[0].Name)
	assert.Equal(t, "000002_crm.down.sql", files[1].DownPath)
	assert.Empty(t, files[2].DownPath)

	_, err = ListMigrations(fstest.MapFS{
		"000001_a.up.sql": {},
		"000001_b.up.sql": {},
	})
	assert.Error(t, err)

	files, err = ListMigrations(os.DirFS(filepath.Join(t.TempDir(), "missing")))
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	files, err := ListMigrations(migrations.FS)
	require.NoError(t, err)
	require.NotEmpty(t, files)
	for i, f := range files {
		assert.Equal(t, uint(i+1), f.Version, "versions must be contiguous")
		assert.NotEmpty(t, f.UpPath, f.Name)
		assert.NotEmpty(t, f.DownPath, f.Name)
	}
}
