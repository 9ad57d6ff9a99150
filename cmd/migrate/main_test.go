package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		filename string
		valid    bool
		version  int
		name     string
	}{
		{"0001_create_app_users.sql", true, 1, "create_app_users"},
		{"0012_add_index.sql", true, 12, "add_index"},
		{"001_invalid.sql", false, 0, ""},       // wrong number format
		{"0001_test", false, 0, ""},             // missing .sql
		{"0001.sql", false, 0, ""},              // missing name
		{"invalid_0001_test.sql", false, 0, ""}, // wrong order
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			version, name, ok := parseMigrationFilename(tt.filename)
			assert.Equal(t, tt.valid, ok)
			assert.Equal(t, tt.version, version)
			assert.Equal(t, tt.name, name)
		})
	}
}

func TestRenderSQLAndChecksum(t *testing.T) {
	content := "CREATE TABLE `{{PROJECT_ID}}.{{DATASET_ID}}.t` (id INT64);"

	assert.Equal(t, "CREATE TABLE `p.d.t` (id INT64);", renderSQL(content, "p", "d"))
	assert.Equal(t, checksum([]byte(content)), checksum([]byte(content)))
	assert.NotEqual(t, checksum([]byte(content)), checksum([]byte("CREATE TABLE other (id INT64);")))
}

func TestReadMigrations(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	write("0002_second.sql", "SELECT 2")
	write("0001_first.sql", "SELECT * FROM `{{PROJECT_ID}}.{{DATASET_ID}}.x`")
	write("README.md", "not a migration")

	migs, err := readMigrations(dir, "proj", "ds", zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, migs, 2)
	assert.Equal(t, 1, migs[0].Version)
	assert.Equal(t, "SELECT * FROM `proj.ds.x`", migs[0].SQL)
	assert.Equal(t, "second", migs[1].Name)

	write("0002_duplicate.sql", "SELECT 3")
	_, err = readMigrations(dir, "proj", "ds", zerolog.Nop())
	assert.Error(t, err)
}

func TestPendingMigrations(t *testing.T) {
	migs := []Migration{
		{Version: 1, Name: "first", Checksum: "aaa"},
		{Version: 2, Name: "second", Checksum: "bbb"},
	}

	pending, err := pendingMigrations(migs, []AppliedMigration{{Version: 1, Checksum: "aaa"}})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 2, pending[0].Version)

	_, err = pendingMigrations(migs, []AppliedMigration{{Version: 1, Checksum: "changed"}})
	assert.Error(t, err)
}

func TestRepositoryMigrationsParse(t *testing.T) {
	migs, err := readMigrations("migrations/bigquery", "proj", "ds", zerolog.Nop())
	require.NoError(t, err)
	require.NotEmpty(t, migs)
	assert.Equal(t, "create_app_users", migs[0].Name)
	assert.Contains(t, migs[0].SQL, "`proj.ds.app_users`")
}
