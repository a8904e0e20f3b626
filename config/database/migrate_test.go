package database

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsAreEmbedded(t *testing.T) {
	entries, err := fs.ReadDir(migrations, "migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	for _, entry := range entries {
		contents, err := fs.ReadFile(migrations, "migrations/"+entry.Name())
		require.NoError(t, err)
		assert.Contains(t, string(contents), "-- +goose Up", entry.Name())
		assert.Contains(t, string(contents), "-- +goose Down", entry.Name())
	}
}

func TestNotesMigrationKeepsLegacyColumnsNullable(t *testing.T) {
	contents, err := fs.ReadFile(migrations, "migrations/00001_create_notes.sql")
	require.NoError(t, err)

	for _, line := range strings.Split(string(contents), "\n") {
		trimmed := strings.TrimSpace(line)
		for _, column := range []string{"category ", "is_important ", "is_deleted ", "deleted_at "} {
			if strings.HasPrefix(trimmed, column) {
				assert.NotContains(t, trimmed, "NOT NULL", column)
			}
		}
	}
}
