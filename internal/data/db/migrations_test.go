package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := Open(t.TempDir(), DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func TestOpen_CreatesSchema(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	for _, table := range []string{"kv_store", "notes", "bookmarks"} {
		_, err := database.Conn().ExecContext(ctx, "SELECT 1 FROM "+table+" LIMIT 0")
		require.NoError(t, err, "%s table should exist", table)
	}

	current, latest, err := SchemaVersion(ctx, database.Conn())
	require.NoError(t, err)
	assert.Equal(t, 2, latest)
	assert.Equal(t, latest, current)
}

func TestMigrateUp_Idempotent(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, migrateUp(ctx, database.Conn()))

	var n int
	require.NoError(t, database.Conn().QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&n))
	assert.Equal(t, 2, n)
}

func TestMigrateUp_DetectsModifiedMigration(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	_, err := database.Conn().ExecContext(ctx, "UPDATE schema_migrations SET checksum = 'stale' WHERE version = 1")
	require.NoError(t, err)

	err = migrateUp(ctx, database.Conn())
	require.ErrorIs(t, err, ErrModifiedMigration)
	assert.Contains(t, err.Error(), "0001_kv_store")
}

func TestLoadMigrations(t *testing.T) {
	migrations, err := loadMigrations()
	require.NoError(t, err)
	require.NotEmpty(t, migrations)

	for i, m := range migrations {
		assert.Equal(t, i+1, m.Version, "versions are contiguous from 1")
		assert.NotEmpty(t, m.SQL)
		assert.Len(t, m.Checksum, 64)
	}
}

func TestParseFilename(t *testing.T) {
	tests := []struct {
		filename    string
		wantVersion int
		wantName    string
		wantErr     bool
	}{
		{"0001_kv_store.sql", 1, "kv_store", false},
		{"0100_big_version.sql", 100, "big_version", false},
		{"0002_anchors.up.sql", 2, "anchors.up", false},
		{"bad.sql", 0, "", true},
		{"0001_initial.txt", 0, "", true},
		{"0000_zero.sql", 0, "", true},
		{"abc_notnumber.sql", 0, "", true},
		{"0001_.sql", 0, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			version, name, err := parseFilename(tt.filename)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantVersion, version)
			assert.Equal(t, tt.wantName, name)
		})
	}
}

func TestWithTx_Rollback(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	err := database.WithTx(ctx, func(q *Queries) error {
		if err := q.KVSet(ctx, KVSetParams{Key: "k", Value: []byte(`1`), CreatedAt: 1, UpdatedAt: 1}); err != nil {
			return err
		}
		return fmt.Errorf("abort")
	})
	require.Error(t, err)

	n, err := database.Queries().KVHas(ctx, "k")
	require.NoError(t, err)
	assert.Zero(t, n)
}
