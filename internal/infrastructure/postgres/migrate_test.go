package postgres

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations_EmbebidasConFormatoGoose(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, migrationsDir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	for _, e := range entries {
		b, err := fs.ReadFile(migrationsFS, migrationsDir+"/"+e.Name())
		require.NoError(t, err)
		sql := string(b)
		assert.True(t, strings.HasPrefix(sql, "-- +goose Up"), e.Name())
		assert.Contains(t, sql, "-- +goose Down", e.Name())
		assert.Equal(t, strings.Count(sql, "-- +goose StatementBegin"), strings.Count(sql, "-- +goose StatementEnd"), e.Name())
	}
}

func TestMigrations_LedgerSoloInsercion(t *testing.T) {
	b, err := fs.ReadFile(migrationsFS, migrationsDir+"/00002_material_ledger.sql")
	require.NoError(t, err)
	sql := string(b)

	assert.Contains(t, sql, "AFTER INSERT ON material_transactions")
	assert.Contains(t, sql, "BEFORE UPDATE OR DELETE ON material_transactions")
}

func TestNullIfEmpty(t *testing.T) {
	assert.Nil(t, nullIfEmpty(""))
	require.NotNil(t, nullIfEmpty("x"))
	assert.Equal(t, "x", *nullIfEmpty("x"))
	assert.Equal(t, "", derefString(nil))
}

func TestMigrations_ReglaUnicaPorPar(t *testing.T) {
	b, err := fs.ReadFile(migrationsFS, migrationsDir+"/00003_consumption_rule_unique.sql")
	require.NoError(t, err)

	assert.Contains(t, string(b), "UNIQUE (org_id, material_id, size_id)")
	assert.Contains(t, insertRuleSQL, "ON CONFLICT (org_id, material_id, size_id) DO UPDATE",
		"un upsert concurrente reemplaza la regla en vez de duplicarla")
}

func TestMigrations_DevolucionUnicaPorConsumo(t *testing.T) {
	b, err := fs.ReadFile(migrationsFS, migrationsDir+"/00004_return_link.sql")
	require.NoError(t, err)

	assert.Contains(t, string(b), "UNIQUE INDEX IF NOT EXISTS uq_material_transactions_reverses")
}
