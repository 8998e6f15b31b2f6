package testutil_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tripboard/migrations"
	"github.com/pkordes/tripboard/testutil"
)

// TestMigrations_DocumentsSchema applies the schema from scratch, checks the
// documents table has the shape the Postgres store relies on, rolls it back
// and finally re-applies it so the database is left migrated.
func TestMigrations_DocumentsSchema(t *testing.T) {
	db := testutil.NewSQLDB(t)
	ctx := context.Background()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	require.NoError(t, err)

	// Other packages may have migrated the shared database already.
	_, err = provider.DownTo(ctx, 0)
	require.NoError(t, err, "initial reset")
	t.Cleanup(func() { _, _ = provider.Up(context.Background()) })

	results, err := provider.Up(ctx)
	require.NoError(t, err, "goose up")
	require.NotEmpty(t, results)

	assert.Equal(t, map[string]string{
		"key":        "text",
		"body":       "jsonb",
		"created_at": "timestamp with time zone",
		"updated_at": "timestamp with time zone",
	}, columnTypes(t, db, "documents"))

	// Keys are unique, bodies round-trip as JSON.
	const insert = `INSERT INTO documents (key, body) VALUES ($1, $2::jsonb)`
	_, err = db.ExecContext(ctx, insert, "itinerary_test", `{"days":[],"ideas":[]}`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, insert, "itinerary_test", `{}`)
	require.Error(t, err, "duplicate key must be rejected")

	var days int
	err = db.QueryRowContext(ctx,
		`SELECT jsonb_array_length(body->'days') FROM documents WHERE key = $1`, "itinerary_test").Scan(&days)
	require.NoError(t, err)
	assert.Zero(t, days)

	_, err = provider.DownTo(ctx, 0)
	require.NoError(t, err, "goose down-to 0")
	assert.Empty(t, columnTypes(t, db, "documents"), "documents table should be dropped")
}

// columnTypes returns column name to data type for table in the public schema.
func columnTypes(t *testing.T, db *sql.DB, table string) map[string]string {
	t.Helper()

	rows, err := db.QueryContext(context.Background(), `
		SELECT column_name, data_type
		FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = $1`, table)
	require.NoError(t, err)
	defer rows.Close()

	out := map[string]string{}
	for rows.Next() {
		var name, typ string
		require.NoError(t, rows.Scan(&name, &typ))
		out[name] = typ
	}
	require.NoError(t, rows.Err())
	return out
}
