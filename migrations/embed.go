// Package migrations carries the Postgres schema for the document store.
// The API applies it with goose on startup when STORAGE_BACKEND=postgres.
package migrations

import "embed"

// FS is the embedded set of goose SQL files, in version order by name.
//
//go:embed *.sql
var FS embed.FS
