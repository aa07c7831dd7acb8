// Package migrations embeds SQL migration files for the SQLite stores.
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed ledger/*.sql records/*.sql
var files embed.FS

// Ledger holds migrations for the upload ledger database.
var Ledger = mustSub("ledger")

// Records holds migrations for the records.db file inside each index.
var Records = mustSub("records")

func mustSub(dir string) fs.FS {
	sub, err := fs.Sub(files, dir)
	if err != nil {
		panic(err)
	}
	return sub
}
