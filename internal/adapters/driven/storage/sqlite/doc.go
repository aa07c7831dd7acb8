// Package sqlite provides SQLite-backed implementations of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It provides two stores:
//
//   - Store: the upload ledger (which files each tenant has ingested)
//   - RecordStore: the records.db file inside each persisted index
//
// # Schema
//
// Schemas are managed through versioned migrations embedded from the
// migrations/ directory, one subdirectory per database kind. Applied versions
// are recorded in a schema_migrations table.
//
// # Data Location
//
// By default, the ledger is stored at ~/.docrag/data/ledger.db
//
// # Thread Safety
//
// The ledger is safe for concurrent use; it runs in WAL mode. A records file
// is written once by a single goroutine and read-only afterwards.
package sqlite
