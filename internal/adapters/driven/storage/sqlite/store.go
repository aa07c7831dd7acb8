package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/docrag/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// LedgerFile is the database file name inside the data directory.
const LedgerFile = "ledger.db"

var _ driven.UploadLedger = (*Store)(nil)

// Store is the SQLite-backed upload ledger.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (creating if needed) the ledger in dataDir.
// If dataDir is empty, defaults to ~/.docrag/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("sqlite: getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".docrag", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("sqlite: creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, LedgerFile)

	// WAL lets the HTTP server read while an ingestion writes.
	db, err := openDB(fileDSN(dbPath, "journal_mode(WAL)", "busy_timeout(5000)"))
	if err != nil {
		return nil, err
	}

	if err := migrate(db, migrations.Ledger); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return &Store{db: db, path: dbPath}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Record inserts or replaces the row for (tenant, filename).
// CreatedAt of an existing row is preserved.
func (s *Store) Record(ctx context.Context, rec domain.UploadRecord) error {
	now := time.Now().UTC()
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = now
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = rec.UpdatedAt
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO uploads (tenant, filename, format, chunks, index_path, raw_key, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(tenant, filename) DO UPDATE SET
			format = excluded.format,
			chunks = excluded.chunks,
			index_path = excluded.index_path,
			raw_key = excluded.raw_key,
			updated_at = excluded.updated_at
	`, rec.Tenant, rec.Filename, string(rec.Format), rec.Chunks, rec.IndexPath, rec.RawKey,
		rec.CreatedAt.UTC(), rec.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("sqlite: saving upload: %w", err)
	}
	return nil
}

// Get returns the row for (tenant, filename) or domain.ErrNotFound.
func (s *Store) Get(ctx context.Context, tenant, filename string) (*domain.UploadRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT tenant, filename, format, chunks, index_path, raw_key, created_at, updated_at
		FROM uploads WHERE tenant = ? AND filename = ?
	`, tenant, filename)
	if err != nil {
		return nil, fmt.Errorf("sqlite: querying upload: %w", err)
	}
	defer rows.Close()

	records, err := scanUploads(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, domain.ErrNotFound
	}
	return &records[0], nil
}

// List returns a tenant's rows, most recently updated first.
func (s *Store) List(ctx context.Context, tenant string) ([]domain.UploadRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT tenant, filename, format, chunks, index_path, raw_key, created_at, updated_at
		FROM uploads WHERE tenant = ?
		ORDER BY updated_at DESC, filename ASC
	`, tenant)
	if err != nil {
		return nil, fmt.Errorf("sqlite: querying uploads: %w", err)
	}
	defer rows.Close()

	return scanUploads(rows)
}

func scanUploads(rows *sql.Rows) ([]domain.UploadRecord, error) {
	var records []domain.UploadRecord
	for rows.Next() {
		var rec domain.UploadRecord
		var format string
		var createdAt, updatedAt sql.NullTime
		if err := rows.Scan(&rec.Tenant, &rec.Filename, &format, &rec.Chunks,
			&rec.IndexPath, &rec.RawKey, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning upload: %w", err)
		}
		rec.Format = domain.Format(format)
		if createdAt.Valid {
			rec.CreatedAt = createdAt.Time
		}
		if updatedAt.Valid {
			rec.UpdatedAt = updatedAt.Time
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating uploads: %w", err)
	}
	return records, nil
}

// fileDSN builds a file: URI for path with each pragma as a _pragma
// parameter. The driver cuts plain paths at the first '?', so the path is
// escaped and passed through SQLite's URI parser instead.
func fileDSN(path string, pragmas ...string) string {
	params := make(url.Values)
	for _, p := range pragmas {
		params.Add("_pragma", p)
	}
	dsn := "file:" + (&url.URL{Path: filepath.ToSlash(path)}).EscapedPath()
	if len(params) > 0 {
		dsn += "?" + params.Encode()
	}
	return dsn
}

func openDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	return db, nil
}

// migrate applies every NNN_name.up.sql in fsys newer than the recorded
// schema version, each in its own transaction.
func migrate(db *sql.DB, fsys fs.FS) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	if err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if err := applyMigration(db, version, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

func applyMigration(db *sql.DB, version int, script string) (err error) {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, tx.Rollback())
		}
	}()

	if _, err = tx.Exec(script); err != nil {
		return err
	}
	if _, err = tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return err
	}
	return tx.Commit()
}
