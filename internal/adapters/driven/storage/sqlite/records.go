package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/custodia-labs/docrag/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

var _ driven.RecordStore = (*RecordStore)(nil)

// RecordStore writes the chunk records of one index into a standalone
// SQLite file. Record ids are the chunk positions, matching the row order
// of the index's vectors file.
type RecordStore struct{}

// NewRecordStore creates a RecordStore.
func NewRecordStore() *RecordStore {
	return &RecordStore{}
}

// WriteRecords creates a new database at path holding chunks in order.
// An existing file at path is an error; callers write into fresh directories.
func (r *RecordStore) WriteRecords(ctx context.Context, path string, chunks []domain.Chunk) (err error) {
	if _, statErr := os.Stat(path); statErr == nil {
		return fmt.Errorf("sqlite: records file %s already exists", path)
	}

	// Single writer, no readers until the index is renamed into place.
	db, err := openDB(fileDSN(path, "journal_mode(DELETE)", "synchronous(FULL)"))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("sqlite: closing records: %w", cerr)
		}
	}()

	if err := migrate(db, migrations.Records); err != nil {
		return fmt.Errorf("sqlite: records schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin records: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO records (id, content, metadata) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("sqlite: prepare records: %w", err)
	}
	defer stmt.Close()

	for i, chunk := range chunks {
		meta := chunk.Metadata
		if meta == nil {
			meta = map[string]any{}
		}
		metaJSON, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("sqlite: marshalling metadata of record %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, i, chunk.Content, string(metaJSON)); err != nil {
			return fmt.Errorf("sqlite: inserting record %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit records: %w", err)
	}
	return nil
}

// ReadRecords returns the chunks stored at path in id order.
// A missing file is reported as domain.ErrIndexNotFound.
func (r *RecordStore) ReadRecords(ctx context.Context, path string) ([]domain.Chunk, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("sqlite: %w: %s", domain.ErrIndexNotFound, path)
		}
		return nil, fmt.Errorf("sqlite: %w", err)
	}

	db, err := openDB(fileDSN(path, "query_only(1)"))
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, "SELECT id, content, metadata FROM records ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("sqlite: querying records: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk
	for rows.Next() {
		var id int
		var content, metaJSON string
		if err := rows.Scan(&id, &content, &metaJSON); err != nil {
			return nil, fmt.Errorf("sqlite: scanning record: %w", err)
		}
		if id != len(chunks) {
			return nil, fmt.Errorf("sqlite: record ids not contiguous at %d", id)
		}

		var meta map[string]any
		if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
			return nil, fmt.Errorf("sqlite: unmarshalling metadata of record %d: %w", id, err)
		}
		if meta == nil {
			meta = map[string]any{}
		}
		chunks = append(chunks, domain.Chunk{Content: content, Metadata: meta})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating records: %w", err)
	}
	return chunks, nil
}
