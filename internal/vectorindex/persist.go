package vectorindex

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// On-disk layout.
const (
	FormatVersion = 1
	ManifestFile  = "manifest.toml"
	VectorsFile   = "vectors.bin"
	RecordsFile   = "records.db"

	metricCosine = "cosine"
)

// manifest is the version marker and shape of a persisted index.
type manifest struct {
	FormatVersion int       `toml:"format_version"`
	Model         string    `toml:"model"`
	Dimensions    int       `toml:"dimensions"`
	Count         int       `toml:"count"`
	Metric        string    `toml:"metric"`
	CreatedAt     time.Time `toml:"created_at"`
}

// Save writes the index to path, replacing any index already there.
// Nothing is left behind if writing fails or ctx is cancelled.
func (idx *Index) Save(ctx context.Context, path string) (err error) {
	if idx.records == nil {
		return errors.New("vectorindex: index has no record store")
	}
	if len(idx.chunks) == 0 {
		return fmt.Errorf("vectorindex: %w: no chunks to save", domain.ErrEmptyInput)
	}

	parent := filepath.Dir(path)
	if err := os.MkdirAll(parent, 0700); err != nil {
		return fmt.Errorf("vectorindex: creating %s: %w", parent, err)
	}

	// Short names keep the scratch entries within NAME_MAX whatever the
	// length of the index's own name.
	tmp, err := os.MkdirTemp(parent, ".tmp-")
	if err != nil {
		return fmt.Errorf("vectorindex: creating temp directory: %w", err)
	}
	defer func() {
		if err != nil {
			os.RemoveAll(tmp)
		}
	}()

	if err = writeFileSync(filepath.Join(tmp, VectorsFile), encodeVectors(idx.vectors)); err != nil {
		return fmt.Errorf("vectorindex: writing vectors: %w", err)
	}
	if err = ctx.Err(); err != nil {
		return err
	}

	recordsPath := filepath.Join(tmp, RecordsFile)
	if err = idx.records.WriteRecords(ctx, recordsPath, idx.chunks); err != nil {
		return fmt.Errorf("vectorindex: writing records: %w", err)
	}
	if _, err = os.Stat(recordsPath); err != nil {
		return fmt.Errorf("vectorindex: records not written: %w", err)
	}

	// The manifest goes last: a directory without one is never valid.
	data, err := toml.Marshal(manifest{
		FormatVersion: FormatVersion,
		Model:         idx.model,
		Dimensions:    idx.dims,
		Count:         len(idx.chunks),
		Metric:        metricCosine,
		CreatedAt:     time.Now().UTC().Truncate(time.Second),
	})
	if err != nil {
		return fmt.Errorf("vectorindex: encoding manifest: %w", err)
	}
	if err = writeFileSync(filepath.Join(tmp, ManifestFile), data); err != nil {
		return fmt.Errorf("vectorindex: writing manifest: %w", err)
	}
	if err = syncDir(tmp); err != nil {
		return fmt.Errorf("vectorindex: %w", err)
	}
	if err = ctx.Err(); err != nil {
		return err
	}

	return swapInto(tmp, path)
}

// swapInto renames dir to path. An existing directory at path is moved
// aside first and removed once the new one is in place.
func swapInto(dir, path string) error {
	old := ""
	if _, err := os.Stat(path); err == nil {
		old = filepath.Join(filepath.Dir(path), ".old-"+uuid.NewString())
		if err := os.Rename(path, old); err != nil {
			return fmt.Errorf("vectorindex: moving previous index aside: %w", err)
		}
	}

	if err := os.Rename(dir, path); err != nil {
		if old != "" {
			_ = os.Rename(old, path)
		}
		return fmt.Errorf("vectorindex: renaming index into place: %w", err)
	}

	_ = syncDir(filepath.Dir(path))
	if old != "" {
		_ = os.RemoveAll(old)
	}
	return nil
}

// Load reads the index persisted at path. The index must have been built
// with a model of the same dimensions as the store's embedding service.
func (s *Store) Load(ctx context.Context, path string) (driven.VectorIndex, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("vectorindex: %w: %s", domain.ErrIndexNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("vectorindex: %w", err)
	}
	if !info.IsDir() {
		return nil, corrupt(path, "not a directory")
	}

	raw, err := os.ReadFile(filepath.Join(path, ManifestFile))
	if err != nil {
		return nil, corrupt(path, "manifest unreadable: %v", err)
	}
	var m manifest
	if err := toml.Unmarshal(raw, &m); err != nil {
		return nil, corrupt(path, "manifest invalid: %v", err)
	}
	switch {
	case m.FormatVersion != FormatVersion:
		return nil, corrupt(path, "format version %d, want %d", m.FormatVersion, FormatVersion)
	case m.Dimensions <= 0 || m.Count <= 0:
		return nil, corrupt(path, "manifest shape %dx%d", m.Count, m.Dimensions)
	case m.Dimensions != s.embedder.Dimensions():
		return nil, corrupt(path, "index has %d dimensions, %s produces %d",
			m.Dimensions, s.embedder.ModelName(), s.embedder.Dimensions())
	}

	data, err := os.ReadFile(filepath.Join(path, VectorsFile))
	if err != nil {
		return nil, corrupt(path, "vectors unreadable: %v", err)
	}
	if want := m.Count * m.Dimensions * 4; len(data) != want {
		return nil, corrupt(path, "vectors file is %d bytes, want %d", len(data), want)
	}

	chunks, err := s.records.ReadRecords(ctx, filepath.Join(path, RecordsFile))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, corrupt(path, "records unreadable: %v", err)
	}
	if len(chunks) != m.Count {
		return nil, corrupt(path, "%d records, manifest says %d", len(chunks), m.Count)
	}

	return &Index{
		model:   m.Model,
		dims:    m.Dimensions,
		chunks:  chunks,
		vectors: decodeVectors(data, m.Dimensions),
		records: s.records,
	}, nil
}

func corrupt(path, format string, args ...any) error {
	return fmt.Errorf("vectorindex: %w: %s: %s", domain.ErrCorruptIndex, path, fmt.Sprintf(format, args...))
}

// encodeVectors flattens vectors into little-endian float32 bytes.
func encodeVectors(vectors [][]float32) []byte {
	if len(vectors) == 0 {
		return nil
	}
	dims := len(vectors[0])
	buf := make([]byte, len(vectors)*dims*4)
	off := 0
	for _, v := range vectors {
		for _, f := range v {
			binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(f))
			off += 4
		}
	}
	return buf
}

// decodeVectors splits little-endian float32 bytes into rows of dims.
func decodeVectors(data []byte, dims int) [][]float32 {
	count := len(data) / (dims * 4)
	vectors := make([][]float32, count)
	for i := range vectors {
		row := make([]float32, dims)
		base := i * dims * 4
		for j := range row {
			row[j] = math.Float32frombits(binary.LittleEndian.Uint32(data[base+j*4:]))
		}
		vectors[i] = row
	}
	return vectors
}

func writeFileSync(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	if err := d.Sync(); err != nil {
		return fmt.Errorf("syncing %s: %w", dir, err)
	}
	return nil
}
