package watch

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

type ingested struct {
	Tenant   string
	Filename string
	Body     string
}

type mockIngest struct {
	mu    sync.Mutex
	calls []ingested
	err   error
}

func (m *mockIngest) Ingest(_ context.Context, req driving.IngestRequest) (*domain.IngestResult, error) {
	body, _ := io.ReadAll(req.Body)
	m.mu.Lock()
	m.calls = append(m.calls, ingested{Tenant: req.Tenant, Filename: req.Filename, Body: string(body)})
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return &domain.IngestResult{Tenant: req.Tenant, Filename: req.Filename, Format: domain.FormatText, Chunks: 1}, nil
}

func (m *mockIngest) Calls() []ingested {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ingested(nil), m.calls...)
}

// startWatcher runs w in the background and returns a results channel and a stop func.
func startWatcher(t *testing.T, svc driving.IngestService, dir string, opts ...Option) (<-chan Result, func()) {
	t.Helper()
	results := make(chan Result, 16)
	opts = append([]Option{
		WithSettle(50 * time.Millisecond),
		WithResultHandler(func(r Result) { results <- r }),
	}, opts...)

	w, err := New(svc, dir, "acme", opts...)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Let the watcher register before files are written
	time.Sleep(100 * time.Millisecond)

	return results, func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("watcher did not stop")
		}
	}
}

func waitResult(t *testing.T, results <-chan Result) Result {
	t.Helper()
	select {
	case r := <-results:
		return r
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for ingest")
		return Result{}
	}
}

func TestNew(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	t.Run("valid", func(t *testing.T) {
		w, err := New(&mockIngest{}, dir, "acme", WithSettle(time.Second))
		require.NoError(t, err)
		assert.Equal(t, dir, w.Dir())
		assert.Equal(t, time.Second, w.settle)
	})

	t.Run("ignores non-positive settle", func(t *testing.T) {
		w, err := New(&mockIngest{}, dir, "acme", WithSettle(0))
		require.NoError(t, err)
		assert.Equal(t, DefaultSettle, w.settle)
	})

	t.Run("missing service", func(t *testing.T) {
		_, err := New(nil, dir, "acme")
		assert.ErrorIs(t, err, ErrMissingIngestService)
	})

	t.Run("invalid tenant", func(t *testing.T) {
		_, err := New(&mockIngest{}, dir, "../escape")
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	})

	t.Run("missing directory", func(t *testing.T) {
		_, err := New(&mockIngest{}, filepath.Join(dir, "nope"), "acme")
		assert.Error(t, err)
	})

	t.Run("file instead of directory", func(t *testing.T) {
		_, err := New(&mockIngest{}, file, "acme")
		assert.ErrorContains(t, err, "not a directory")
	})
}

func TestWatcher_Accept(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(dir string) string
		op       fsnotify.Op
		expected bool
	}{
		{
			name: "create file",
			setup: func(dir string) string {
				p := filepath.Join(dir, "a.txt")
				_ = os.WriteFile(p, []byte("a"), 0o644)
				return p
			},
			op:       fsnotify.Create,
			expected: true,
		},
		{
			name: "write file",
			setup: func(dir string) string {
				p := filepath.Join(dir, "a.txt")
				_ = os.WriteFile(p, []byte("a"), 0o644)
				return p
			},
			op:       fsnotify.Write,
			expected: true,
		},
		{
			name: "chmod ignored",
			setup: func(dir string) string {
				p := filepath.Join(dir, "a.txt")
				_ = os.WriteFile(p, []byte("a"), 0o644)
				return p
			},
			op: fsnotify.Chmod,
		},
		{
			name:  "remove ignored",
			setup: func(dir string) string { return filepath.Join(dir, "gone.txt") },
			op:    fsnotify.Remove,
		},
		{
			name: "directory ignored",
			setup: func(dir string) string {
				p := filepath.Join(dir, "sub")
				_ = os.Mkdir(p, 0o755)
				return p
			},
			op: fsnotify.Create,
		},
		{
			name: "hidden file ignored",
			setup: func(dir string) string {
				p := filepath.Join(dir, ".part")
				_ = os.WriteFile(p, []byte("a"), 0o644)
				return p
			},
			op: fsnotify.Write,
		},
		{
			name:  "vanished file ignored",
			setup: func(dir string) string { return filepath.Join(dir, "vanished.txt") },
			op:    fsnotify.Create,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			w, err := New(&mockIngest{}, dir, "acme")
			require.NoError(t, err)

			path := tt.setup(dir)
			got, ok := w.accept(fsnotify.Event{Name: path, Op: tt.op})

			assert.Equal(t, tt.expected, ok)
			if tt.expected {
				assert.Equal(t, path, got)
			}
		})
	}
}

func TestIsHidden(t *testing.T) {
	assert.True(t, isHidden(".swp"))
	assert.False(t, isHidden("report.pdf"))
	assert.False(t, isHidden("."))
	assert.False(t, isHidden(".."))
}

func TestWatcher_IngestsNewFile(t *testing.T) {
	dir := t.TempDir()
	svc := &mockIngest{}
	results, stop := startWatcher(t, svc, dir)
	defer stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello inbox"), 0o644))

	r := waitResult(t, results)
	require.NoError(t, r.Err)
	assert.Equal(t, filepath.Join(dir, "notes.txt"), r.Path)
	require.NotNil(t, r.Result)
	assert.Equal(t, "notes.txt", r.Result.Filename)

	calls := svc.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, ingested{Tenant: "acme", Filename: "notes.txt", Body: "hello inbox"}, calls[0])
}

func TestWatcher_DebouncesRepeatedWrites(t *testing.T) {
	dir := t.TempDir()
	svc := &mockIngest{}
	results, stop := startWatcher(t, svc, dir, WithSettle(300*time.Millisecond))
	defer stop()

	path := filepath.Join(dir, "growing.txt")
	f, err := os.Create(path)
	require.NoError(t, err)
	for _, part := range []string{"one ", "two ", "three"} {
		_, err := f.WriteString(part)
		require.NoError(t, err)
		time.Sleep(20 * time.Millisecond)
	}
	require.NoError(t, f.Close())

	r := waitResult(t, results)
	require.NoError(t, r.Err)

	// No second ingestion follows the first
	select {
	case extra := <-results:
		t.Fatalf("unexpected second ingestion: %+v", extra)
	case <-time.After(500 * time.Millisecond):
	}

	calls := svc.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "one two three", calls[0].Body)
}

func TestWatcher_ReportsIngestErrors(t *testing.T) {
	dir := t.TempDir()
	svc := &mockIngest{err: domain.ErrUnsupportedFormat}
	results, stop := startWatcher(t, svc, dir)
	defer stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "blob.bin"), []byte{0, 1, 2}, 0o644))

	r := waitResult(t, results)
	assert.ErrorIs(t, r.Err, domain.ErrUnsupportedFormat)
	assert.Nil(t, r.Result)
}

func TestWatcher_IngestsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "old.txt"), []byte("already here"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden"), []byte("skip"), 0o644))
	svc := &mockIngest{}

	results, stop := startWatcher(t, svc, dir, WithExisting(true))
	defer stop()

	r := waitResult(t, results)
	require.NoError(t, r.Err)
	assert.Equal(t, "old.txt", r.Result.Filename)

	select {
	case extra := <-results:
		t.Fatalf("hidden file was ingested: %+v", extra)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_StopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	w, err := New(&mockIngest{}, dir, "acme", WithSettle(time.Hour))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	time.Sleep(100 * time.Millisecond)

	// A pending timer must not hold up shutdown
	require.NoError(t, os.WriteFile(filepath.Join(dir, "late.txt"), []byte("x"), 0o644))
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcher_RunFailsWhenDirRemoved(t *testing.T) {
	dir := t.TempDir()
	w, err := New(&mockIngest{}, dir, "acme")
	require.NoError(t, err)
	require.NoError(t, os.Remove(dir))

	err = w.Run(context.Background())

	assert.Error(t, err)
	assert.False(t, errors.Is(err, context.Canceled))
}
