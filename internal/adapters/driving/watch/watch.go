// Package watch ingests files dropped into an inbox directory.
//
// The watcher reacts to create and write events, waits for a file to stop
// changing, then hands it to the ingest service under a fixed tenant.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
	"github.com/custodia-labs/docrag/internal/logger"
)

// DefaultSettle is how long a file must be quiet before it is ingested.
const DefaultSettle = 500 * time.Millisecond

// ErrMissingIngestService is returned when no ingest service is provided.
var ErrMissingIngestService = errors.New("watch: ingest service is required")

// Result reports the outcome of ingesting one file.
type Result struct {
	Path   string
	Result *domain.IngestResult
	Err    error
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithSettle overrides the quiet period before ingestion.
func WithSettle(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.settle = d
		}
	}
}

// WithResultHandler registers a callback invoked after every ingestion.
// It runs on the ingesting goroutine and must not block for long.
func WithResultHandler(fn func(Result)) Option {
	return func(w *Watcher) {
		w.onResult = fn
	}
}

// WithExisting ingests files already present in the directory on start.
func WithExisting(enabled bool) Option {
	return func(w *Watcher) {
		w.existing = enabled
	}
}

// Watcher ingests new and modified files from a directory.
type Watcher struct {
	ingest   driving.IngestService
	dir      string
	tenant   string
	settle   time.Duration
	existing bool
	onResult func(Result)

	mu      sync.Mutex
	pending map[string]*time.Timer
	wg      sync.WaitGroup
}

// New creates a watcher for dir that ingests under tenant.
func New(ingest driving.IngestService, dir, tenant string, opts ...Option) (*Watcher, error) {
	if ingest == nil {
		return nil, ErrMissingIngestService
	}
	if err := domain.ValidatePathComponent(tenant); err != nil {
		return nil, fmt.Errorf("tenant %q: %w", tenant, err)
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("watch dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch dir %s: not a directory", dir)
	}

	w := &Watcher{
		ingest:  ingest,
		dir:     dir,
		tenant:  tenant,
		settle:  DefaultSettle,
		pending: make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Dir returns the watched directory.
func (w *Watcher) Dir() string {
	return w.dir
}

// Run watches until ctx is cancelled, then waits for in-flight ingestions.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	logger.Info("watching directory", "dir", w.dir, "tenant", w.tenant)

	if w.existing {
		if err := w.scanExisting(ctx); err != nil {
			return err
		}
	}

	defer w.drain()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if path, ok := w.accept(ev); ok {
				w.schedule(ctx, path)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "dir", w.dir, "error", err)
		}
	}
}

// accept returns the path to ingest for ev, if any. Directories, hidden
// files and events other than create and write are ignored.
func (w *Watcher) accept(ev fsnotify.Event) (string, bool) {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return "", false
	}
	if isHidden(filepath.Base(ev.Name)) {
		return "", false
	}
	info, err := os.Stat(ev.Name)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return ev.Name, true
}

func (w *Watcher) scanExisting(ctx context.Context) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", w.dir, err)
	}
	for _, e := range entries {
		if !e.Type().IsRegular() || isHidden(e.Name()) {
			continue
		}
		w.schedule(ctx, filepath.Join(w.dir, e.Name()))
	}
	return nil
}

// schedule (re)starts the settle timer for path.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok && t.Stop() {
		t.Reset(w.settle)
		return
	}

	w.wg.Add(1)
	var t *time.Timer
	t = time.AfterFunc(w.settle, func() {
		defer w.wg.Done()
		w.mu.Lock()
		if w.pending[path] == t {
			delete(w.pending, path)
		}
		w.mu.Unlock()
		if ctx.Err() != nil {
			return
		}
		w.ingestFile(ctx, path)
	})
	w.pending[path] = t
}

// drain cancels timers that have not fired and waits for running ingestions.
func (w *Watcher) drain() {
	w.mu.Lock()
	for path, t := range w.pending {
		if t.Stop() {
			w.wg.Done()
		}
		delete(w.pending, path)
	}
	w.mu.Unlock()
	w.wg.Wait()
}

func (w *Watcher) ingestFile(ctx context.Context, path string) {
	res := Result{Path: path}

	f, err := os.Open(path)
	if err != nil {
		res.Err = fmt.Errorf("opening %s: %w", path, err)
		w.report(res)
		return
	}
	defer f.Close()

	res.Result, res.Err = w.ingest.Ingest(ctx, driving.IngestRequest{
		Tenant:   w.tenant,
		Filename: filepath.Base(path),
		Body:     f,
	})
	w.report(res)
}

func (w *Watcher) report(res Result) {
	if res.Err != nil {
		logger.Warn("ingest failed", "path", res.Path, "error", res.Err)
	} else if res.Result != nil {
		logger.Info("ingested", "path", res.Path, "chunks", res.Result.Chunks, "format", res.Result.Format)
	}
	if w.onResult != nil {
		w.onResult(res)
	}
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}
