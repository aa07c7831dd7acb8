package services

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// mockEmbedder returns a fixed vector for every text.
type mockEmbedder struct {
	model  string
	vector []float32
	err    error
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.vector, nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := m.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int            { return len(m.vector) }
func (m *mockEmbedder) ModelName() string          { return m.model }
func (m *mockEmbedder) Ping(context.Context) error { return nil }
func (m *mockEmbedder) Close() error               { return nil }

// mockIndex returns canned hits.
type mockIndex struct {
	model    string
	hits     []domain.ScoredChunk
	queryErr error
	lastK    int
}

func (m *mockIndex) Query(_ []float32, k int) ([]domain.ScoredChunk, error) {
	m.lastK = k
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	if k < len(m.hits) {
		return m.hits[:k], nil
	}
	return m.hits, nil
}

func (m *mockIndex) Save(context.Context, string) error { return nil }
func (m *mockIndex) Model() string                      { return m.model }
func (m *mockIndex) Dimensions() int                    { return 2 }
func (m *mockIndex) Len() int                           { return len(m.hits) }

// mockIndexStore serves one index or one load error.
type mockIndexStore struct {
	index    driven.VectorIndex
	loadErr  error
	loadPath string
}

func (m *mockIndexStore) Build(context.Context, []domain.Chunk) (driven.VectorIndex, error) {
	return nil, errors.New("not used")
}

func (m *mockIndexStore) Load(_ context.Context, path string) (driven.VectorIndex, error) {
	m.loadPath = path
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.index, nil
}

// mockLLM replays scripted replies and records every conversation.
type mockLLM struct {
	mu      sync.Mutex
	replies []*driven.Completion
	err     error
	calls   [][]driven.ChatMessage
	opts    []driven.ChatOptions
}

func (m *mockLLM) Chat(_ context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (*driven.Completion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, append([]driven.ChatMessage(nil), messages...))
	m.opts = append(m.opts, opts)
	if m.err != nil {
		return nil, m.err
	}
	if len(m.replies) == 0 {
		return &driven.Completion{}, nil
	}
	reply := m.replies[0]
	if len(m.replies) > 1 {
		m.replies = m.replies[1:]
	}
	return reply, nil
}

func (m *mockLLM) ModelName() string          { return "mock-llm" }
func (m *mockLLM) Ping(context.Context) error { return nil }
func (m *mockLLM) Close() error               { return nil }

// mockPrompts serves prompts from a map.
type mockPrompts struct {
	prompts map[string]string
}

func (m *mockPrompts) Load(name string) (string, error) {
	p, ok := m.prompts[name]
	if !ok {
		return "", errors.New("no prompt")
	}
	return p, nil
}

func (m *mockPrompts) Reload() {}

// mockLedger is an in-memory upload ledger.
type mockLedger struct {
	mu      sync.Mutex
	records map[string]domain.UploadRecord
	err     error
}

func newMockLedger() *mockLedger {
	return &mockLedger{records: map[string]domain.UploadRecord{}}
}

func (m *mockLedger) Record(_ context.Context, rec domain.UploadRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	rec.UpdatedAt = time.Now()
	m.records[rec.Tenant+"/"+rec.Filename] = rec
	return nil
}

func (m *mockLedger) Get(_ context.Context, tenant, filename string) (*domain.UploadRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[tenant+"/"+filename]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}

func (m *mockLedger) List(_ context.Context, tenant string) ([]domain.UploadRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.UploadRecord
	for _, rec := range m.records {
		if rec.Tenant == tenant {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *mockLedger) Close() error { return nil }

// flakyBlobStore fails Put for the listed keys and stores the rest.
type flakyBlobStore struct {
	mu      sync.Mutex
	fail    map[string]bool
	failAll bool
	stored  map[string][]byte
}

func newFlakyBlobStore(failing ...string) *flakyBlobStore {
	b := &flakyBlobStore{fail: map[string]bool{}, stored: map[string][]byte{}}
	for _, k := range failing {
		b.fail[k] = true
	}
	return b
}

func (b *flakyBlobStore) Put(_ context.Context, key string, r io.Reader) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failAll || b.fail[key] {
		return errors.New("bucket unavailable")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	b.stored[key] = data
	return nil
}

func (b *flakyBlobStore) Link(_ context.Context, key string, _ time.Duration) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.stored[key]; !ok {
		return "", domain.ErrNotFound
	}
	return "blob://" + key, nil
}

func (b *flakyBlobStore) Exists(_ context.Context, key string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.stored[key]
	return ok, nil
}

func (b *flakyBlobStore) keys() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	keys := make([]string, 0, len(b.stored))
	for k := range b.stored {
		keys = append(keys, k)
	}
	return keys
}
