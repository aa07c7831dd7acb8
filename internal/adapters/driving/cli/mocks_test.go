package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

// mockIngestService records every request and returns a fixed result.
type mockIngestService struct {
	mu       sync.Mutex
	requests []driving.IngestRequest
	bodies   []string
	fail     map[string]error
}

func (m *mockIngestService) Ingest(_ context.Context, req driving.IngestRequest) (*domain.IngestResult, error) {
	data, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	m.bodies = append(m.bodies, string(data))
	if err := m.fail[req.Filename]; err != nil {
		return nil, err
	}
	return &domain.IngestResult{
		Tenant:    req.Tenant,
		Filename:  req.Filename,
		Format:    domain.FormatText,
		Segments:  1,
		Chunks:    2,
		IndexPath: req.Tenant + "/" + req.Filename + ".idx",
		RawKey:    req.Tenant + "/" + req.Filename,
	}, nil
}

func (m *mockIngestService) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// mockAskService answers every question with the same text and sources.
type mockAskService struct {
	requests []driving.AskRequest
	AskFunc  func(ctx context.Context, req driving.AskRequest) (*domain.Answer, error)
}

func (m *mockAskService) Ask(ctx context.Context, req driving.AskRequest) (*domain.Answer, error) {
	m.requests = append(m.requests, req)
	if m.AskFunc != nil {
		return m.AskFunc(ctx, req)
	}
	return &domain.Answer{
		ID:       "answer-1",
		Question: req.Question,
		Text:     "The report covers Q3 revenue.",
		State:    domain.QueryStateDone,
		Turns:    1,
		Sources: []domain.ScoredChunk{
			{
				Chunk: domain.Chunk{
					Content:  "Revenue grew   in Q3.",
					Metadata: map[string]any{"source": "report.txt", "chunk_id": 0},
				},
				Score: 0.912,
				Rank:  1,
			},
		},
	}, nil
}

// mockFileService serves a fixed set of records.
type mockFileService struct {
	records []domain.UploadRecord
	links   map[string]string
	err     error
}

func (m *mockFileService) List(_ context.Context, tenant string) ([]domain.UploadRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.UploadRecord
	for _, r := range m.records {
		if r.Tenant == tenant {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockFileService) Link(_ context.Context, tenant, filename string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	url, ok := m.links[tenant+"/"+filename]
	if !ok {
		return "", domain.ErrNotFound
	}
	return url, nil
}

// mockSettingsService keeps settings in memory.
type mockSettingsService struct {
	settings    domain.AppSettings
	validateErr error
	pingErr     error
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{settings: domain.DefaultAppSettings()}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(s *domain.AppSettings) error {
	m.settings = *s
	return nil
}

func (m *mockSettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return errors.New("invalid provider")
	}
	m.settings.Embedding.Provider = provider
	m.settings.Embedding.Model = model
	m.settings.Embedding.APIKey = apiKey
	return nil
}

func (m *mockSettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return errors.New("invalid provider")
	}
	m.settings.LLM.Provider = provider
	m.settings.LLM.Model = model
	m.settings.LLM.APIKey = apiKey
	return nil
}

func (m *mockSettingsService) Validate() error { return m.validateErr }

func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }

func (m *mockSettingsService) ValidateEmbeddingConfig() error { return m.pingErr }

func (m *mockSettingsService) ValidateLLMConfig() error { return m.pingErr }

// testServices groups the mocks installed by setupTestServices.
type testServices struct {
	ingest   *mockIngestService
	ask      *mockAskService
	files    *mockFileService
	settings *mockSettingsService
}

// setupTestServices installs mock services and returns a cleanup function
// that removes them and resets command state.
func setupTestServices() (*testServices, func()) {
	updated := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	ts := &testServices{
		ingest: &mockIngestService{},
		ask:    &mockAskService{},
		files: &mockFileService{
			records: []domain.UploadRecord{
				{Tenant: "acme", Filename: "report.pdf", Format: domain.FormatPDF, Chunks: 12, UpdatedAt: updated},
				{Tenant: "acme", Filename: "notes.txt", Format: domain.FormatText, Chunks: 3, UpdatedAt: updated},
				{Tenant: "other", Filename: "secret.csv", Format: domain.FormatCSV, Chunks: 1, UpdatedAt: updated},
			},
			links: map[string]string{"acme/report.pdf": "file:///data/blobs/acme/report.pdf"},
		},
		settings: newMockSettingsService(),
	}
	SetServices(Services{
		Ingest:   ts.ingest,
		Ask:      ts.ask,
		Files:    ts.files,
		Settings: ts.settings,
	})
	return ts, func() {
		SetServices(Services{})
		resetCommands()
	}
}

// runCommand executes the root command with args and returns everything
// written to stdout and stderr.
func runCommand(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

// runCommandWithInput is runCommand with stdin supplied by input.
func runCommandWithInput(input string, args ...string) (string, error) {
	rootCmd.SetIn(strings.NewReader(input))
	return runCommand(args...)
}

// resetCommands restores every flag to its default so tests do not leak
// values into each other.
func resetCommands() {
	var walk func(c *cobra.Command)
	walk = func(c *cobra.Command) {
		reset := func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
		c.Flags().VisitAll(reset)
		c.PersistentFlags().VisitAll(reset)
		for _, sub := range c.Commands() {
			walk(sub)
		}
	}
	walk(rootCmd)
}
