// Command docrag answers questions about uploaded documents.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/docrag/internal/adapters/driven/ai"
	"github.com/custodia-labs/docrag/internal/adapters/driven/blob/filesystem"
	"github.com/custodia-labs/docrag/internal/adapters/driven/blob/gcs"
	"github.com/custodia-labs/docrag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docrag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docrag/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docrag/internal/adapters/driving/cli"
	"github.com/custodia-labs/docrag/internal/chunker"
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/core/services"
	"github.com/custodia-labs/docrag/internal/extractors"
	"github.com/custodia-labs/docrag/internal/logger"
	"github.com/custodia-labs/docrag/internal/sniffer"
	"github.com/custodia-labs/docrag/internal/vectorindex"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Missing .env is fine.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	home, err := homeDir()
	if err != nil {
		logger.Error("resolving home directory", "error", err)
		return err
	}

	var configStore driven.ConfigStore
	if cs, err := file.NewConfigStore(home); err != nil {
		logger.Warn("config file unavailable, using defaults for this run", "error", err)
		configStore = memory.NewConfigStore()
	} else {
		configStore = cs
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())
	cli.SetVersion(version)

	// Settings commands must work even when the rest cannot be built.
	svcs := cli.Services{Settings: settingsService}
	cleanup, err := wire(ctx, home, settingsService, &svcs)
	if err != nil {
		logger.Warn("services unavailable", "error", err)
	}
	defer cleanup()

	cli.SetServices(svcs)
	return cli.Execute(ctx)
}

// wire builds the ingest, ask and file services into svcs. The returned
// cleanup is always safe to call.
func wire(ctx context.Context, home string, settingsService *services.SettingsService, svcs *cli.Services) (func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	settings, err := settingsService.Get()
	if err != nil {
		return cleanup, fmt.Errorf("loading settings: %w", err)
	}

	ledger, err := sqlite.NewStore(home)
	if err != nil {
		return cleanup, err
	}
	closers = append(closers, func() { _ = ledger.Close() })

	blobs, err := newBlobStore(ctx, home, settings.Storage)
	if err != nil {
		return cleanup, err
	}
	svcs.Files = services.NewFileService(ledger, blobs, settings.Storage.LinkTTL)

	aiServices, err := ai.Init(settings)
	if err != nil {
		return cleanup, err
	}
	closers = append(closers, aiServices.Close)
	for _, w := range aiServices.Warnings {
		logger.Warn(w)
	}

	splitter, err := chunker.New(
		chunker.WithChunkSize(settings.Chunking.Size),
		chunker.WithOverlap(settings.Chunking.Overlap),
	)
	if err != nil {
		return cleanup, fmt.Errorf("chunking settings: %w", err)
	}

	indexes := vectorindex.NewStore(aiServices.EmbeddingService, sqlite.NewRecordStore(),
		vectorindex.WithBatchSize(settings.Embedding.BatchSize),
		vectorindex.WithWorkers(settings.Embedding.Workers),
		vectorindex.WithRateLimit(settings.Embedding.RatePerSecond),
	)

	ingest := services.NewIngestService(sniffer.New(), extractors.NewDefaultRegistry(), splitter, indexes, home)
	ingest.SetBlobStore(blobs)
	ingest.SetLedger(ledger)
	svcs.Ingest = ingest

	var prompts driven.PromptStore
	if ps, err := file.NewPromptStore(filepath.Join(home, "prompts")); err != nil {
		logger.Warn("prompt templates unavailable, using defaults", "error", err)
	} else {
		prompts = ps
	}
	svcs.Ask = services.NewAskService(indexes, aiServices.EmbeddingService, aiServices.LLMService,
		prompts, home, settings)

	return cleanup, nil
}

func newBlobStore(ctx context.Context, home string, cfg domain.StorageSettings) (driven.BlobStore, error) {
	switch cfg.Provider {
	case domain.BlobProviderMemory:
		return memory.NewBlobStore(), nil
	case domain.BlobProviderGCS:
		return gcs.New(ctx, gcs.Config{
			Bucket:          cfg.Bucket,
			CredentialsFile: cfg.CredentialsFile,
			AccessToken:     cfg.AccessToken,
		})
	default:
		root := cfg.Root
		if root == "" {
			root = filepath.Join(home, "blobs")
		}
		return filesystem.New(root)
	}
}

// homeDir returns DOCRAG_HOME or ~/.docrag.
func homeDir() (string, error) {
	if dir := os.Getenv("DOCRAG_HOME"); dir != "" {
		return dir, nil
	}
	return file.DefaultHome()
}
