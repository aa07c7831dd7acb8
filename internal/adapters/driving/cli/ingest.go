package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

var (
	ingestTenant string
	ingestName   string
	ingestJSON   bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>...",
	Short: "Upload and index files",
	Long: `Uploads one or more files for a tenant. Each file is stored, its text is
extracted and chunked, and a vector index is built for it.

Re-ingesting a file with the same name replaces its index.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestTenant, "tenant", "t", "", "tenant that owns the files (required)")
	ingestCmd.Flags().StringVar(&ingestName, "name", "", "store a single file under this name")
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "output results as JSON")
	_ = ingestCmd.MarkFlagRequired("tenant")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}
	if ingestName != "" && len(args) > 1 {
		return errors.New("--name can only be used with a single file")
	}

	var (
		results []*domain.IngestResult
		failed  int
	)
	for _, path := range args {
		name := filepath.Base(path)
		if ingestName != "" {
			name = ingestName
		}

		res, err := ingestFile(cmd, path, name)
		if err != nil {
			failed++
			cmd.PrintErrf("Failed to ingest %s: %v\n", path, err)
			continue
		}
		results = append(results, res)
		if !ingestJSON {
			printIngestResult(cmd, res)
		}
	}

	if ingestJSON {
		out := make([]ingestResultJSON, 0, len(results))
		for _, res := range results {
			out = append(out, newIngestResultJSON(res))
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		cmd.Println(string(data))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed to ingest", failed, len(args))
	}
	return nil
}

type ingestResultJSON struct {
	Tenant        string   `json:"tenant"`
	Filename      string   `json:"filename"`
	Format        string   `json:"format"`
	Segments      int      `json:"segments"`
	Chunks        int      `json:"chunks"`
	IndexPath     string   `json:"index_path"`
	RawKey        string   `json:"raw_key,omitempty"`
	FailedUploads []string `json:"failed_uploads,omitempty"`
}

func newIngestResultJSON(res *domain.IngestResult) ingestResultJSON {
	out := ingestResultJSON{
		Tenant:    res.Tenant,
		Filename:  res.Filename,
		Format:    string(res.Format),
		Segments:  res.Segments,
		Chunks:    res.Chunks,
		IndexPath: res.IndexPath,
		RawKey:    res.RawKey,
	}
	if res.Transfer != nil {
		for _, fe := range res.Transfer.Failed {
			out.FailedUploads = append(out.FailedUploads, fe.Error())
		}
	}
	return out
}

func ingestFile(cmd *cobra.Command, path, name string) (*domain.IngestResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ingestService.Ingest(cmd.Context(), driving.IngestRequest{
		Tenant:   ingestTenant,
		Filename: name,
		Body:     f,
	})
}

func printIngestResult(cmd *cobra.Command, res *domain.IngestResult) {
	cmd.Printf("Ingested %s (%s): %d segments, %d chunks\n", res.Filename, res.Format, res.Segments, res.Chunks)
	if res.RawKey != "" {
		cmd.Printf("  Stored as: %s\n", res.RawKey)
	}
	if res.Transfer != nil && !res.Transfer.OK() {
		for _, fe := range res.Transfer.Failed {
			cmd.Printf("  Warning: %s was not stored: %s\n", fe.Path, fe.Err)
		}
	}
}
