package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docrag/internal/adapters/driving/watch"
)

var (
	watchTenant   string
	watchExisting bool
	watchSettle   time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Ingest files dropped into a directory",
	Long: `Watches a directory and ingests every file created or modified in it.

A file is ingested once it has stopped changing for the settle period.
Hidden files and subdirectories are ignored. Stop with Ctrl+C.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchTenant, "tenant", "t", "", "tenant that owns the files (required)")
	watchCmd.Flags().BoolVar(&watchExisting, "existing", false, "also ingest files already in the directory")
	watchCmd.Flags().DurationVar(&watchSettle, "settle", watch.DefaultSettle, "quiet period before a file is ingested")
	_ = watchCmd.MarkFlagRequired("tenant")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	w, err := watch.New(ingestService, args[0], watchTenant,
		watch.WithSettle(watchSettle),
		watch.WithExisting(watchExisting),
		watch.WithResultHandler(func(r watch.Result) {
			if r.Err != nil {
				cmd.PrintErrf("Failed to ingest %s: %v\n", r.Path, r.Err)
				return
			}
			printIngestResult(cmd, r.Result)
		}),
	)
	if err != nil {
		return err
	}

	cmd.Printf("Watching %s for tenant %s (Ctrl+C to stop)\n", w.Dir(), watchTenant)
	return w.Run(cmd.Context())
}
