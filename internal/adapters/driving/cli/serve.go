package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/docrag/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/docrag/internal/adapters/driving/watch"
	"github.com/custodia-labs/docrag/internal/core/domain"
)

var (
	serveAddr         string
	serveBodyLimit    int
	serveInbox        string
	serveInboxTenant  string
	serveReadTimeout  time.Duration
	serveWriteTimeout time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the HTTP API.

Endpoints:
  GET  /health               liveness check
  POST /upload               multipart upload (fields: file, tenant)
  POST /ask                  JSON {tenant, filename, question, top_k}
  GET  /files?tenant=...     list ingested files
  GET  /files/link?tenant=...&filename=...

The tenant may also be sent in the X-Tenant header.

With --inbox, files dropped into the directory are ingested for
--inbox-tenant while the server runs.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "listen address (default from settings)")
	serveCmd.Flags().IntVar(&serveBodyLimit, "body-limit", httpapi.DefaultBodyLimit, "maximum upload size in bytes")
	serveCmd.Flags().StringVar(&serveInbox, "inbox", "", "directory to watch for new files")
	serveCmd.Flags().StringVar(&serveInboxTenant, "inbox-tenant", "", "tenant for files dropped into --inbox")
	serveCmd.Flags().DurationVar(&serveReadTimeout, "read-timeout", 30*time.Second, "HTTP read timeout")
	serveCmd.Flags().DurationVar(&serveWriteTimeout, "write-timeout", 0,
		"HTTP write timeout (default: generation timeout plus one minute)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if serveInbox != "" && serveInboxTenant == "" {
		return errors.New("--inbox requires --inbox-tenant")
	}

	addr, writeTimeout := serveDefaults()

	server, err := httpapi.NewServer(&httpapi.Ports{
		Ingest: ingestService,
		Ask:    askService,
		Files:  fileService,
	},
		httpapi.WithBodyLimit(serveBodyLimit),
		httpapi.WithTimeouts(serveReadTimeout, writeTimeout),
	)
	if err != nil {
		return err
	}

	var watcher *watch.Watcher
	if serveInbox != "" {
		watcher, err = watch.New(ingestService, serveInbox, serveInboxTenant)
		if err != nil {
			return err
		}
	}

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		cmd.Printf("docrag API listening on %s\n", addr)
		return server.Run(ctx, addr)
	})
	if watcher != nil {
		g.Go(func() error {
			cmd.Printf("Watching %s for tenant %s\n", watcher.Dir(), serveInboxTenant)
			return watcher.Run(ctx)
		})
	}
	return g.Wait()
}

// serveDefaults resolves the listen address and write timeout from flags
// and settings.
func serveDefaults() (string, time.Duration) {
	addr := serveAddr
	generation := domain.DefaultGenerationTimeout

	if settingsService != nil {
		if s, err := settingsService.Get(); err == nil {
			if addr == "" {
				addr = s.Server.Address
			}
			if s.LLM.Timeout > 0 {
				generation = s.LLM.Timeout
			}
		}
	}
	if addr == "" {
		addr = domain.DefaultServerAddress
	}

	writeTimeout := serveWriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = generation + time.Minute
	}
	return addr, writeTimeout
}
