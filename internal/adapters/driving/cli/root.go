// Package cli provides the docrag command line interface.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docrag/internal/core/ports/driving"
	"github.com/custodia-labs/docrag/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var verbose bool

// Services wired in by the composition root.
var (
	ingestService   driving.IngestService
	askService      driving.AskService
	fileService     driving.FileService
	settingsService driving.SettingsService
)

// Services holds the driving ports the commands call into.
type Services struct {
	Ingest   driving.IngestService
	Ask      driving.AskService
	Files    driving.FileService
	Settings driving.SettingsService
}

// SetServices injects the services used by all commands.
func SetServices(s Services) {
	ingestService = s.Ingest
	askService = s.Ask
	fileService = s.Files
	settingsService = s.Settings
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

var rootCmd = &cobra.Command{
	Use:   "docrag",
	Short: "Ask questions about your documents",
	Long: `docrag turns uploaded documents into per-file vector indexes and answers
questions about them with a configurable LLM.

Upload files with 'docrag ingest', then ask about them with 'docrag ask'.
'docrag serve' exposes the same operations over HTTP and 'docrag mcp serve'
offers them to MCP-compatible assistants.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
