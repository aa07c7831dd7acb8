package cli

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docrag/internal/adapters/driving/tui"
)

var (
	tuiTenant string
	tuiFile   string
	tuiTopK   int
)

// tuiCmd represents the tui command.
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive chat for asking questions about ingested files.

Without --file, the UI opens a picker listing the tenant's files.

Controls:
  Enter    - Ask / Select
  Tab      - Browse the sources of the last answer
  ↑/k, ↓/j - Navigate
  Esc      - Pick another file / Back
  ?        - Toggle help
  Ctrl+C   - Quit`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runChat(cmd, tuiTenant, tuiFile, tuiTopK)
	},
}

func init() {
	tuiCmd.Flags().StringVarP(&tuiTenant, "tenant", "t", "", "tenant whose files to browse (required)")
	tuiCmd.Flags().StringVarP(&tuiFile, "file", "f", "", "open a chat about this file directly")
	tuiCmd.Flags().IntVarP(&tuiTopK, "top-k", "k", 0, "number of chunks to retrieve (0 = configured default)")
	_ = tuiCmd.MarkFlagRequired("tenant")
	rootCmd.AddCommand(tuiCmd)
}

// newChatApp builds the TUI for a tenant and optional file.
func newChatApp(cmd *cobra.Command, tenant, file string, topK int) (*tui.App, error) {
	ports := &tui.Ports{
		Ask:   askService,
		Files: fileService,
	}
	app, err := tui.NewApp(ports, tui.Session{Tenant: tenant, Filename: file, TopK: topK})
	if err != nil {
		return nil, fmt.Errorf("failed to create TUI: %w", err)
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return app.WithContext(ctx), nil
}

func runChat(cmd *cobra.Command, tenant, file string, topK int) error {
	// Add panic recovery to get stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	app, err := newChatApp(cmd, tenant, file, topK)
	if err != nil {
		return err
	}
	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
