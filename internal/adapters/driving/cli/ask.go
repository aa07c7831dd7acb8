package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

var (
	askTenant  string
	askFile    string
	askTopK    int
	askJSON    bool
	askSources bool
)

// stdinIsTerminal reports whether stdin is interactive. Replaced in tests.
var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// stdinReader supplies piped questions. Replaced in tests.
var stdinReader io.Reader = os.Stdin

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about an ingested file",
	Long: `Answers a question using the most relevant chunks of an ingested file.

With a question argument the answer is printed and the command exits.
Without one, an interactive chat opens when run in a terminal; otherwise
the question is read from standard input.`,
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askTenant, "tenant", "t", "", "tenant that owns the file (required)")
	askCmd.Flags().StringVarP(&askFile, "file", "f", "", "ingested file to ask about (required)")
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of chunks to retrieve (0 = configured default)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	askCmd.Flags().BoolVar(&askSources, "sources", true, "print the sources used for the answer")
	_ = askCmd.MarkFlagRequired("tenant")
	_ = askCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if askService == nil {
		return errors.New("ask service not configured")
	}

	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		if stdinIsTerminal() && !askJSON {
			return runChat(cmd, askTenant, askFile, askTopK)
		}
		data, err := io.ReadAll(stdinReader)
		if err != nil {
			return fmt.Errorf("reading question: %w", err)
		}
		question = strings.TrimSpace(string(data))
		if question == "" {
			return errors.New("no question given")
		}
	}

	answer, err := askService.Ask(cmd.Context(), driving.AskRequest{
		Tenant:   askTenant,
		Filename: askFile,
		Question: question,
		TopK:     askTopK,
	})
	if err != nil {
		if answer != nil && answer.State != "" {
			return fmt.Errorf("ask failed in state %s: %w", answer.State, err)
		}
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		return outputAnswerJSON(cmd, answer)
	}
	outputAnswerText(cmd, answer, askSources)
	return nil
}

type answerSourceJSON struct {
	Rank    int     `json:"rank"`
	Score   float64 `json:"score"`
	Source  string  `json:"source"`
	ChunkID int     `json:"chunk_id"`
	Content string  `json:"content"`
}

type answerJSON struct {
	ID               string             `json:"id"`
	Question         string             `json:"question"`
	Answer           string             `json:"answer"`
	State            string             `json:"state"`
	Turns            int                `json:"turns"`
	ContextTruncated bool               `json:"context_truncated"`
	Sources          []answerSourceJSON `json:"sources"`
}

func outputAnswerJSON(cmd *cobra.Command, a *domain.Answer) error {
	out := answerJSON{
		ID:               a.ID,
		Question:         a.Question,
		Answer:           a.Text,
		State:            a.State.String(),
		Turns:            a.Turns,
		ContextTruncated: a.ContextTruncated,
		Sources:          make([]answerSourceJSON, 0, len(a.Sources)),
	}
	for _, sc := range a.Sources {
		out.Sources = append(out.Sources, answerSourceJSON{
			Rank:    sc.Rank,
			Score:   sc.Score,
			Source:  sc.Chunk.Source(),
			ChunkID: sc.Chunk.ChunkID(),
			Content: sc.Chunk.Content,
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputAnswerText(cmd *cobra.Command, a *domain.Answer, withSources bool) {
	cmd.Println(a.Text)
	if a.ContextTruncated {
		cmd.Println()
		cmd.Println("(Some retrieved context was dropped to fit the token budget.)")
	}
	if !withSources || len(a.Sources) == 0 {
		return
	}

	cmd.Println()
	cmd.Println("Sources:")
	for _, sc := range a.Sources {
		label := sc.Chunk.Source()
		if id := sc.Chunk.ChunkID(); id >= 0 {
			label = fmt.Sprintf("%s #%d", label, id)
		}
		cmd.Printf("  [%d] %s (%.3f)\n", sc.Rank, label, sc.Score)
		cmd.Printf("      %s\n", preview(sc.Chunk.Content, 100))
	}
}

// preview flattens whitespace and truncates s to n runes.
func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
