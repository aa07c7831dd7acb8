package cli

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

// stubStdin replaces the stdin seams for the duration of a test.
func stubStdin(t *testing.T, terminal bool, input string) {
	t.Helper()
	origTerminal, origReader := stdinIsTerminal, stdinReader
	stdinIsTerminal = func() bool { return terminal }
	stdinReader = strings.NewReader(input)
	t.Cleanup(func() {
		stdinIsTerminal, stdinReader = origTerminal, origReader
	})
}

func TestAskCmd_Use(t *testing.T) {
	assert.Equal(t, "ask [question]", askCmd.Use)
	assert.Equal(t, "Ask a question about an ingested file", askCmd.Short)
}

func TestAskCmd_RequiredFlags(t *testing.T) {
	for _, name := range []string{"tenant", "file"} {
		flag := askCmd.Flags().Lookup(name)
		require.NotNil(t, flag, name)
		assert.Equal(t, []string{"true"}, flag.Annotations[cobra.BashCompOneRequiredFlag], name)
	}
}

func TestAskCmd_HasTopKFlag(t *testing.T) {
	flag := askCmd.Flags().Lookup("top-k")
	require.NotNil(t, flag)
	assert.Equal(t, "k", flag.Shorthand)
	assert.Equal(t, "0", flag.DefValue)
}

func TestAskCmd_PrintsAnswerAndSources(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := runCommand("ask", "-t", "acme", "-f", "report.txt", "what", "is", "covered?")

	require.NoError(t, err)
	assert.Contains(t, out, "The report covers Q3 revenue.")
	assert.Contains(t, out, "Sources:")
	assert.Contains(t, out, "[1] report.txt #0 (0.912)")
	assert.Contains(t, out, "Revenue grew in Q3.")

	require.Len(t, ts.ask.requests, 1)
	assert.Equal(t, driving.AskRequest{
		Tenant:   "acme",
		Filename: "report.txt",
		Question: "what is covered?",
	}, ts.ask.requests[0])
}

func TestAskCmd_PassesTopK(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	_, err := runCommand("ask", "-t", "acme", "-f", "report.txt", "-k", "7", "why?")

	require.NoError(t, err)
	require.Len(t, ts.ask.requests, 1)
	assert.Equal(t, 7, ts.ask.requests[0].TopK)
}

func TestAskCmd_WithoutSources(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := runCommand("ask", "-t", "acme", "-f", "report.txt", "--sources=false", "why?")

	require.NoError(t, err)
	assert.Contains(t, out, "The report covers Q3 revenue.")
	assert.NotContains(t, out, "Sources:")
}

func TestAskCmd_ReportsTruncatedContext(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.ask.AskFunc = func(_ context.Context, req driving.AskRequest) (*domain.Answer, error) {
		return &domain.Answer{Question: req.Question, Text: "partial", State: domain.QueryStateDone, ContextTruncated: true}, nil
	}

	out, err := runCommand("ask", "-t", "acme", "-f", "report.txt", "why?")

	require.NoError(t, err)
	assert.Contains(t, out, "token budget")
}

func TestAskCmd_JSONOutput(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := runCommand("ask", "-t", "acme", "-f", "report.txt", "--json", "why?")
	require.NoError(t, err)

	var got answerJSON
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "answer-1", got.ID)
	assert.Equal(t, "why?", got.Question)
	assert.Equal(t, "The report covers Q3 revenue.", got.Answer)
	assert.Equal(t, "DONE", got.State)
	assert.Equal(t, 1, got.Turns)
	require.Len(t, got.Sources, 1)
	assert.Equal(t, "report.txt", got.Sources[0].Source)
	assert.Equal(t, 0, got.Sources[0].ChunkID)
	assert.InDelta(t, 0.912, got.Sources[0].Score, 1e-9)
}

func TestAskCmd_ReadsQuestionFromStdin(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	stubStdin(t, false, "  what changed?\n")

	_, err := runCommand("ask", "-t", "acme", "-f", "report.txt")

	require.NoError(t, err)
	require.Len(t, ts.ask.requests, 1)
	assert.Equal(t, "what changed?", ts.ask.requests[0].Question)
}

func TestAskCmd_EmptyStdin(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	stubStdin(t, false, "   \n")

	_, err := runCommand("ask", "-t", "acme", "-f", "report.txt")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no question given")
	assert.Empty(t, ts.ask.requests)
}

func TestAskCmd_ReportsFailedState(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	boom := errors.New("index missing")
	ts.ask.AskFunc = func(_ context.Context, req driving.AskRequest) (*domain.Answer, error) {
		return &domain.Answer{Question: req.Question, State: domain.QueryStateRetrieving}, boom
	}

	_, err := runCommand("ask", "-t", "acme", "-f", "report.txt", "why?")

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "ask failed in state RETRIEVING")
}

func TestAskCmd_ServiceNotConfigured(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	SetServices(Services{})

	_, err := runCommand("ask", "-t", "acme", "-f", "report.txt", "why?")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ask service not configured")
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "a b c", preview("a\n b\t\tc", 10))
	assert.Equal(t, "abcdefg...", preview(strings.Repeat("abcdefghij", 3), 10))
	assert.Equal(t, "日本語", preview("日本語", 3))
}
