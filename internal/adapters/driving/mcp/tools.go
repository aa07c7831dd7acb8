package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Tenant   string `json:"tenant" jsonschema:"the tenant that uploaded the file"`
	Filename string `json:"filename" jsonschema:"the ingested file to ask about"`
	Question string `json:"question" jsonschema:"the question to answer"`
	TopK     int    `json:"top_k,omitempty" jsonschema:"number of chunks to retrieve (default from settings)"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer           string         `json:"answer"`
	Sources          []SourceOutput `json:"sources"`
	Turns            int            `json:"turns"`
	ContextTruncated bool           `json:"context_truncated,omitempty"`
}

// SourceOutput is one retrieved chunk used as context.
type SourceOutput struct {
	Rank    int     `json:"rank"`
	Score   float64 `json:"score"`
	Source  string  `json:"source"`
	ChunkID int     `json:"chunk_id"`
	Content string  `json:"content"`
}

// IngestFileInput is the input schema for the ingest_file tool.
type IngestFileInput struct {
	Tenant   string `json:"tenant" jsonschema:"the tenant to store the file under"`
	Path     string `json:"path" jsonschema:"absolute path of a local file to ingest"`
	Filename string `json:"filename,omitempty" jsonschema:"name to index the file under (default: base name of path)"`
}

// IngestFileOutput is the output schema for the ingest_file tool.
type IngestFileOutput struct {
	Filename        string `json:"filename"`
	Format          string `json:"format"`
	ExtractedChunks int    `json:"extracted_chunks"`
	RawKey          string `json:"raw_key,omitempty"`
	TransferFailed  int    `json:"transfer_failed,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question using the indexed contents of one uploaded file",
	}, s.handleAsk)

	if s.ports.Ingest != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ingest_file",
			Description: "Extract, chunk and index a local file so questions can be asked about it",
		}, s.handleIngestFile)
	}
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.ports.Ask.Ask(ctx, driving.AskRequest{
		Tenant:   input.Tenant,
		Filename: input.Filename,
		Question: input.Question,
		TopK:     input.TopK,
	})
	if err != nil {
		return nil, AskOutput{}, err
	}

	output := AskOutput{
		Answer:           answer.Text,
		Sources:          make([]SourceOutput, len(answer.Sources)),
		Turns:            answer.Turns,
		ContextTruncated: answer.ContextTruncated,
	}
	for i, hit := range answer.Sources {
		output.Sources[i] = SourceOutput{
			Rank:    hit.Rank,
			Score:   hit.Score,
			Source:  hit.Chunk.Source(),
			ChunkID: hit.Chunk.ChunkID(),
			Content: hit.Chunk.Content,
		}
	}

	return nil, output, nil
}

// handleIngestFile handles the ingest_file tool invocation.
func (s *Server) handleIngestFile(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestFileInput,
) (*mcp.CallToolResult, IngestFileOutput, error) {
	if input.Path == "" {
		return nil, IngestFileOutput{}, fmt.Errorf("%w: path is required", domain.ErrInvalidArgument)
	}
	path, err := s.confine(input.Path)
	if err != nil {
		return nil, IngestFileOutput{}, err
	}
	filename := input.Filename
	if filename == "" {
		filename = filepath.Base(input.Path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, IngestFileOutput{}, fmt.Errorf("opening %s: %w", input.Path, err)
	}
	defer f.Close()

	result, err := s.ports.Ingest.Ingest(ctx, driving.IngestRequest{
		Tenant:   input.Tenant,
		Filename: filename,
		Body:     f,
	})
	if err != nil {
		return nil, IngestFileOutput{}, err
	}

	output := IngestFileOutput{
		Filename:        result.Filename,
		Format:          string(result.Format),
		ExtractedChunks: result.Chunks,
		RawKey:          result.RawKey,
	}
	if result.Transfer != nil {
		output.TransferFailed = len(result.Transfer.Failed)
	}
	return nil, output, nil
}

// confine resolves path and checks it lies below the ingest root.
// Without a root every path is accepted.
func (s *Server) confine(path string) (string, error) {
	if s.ingestRoot == "" {
		return path, nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", path, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	rel, err := filepath.Rel(s.ingestRoot, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s is outside %s", domain.ErrInvalidArgument, path, s.ingestRoot)
	}
	return resolved, nil
}
