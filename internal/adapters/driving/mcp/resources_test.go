package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

func TestExtractTenant(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{"valid files URI", "docrag://tenants/alice/files", "alice"},
		{"invalid prefix", "file://tenants/alice/files", ""},
		{"missing files suffix", "docrag://tenants/alice", ""},
		{"nested tenant", "docrag://tenants/a/b/files", ""},
		{"empty URI", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractTenant(tt.uri))
		})
	}
}

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleFilesResource(t *testing.T) {
	ctx := context.Background()

	t.Run("nil file service returns empty list", func(t *testing.T) {
		server, err := NewServer(&Ports{Ask: &mockAskService{}})
		require.NoError(t, err)

		result, err := server.handleFilesResource(ctx, makeReadResourceRequest("docrag://tenants/alice/files"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})

	t.Run("returns files for tenant", func(t *testing.T) {
		files := &mockFileService{records: []domain.UploadRecord{
			{Tenant: "alice", Filename: "budget.xlsx", Format: domain.FormatXLSX, Chunks: 9},
		}}
		server, err := NewServer(&Ports{Ask: &mockAskService{}, Files: files})
		require.NoError(t, err)

		result, err := server.handleFilesResource(ctx, makeReadResourceRequest("docrag://tenants/alice/files"))

		require.NoError(t, err)
		assert.Equal(t, "alice", files.tenant)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)
		assert.Contains(t, result.Contents[0].Text, "budget.xlsx")
		assert.Contains(t, result.Contents[0].Text, `"chunks": 9`)
	})

	t.Run("invalid URI returns not found", func(t *testing.T) {
		server, err := NewServer(&Ports{Ask: &mockAskService{}, Files: &mockFileService{}})
		require.NoError(t, err)

		_, err = server.handleFilesResource(ctx, makeReadResourceRequest("docrag://invalid/uri"))
		require.Error(t, err)
	})

	t.Run("returns error on list failure", func(t *testing.T) {
		files := &mockFileService{err: errors.New("database error")}
		server, err := NewServer(&Ports{Ask: &mockAskService{}, Files: files})
		require.NoError(t, err)

		_, err = server.handleFilesResource(ctx, makeReadResourceRequest("docrag://tenants/alice/files"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "listing files")
	})
}
