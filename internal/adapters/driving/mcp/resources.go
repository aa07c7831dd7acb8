package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for docrag resources.
	uriScheme = "docrag://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "tenants/{tenant}/files",
		Name:        "tenant-files",
		Description: "Files ingested for a tenant, most recent first",
		MIMEType:    "application/json",
	}, s.handleFilesResource)
}

// handleFilesResource returns the upload ledger rows for a tenant.
func (s *Server) handleFilesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	tenant := extractTenant(req.Params.URI)
	if tenant == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	type fileInfo struct {
		Filename  string    `json:"filename"`
		Format    string    `json:"format"`
		Chunks    int       `json:"chunks"`
		UpdatedAt time.Time `json:"updated_at"`
	}
	infos := []fileInfo{}

	if s.ports.Files != nil {
		records, err := s.ports.Files.List(ctx, tenant)
		if err != nil {
			return nil, fmt.Errorf("listing files: %w", err)
		}
		for _, rec := range records {
			infos = append(infos, fileInfo{
				Filename:  rec.Filename,
				Format:    string(rec.Format),
				Chunks:    rec.Chunks,
				UpdatedAt: rec.UpdatedAt,
			})
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling files: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractTenant extracts the tenant from a URI like docrag://tenants/{tenant}/files.
func extractTenant(uri string) string {
	const prefix = uriScheme + "tenants/"
	const suffix = "/files"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	uri = strings.TrimPrefix(uri, prefix)
	if !strings.HasSuffix(uri, suffix) {
		return ""
	}

	tenant := strings.TrimSuffix(uri, suffix)
	if strings.Contains(tenant, "/") {
		return ""
	}
	return tenant
}
