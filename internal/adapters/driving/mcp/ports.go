package mcp

import (
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
type Ports struct {
	// Ask answers questions about an ingested file.
	Ask driving.AskService

	// Ingest indexes local files. Optional; without it the ingest_file tool is not offered.
	Ingest driving.IngestService

	// Files lists ingested files. Optional.
	Files driving.FileService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Ask == nil {
		return ErrMissingAskService
	}
	return nil
}
