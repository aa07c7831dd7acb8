package httpapi

import (
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

// Ports aggregates the driving ports served over HTTP.
type Ports struct {
	// Ingest handles uploads.
	Ingest driving.IngestService

	// Ask answers questions.
	Ask driving.AskService

	// Files lists uploads and issues download links. Optional.
	Files driving.FileService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Ingest == nil {
		return ErrMissingIngestService
	}
	if p.Ask == nil {
		return ErrMissingAskService
	}
	return nil
}
