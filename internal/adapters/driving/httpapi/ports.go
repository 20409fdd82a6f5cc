package httpapi

import (
	"github.com/custodia-labs/askdocs/internal/core/ports/driving"
)

// Ports aggregates the driving ports served over HTTP.
type Ports struct {
	// Query answers chat questions.
	Query driving.QueryService

	// Ingest handles document uploads.
	Ingest driving.IngestService

	// Index reports on the served index.
	Index driving.IndexService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Query == nil {
		return ErrMissingQueryService
	}
	if p.Ingest == nil {
		return ErrMissingIngestService
	}
	if p.Index == nil {
		return ErrMissingIndexService
	}
	return nil
}
