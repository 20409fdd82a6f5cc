package mcp

import (
	"github.com/custodia-labs/askdocs/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Query answers questions.
	Query driving.QueryService

	// Retrieval returns the passages relevant to a question.
	Retrieval driving.RetrievalService

	// Index describes the served index. Optional.
	Index driving.IndexService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Query == nil {
		return ErrMissingQueryService
	}
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}
