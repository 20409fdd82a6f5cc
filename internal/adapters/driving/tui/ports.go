// Package tui is the interactive terminal chat, built on bubbletea.
package tui

import (
	"errors"

	"github.com/custodia-labs/askdocs/internal/core/ports/driving"
)

var ErrMissingQueryService = errors.New("tui: query service is required")

// Ports are the core services the chat needs.
type Ports struct {
	Query driving.QueryService
	// Index feeds the status bar; it may be nil.
	Index driving.IndexService
}

// Validate reports ErrMissingQueryService when Query is unset.
func (p *Ports) Validate() error {
	if p == nil || p.Query == nil {
		return ErrMissingQueryService
	}
	return nil
}
