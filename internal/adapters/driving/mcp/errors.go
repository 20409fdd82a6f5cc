// Package mcp provides an MCP (Model Context Protocol) server adapter for askdocs.
// It lets AI assistants ask questions of the indexed documents and fetch the
// passages an answer would be grounded on.
package mcp

import (
	"errors"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

// ErrMissingQueryService is returned when the query service is not provided.
var ErrMissingQueryService = errors.New("mcp: query service is required")

// ErrMissingRetrievalService is returned when the retrieval service is not provided.
var ErrMissingRetrievalService = errors.New("mcp: retrieval service is required")

// toolError returns the error reported to the assistant. Input errors are
// passed through; anything else is reduced to its category message.
func toolError(err error) error {
	kind := domain.KindOf(err)
	if kind == domain.KindInvalidInput {
		return err
	}
	return errors.New(kind.UserMessage())
}
