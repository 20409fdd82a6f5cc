package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for askdocs resources.
	uriScheme = "askdocs://"

	indexURI = uriScheme + "index"
)

// indexInfo is the JSON shape of the index resource.
type indexInfo struct {
	Path           string `json:"path"`
	EmbeddingModel string `json:"embedding_model"`
	Dimensions     int    `json:"dimensions"`
	Metric         string `json:"metric"`
	ChunkSize      int    `json:"chunk_size"`
	ChunkOverlap   int    `json:"chunk_overlap"`
	Entries        int    `json:"entries"`
}

// registerResources registers resource handlers. The index resource is only
// offered when an index service is wired.
func (s *Server) registerResources() {
	if s.ports.Index == nil {
		return
	}
	s.server.AddResource(&mcp.Resource{
		URI:         indexURI,
		Name:        "index",
		Description: "The embedding model, chunking and size of the served index",
		MIMEType:    "application/json",
	}, s.handleIndexResource)
}

// handleIndexResource describes the current index snapshot.
func (s *Server) handleIndexResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Index == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	info := s.ports.Index.Info()
	data, err := json.MarshalIndent(indexInfo{
		Path:           info.Path,
		EmbeddingModel: info.Identity.EmbeddingModel,
		Dimensions:     info.Identity.Dimensions,
		Metric:         info.Identity.Metric.String(),
		ChunkSize:      info.Identity.ChunkSize,
		ChunkOverlap:   info.Identity.ChunkOverlap,
		Entries:        info.Count,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling index info: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
