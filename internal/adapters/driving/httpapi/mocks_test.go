package httpapi

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driving"
)

type mockQueryService struct {
	answer    string
	err       error
	questions []string
}

func (m *mockQueryService) Answer(_ context.Context, question string) (*domain.Answer, error) {
	m.questions = append(m.questions, question)
	if m.err != nil {
		return nil, m.err
	}
	if question == "" {
		return nil, fmt.Errorf("%w: question must not be empty", domain.ErrInvalidInput)
	}
	return &domain.Answer{Text: m.answer}, nil
}

// mockIngestService mirrors the real service's extension check and records
// how many bytes it read.
type mockIngestService struct {
	mu       sync.Mutex
	err      error
	received map[string][]byte
	reads    int
}

func (m *mockIngestService) Ingest(_ context.Context, upload driving.Upload) (*domain.IngestResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if domain.FormatFromFilename(upload.Filename) == "" {
		return nil, fmt.Errorf("%w: %s files are not accepted, upload a .pdf or .txt file",
			domain.ErrUnsupportedFormat, filepath.Ext(upload.Filename))
	}
	data, err := io.ReadAll(upload.Content)
	m.reads++
	if err != nil {
		return nil, fmt.Errorf("stage upload: %w", err)
	}
	if m.err != nil {
		return nil, m.err
	}
	if m.received == nil {
		m.received = make(map[string][]byte)
	}
	m.received[upload.Filename] = data
	return &domain.IngestResult{
		Filename:    upload.Filename,
		ChunksAdded: 3,
		Message:     "Successfully uploaded and processed " + upload.Filename,
	}, nil
}

type mockIndexService struct {
	info driving.IndexInfo
}

func (m *mockIndexService) Info() driving.IndexInfo {
	return m.info
}
