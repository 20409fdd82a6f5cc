package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

func newTestServer(t *testing.T, handler func(req embedRequest) (int, any)) (*httptest.Server, *[]embedRequest) {
	t.Helper()
	var seen []embedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"models":[]}`))
		case "/api/embed":
			var req embedRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			seen = append(seen, req)
			status, body := handler(req)
			w.WriteHeader(status)
			_ = json.NewEncoder(w).Encode(body)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func TestNewEmbeddingService_Defaults(t *testing.T) {
	s := NewEmbeddingService(Config{})
	assert.Equal(t, DefaultModel, s.ModelName())
	assert.Equal(t, DefaultDimensions, s.Dimensions())
	assert.Equal(t, DefaultBaseURL, s.api.BaseURL)
	assert.NoError(t, s.Close())
}

func TestEmbedBatch(t *testing.T) {
	srv, seen := newTestServer(t, func(req embedRequest) (int, any) {
		out := make([][]float64, len(req.Input))
		for i := range req.Input {
			out[i] = []float64{float64(i), 0.5}
		}
		return http.StatusOK, embedResponse{Embeddings: out}
	})
	s := NewEmbeddingService(Config{BaseURL: srv.URL, Model: "all-minilm", Dimensions: 2})

	vecs, err := s.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	assert.Equal(t, []float32{2, 0.5}, vecs[2])

	require.Len(t, *seen, 1, "expected a single batched request")
	assert.Equal(t, "all-minilm", (*seen)[0].Model)
	assert.Equal(t, []string{"a", "b", "c"}, (*seen)[0].Input)
}

func TestEmbedBatch_Empty(t *testing.T) {
	s := NewEmbeddingService(Config{BaseURL: "http://127.0.0.1:0"})
	vecs, err := s.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vecs)
}

func TestEmbedQuery_UsesPrefix(t *testing.T) {
	srv, seen := newTestServer(t, func(req embedRequest) (int, any) {
		return http.StatusOK, embedResponse{Embeddings: [][]float64{{1, 2}}}
	})
	s := NewEmbeddingService(Config{BaseURL: srv.URL, Dimensions: 2, QueryPrefix: "query: "})

	_, err := s.EmbedQuery(context.Background(), "what is X?")
	require.NoError(t, err)
	assert.Equal(t, []string{"query: what is X?"}, (*seen)[0].Input)

	_, err = s.Embed(context.Background(), "passage")
	require.NoError(t, err)
	assert.Equal(t, []string{"passage"}, (*seen)[1].Input)
}

func TestEmbedBatch_CountMismatch(t *testing.T) {
	srv, _ := newTestServer(t, func(req embedRequest) (int, any) {
		return http.StatusOK, embedResponse{Embeddings: [][]float64{{1}}}
	})
	s := NewEmbeddingService(Config{BaseURL: srv.URL})

	_, err := s.EmbedBatch(context.Background(), []string{"a", "b"})
	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
}

func TestEmbedBatch_ServerError(t *testing.T) {
	srv, _ := newTestServer(t, func(req embedRequest) (int, any) {
		return http.StatusInternalServerError, map[string]string{"error": "model not loaded"}
	})
	s := NewEmbeddingService(Config{BaseURL: srv.URL})

	_, err := s.EmbedBatch(context.Background(), []string{"a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
	assert.Contains(t, err.Error(), "model not loaded")
}

func TestPing(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	s := NewEmbeddingService(Config{BaseURL: srv.URL})
	assert.NoError(t, s.Ping(context.Background()))

	srv.Close()
	assert.Error(t, s.Ping(context.Background()))
}

func TestEmbedBatch_WrongDimensions(t *testing.T) {
	srv, _ := newTestServer(t, func(req embedRequest) (int, any) {
		return http.StatusOK, embedResponse{Embeddings: [][]float64{{1, 2, 3}}}
	})
	s := NewEmbeddingService(Config{BaseURL: srv.URL, Model: "all-minilm", Dimensions: 384})

	_, err := s.Embed(context.Background(), "a")

	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
	assert.Contains(t, err.Error(), "384")
}
