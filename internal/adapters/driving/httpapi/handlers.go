package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driving"
)

// uploadField is the multipart form field carrying the document.
const uploadField = "file"

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Question string `json:"question"`
}

// ChatResponse is the body of a successful POST /chat.
type ChatResponse struct {
	Answer string `json:"answer"`
}

// UploadResponse is the body of a successful POST /upload-document.
type UploadResponse struct {
	Message     string `json:"message"`
	ChunksAdded int    `json:"chunks_added"`
}

// IndexResponse is the body of GET /index.
type IndexResponse struct {
	Path           string `json:"path"`
	EmbeddingModel string `json:"embedding_model"`
	Dimensions     int    `json:"dimensions"`
	Metric         string `json:"metric"`
	ChunkSize      int    `json:"chunk_size"`
	ChunkOverlap   int    `json:"chunk_overlap"`
	Entries        int    `json:"entries"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleIndex(c *gin.Context) {
	info := s.ports.Index.Info()
	c.JSON(http.StatusOK, IndexResponse{
		Path:           info.Path,
		EmbeddingModel: info.Identity.EmbeddingModel,
		Dimensions:     info.Identity.Dimensions,
		Metric:         info.Identity.Metric.String(),
		ChunkSize:      info.Identity.ChunkSize,
		ChunkOverlap:   info.Identity.ChunkOverlap,
		Entries:        info.Count,
	})
}

func (s *Server) handleChat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, fmt.Errorf(`%w: request body must be JSON of the form {"question": "..."}`, domain.ErrInvalidInput))
		return
	}

	answer, err := s.ports.Query.Answer(c.Request.Context(), req.Question)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, ChatResponse{Answer: answer.Text})
}

// handleUpload streams the file part straight into ingestion. The service
// checks the extension before reading any content, so unsupported files are
// rejected without being buffered.
func (s *Server) handleUpload(c *gin.Context) {
	reader, err := c.Request.MultipartReader()
	if err != nil {
		abortWithError(c, fmt.Errorf("%w: expected a multipart upload with a %q field", domain.ErrInvalidInput, uploadField))
		return
	}

	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			abortWithError(c, fmt.Errorf("%w: no %q field in the upload", domain.ErrInvalidInput, uploadField))
			return
		}
		if err != nil {
			abortWithError(c, uploadError(err))
			return
		}
		if part.FormName() != uploadField {
			_ = part.Close()
			continue
		}

		result, err := s.ports.Ingest.Ingest(c.Request.Context(), driving.Upload{
			Filename: part.FileName(),
			Content:  part,
		})
		_ = part.Close()
		if err != nil {
			abortWithError(c, uploadError(err))
			return
		}

		c.JSON(http.StatusOK, UploadResponse{
			Message:     result.Message,
			ChunksAdded: result.ChunksAdded,
		})
		return
	}
}

// uploadError keeps body-limit errors recognisable and treats other read
// failures of the multipart stream as bad input.
func uploadError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) || domain.KindOf(err) != domain.KindInternal {
		return err
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: upload was truncated", domain.ErrInvalidInput)
	}
	return err
}
