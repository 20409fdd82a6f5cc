// Package httpapi serves the chat and upload endpoints over HTTP using gin.
package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

// Construction errors.
var (
	ErrMissingQueryService  = errors.New("httpapi: query service is required")
	ErrMissingIngestService = errors.New("httpapi: ingest service is required")
	ErrMissingIndexService  = errors.New("httpapi: index service is required")
)

// errorBody is the JSON shape of every failed response.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrUnsupportedFormat), errors.Is(err, domain.ErrParse):
		return http.StatusUnprocessableEntity
	}

	switch domain.KindOf(err) {
	case domain.KindInvalidInput:
		return http.StatusBadRequest
	case domain.KindUnavailable:
		return http.StatusServiceUnavailable
	case domain.KindRetry:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// messageFor returns the text shown to the caller. Input errors describe what
// was wrong with the request; everything else uses the generic category text
// so internal detail never leaves the process.
func messageFor(err error) string {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return "the upload is too large"
	}
	kind := domain.KindOf(err)
	if kind == domain.KindInvalidInput {
		return err.Error()
	}
	return kind.UserMessage()
}

// abortWithError writes the structured failure response.
func abortWithError(c *gin.Context, err error) {
	kind := domain.KindOf(err)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		kind = domain.KindInvalidInput
	}
	c.AbortWithStatusJSON(statusFor(err), errorBody{Error: errorDetail{
		Kind:    kind.String(),
		Message: messageFor(err),
	}})
}
