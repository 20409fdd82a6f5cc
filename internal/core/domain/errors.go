package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedFormat indicates an uploaded document type is not accepted.
	// Only PDF and plain text are ingested.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrParse indicates a document of a supported type could not be read as text.
	ErrParse = errors.New("parse error")

	// ErrModelUnavailable indicates the embedding or generation backend is
	// unreachable or returned malformed output.
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrUpstreamTimeout indicates a call to a model backend exceeded its deadline.
	ErrUpstreamTimeout = errors.New("upstream timeout")

	// ErrCorruptIndex indicates the persisted index failed verification.
	// The process must not serve from an unverified index.
	ErrCorruptIndex = errors.New("corrupt index")

	// ErrConfiguration indicates invalid or inconsistent configuration.
	ErrConfiguration = errors.New("configuration error")

	// ErrInternal is the catch-all for unexpected failures.
	ErrInternal = errors.New("internal error")

	// Index lifecycle errors.

	// ErrIndexNotFound indicates no persisted index exists at the configured location
	// and create-if-missing was not selected.
	ErrIndexNotFound = fmt.Errorf("%w: persisted index not found", ErrConfiguration)

	// ErrIndexMismatch indicates the configured model or chunking differs from the
	// identity recorded by a non-empty index. A rebuild is required.
	ErrIndexMismatch = fmt.Errorf("%w: index was built with different settings", ErrConfiguration)

	// ErrRebuildNotConfirmed indicates a destructive rebuild was attempted on a
	// non-empty index without confirmation.
	ErrRebuildNotConfirmed = fmt.Errorf("%w: rebuild would discard existing entries", ErrInvalidInput)
)

// ErrorKind is the caller-facing category of a failure.
type ErrorKind string

// Error kinds surfaced by the transport adapters.
const (
	// KindInvalidInput means the request itself was at fault.
	KindInvalidInput ErrorKind = "invalid_input"

	// KindUnavailable means a dependency is down and the request cannot be served now.
	KindUnavailable ErrorKind = "unavailable"

	// KindRetry means the request timed out and may succeed if retried.
	KindRetry ErrorKind = "retry"

	// KindInternal means something unexpected failed inside the service.
	KindInternal ErrorKind = "internal"
)

// KindOf classifies an error into the category shown to callers.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnsupportedFormat),
		errors.Is(err, ErrParse),
		errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrUpstreamTimeout):
		return KindRetry
	case errors.Is(err, ErrModelUnavailable):
		return KindUnavailable
	default:
		return KindInternal
	}
}

// UserMessage returns the human-readable text for the kind.
func (k ErrorKind) UserMessage() string {
	switch k {
	case KindInvalidInput:
		return "your input was invalid"
	case KindUnavailable:
		return "the system is temporarily unavailable"
	case KindRetry:
		return "the request timed out, please retry"
	default:
		return "an internal error occurred"
	}
}

// String returns the string representation.
func (k ErrorKind) String() string {
	return string(k)
}
