// Package plaintext reads UTF-8 text uploads.
package plaintext

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
)

var _ driven.Normaliser = Normaliser{}

var bom = []byte{0xEF, 0xBB, 0xBF}

// newlines maps Windows and old Mac line endings to "\n".
var newlines = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// Normaliser accepts .txt uploads. It has no state.
type Normaliser struct{}

// New returns a Normaliser.
func New() Normaliser { return Normaliser{} }

func (Normaliser) SupportedFormats() []domain.DocumentFormat {
	return []domain.DocumentFormat{domain.FormatText}
}

func (Normaliser) Priority() int { return 50 }

// Normalise drops a leading byte order mark and unifies line endings.
// Bytes that are not UTF-8 are a parse error; empty text is left for the
// ingest service to reject.
func (Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	body := bytes.TrimPrefix(raw.Content, bom)
	if !utf8.Valid(body) {
		return nil, fmt.Errorf("%w: %s is not valid UTF-8 text", domain.ErrParse, filepath.Base(raw.URI))
	}
	doc := raw.NewDocument(domain.FormatText, newlines.Replace(string(body)))
	doc.ID = uuid.NewString()
	return &driven.NormaliseResult{Document: doc}, nil
}
