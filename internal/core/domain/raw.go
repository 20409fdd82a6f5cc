package domain

import (
	"maps"
	"path/filepath"
	"strings"
	"time"
)

// DocumentFormat identifies an accepted upload type.
type DocumentFormat string

// Accepted document formats.
const (
	// FormatPDF is a PDF document.
	FormatPDF DocumentFormat = "pdf"

	// FormatText is UTF-8 plain text.
	FormatText DocumentFormat = "txt"
)

// IsValid returns true if the format is accepted for ingestion.
func (f DocumentFormat) IsValid() bool {
	switch f {
	case FormatPDF, FormatText:
		return true
	default:
		return false
	}
}

// MIMEType returns the canonical content type for the format.
func (f DocumentFormat) MIMEType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatText:
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}

// String returns the string representation.
func (f DocumentFormat) String() string {
	return string(f)
}

// FormatFromFilename detects the format from a file extension.
// Returns an empty format when the extension is not accepted.
func FormatFromFilename(name string) DocumentFormat {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	f := DocumentFormat(ext)
	if !f.IsValid() {
		return ""
	}
	return f
}

// RawDocument represents an upload before parsing.
type RawDocument struct {
	// URI is the original filename or path.
	URI string

	// Format is the detected document format.
	Format DocumentFormat

	// Content is the raw bytes.
	Content []byte

	// StagedPath is the temporary file holding Content while the upload is processed.
	// Parsers that need a file on disk read from here.
	StagedPath string

	// Metadata contains upload-specific key-value pairs.
	Metadata map[string]any
}

// NewDocument starts the parsed form of r around content; the caller
// assigns the ID. Metadata is copied before mime_type is added. The title
// is the "title" metadata value when set, else derived from the URI.
func (r *RawDocument) NewDocument(format DocumentFormat, content string) Document {
	meta := maps.Clone(r.Metadata)
	if meta == nil {
		meta = make(map[string]any, 1)
	}
	meta["mime_type"] = format.MIMEType()

	title, _ := meta["title"].(string)
	if title == "" {
		title = TitleFromName(r.URI)
	}
	return Document{
		URI:       r.URI,
		Title:     title,
		Format:    format,
		Content:   content,
		Metadata:  meta,
		CreatedAt: time.Now(),
	}
}

// TitleFromName turns a path like "/docs/leave_policy-2024.txt" into
// "leave policy 2024".
func TitleFromName(uri string) string {
	name := filepath.Base(uri)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return strings.NewReplacer("_", " ", "-", " ").Replace(name)
}
