// Package pdf extracts text from PDF uploads using poppler's pdftotext.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// ErrPDFToolNotFound indicates pdftotext is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found in PATH")

const (
	toolName    = "pdftotext"
	maxTitleLen = 200
	pageBreak   = "\n\n"
)

var pdfMagic = []byte("%PDF-")

// CommandRunner executes an external command and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if _, err := exec.LookPath(name); err != nil {
		return nil, ErrPDFToolNotFound
	}
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return out, nil
}

// Normaliser handles PDF documents.
type Normaliser struct {
	runner CommandRunner
}

// New creates a PDF normaliser that shells out to pdftotext.
func New() *Normaliser {
	return &Normaliser{runner: execRunner{}}
}

// NewWithRunner creates a PDF normaliser with a custom command runner.
func NewWithRunner(runner CommandRunner) *Normaliser {
	return &Normaliser{runner: runner}
}

// CheckAvailable reports whether pdftotext can be found.
func CheckAvailable() error {
	if _, err := exec.LookPath(toolName); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// InstallInstructions explains how to install pdftotext.
func InstallInstructions() string {
	return `PDF ingestion requires pdftotext from poppler.
  macOS:          brew install poppler
  Debian/Ubuntu:  apt install poppler-utils
  Fedora:         dnf install poppler-utils`
}

// SupportedFormats returns the formats this normaliser handles.
func (n *Normaliser) SupportedFormats() []domain.DocumentFormat {
	return []domain.DocumentFormat{domain.FormatPDF}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise extracts the text of a PDF.
// Pages are joined with a blank line and their start offsets recorded so
// chunks can cite the page they begin on.
func (n *Normaliser) Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	name := filepath.Base(raw.URI)

	if len(raw.Content) > 0 && !bytes.HasPrefix(raw.Content, pdfMagic) {
		return nil, fmt.Errorf("%w: %s is not a PDF file", domain.ErrParse, name)
	}

	path := raw.StagedPath
	if path == "" {
		staged, cleanup, err := stage(raw.Content)
		if err != nil {
			return nil, fmt.Errorf("stage %s: %w", name, err)
		}
		defer cleanup()
		path = staged
	}

	out, err := n.runner.Run(ctx, toolName, "-enc", "UTF-8", "-q", path, "-")
	if err != nil {
		if errors.Is(err, ErrPDFToolNotFound) {
			return nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
		}
		return nil, fmt.Errorf("%w: pdftotext failed on %s: %w", domain.ErrParse, name, err)
	}
	if !utf8.Valid(out) {
		return nil, fmt.Errorf("%w: pdftotext produced invalid UTF-8 for %s", domain.ErrParse, name)
	}

	content, offsets := joinPages(string(out))
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: %s contains no extractable text", domain.ErrParse, name)
	}

	doc := raw.NewDocument(domain.FormatPDF, content)
	doc.ID = uuid.NewString()
	// The first line beats a title made up from the file name.
	if given, _ := raw.Metadata["title"].(string); given == "" {
		if title := firstLine(content); title != "" {
			doc.Title = title
		}
	}
	doc.PageOffsets = offsets
	doc.Metadata["pages"] = len(offsets)

	return &driven.NormaliseResult{Document: doc}, nil
}

// joinPages splits pdftotext output on form feeds, drops the trailing empty
// page, and returns the joined text with each page's rune offset.
func joinPages(out string) (string, []int) {
	pages := strings.Split(out, "\f")
	for len(pages) > 1 && strings.TrimSpace(pages[len(pages)-1]) == "" {
		pages = pages[:len(pages)-1]
	}

	var b strings.Builder
	offsets := make([]int, 0, len(pages))
	pos := 0
	for i, page := range pages {
		if i > 0 {
			b.WriteString(pageBreak)
			pos += utf8.RuneCountInString(pageBreak)
		}
		offsets = append(offsets, pos)
		b.WriteString(page)
		pos += utf8.RuneCountInString(page)
	}
	return b.String(), offsets
}

func stage(content []byte) (string, func(), error) {
	f, err := os.CreateTemp("", "askdocs-*.pdf")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { _ = os.Remove(f.Name()) }
	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		cleanup()
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, err
	}
	return f.Name(), cleanup, nil
}

// firstLine returns the first non-blank line short enough to be a title.
func firstLine(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(strings.ReplaceAll(line, "\x00", ""))
		if line != "" && len(line) <= maxTitleLen {
			return line
		}
	}
	return ""
}
