package plaintext

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

func normalise(t *testing.T, raw *domain.RawDocument) domain.Document {
	t.Helper()
	result, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)
	return result.Document
}

func TestNormaliser_Registration(t *testing.T) {
	n := New()
	assert.Equal(t, []domain.DocumentFormat{domain.FormatText}, n.SupportedFormats())
	assert.Equal(t, 50, n.Priority())
}

func TestNormalise_Document(t *testing.T) {
	doc := normalise(t, &domain.RawDocument{
		URI:     "/uploads/leave_policy.txt",
		Format:  domain.FormatText,
		Content: []byte("This is plain text content."),
	})

	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, "/uploads/leave_policy.txt", doc.URI)
	assert.Equal(t, "leave policy", doc.Title)
	assert.Equal(t, domain.FormatText, doc.Format)
	assert.Equal(t, "This is plain text content.", doc.Content)
	assert.Equal(t, "text/plain", doc.Metadata["mime_type"])
	assert.Empty(t, doc.PageOffsets)
	assert.False(t, doc.CreatedAt.IsZero())
}

func TestNormalise_Content(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{"empty", nil, ""},
		{"byte order mark", []byte("\xEF\xBB\xBFhello"), "hello"},
		{"CRLF", []byte("line one\r\nline two\r\n"), "line one\nline two\n"},
		{"bare CR", []byte("a\rb"), "a\nb"},
		{"unicode", []byte("Café résumé naïve 日本語 🎉"), "Café résumé naïve 日本語 🎉"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := normalise(t, &domain.RawDocument{URI: "in.txt", Content: tt.in})
			assert.Equal(t, tt.want, doc.Content)
		})
	}
}

func TestNormalise_LargeContent(t *testing.T) {
	content := strings.Repeat("Lorem ipsum dolor sit amet. ", 10000)
	doc := normalise(t, &domain.RawDocument{URI: "big.txt", Content: []byte(content)})
	assert.Len(t, doc.Content, len(content))
}

func TestNormalise_Rejects(t *testing.T) {
	_, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = New().Normalise(context.Background(), &domain.RawDocument{
		URI:     "/tmp/binary.txt",
		Content: []byte{0xff, 0xfe, 0x00, 0x41},
	})
	assert.ErrorIs(t, err, domain.ErrParse)
	assert.ErrorContains(t, err, "binary.txt")
}

func TestNormalise_MetadataTitleIsCopied(t *testing.T) {
	raw := &domain.RawDocument{
		URI:      "tmp123.txt",
		Content:  []byte("x"),
		Metadata: map[string]any{"title": "Handbook"},
	}

	doc := normalise(t, raw)
	assert.Equal(t, "Handbook", doc.Title)

	doc.Metadata["title"] = "changed"
	assert.Equal(t, "Handbook", raw.Metadata["title"])
	assert.NotContains(t, raw.Metadata, "mime_type")
}
