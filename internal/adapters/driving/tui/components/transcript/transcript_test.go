package transcript

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

func refundAnswer() *domain.Answer {
	return &domain.Answer{
		Text: "Refunds are issued within 30 days.",
		Sources: []domain.SearchResult{{
			Entry: domain.IndexEntry{
				ChunkID:  "chunk-1",
				Content:  "Refunds are issued within 30 days of purchase.",
				Metadata: map[string]any{"source": "policy.txt"},
			},
			Score: 0.87,
		}},
	}
}

func TestNew_ShowsPlaceholder(t *testing.T) {
	tr := New(nil)

	assert.Empty(t, tr.Turns())
	assert.Contains(t, tr.Content(), "Ask anything")
}

func TestTranscript_AskAndResolve(t *testing.T) {
	tr := New(nil)
	tr.SetDimensions(100, 20)

	i := tr.Ask("How long do refunds take?")

	assert.Equal(t, 0, i)
	assert.True(t, tr.Pending())
	assert.Contains(t, tr.Content(), "How long do refunds take?")
	assert.Contains(t, tr.Content(), "thinking")

	tr.Resolve(i, refundAnswer(), "")

	assert.False(t, tr.Pending())
	assert.Contains(t, tr.Content(), "Refunds are issued within 30 days.")
	assert.NotContains(t, tr.Content(), "thinking")
}

func TestTranscript_ResolveWithError(t *testing.T) {
	tr := New(nil)
	tr.SetDimensions(100, 20)
	i := tr.Ask("anything")

	tr.Resolve(i, nil, "the system is temporarily unavailable")

	require.Len(t, tr.Turns(), 1)
	assert.Equal(t, "the system is temporarily unavailable", tr.Turns()[0].Err)
	assert.Contains(t, tr.Content(), "temporarily unavailable")
}

func TestTranscript_ResolveOutOfRange(t *testing.T) {
	tr := New(nil)
	i := tr.Ask("anything")
	tr.Clear()

	assert.NotPanics(t, func() { tr.Resolve(i, refundAnswer(), "") })
	assert.Empty(t, tr.Turns())
}

func TestTranscript_ToggleSources(t *testing.T) {
	tr := New(nil)
	tr.SetDimensions(120, 20)
	tr.Resolve(tr.Ask("refunds?"), refundAnswer(), "")

	assert.NotContains(t, tr.Content(), "policy.txt")

	assert.True(t, tr.ToggleSources())
	assert.Contains(t, tr.Content(), "[1] policy.txt (0.87)")

	assert.False(t, tr.ToggleSources())
	assert.NotContains(t, tr.Content(), "policy.txt")
}

func TestTranscript_NoContextSources(t *testing.T) {
	tr := New(nil)
	tr.SetDimensions(120, 20)
	tr.ToggleSources()

	tr.Resolve(tr.Ask("unrelated"), &domain.Answer{Text: "I don't know.", NoContext: true}, "")

	assert.Contains(t, tr.Content(), "no passages matched")
}

func TestTranscript_KeepsTurnsInOrder(t *testing.T) {
	tr := New(nil)
	tr.SetDimensions(100, 40)

	tr.Resolve(tr.Ask("first question"), &domain.Answer{Text: "first answer"}, "")
	tr.Resolve(tr.Ask("second question"), &domain.Answer{Text: "second answer"}, "")

	content := tr.Content()
	assert.Less(t, strings.Index(content, "first answer"), strings.Index(content, "second question"))
}

func TestTranscript_Clear(t *testing.T) {
	tr := New(nil)
	tr.Ask("question")

	tr.Clear()

	assert.Empty(t, tr.Turns())
	assert.False(t, tr.Pending())
	assert.Contains(t, tr.Content(), "Ask anything")
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "a b c", preview("a\n\nb\t c"))

	long := strings.Repeat("x", passagePreview+10)
	got := preview(long)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Len(t, []rune(got), passagePreview+3)
}

func TestTranscript_SetDimensionsMinimum(t *testing.T) {
	tr := New(nil)

	tr.SetDimensions(5, 1)

	assert.Equal(t, 20, tr.viewport.Width)
	assert.Equal(t, 3, tr.viewport.Height)
}
