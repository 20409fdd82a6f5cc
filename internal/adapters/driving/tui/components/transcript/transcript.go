// Package transcript provides the scrolling conversation component for the TUI.
package transcript

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/askdocs/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/askdocs/internal/core/domain"
)

// passagePreview is the number of characters of each source passage shown.
const passagePreview = 160

// Turn is one question and its outcome.
type Turn struct {
	Question string
	Answer   *domain.Answer

	// Err is the caller-facing failure message, if the question failed.
	Err string

	// Pending is true while the answer is being generated.
	Pending bool
}

// Transcript renders the conversation inside a scrollable viewport.
type Transcript struct {
	viewport    viewport.Model
	styles      *styles.Styles
	turns       []Turn
	showSources bool
}

// New creates an empty transcript.
func New(s *styles.Styles) *Transcript {
	if s == nil {
		s = styles.DefaultStyles()
	}
	t := &Transcript{
		viewport: viewport.New(80, 10),
		styles:   s,
	}
	t.refresh()
	return t
}

// Update forwards scrolling keys and mouse events to the viewport.
func (t *Transcript) Update(msg tea.Msg) (*Transcript, tea.Cmd) {
	var cmd tea.Cmd
	t.viewport, cmd = t.viewport.Update(msg)
	return t, cmd
}

// View renders the visible part of the transcript.
func (t *Transcript) View() string {
	return t.styles.Transcript.Render(t.viewport.View())
}

// Ask appends a pending turn and returns its position.
func (t *Transcript) Ask(question string) int {
	t.turns = append(t.turns, Turn{Question: question, Pending: true})
	t.refresh()
	return len(t.turns) - 1
}

// Resolve records the outcome of the turn at i. Out of range positions are
// ignored, which happens when the transcript was cleared mid-question.
func (t *Transcript) Resolve(i int, answer *domain.Answer, errMsg string) {
	if i < 0 || i >= len(t.turns) {
		return
	}
	t.turns[i].Answer = answer
	t.turns[i].Err = errMsg
	t.turns[i].Pending = false
	t.refresh()
}

// ToggleSources shows or hides the passages under each answer.
func (t *Transcript) ToggleSources() bool {
	t.showSources = !t.showSources
	t.refresh()
	return t.showSources
}

// Clear removes every turn.
func (t *Transcript) Clear() {
	t.turns = nil
	t.refresh()
}

// Turns returns the conversation so far.
func (t *Transcript) Turns() []Turn {
	return t.turns
}

// Pending reports whether any turn is awaiting an answer.
func (t *Transcript) Pending() bool {
	for i := range t.turns {
		if t.turns[i].Pending {
			return true
		}
	}
	return false
}

// SetDimensions sizes the viewport inside the frame.
func (t *Transcript) SetDimensions(width, height int) {
	fw, fh := t.styles.Transcript.GetFrameSize()
	t.viewport.Width = max(20, width-fw)
	t.viewport.Height = max(3, height-fh)
	t.refresh()
}

// Content returns the full rendered transcript, including lines scrolled out of view.
func (t *Transcript) Content() string {
	return t.render()
}

// refresh re-renders the content and keeps the newest turn in view.
func (t *Transcript) refresh() {
	t.viewport.SetContent(t.render())
	t.viewport.GotoBottom()
}

func (t *Transcript) render() string {
	if len(t.turns) == 0 {
		return t.styles.Muted.Render("Ask anything about the indexed documents.")
	}

	width := t.viewport.Width
	var b strings.Builder
	for i := range t.turns {
		turn := &t.turns[i]
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(t.styles.Question.Width(width).Render("> " + turn.Question))
		b.WriteString("\n")

		switch {
		case turn.Pending:
			b.WriteString(t.styles.Muted.Render("  thinking..."))
		case turn.Err != "":
			b.WriteString(t.styles.Error.Width(width).Render("  " + turn.Err))
		case turn.Answer != nil:
			b.WriteString(t.styles.Answer.Width(width).Render(turn.Answer.Text))
			if t.showSources {
				b.WriteString(t.renderSources(turn.Answer, width))
			}
		}
	}
	return b.String()
}

func (t *Transcript) renderSources(a *domain.Answer, width int) string {
	if a.NoContext || len(a.Sources) == 0 {
		return "\n" + t.styles.Passage.Render("(no passages matched)")
	}
	var b strings.Builder
	for i, src := range a.Sources {
		label := src.Entry.ChunkID
		if name, ok := src.Entry.Metadata["source"].(string); ok && name != "" {
			label = name
		}
		line := fmt.Sprintf("[%d] %s (%.2f) %s", i+1, label, src.Score, preview(src.Entry.Content))
		b.WriteString("\n")
		b.WriteString(t.styles.Passage.Width(width).Render(line))
	}
	return b.String()
}

// preview flattens whitespace and shortens a passage for display.
func preview(text string) string {
	flat := strings.Join(strings.Fields(text), " ")
	runes := []rune(flat)
	if len(runes) <= passagePreview {
		return flat
	}
	return string(runes[:passagePreview]) + "..."
}
