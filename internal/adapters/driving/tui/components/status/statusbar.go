// Package status renders the one-line bar under the chat input.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/askdocs/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/askdocs/internal/adapters/driving/tui/styles"
)

// State is what the bar is currently reporting.
type State string

const (
	StateReady    State = "ready"
	StateThinking State = "thinking"
	StateError    State = "error"
)

// Bar shows the chat state on the left and key hints on the right. When
// idle with no note it summarises the served index instead.
type Bar struct {
	styles *styles.Styles
	keymap *keymap.KeyMap

	state State
	note  string
	width int

	entries int
	model   string
}

// NewBar returns an 80-column bar in the ready state. Nil arguments take
// the defaults.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &Bar{styles: s, keymap: km, state: StateReady, width: 80}
}

// Thinking marks a question in flight.
func (b *Bar) Thinking() {
	b.state, b.note = StateThinking, ""
}

// Fail shows text as an error until the next state change.
func (b *Bar) Fail(text string) {
	b.state, b.note = StateError, text
}

// Ready returns to idle and clears any note.
func (b *Bar) Ready() {
	b.state, b.note = StateReady, ""
}

// Note shows text while idle. An empty note brings back the index summary.
func (b *Bar) Note(text string) {
	b.state, b.note = StateReady, text
}

// SetIndex records the index size and embedding model for the summary.
func (b *Bar) SetIndex(entries int, model string) {
	b.entries, b.model = entries, model
}

// SetWidth sets the rendered width in columns.
func (b *Bar) SetWidth(width int) {
	b.width = width
}

// State returns what the bar is reporting.
func (b *Bar) State() State { return b.state }

// Message returns the current note or error text.
func (b *Bar) Message() string { return b.note }

// Entries returns the index size last recorded.
func (b *Bar) Entries() int { return b.entries }

// View renders the bar. Hints are dropped before the status is cut, and a
// status wider than the bar is truncated with an ellipsis.
func (b *Bar) View() string {
	inner := b.width - b.styles.StatusBar.GetHorizontalFrameSize()
	left := b.status()
	right := b.hints()

	if lipgloss.Width(left)+1+lipgloss.Width(right) > inner {
		right = ""
	}
	if lipgloss.Width(left) > inner {
		left = truncate(left, inner)
	}

	gap := max(inner-lipgloss.Width(left)-lipgloss.Width(right), 0)
	line := b.styleFor().Render(left) + strings.Repeat(" ", gap) + b.styles.Muted.Render(right)
	return b.styles.StatusBar.Width(b.width).Render(line)
}

func (b *Bar) status() string {
	switch {
	case b.state == StateThinking:
		return "Thinking..."
	case b.state == StateError && b.note != "":
		return "Error: " + b.note
	case b.state == StateError:
		return "Error"
	case b.note != "":
		return b.note
	}
	return b.summary()
}

func (b *Bar) styleFor() lipgloss.Style {
	switch {
	case b.state == StateError:
		return b.styles.Error
	case b.state == StateReady && b.note != "":
		return b.styles.Normal
	}
	return b.styles.Muted
}

// summary describes the served index, e.g. "42 passages · hashing-v1".
func (b *Bar) summary() string {
	text := fmt.Sprintf("%d passages", b.entries)
	if b.entries == 1 {
		text = "1 passage"
	}
	if b.model != "" {
		text += " · " + b.model
	}
	return text
}

func (b *Bar) hints() string {
	bindings := b.keymap.ShortHelp()
	hints := make([]string, 0, len(bindings))
	for _, kb := range bindings {
		h := kb.Help()
		hints = append(hints, h.Key+": "+h.Desc)
	}
	return strings.Join(hints, " | ")
}

func truncate(s string, width int) string {
	if width < 1 {
		return ""
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}
