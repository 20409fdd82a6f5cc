// Package input is the question field at the bottom of the chat screen.
package input

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/askdocs/internal/adapters/driving/tui/styles"
)

const (
	maxQuestionLength = 2000
	maxHistory        = 100
	label             = "Ask: "
	minFieldWidth     = 20
)

// ChatInput is a single line question field that remembers what was
// asked so earlier questions can be recalled and edited.
type ChatInput struct {
	field  textinput.Model
	styles *styles.Styles
	width  int

	history []string
	// cursor indexes history while recalling; len(history) is the draft.
	cursor int
	draft  string
}

// NewChatInput returns a focused, empty input.
func NewChatInput(s *styles.Styles) *ChatInput {
	if s == nil {
		s = styles.DefaultStyles()
	}
	f := textinput.New()
	f.Placeholder = "Ask a question about your documents..."
	f.CharLimit = maxQuestionLength
	f.Focus()

	c := &ChatInput{field: f, styles: s}
	c.SetWidth(60)
	return c
}

func (c *ChatInput) Init() tea.Cmd {
	return textinput.Blink
}

func (c *ChatInput) Update(msg tea.Msg) (*ChatInput, tea.Cmd) {
	var cmd tea.Cmd
	c.field, cmd = c.field.Update(msg)
	return c, cmd
}

func (c *ChatInput) View() string {
	return lipgloss.JoinHorizontal(lipgloss.Top,
		c.styles.Title.Render(label),
		c.styles.InputField.Render(c.field.View()),
	)
}

// Value is the raw text in the field.
func (c *ChatInput) Value() string { return c.field.Value() }

// SetValue replaces the text and moves the cursor to its end.
func (c *ChatInput) SetValue(v string) {
	c.field.SetValue(v)
	c.field.CursorEnd()
}

// Question is the trimmed text, "" when only whitespace was typed.
func (c *ChatInput) Question() string {
	return strings.TrimSpace(c.field.Value())
}

// Submit returns the question, adds it to the history and clears the
// field. Blank input is left alone and "" returned.
func (c *ChatInput) Submit() string {
	q := c.Question()
	if q == "" {
		return ""
	}
	if n := len(c.history); n == 0 || c.history[n-1] != q {
		c.history = append(c.history, q)
		if len(c.history) > maxHistory {
			c.history = c.history[len(c.history)-maxHistory:]
		}
	}
	c.Reset()
	return q
}

// Recall steps through the history, -1 towards older questions and +1
// back towards the text being typed before recalling started.
func (c *ChatInput) Recall(step int) {
	next := c.cursor + step
	if next < 0 || next > len(c.history) || next == c.cursor {
		return
	}
	if c.cursor == len(c.history) {
		c.draft = c.field.Value()
	}
	c.cursor = next
	if next == len(c.history) {
		c.SetValue(c.draft)
		return
	}
	c.SetValue(c.history[next])
}

// History returns the remembered questions, oldest first.
func (c *ChatInput) History() []string {
	return append([]string(nil), c.history...)
}

// Reset clears the field and ends any recall.
func (c *ChatInput) Reset() {
	c.field.Reset()
	c.cursor = len(c.history)
	c.draft = ""
}

func (c *ChatInput) Focus() tea.Cmd { return c.field.Focus() }
func (c *ChatInput) Blur()          { c.field.Blur() }
func (c *ChatInput) Focused() bool  { return c.field.Focused() }

// SetWidth sizes the whole input, label included.
func (c *ChatInput) SetWidth(width int) {
	c.width = width
	c.field.Width = max(width-lipgloss.Width(label)-4, minFieldWidth)
}

func (c *ChatInput) Width() int { return c.width }
