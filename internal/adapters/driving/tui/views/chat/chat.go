// Package chat provides the question and answer view for the TUI.
package chat

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/askdocs/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/askdocs/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/askdocs/internal/adapters/driving/tui/components/transcript"
	"github.com/custodia-labs/askdocs/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/askdocs/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/askdocs/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driving"
)

// ErrNoQueryService indicates that no query service was provided.
var ErrNoQueryService = errors.New("query service is required")

// chromeHeight is the space taken by the header, input and status bar.
const chromeHeight = 7

// View is the chat screen: transcript, question input and status bar.
type View struct {
	styles     *styles.Styles
	keymap     *keymap.KeyMap
	input      *input.ChatInput
	transcript *transcript.Transcript
	statusbar  *status.Bar

	queryService driving.QueryService
	indexService driving.IndexService
	ctx          context.Context

	width  int
	height int
	ready  bool
	err    error
}

// NewView creates a new chat view. The index service is optional.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	queryService driving.QueryService,
	indexService driving.IndexService,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:       s,
		keymap:       km,
		input:        input.NewChatInput(s),
		transcript:   transcript.New(s),
		statusbar:    status.NewBar(s, km),
		queryService: queryService,
		indexService: indexService,
		ctx:          context.Background(),
		width:        80,
		height:       24,
	}
}

// WithContext sets the context used for questions.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init starts the cursor blinking and loads the index summary.
func (v *View) Init() tea.Cmd {
	return tea.Batch(v.input.Init(), v.loadIndexInfo())
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		v.transcript, cmd = v.transcript.Update(msg)
		return v, cmd

	case messages.AnswerReceived:
		return v, v.handleAnswer(msg)

	case messages.IndexInfoLoaded:
		v.statusbar.SetIndex(msg.Info.Count, msg.Info.Identity.EmbeddingModel)
		return v, nil

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// handleKeyMsg processes keyboard input.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	key := msg.String()

	switch {
	case keymap.Matches(key, v.keymap.Send):
		return v, v.submit()

	case keymap.Matches(key, v.keymap.Back):
		v.input.Reset()
		return v, nil

	case keymap.Matches(key, v.keymap.Previous):
		v.input.Recall(-1)
		return v, nil

	case keymap.Matches(key, v.keymap.Next):
		v.input.Recall(1)
		return v, nil

	case keymap.Matches(key, v.keymap.Sources):
		if v.transcript.ToggleSources() {
			v.statusbar.Note("Showing sources")
		} else {
			v.statusbar.Note("")
		}
		return v, nil

	case keymap.Matches(key, v.keymap.Clear):
		v.transcript.Clear()
		v.ClearError()
		return v, nil

	case keymap.Matches(key, v.keymap.ScrollUp), keymap.Matches(key, v.keymap.ScrollDown):
		var cmd tea.Cmd
		v.transcript, cmd = v.transcript.Update(msg)
		return v, cmd
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// submit sends the typed question. Only one question is in flight at a time.
func (v *View) submit() tea.Cmd {
	if v.transcript.Pending() {
		return nil
	}
	question := v.input.Submit()
	if question == "" {
		return nil
	}

	v.err = nil
	v.statusbar.Thinking()
	turn := v.transcript.Ask(question)
	return v.ask(turn, question)
}

// ask runs the query pipeline off the UI goroutine.
func (v *View) ask(turn int, question string) tea.Cmd {
	return func() tea.Msg {
		if v.queryService == nil {
			return messages.AnswerReceived{Turn: turn, Question: question, Err: ErrNoQueryService}
		}
		answer, err := v.queryService.Answer(v.ctx, question)
		return messages.AnswerReceived{Turn: turn, Question: question, Answer: answer, Err: err}
	}
}

// handleAnswer records the answer and refreshes the index summary, which may
// have grown through uploads made elsewhere.
func (v *View) handleAnswer(msg messages.AnswerReceived) tea.Cmd {
	if msg.Err != nil {
		text := errorText(msg.Err)
		v.transcript.Resolve(msg.Turn, nil, text)
		v.err = msg.Err
		v.statusbar.Fail(text)
		return nil
	}

	v.transcript.Resolve(msg.Turn, msg.Answer, "")
	v.statusbar.Ready()
	return v.loadIndexInfo()
}

func (v *View) loadIndexInfo() tea.Cmd {
	if v.indexService == nil {
		return nil
	}
	return func() tea.Msg {
		return messages.IndexInfoLoaded{Info: v.indexService.Info()}
	}
}

// errorText is what the user sees for a failed question.
func errorText(err error) string {
	kind := domain.KindOf(err)
	if kind == domain.KindInvalidInput || errors.Is(err, ErrNoQueryService) {
		return err.Error()
	}
	return kind.UserMessage()
}

func (v *View) setError(err error) {
	v.err = err
	v.statusbar.Fail(errorText(err))
}

// View renders the chat view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	header := v.styles.Title.Render("askdocs")
	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		v.transcript.View(),
		v.input.View(),
		v.statusbar.View(),
	)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.transcript.SetDimensions(width, height-chromeHeight)
	v.statusbar.SetWidth(width)
}

// Width returns the current width.
func (v *View) Width() int {
	return v.width
}

// Height returns the current height.
func (v *View) Height() int {
	return v.height
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// Input returns the text currently typed.
func (v *View) Input() string {
	return v.input.Value()
}

// SetInput replaces the typed text.
func (v *View) SetInput(text string) {
	v.input.SetValue(text)
}

// Turns returns the conversation so far.
func (v *View) Turns() []transcript.Turn {
	return v.transcript.Turns()
}

// Status returns the status bar state.
func (v *View) Status() status.State {
	return v.statusbar.State()
}

// Err returns the last error, if any.
func (v *View) Err() error {
	return v.err
}

// ClearError clears the current error.
func (v *View) ClearError() {
	v.err = nil
	v.statusbar.Ready()
}

// Reset clears the input and transcript.
func (v *View) Reset() {
	v.input.Reset()
	v.input.Focus()
	v.transcript.Clear()
	v.ClearError()
}
