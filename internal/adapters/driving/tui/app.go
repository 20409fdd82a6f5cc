package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/askdocs/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/askdocs/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/askdocs/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/askdocs/internal/adapters/driving/tui/views/chat"
)

var _ tea.Model = (*App)(nil)

// App is the root bubbletea model. It owns the chat screen and a help
// overlay and handles the keys that work everywhere.
type App struct {
	ctx    context.Context
	styles *styles.Styles
	keys   *keymap.KeyMap
	help   help.Model
	chat   *chat.View

	showHelp      bool
	width, height int
	ready         bool
}

// NewApp builds the UI over ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}
	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	h := help.New()
	h.Styles.FullKey = s.Title
	h.Styles.FullDesc = s.Normal
	h.Styles.FullSeparator = s.Muted

	return &App{
		ctx:    context.Background(),
		styles: s,
		keys:   km,
		help:   h,
		chat:   chat.NewView(s, km, ports.Query, ports.Index),
	}, nil
}

// WithContext makes ctx the parent of every question asked and of the
// program itself, so cancelling it ends the UI.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.chat.WithContext(ctx)
	return a
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(tea.SetWindowTitle("askdocs"), a.chat.Init())
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case messages.Quit:
		return a, tea.Quit

	case tea.KeyMsg:
		k := msg.String()
		switch {
		case keymap.Matches(k, a.keys.Quit):
			return a, tea.Quit
		case keymap.Matches(k, a.keys.Help):
			a.showHelp = !a.showHelp
			return a, nil
		case a.showHelp:
			// Dismissing help swallows the key.
			a.showHelp = false
			return a, nil
		}
	}

	var cmd tea.Cmd
	a.chat, cmd = a.chat.Update(msg)
	return a, cmd
}

func (a *App) View() string {
	switch {
	case !a.ready:
		return "Initialising..."
	case a.showHelp:
		return lipgloss.JoinVertical(lipgloss.Left,
			a.styles.Title.Render("Help"),
			"",
			a.help.FullHelpView(a.keys.FullHelp()),
			"",
			a.styles.Help.Render("Answers come only from the indexed documents."),
			a.styles.Muted.Render("any key to go back"),
		)
	default:
		return a.chat.View()
	}
}

// Run takes over the terminal until the user quits or the context ends.
func (a *App) Run() error {
	_, err := tea.NewProgram(a,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(a.ctx),
	).Run()
	return err
}

// SetDimensions resizes the UI as a tea.WindowSizeMsg would.
func (a *App) SetDimensions(width, height int) {
	a.width, a.height = width, height
	a.ready = true
	a.help.Width = width
	a.chat.SetDimensions(width, height)
}

func (a *App) Chat() *chat.View  { return a.chat }
func (a *App) HelpVisible() bool { return a.showHelp }
func (a *App) Ready() bool       { return a.ready }
