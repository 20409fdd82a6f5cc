// Package styles holds the chat UI's colours and lipgloss styles.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Palette names colours by role. Each has a light and a dark variant and
// lipgloss picks one from the terminal background.
type Palette struct {
	Accent   lipgloss.AdaptiveColor // headings and the input label
	Question lipgloss.AdaptiveColor // the user's turns
	Text     lipgloss.AdaptiveColor
	Dim      lipgloss.AdaptiveColor // passages, hints, placeholders
	Danger   lipgloss.AdaptiveColor
	Frame    lipgloss.AdaptiveColor // borders
	Bar      lipgloss.AdaptiveColor // status bar background
}

// DefaultPalette is the askdocs colour scheme.
func DefaultPalette() Palette {
	return Palette{
		Accent:   lipgloss.AdaptiveColor{Light: "#0F766E", Dark: "#2DD4BF"},
		Question: lipgloss.AdaptiveColor{Light: "#1D4ED8", Dark: "#93C5FD"},
		Text:     lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#E5E7EB"},
		Dim:      lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"},
		Danger:   lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#FCA5A5"},
		Frame:    lipgloss.AdaptiveColor{Light: "#D1D5DB", Dark: "#4B5563"},
		Bar:      lipgloss.AdaptiveColor{Light: "#F3F4F6", Dark: "#111827"},
	}
}

// Styles are the rendered roles used across the chat UI.
type Styles struct {
	Title      lipgloss.Style
	Normal     lipgloss.Style
	Muted      lipgloss.Style
	Help       lipgloss.Style
	Error      lipgloss.Style
	Question   lipgloss.Style
	Answer     lipgloss.Style
	Passage    lipgloss.Style // source text under an answer, indented past it
	InputField lipgloss.Style
	StatusBar  lipgloss.Style
	Transcript lipgloss.Style
}

// New derives the styles from p.
func New(p Palette) *Styles {
	framed := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(p.Frame).
		Padding(0, 1)

	return &Styles{
		Title:      lipgloss.NewStyle().Bold(true).Foreground(p.Accent),
		Normal:     lipgloss.NewStyle().Foreground(p.Text),
		Muted:      lipgloss.NewStyle().Foreground(p.Dim),
		Help:       lipgloss.NewStyle().Foreground(p.Dim).Italic(true),
		Error:      lipgloss.NewStyle().Foreground(p.Danger),
		Question:   lipgloss.NewStyle().Bold(true).Foreground(p.Question),
		Answer:     lipgloss.NewStyle().Foreground(p.Text).PaddingLeft(2),
		Passage:    lipgloss.NewStyle().Foreground(p.Dim).PaddingLeft(4),
		InputField: framed,
		StatusBar:  lipgloss.NewStyle().Foreground(p.Dim).Background(p.Bar).Padding(0, 1),
		Transcript: framed,
	}
}

// DefaultStyles returns New(DefaultPalette()).
func DefaultStyles() *Styles {
	return New(DefaultPalette())
}
