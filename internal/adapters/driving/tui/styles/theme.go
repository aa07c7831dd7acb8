// Package styles holds the palette and lipgloss styles of the chat TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme is the palette, named by what each colour marks on screen.
type Theme struct {
	Accent    lipgloss.Color // view headings and the input prompt
	Question  lipgloss.Color // the user's turns
	Text      lipgloss.Color // answers and file names
	Dim       lipgloss.Color // previews, metadata, hints
	Highlight lipgloss.Color // background of the cursor row
	Score     lipgloss.Color // similarity of the selected source
	Notice    lipgloss.Color // truncated context
	Failure   lipgloss.Color
	Frame     lipgloss.Color // input box border
	Bar       lipgloss.Color // status bar background
}

// DefaultTheme is a dark palette tuned for reading long answers.
func DefaultTheme() *Theme {
	return &Theme{
		Accent:    lipgloss.Color("#2DD4BF"),
		Question:  lipgloss.Color("#FBBF24"),
		Text:      lipgloss.Color("#E5E7EB"),
		Dim:       lipgloss.Color("#8B93A1"),
		Highlight: lipgloss.Color("#134E4A"),
		Score:     lipgloss.Color("#86EFAC"),
		Notice:    lipgloss.Color("#FDBA74"),
		Failure:   lipgloss.Color("#F87171"),
		Frame:     lipgloss.Color("#374151"),
		Bar:       lipgloss.Color("#111827"),
	}
}

// Styles are the rendered roles shared by the ask and files views.
type Styles struct {
	theme *Theme

	Heading        lipgloss.Style
	SourcesHeading lipgloss.Style
	Prompt         lipgloss.Style
	InputBox       lipgloss.Style

	Question lipgloss.Style
	Answer   lipgloss.Style
	Notice   lipgloss.Style

	// Rows of the source and file lists.
	Row     lipgloss.Style
	Cursor  lipgloss.Style
	Score   lipgloss.Style
	Preview lipgloss.Style
	Meta    lipgloss.Style

	Dim       lipgloss.Style
	Failure   lipgloss.Style
	Answered  lipgloss.Style
	StatusBar lipgloss.Style
	KeyHints  lipgloss.Style
}

// NewStyles derives every style from theme. A nil theme means DefaultTheme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	return &Styles{
		theme: theme,

		Heading: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Accent),
		SourcesHeading: lipgloss.NewStyle().
			Bold(true).
			Underline(true).
			Foreground(theme.Accent),
		Prompt: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Accent),
		InputBox: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Frame).
			Padding(0, 1),

		Question: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Question),
		Answer: lipgloss.NewStyle().
			Foreground(theme.Text).
			PaddingLeft(2),
		Notice: lipgloss.NewStyle().
			Italic(true).
			Foreground(theme.Notice),

		Row: lipgloss.NewStyle().
			Foreground(theme.Text),
		Cursor: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Text).
			Background(theme.Highlight),
		Score: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Score),
		Preview: lipgloss.NewStyle().
			Italic(true).
			Foreground(theme.Dim),
		Meta: lipgloss.NewStyle().
			Foreground(theme.Dim),

		Dim: lipgloss.NewStyle().
			Foreground(theme.Dim),
		Failure: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Failure),
		Answered: lipgloss.NewStyle().
			Foreground(theme.Score),
		StatusBar: lipgloss.NewStyle().
			Foreground(theme.Dim).
			Background(theme.Bar).
			Padding(0, 1),
		KeyHints: lipgloss.NewStyle().
			Faint(true).
			Foreground(theme.Dim),
	}
}

// DefaultStyles returns styles with the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Theme returns the palette the styles were built from.
func (s *Styles) Theme() *Theme {
	return s.theme
}
