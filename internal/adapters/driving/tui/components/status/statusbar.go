// Package status provides status bar components for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/styles"
)

// State represents the current application state for display.
type State string

const (
	StateReady    State = "ready"
	StateThinking State = "thinking"
	StateError    State = "error"
	StateHelp     State = "help"
	StateAnswered State = "answered"
	StatePicking  State = "picking"
)

// Bar displays application status and keybinding hints.
type Bar struct {
	styles      *styles.Styles
	keymap      *keymap.KeyMap
	state       State
	message     string
	sourceCount int
	turns       int
	truncated   bool
	width       int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles: s,
		keymap: km,
		state:  StateReady,
		width:  80,
	}
}

// Init initialises the status bar.
func (s *Bar) Init() tea.Cmd {
	return nil
}

// Update handles status bar messages.
func (s *Bar) Update(msg tea.Msg) (*Bar, tea.Cmd) {
	// Bar is mostly passive, updated via Set methods
	return s, nil
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	padding := s.width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	return s.styles.StatusBar.Width(s.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

func (s *Bar) renderLeft() string {
	switch s.state {
	case StateThinking:
		return s.styles.Dim.Render("Thinking...")
	case StateError:
		if s.message != "" {
			return s.styles.Failure.Render(fmt.Sprintf("Error: %s", s.message))
		}
		return s.styles.Failure.Render("Error")
	case StateHelp:
		return s.styles.Row.Render("Help")
	case StatePicking:
		if s.message != "" {
			return s.styles.Row.Render(s.message)
		}
		return s.styles.Dim.Render("Pick a file")
	case StateAnswered:
		parts := []string{plural(s.sourceCount, "source"), plural(s.turns, "turn")}
		if s.truncated {
			parts = append(parts, "context truncated")
		}
		return s.styles.Answered.Render(strings.Join(parts, " · "))
	case StateReady:
	}
	if s.message != "" {
		return s.styles.Dim.Render(s.message)
	}
	return s.styles.Dim.Render("Ready")
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// renderRight renders keybinding hints.
func (s *Bar) renderRight() string {
	var bindings []key.Binding

	switch s.state {
	case StatePicking:
		bindings = s.keymap.FilesHelp()
	case StateReady, StateAnswered:
		bindings = s.keymap.AskHelp()
	default:
		bindings = s.keymap.ShortHelp()
	}

	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return s.styles.KeyHints.Render(strings.Join(hints, " | "))
}

// SetState sets the current state.
func (s *Bar) SetState(state State) {
	s.state = state
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// SetMessage sets a custom message.
func (s *Bar) SetMessage(message string) {
	s.message = message
}

// Message returns the current message.
func (s *Bar) Message() string {
	return s.message
}

// SetAnswerStats records the source count, generation turns and truncation
// flag of the latest answer.
func (s *Bar) SetAnswerStats(sources, turns int, truncated bool) {
	s.sourceCount = sources
	s.turns = turns
	s.truncated = truncated
}

// SourceCount returns the latest answer's source count.
func (s *Bar) SourceCount() int { return s.sourceCount }

// Turns returns the latest answer's generation turns.
func (s *Bar) Turns() int { return s.turns }

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Width returns the current width.
func (s *Bar) Width() int {
	return s.width
}

// Clear resets the status bar to default state.
func (s *Bar) Clear() {
	s.state = StateReady
	s.message = ""
	s.sourceCount = 0
	s.turns = 0
	s.truncated = false
}
