package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/views/ask"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/views/files"
)

// Session selects what the TUI chats about on startup.
type Session struct {
	// Tenant owns the files being asked about.
	Tenant string

	// Filename opens the ask view directly when set. Otherwise the app
	// starts in the file picker.
	Filename string

	// TopK overrides the number of retrieved chunks when positive.
	TopK int
}

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	styles *styles.Styles
	keymap *keymap.KeyMap

	askView   *ask.View
	filesView *files.View

	session Session

	// currentView tracks which view is active; previousView is restored
	// when leaving help.
	currentView  messages.ViewType
	previousView messages.ViewType

	// err holds the last error that occurred.
	err error

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports, session Session) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	askView := ask.NewView(s, km, ports.Ask).WithTopK(session.TopK)
	askView.SetFile(session.Tenant, session.Filename)

	start := messages.ViewAsk
	if session.Filename == "" {
		start = messages.ViewFiles
	}

	return &App{
		ports:       ports,
		ctx:         context.Background(),
		styles:      s,
		keymap:      km,
		askView:     askView,
		filesView:   files.NewView(s, ports.Files),
		session:     session,
		currentView: start,
	}, nil
}

// WithContext sets the context for the app and its views.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.askView.WithContext(ctx)
	a.filesView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.SetWindowTitle("docrag"),
		a.askView.Init(),
	}
	if a.currentView == messages.ViewFiles {
		cmds = append(cmds, a.filesView.SetTenant(a.session.Tenant))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
//
//nolint:gocyclo // central message handler
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case messages.ViewChanged:
		return a, a.switchView(msg.View)

	case messages.FileSelected:
		a.session.Filename = msg.Record.Filename
		a.askView.SetFile(a.session.Tenant, msg.Record.Filename)
		a.currentView = messages.ViewAsk
		return a, nil

	case messages.AnswerReceived:
		if msg.Err != nil {
			a.err = msg.Err
		}
		a.askView, cmd = a.askView.Update(msg)
		return a, cmd

	case messages.FilesLoaded:
		if msg.Err != nil {
			a.err = msg.Err
		}
		a.filesView, cmd = a.filesView.Update(msg)
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err
		return a.forward(msg)

	case messages.Quit:
		return a, tea.Quit
	}

	return a.forward(msg)
}

func (a *App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}

	if a.currentView == messages.ViewHelp {
		if msg.Type == tea.KeyEsc || keymap.Matches(msg.String(), a.keymap.Help) {
			a.currentView = a.previousView
			return a, nil
		}
		if keymap.Matches(msg.String(), a.keymap.Quit) {
			return a, tea.Quit
		}
		return a, nil
	}

	// q and ? are ordinary characters while a question is being typed
	if !a.capturing() {
		switch {
		case keymap.Matches(msg.String(), a.keymap.Quit):
			return a, tea.Quit
		case keymap.Matches(msg.String(), a.keymap.Help):
			a.previousView = a.currentView
			a.currentView = messages.ViewHelp
			return a, nil
		}
	}

	return a.forward(msg)
}

// forward hands msg to the active view.
func (a *App) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.currentView {
	case messages.ViewAsk:
		a.askView, cmd = a.askView.Update(msg)
	case messages.ViewFiles:
		a.filesView, cmd = a.filesView.Update(msg)
	case messages.ViewHelp:
	}
	return a, cmd
}

func (a *App) switchView(v messages.ViewType) tea.Cmd {
	switch v {
	case messages.ViewFiles:
		a.currentView = messages.ViewFiles
		return a.filesView.SetTenant(a.session.Tenant)
	case messages.ViewAsk:
		// Nothing to ask about until a file is picked
		if a.session.Filename == "" {
			return nil
		}
		a.currentView = messages.ViewAsk
		return a.askView.Init()
	case messages.ViewHelp:
		a.previousView = a.currentView
		a.currentView = messages.ViewHelp
	}
	return nil
}

func (a *App) capturing() bool {
	return a.currentView == messages.ViewAsk && a.askView.Capturing()
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewFiles:
		return a.filesView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	case messages.ViewAsk:
	}
	return a.askView.View()
}

func (a *App) viewHelp() string {
	return a.styles.Heading.Render("Help") + `

Ask:
  (type)      Enter a question
  enter       Ask
  tab         Browse sources of the last answer
  ctrl+n      Start a new chat
  ctrl+f      Pick another file
  esc         Pick another file

Sources:
  j/k, ↑/↓    Navigate sources
  tab         Back to the question input

Files:
  j/k, ↑/↓    Navigate files
  enter       Ask about the file
  r           Reload
  esc         Back to the chat

Global:
  ?           Toggle help
  q, ctrl+c   Quit

[esc] back`
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Session returns the tenant and file currently in use.
func (a *App) Session() Session {
	return a.session
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.askView.SetDimensions(width, height)
	a.filesView.SetDimensions(width, height)
}
