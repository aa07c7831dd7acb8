// Package ask provides the question and answer view for the TUI.
package ask

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

// maxExchanges bounds how many past exchanges the transcript renders.
const maxExchanges = 3

// Exchange is one question with its outcome.
type Exchange struct {
	Question  string
	Answer    string
	Err       error
	Truncated bool
}

// View is the chat view: a question input, the transcript and the sources
// of the latest answer.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.QuestionInput
	list      *list.SourceList
	statusbar *status.Bar

	askService driving.AskService
	ctx        context.Context

	tenant   string
	filename string
	topK     int

	transcript []Exchange
	pending    bool

	width      int
	height     int
	ready      bool
	focusInput bool // true = typing a question, false = browsing sources
}

// NewView creates a new ask view.
func NewView(s *styles.Styles, km *keymap.KeyMap, askService driving.AskService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:     s,
		keymap:     km,
		input:      input.NewQuestionInput(s),
		list:       list.NewSourceList(s),
		statusbar:  status.NewBar(s, km),
		askService: askService,
		ctx:        context.Background(),
		width:      80,
		height:     24,
		focusInput: true,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// WithTopK overrides the number of retrieved chunks per question.
func (v *View) WithTopK(k int) *View {
	v.topK = k
	return v
}

// SetFile selects the file questions are asked against and clears the
// transcript when it changes.
func (v *View) SetFile(tenant, filename string) {
	if tenant == v.tenant && filename == v.filename {
		return
	}
	v.tenant = tenant
	v.filename = filename
	v.Reset()
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the ask view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.AnswerReceived:
		v.handleAnswer(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.pending = false
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyEsc, keymap.Matches(msg.String(), v.keymap.Files):
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewFiles}
		}
	case keymap.Matches(msg.String(), v.keymap.NewQuestion):
		v.Reset()
		return v, v.input.Focus()
	case keymap.Matches(msg.String(), v.keymap.Focus):
		return v, v.toggleFocus()
	}

	if v.focusInput {
		if msg.Type == tea.KeyEnter {
			return v, v.submit()
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	v.list, _ = v.list.Update(msg)
	return v, nil
}

func (v *View) toggleFocus() tea.Cmd {
	if v.focusInput {
		if v.list.IsEmpty() {
			return nil
		}
		v.focusInput = false
		v.input.Blur()
		return nil
	}
	v.focusInput = true
	return v.input.Focus()
}

// submit sends the typed question to the ask service.
func (v *View) submit() tea.Cmd {
	question := strings.TrimSpace(v.input.Value())
	if question == "" || v.pending {
		return nil
	}
	v.input.Reset()
	v.pending = true
	v.statusbar.SetState(status.StateThinking)
	v.statusbar.SetMessage("")
	v.transcript = append(v.transcript, Exchange{Question: question})

	req := driving.AskRequest{
		Tenant:   v.tenant,
		Filename: v.filename,
		Question: question,
		TopK:     v.topK,
	}
	svc := v.askService
	ctx := v.ctx
	return func() tea.Msg {
		if svc == nil {
			return messages.AnswerReceived{Err: ErrNoAskService}
		}
		if req.Filename == "" {
			return messages.AnswerReceived{Err: ErrNoFile}
		}
		answer, err := svc.Ask(ctx, req)
		return messages.AnswerReceived{Answer: answer, Err: err}
	}
}

func (v *View) handleAnswer(msg messages.AnswerReceived) {
	v.pending = false
	if len(v.transcript) == 0 {
		v.transcript = append(v.transcript, Exchange{})
	}
	last := &v.transcript[len(v.transcript)-1]

	if msg.Err != nil {
		last.Err = msg.Err
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
		return
	}
	if msg.Answer == nil {
		return
	}

	last.Answer = msg.Answer.Text
	last.Truncated = msg.Answer.ContextTruncated
	v.list.SetSources(msg.Answer.Sources)
	v.statusbar.SetState(status.StateAnswered)
	v.statusbar.SetAnswerStats(len(msg.Answer.Sources), msg.Answer.Turns, msg.Answer.ContextTruncated)
}

// View renders the ask view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 12)

	title := "docrag"
	if v.filename != "" {
		title += " · " + v.tenant + "/" + v.filename
	}
	sections = append(sections, v.styles.Heading.Render(title), "")

	if t := v.renderTranscript(); t != "" {
		sections = append(sections, t, "")
	}

	sections = append(sections, v.input.View(), "")

	if !v.list.IsEmpty() {
		sections = append(sections, v.list.View(), "")
	}

	sections = append(sections, v.statusbar.View())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (v *View) renderTranscript() string {
	start := 0
	if len(v.transcript) > maxExchanges {
		start = len(v.transcript) - maxExchanges
	}

	wrap := v.width - 4
	if wrap < 20 {
		wrap = 20
	}

	lines := make([]string, 0, (len(v.transcript)-start)*2)
	for i := start; i < len(v.transcript); i++ {
		ex := v.transcript[i]
		lines = append(lines, v.styles.Question.Render("Q: "+ex.Question))
		switch {
		case ex.Err != nil:
			lines = append(lines, v.styles.Failure.Render("  "+ex.Err.Error()))
		case ex.Answer == "" && v.pending && i == len(v.transcript)-1:
			lines = append(lines, v.styles.Dim.Render("  thinking..."))
		default:
			lines = append(lines, v.styles.Answer.Width(wrap).Render(ex.Answer))
			if ex.Truncated {
				lines = append(lines, v.styles.Notice.Render("  (context truncated to fit the token budget)"))
			}
		}
	}
	return strings.Join(lines, "\n")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.list.SetDimensions(width, height/3)
	v.statusbar.SetWidth(width)
}

// Width returns the current width.
func (v *View) Width() int { return v.width }

// Height returns the current height.
func (v *View) Height() int { return v.height }

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool { return v.ready }

// Pending reports whether a question is awaiting its answer.
func (v *View) Pending() bool { return v.pending }

// InputFocused returns whether the question input has focus.
func (v *View) InputFocused() bool { return v.focusInput }

// Capturing reports whether keystrokes are going into the text input.
func (v *View) Capturing() bool { return v.focusInput }

// Filename returns the file questions are asked against.
func (v *View) Filename() string { return v.filename }

// Tenant returns the tenant of the active file.
func (v *View) Tenant() string { return v.tenant }

// Transcript returns the exchanges so far.
func (v *View) Transcript() []Exchange { return v.transcript }

// Sources returns the sources of the latest answer.
func (v *View) Sources() []domain.ScoredChunk { return v.list.Sources() }

// SelectedSource returns the highlighted source, or nil.
func (v *View) SelectedSource() *domain.ScoredChunk { return v.list.SelectedSource() }

// SetQuestion fills the input.
func (v *View) SetQuestion(q string) { v.input.SetValue(q) }

// Question returns the text in the input.
func (v *View) Question() string { return v.input.Value() }

// Reset clears the transcript and returns focus to the input.
func (v *View) Reset() {
	v.transcript = nil
	v.pending = false
	v.focusInput = true
	v.input.Focus()
	v.input.Reset()
	v.list.SetSources(nil)
	v.statusbar.Clear()
}
