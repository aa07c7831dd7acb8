// Package files provides the file picker view for the TUI.
package files

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

// ErrNoFileService indicates that no file service was provided.
var ErrNoFileService = errors.New("file service not available")

// View lists a tenant's uploaded files and lets the user pick one.
type View struct {
	styles      *styles.Styles
	fileService driving.FileService
	ctx         context.Context

	tenant       string
	records      []domain.UploadRecord
	selected     int
	width        int
	height       int
	ready        bool
	err          error
	loading      bool
	scrollOffset int
}

// NewView creates a new files view.
func NewView(s *styles.Styles, fileService driving.FileService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:      s,
		fileService: fileService,
		ctx:         context.Background(),
		width:       80,
		height:      24,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// SetTenant sets the tenant and reloads its files.
func (v *View) SetTenant(tenant string) tea.Cmd {
	v.tenant = tenant
	v.records = nil
	v.selected = 0
	v.scrollOffset = 0
	v.err = nil
	return v.Load()
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Load returns a command that lists the tenant's files.
func (v *View) Load() tea.Cmd {
	v.loading = true
	svc := v.fileService
	ctx := v.ctx
	tenant := v.tenant
	return func() tea.Msg {
		if svc == nil {
			return messages.FilesLoaded{Err: ErrNoFileService}
		}
		records, err := svc.List(ctx, tenant)
		return messages.FilesLoaded{Records: records, Err: err}
	}
}

// Update handles messages for the files view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.ready = true
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.FilesLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.records = msg.Records
		if v.selected >= len(v.records) {
			v.selected = 0
			v.scrollOffset = 0
		}
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
			v.adjustScroll()
		}
	case "down", "j":
		if v.selected < len(v.records)-1 {
			v.selected++
			v.adjustScroll()
		}
	case "enter":
		if rec := v.SelectedRecord(); rec != nil {
			picked := *rec
			return v, func() tea.Msg {
				return messages.FileSelected{Record: picked}
			}
		}
	case "r":
		return v, v.Load()
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewAsk}
		}
	}

	return v, nil
}

func (v *View) adjustScroll() {
	visible := v.visibleItemCount()
	if v.selected < v.scrollOffset {
		v.scrollOffset = v.selected
	} else if v.selected >= v.scrollOffset+visible {
		v.scrollOffset = v.selected - visible + 1
	}
}

func (v *View) visibleItemCount() int {
	// Reserve lines for title, help, and padding
	available := v.height - 6
	if available < 1 {
		available = 1
	}
	return available
}

// View renders the files view.
func (v *View) View() string {
	var b strings.Builder

	tenant := v.tenant
	if tenant == "" {
		tenant = "(no tenant)"
	}
	b.WriteString(v.styles.Heading.Render(fmt.Sprintf("Files - %s (%d)", tenant, len(v.records))))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Dim.Render("Loading files..."))
	case v.err != nil:
		b.WriteString(v.styles.Failure.Render("Error: " + v.err.Error()))
	case len(v.records) == 0:
		b.WriteString(v.styles.Dim.Render("No files uploaded for this tenant."))
	default:
		visible := v.visibleItemCount()
		end := min(v.scrollOffset+visible, len(v.records))
		for i := v.scrollOffset; i < end; i++ {
			b.WriteString(v.renderRecord(i, &v.records[i]))
			b.WriteString("\n")
		}
		if len(v.records) > visible {
			b.WriteString(v.styles.Dim.Render(fmt.Sprintf("  [%d-%d of %d]", v.scrollOffset+1, end, len(v.records))))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.KeyHints.Render("↑/↓: navigate  enter: ask  r: reload  esc: back"))
	return b.String()
}

func (v *View) renderRecord(index int, rec *domain.UploadRecord) string {
	name := rec.Filename
	maxLen := v.width/2 - 4
	if maxLen < 10 {
		maxLen = 10
	}
	if r := []rune(name); len(r) > maxLen {
		name = string(r[:maxLen-3]) + "..."
	}

	detail := fmt.Sprintf("%s  %d chunks", rec.Format, rec.Chunks)
	if !rec.UpdatedAt.IsZero() {
		detail += "  " + rec.UpdatedAt.Format("2006-01-02 15:04")
	}

	if index == v.selected {
		return v.styles.Cursor.Render(fmt.Sprintf("> %-*s", maxLen, name)) + "  " + v.styles.Meta.Render(detail)
	}
	return v.styles.Row.Render(fmt.Sprintf("  %-*s", maxLen, name)) + "  " + v.styles.Meta.Render(detail)
}

// Records returns the loaded files.
func (v *View) Records() []domain.UploadRecord {
	return v.records
}

// SelectedRecord returns the highlighted file, or nil.
func (v *View) SelectedRecord() *domain.UploadRecord {
	if v.selected < 0 || v.selected >= len(v.records) {
		return nil
	}
	return &v.records[v.selected]
}

// Selected returns the highlighted index.
func (v *View) Selected() int { return v.selected }

// Tenant returns the tenant whose files are listed.
func (v *View) Tenant() string { return v.tenant }

// Loading reports whether a listing is in flight.
func (v *View) Loading() bool { return v.loading }

// Err returns the last listing error.
func (v *View) Err() error { return v.err }

// Ready returns whether the view has been sized.
func (v *View) Ready() bool { return v.ready }

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}
