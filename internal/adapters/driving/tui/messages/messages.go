// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/docrag/internal/core/domain"
)

// QuestionSubmitted is a command to answer a question about the active file.
type QuestionSubmitted struct {
	Question string
}

// AnswerReceived carries the outcome of a question back to the model.
// Answer is set even when Err is non-nil so the failed state can be shown.
type AnswerReceived struct {
	Answer *domain.Answer
	Err    error
}

// FilesLoaded carries the tenant's uploaded files.
type FilesLoaded struct {
	Records []domain.UploadRecord
	Err     error
}

// FileSelected is sent when a file is picked to chat about.
type FileSelected struct {
	Record domain.UploadRecord
}

// SourceSelected is sent when a retrieved source is highlighted.
type SourceSelected struct {
	Index int
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewFiles is the file picker.
	ViewFiles ViewType = iota
	// ViewAsk is the question and answer view.
	ViewAsk
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewFiles:
		return "files"
	case ViewAsk:
		return "ask"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
