package messages

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

func TestQuestionSubmitted(t *testing.T) {
	msg := QuestionSubmitted{Question: "what is the refund policy?"}
	assert.Equal(t, "what is the refund policy?", msg.Question)
}

func TestAnswerReceived(t *testing.T) {
	t.Run("with answer", func(t *testing.T) {
		answer := &domain.Answer{
			Question: "q",
			Text:     "a",
			State:    domain.QueryStateDone,
			Sources: []domain.ScoredChunk{
				{Chunk: domain.Chunk{Content: "ctx"}, Score: 0.9, Rank: 1},
			},
		}
		msg := AnswerReceived{Answer: answer}

		require.NotNil(t, msg.Answer)
		assert.Equal(t, "a", msg.Answer.Text)
		assert.Len(t, msg.Answer.Sources, 1)
		assert.NoError(t, msg.Err)
	})

	t.Run("failed answer keeps its state", func(t *testing.T) {
		answer := &domain.Answer{Question: "q", State: domain.QueryStateFailed}
		msg := AnswerReceived{Answer: answer, Err: domain.ErrLLMUnavailable}

		assert.Equal(t, domain.QueryStateFailed, msg.Answer.State)
		assert.ErrorIs(t, msg.Err, domain.ErrLLMUnavailable)
	})
}

func TestFilesLoaded(t *testing.T) {
	t.Run("with records", func(t *testing.T) {
		records := []domain.UploadRecord{
			{Tenant: "acme", Filename: "a.pdf", Format: domain.FormatPDF, Chunks: 3},
			{Tenant: "acme", Filename: "b.csv", Format: domain.FormatCSV, Chunks: 1},
		}
		msg := FilesLoaded{Records: records}

		require.Len(t, msg.Records, 2)
		assert.Equal(t, "b.csv", msg.Records[1].Filename)
		assert.NoError(t, msg.Err)
	})

	t.Run("with error", func(t *testing.T) {
		msg := FilesLoaded{Err: errors.New("ledger unavailable")}

		assert.Nil(t, msg.Records)
		assert.EqualError(t, msg.Err, "ledger unavailable")
	})
}

func TestFileSelected(t *testing.T) {
	msg := FileSelected{Record: domain.UploadRecord{Filename: "report.pdf"}}
	assert.Equal(t, "report.pdf", msg.Record.Filename)
}

func TestViewChanged(t *testing.T) {
	msg := ViewChanged{View: ViewAsk}
	assert.Equal(t, ViewAsk, msg.View)
}

func TestViewType_String(t *testing.T) {
	tests := []struct {
		name     string
		view     ViewType
		expected string
	}{
		{"ViewFiles", ViewFiles, "files"},
		{"ViewAsk", ViewAsk, "ask"},
		{"ViewHelp", ViewHelp, "help"},
		{"UnknownView", ViewType(99), "unknown"},
		{"NegativeView", ViewType(-1), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.view.String())
		})
	}
}

func TestErrorOccurred(t *testing.T) {
	t.Run("with standard error", func(t *testing.T) {
		msg := ErrorOccurred{Err: errors.New("something went wrong")}
		assert.EqualError(t, msg.Err, "something went wrong")
	})

	t.Run("with wrapped error", func(t *testing.T) {
		wrapped := errors.Join(domain.ErrIndexNotFound, errors.New("acme/a.pdf"))
		msg := ErrorOccurred{Err: wrapped}

		assert.ErrorIs(t, msg.Err, domain.ErrIndexNotFound)
	})
}

func TestQuit(t *testing.T) {
	msg := Quit{}
	assert.NotNil(t, msg)
}
