package driving

import (
	"context"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// AskRequest is one question against an indexed file.
type AskRequest struct {
	Tenant   string
	Filename string
	Question string

	// TopK overrides the configured number of retrieved chunks when positive.
	TopK int
}

// AskService answers questions using retrieved chunks as context.
type AskService interface {
	// Ask answers the question. The returned Answer is non-nil on error
	// and records the state the question failed in.
	Ask(ctx context.Context, req AskRequest) (*domain.Answer, error)
}
