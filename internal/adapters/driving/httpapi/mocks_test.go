package httpapi

import (
	"context"
	"io"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

type mockIngest struct {
	result *domain.IngestResult
	err    error

	req  driving.IngestRequest
	body string
}

func (m *mockIngest) Ingest(_ context.Context, req driving.IngestRequest) (*domain.IngestResult, error) {
	m.req = req
	data, _ := io.ReadAll(req.Body)
	m.body = string(data)
	if m.err != nil {
		return nil, m.err
	}
	if m.result != nil {
		return m.result, nil
	}
	return &domain.IngestResult{Tenant: req.Tenant, Filename: req.Filename, Format: domain.FormatText}, nil
}

type mockAsk struct {
	answer *domain.Answer
	err    error
	req    driving.AskRequest
}

func (m *mockAsk) Ask(_ context.Context, req driving.AskRequest) (*domain.Answer, error) {
	m.req = req
	if m.answer == nil {
		m.answer = &domain.Answer{Question: req.Question, State: domain.QueryStateDone}
	}
	return m.answer, m.err
}

type mockFiles struct {
	records []domain.UploadRecord
	url     string
	err     error

	tenant, filename string
}

func (m *mockFiles) List(_ context.Context, tenant string) ([]domain.UploadRecord, error) {
	m.tenant = tenant
	return m.records, m.err
}

func (m *mockFiles) Link(_ context.Context, tenant, filename string) (string, error) {
	m.tenant, m.filename = tenant, filename
	return m.url, m.err
}
