package mcp

import (
	"context"
	"io"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

// mockAskService is a mock implementation of driving.AskService.
type mockAskService struct {
	answer *domain.Answer
	err    error
	req    driving.AskRequest
}

func (m *mockAskService) Ask(_ context.Context, req driving.AskRequest) (*domain.Answer, error) {
	m.req = req
	if m.answer == nil {
		return &domain.Answer{State: domain.QueryStateFailed}, m.err
	}
	return m.answer, m.err
}

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	result *domain.IngestResult
	err    error

	req  driving.IngestRequest
	body string
}

func (m *mockIngestService) Ingest(_ context.Context, req driving.IngestRequest) (*domain.IngestResult, error) {
	m.req = req
	data, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, err
	}
	m.body = string(data)
	return m.result, m.err
}

// mockFileService is a mock implementation of driving.FileService.
type mockFileService struct {
	records []domain.UploadRecord
	err     error
	tenant  string
}

func (m *mockFileService) List(_ context.Context, tenant string) ([]domain.UploadRecord, error) {
	m.tenant = tenant
	return m.records, m.err
}

func (m *mockFileService) Link(_ context.Context, _, _ string) (string, error) {
	return "", m.err
}
