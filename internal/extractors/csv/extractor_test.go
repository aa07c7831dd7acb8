package csv

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

func writeDoc(t *testing.T, content string) *domain.RawDocument {
	t.Helper()
	path := filepath.Join(t.TempDir(), "people.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return &domain.RawDocument{Filename: "people.csv", Path: path, Format: domain.FormatCSV}
}

func TestFormats(t *testing.T) {
	assert.Equal(t, []domain.Format{domain.FormatCSV}, New().Formats())
}

func TestExtract_Rows(t *testing.T) {
	doc := writeDoc(t, "\uFEFFname, city ,age\nAda,London,36\n,,\n\"Grace, Rear Admiral\",Arlington\n")

	segments, err := New().Extract(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, segments, 2)

	assert.Equal(t, "name: Ada\ncity: London\nage: 36", segments[0].Content)
	assert.Equal(t, 1, segments[0].Metadata[domain.MetaRowNumber])
	assert.Equal(t, domain.ElementTableRow, segments[0].Metadata[domain.MetaElementType])

	assert.Equal(t, "name: Grace, Rear Admiral\ncity: Arlington", segments[1].Content)
	assert.Equal(t, 3, segments[1].Metadata[domain.MetaRowNumber])
}

func TestExtract_ExtraColumns(t *testing.T) {
	doc := writeDoc(t, "a\n1,2\n")

	segments, err := New().Extract(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, segments, 1)
	assert.Equal(t, "a: 1\ncolumn 2: 2", segments[0].Content)
}

func TestExtract_HeaderOnly(t *testing.T) {
	segments, err := New().Extract(context.Background(), writeDoc(t, "a,b,c\n"))
	require.NoError(t, err)
	assert.Empty(t, segments)
}

func TestExtract_Empty(t *testing.T) {
	segments, err := New().Extract(context.Background(), writeDoc(t, ""))
	require.NoError(t, err)
	assert.Empty(t, segments)
}

func TestRenderRow(t *testing.T) {
	assert.Equal(t, "", renderRow([]string{"a"}, []string{"  "}))
	assert.Equal(t, "column 1: x", renderRow([]string{""}, []string{"x"}))
}
