package xlsx

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

func createWorkbook(t *testing.T) *domain.RawDocument {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"region", "revenue"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"north", 120}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A4", &[]any{"south", 80}))

	_, err := f.NewSheet("Empty")
	require.NoError(t, err)

	_, err = f.NewSheet("Notes")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Notes", "B2", "reviewed"))

	path := filepath.Join(t.TempDir(), "book.xlsx")
	require.NoError(t, f.SaveAs(path))
	return &domain.RawDocument{Filename: "book.xlsx", Path: path, Format: domain.FormatXLSX}
}

func TestFormats(t *testing.T) {
	assert.Equal(t, []domain.Format{domain.FormatXLSX}, New().Formats())
}

func TestExtract_Sheets(t *testing.T) {
	doc := createWorkbook(t)

	segments, err := New().Extract(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, segments, 2)

	assert.Equal(t, "region\trevenue\nnorth\t120\nsouth\t80", segments[0].Content)
	assert.Equal(t, "Sheet1", segments[0].Metadata[domain.MetaSheetName])
	assert.Equal(t, 1, segments[0].Metadata[domain.MetaPageNumber])
	assert.Equal(t, domain.ElementTable, segments[0].Metadata[domain.MetaElementType])

	assert.Equal(t, "\treviewed", segments[1].Content)
	assert.Equal(t, "Notes", segments[1].Metadata[domain.MetaSheetName])
	assert.Equal(t, 3, segments[1].Metadata[domain.MetaPageNumber])
}

func TestExtract_NotAWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("nope"), 0o600))

	_, err := New().Extract(context.Background(), &domain.RawDocument{Filename: "bad.xlsx", Path: path})
	assert.ErrorIs(t, err, domain.ErrExtractionFailed)
}

func TestRenderSheet(t *testing.T) {
	assert.Equal(t, "", renderSheet(nil))
	assert.Equal(t, "a\tb", renderSheet([][]string{{"a", "b", "", ""}, {"", ""}}))
}
