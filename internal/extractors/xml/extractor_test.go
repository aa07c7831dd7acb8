package xml

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
	path := filepath.Join(t.TempDir(), "feed.xml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return &domain.RawDocument{Filename: "feed.xml", Path: path, Format: domain.FormatXML}
}

func TestFormats(t *testing.T) {
	assert.Equal(t, []domain.Format{domain.FormatXML}, New().Formats())
}

func TestExtract_LeafText(t *testing.T) {
	doc := writeDoc(t, `<?xml version="1.0" encoding="UTF-8"?>
<catalog>
  <book id="1">
    <title>Go   in Practice</title>
    <author>Matt</author>
    <empty/>
  </book>
  <book id="2">
    <title><![CDATA[Fish & Chips]]></title>
    <note>caf&eacute;</note>
  </book>
</catalog>`)

	segments, err := New().Extract(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, segments, 1)

	assert.Equal(t, "Go in Practice\nMatt\nFish & Chips\ncafé", segments[0].Content)
	assert.Equal(t, domain.ElementNarrativeText, segments[0].Metadata[domain.MetaElementType])
}

func TestExtract_NoText(t *testing.T) {
	segments, err := New().Extract(context.Background(), writeDoc(t, `<root><a/><b></b></root>`))
	require.NoError(t, err)
	assert.Empty(t, segments)
}

func TestExtract_Malformed(t *testing.T) {
	_, err := New().Extract(context.Background(), writeDoc(t, `<root><a>text</root`))
	assert.ErrorIs(t, err, domain.ErrExtractionFailed)
}
