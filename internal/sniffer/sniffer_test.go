package sniffer

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

func zipBytes(t *testing.T, name, content string) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)
	f, err := w.Create(name)
	require.NoError(t, err)
	_, err = f.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

var (
	pdfHeader = []byte("%PDF-1.7\n1 0 obj\n<< /Type /Catalog >>\nendobj\n")
	pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")
	binary    = []byte{0x7a, 0x00, 0xfe, 0x13, 0x00, 0x99, 0x01, 0x00, 0x7f, 0x00}
)

func TestDetect(t *testing.T) {
	s := New()

	tests := []struct {
		name     string
		data     []byte
		filename string
		want     domain.Format
	}{
		{"pdf signature wins over extension", pdfHeader, "notes.txt", domain.FormatPDF},
		{"pdf signature without extension", pdfHeader, "upload", domain.FormatPDF},
		{"empty falls back to extension", nil, "table.csv", domain.FormatCSV},
		{"empty with unknown extension", []byte{}, "blob.bin", domain.FormatUnknown},
		{"plain text", []byte("hello world\nsecond line\n"), "notes.md", domain.FormatText},
		{"text named pdf stays text", []byte("just words and nothing else\n"), "fake.pdf", domain.FormatText},
		{"csv by extension", []byte("a,b,c\n1,2,3\n4,5,6\n"), "data.csv", domain.FormatCSV},
		{"csv content named txt is text", []byte("a,b,c\n1,2,3\n4,5,6\n"), "data.txt", domain.FormatText},
		{"html by content", []byte("<!DOCTYPE html><html><body><p>x</p></body></html>"), "page", domain.FormatHTML},
		{"html fragment refined by extension", []byte("<p>hello</p>\n"), "frag.htm", domain.FormatHTML},
		{"xml by content", []byte(`<?xml version="1.0"?><root><a>1</a></root>`), "feed", domain.FormatXML},
		{"png named txt is unknown", pngHeader, "image.txt", domain.FormatUnknown},
		{"binary falls back to extension", binary, "report.pdf", domain.FormatPDF},
		{"binary with unknown extension", binary, "payload.exe", domain.FormatUnknown},
		{"generic zip falls back to extension", zipBytes(t, "hello.txt", "hi"), "slides.pptx", domain.FormatPPTX},
		{"generic zip without office extension", zipBytes(t, "hello.txt", "hi"), "archive.zip", domain.FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Detect(tt.data, tt.filename))
		})
	}
}

func TestDetect_ResultIsAlwaysValid(t *testing.T) {
	s := New()
	inputs := [][]byte{nil, pdfHeader, pngHeader, binary, []byte("text")}
	for _, in := range inputs {
		assert.True(t, s.Detect(in, "x.whatever").IsValid())
	}
}

func TestDetectFile(t *testing.T) {
	s := New()
	dir := t.TempDir()

	t.Run("pdf", func(t *testing.T) {
		path := filepath.Join(dir, "doc.bin")
		require.NoError(t, os.WriteFile(path, pdfHeader, 0o600))

		format, err := s.DetectFile(path)
		require.NoError(t, err)
		assert.Equal(t, domain.FormatPDF, format)
	})

	t.Run("empty file uses extension", func(t *testing.T) {
		path := filepath.Join(dir, "empty.xml")
		require.NoError(t, os.WriteFile(path, nil, 0o600))

		format, err := s.DetectFile(path)
		require.NoError(t, err)
		assert.Equal(t, domain.FormatXML, format)
	})

	t.Run("missing file", func(t *testing.T) {
		format, err := s.DetectFile(filepath.Join(dir, "missing.txt"))
		assert.Error(t, err)
		assert.Equal(t, domain.FormatUnknown, format)
	})
}
