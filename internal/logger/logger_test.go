package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func reset() {
	SetVerbose(false)
	SetOutput(os.Stderr)
}

func TestSetVerbose(t *testing.T) {
	defer reset()

	SetVerbose(false)
	assert.False(t, IsVerbose())

	SetVerbose(true)
	assert.True(t, IsVerbose())

	SetVerbose(false)
	assert.False(t, IsVerbose())
}

func TestDebug_WhenVerbose(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(true)

	Debug("chunked segment", "file", "a.txt", "chunks", 3)

	out := buf.String()
	assert.Contains(t, out, "level=DEBUG")
	assert.Contains(t, out, `msg="chunked segment"`)
	assert.Contains(t, out, "file=a.txt")
	assert.Contains(t, out, "chunks=3")
	assert.NotContains(t, out, "time=")
}

func TestDebug_WhenNotVerbose(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(false)

	Debug("hidden")
	Info("hidden")

	assert.Zero(t, buf.Len())
}

func TestWarn_AlwaysPrinted(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(false)

	Warn("unsupported format", "file", "x.bin", "stage", "extract", "format", "unknown")
	Error("transfer failed", "key", "t/x.bin")

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "stage=extract")
	assert.Contains(t, out, "level=ERROR")
	assert.Contains(t, out, "key=t/x.bin")
}

func TestSection(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)

	SetVerbose(false)
	Section("Ingest")
	assert.Zero(t, buf.Len())

	SetVerbose(true)
	Section("Ingest")
	assert.Contains(t, buf.String(), "=== Ingest ===")
}

func TestLogger_ReturnsCurrent(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	Logger().Warn("direct")

	assert.Contains(t, buf.String(), "msg=direct")
}
