package cli

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestIngestCmd_Use(t *testing.T) {
	assert.Equal(t, "ingest <file>...", ingestCmd.Use)
	assert.Equal(t, "Upload and index files", ingestCmd.Short)
}

func TestIngestCmd_TenantRequired(t *testing.T) {
	flag := ingestCmd.Flags().Lookup("tenant")
	require.NotNil(t, flag)
	assert.Equal(t, "t", flag.Shorthand)
	assert.Equal(t, []string{"true"}, flag.Annotations[cobra.BashCompOneRequiredFlag])
}

func TestIngestCmd_RequiresFile(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := runCommand("ingest", "-t", "acme")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg(s)")
}

func TestIngestCmd_IngestsFile(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	path := writeTempFile(t, "notes.txt", "hello world")

	out, err := runCommand("ingest", "-t", "acme", path)

	require.NoError(t, err)
	assert.Contains(t, out, "Ingested notes.txt (text): 1 segments, 2 chunks")
	assert.Contains(t, out, "Stored as: acme/notes.txt")

	require.Len(t, ts.ingest.requests, 1)
	assert.Equal(t, "acme", ts.ingest.requests[0].Tenant)
	assert.Equal(t, "notes.txt", ts.ingest.requests[0].Filename)
	assert.Equal(t, "hello world", ts.ingest.bodies[0])
}

func TestIngestCmd_NameOverride(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	path := writeTempFile(t, "tmp123", "data")

	_, err := runCommand("ingest", "-t", "acme", "--name", "contract.txt", path)

	require.NoError(t, err)
	require.Len(t, ts.ingest.requests, 1)
	assert.Equal(t, "contract.txt", ts.ingest.requests[0].Filename)
}

func TestIngestCmd_NameWithMultipleFiles(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	a := writeTempFile(t, "a.txt", "a")
	b := writeTempFile(t, "b.txt", "b")

	_, err := runCommand("ingest", "-t", "acme", "--name", "x.txt", a, b)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "--name can only be used with a single file")
	assert.Empty(t, ts.ingest.requests)
}

func TestIngestCmd_ContinuesPastFailures(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.ingest.fail = map[string]error{"bad.txt": errors.New("extraction failed")}
	good := writeTempFile(t, "good.txt", "fine")
	bad := writeTempFile(t, "bad.txt", "broken")
	missing := filepath.Join(t.TempDir(), "missing.txt")

	out, err := runCommand("ingest", "-t", "acme", bad, missing, good)

	require.Error(t, err)
	assert.Equal(t, "2 of 3 files failed to ingest", err.Error())
	assert.Contains(t, out, "Failed to ingest "+bad+": extraction failed")
	assert.Contains(t, out, "Failed to ingest "+missing)
	assert.Contains(t, out, "Ingested good.txt")
}

func TestIngestCmd_JSONOutput(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	path := writeTempFile(t, "notes.txt", "hello")

	out, err := runCommand("ingest", "-t", "acme", "--json", path)
	require.NoError(t, err)

	var got []ingestResultJSON
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "acme", got[0].Tenant)
	assert.Equal(t, "notes.txt", got[0].Filename)
	assert.Equal(t, "text", got[0].Format)
	assert.Equal(t, 2, got[0].Chunks)
	assert.Equal(t, "acme/notes.txt.idx", got[0].IndexPath)
	assert.Empty(t, got[0].FailedUploads)
}

func TestIngestCmd_ServiceNotConfigured(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	SetServices(Services{})
	path := writeTempFile(t, "notes.txt", "hello")

	_, err := runCommand("ingest", "-t", "acme", path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ingest service not configured")
}
