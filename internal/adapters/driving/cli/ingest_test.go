package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestIngestCmd_RequiresFile(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := runRoot(t, "ingest")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg(s)")
}

func TestIngestCmd_HasCreateIndexFlag(t *testing.T) {
	flag := ingestCmd.Flags().Lookup("create-index")
	require.NotNil(t, flag)
	assert.Equal(t, "false", flag.DefValue)
}

func TestIngestCmd_IngestsFiles(t *testing.T) {
	svc, cleanup := setupTestServices()
	defer cleanup()
	svc.index.info.Count = 4
	first := writeFile(t, "policy.txt", "Refunds within 30 days.")
	second := writeFile(t, "faq.txt", "Shipping is free.")

	out, err := runRoot(t, "ingest", "--create-index", first, second)

	require.NoError(t, err)
	assert.True(t, svc.lastOpts.CreateIndex)
	assert.False(t, svc.lastOpts.WithLLM, "ingestion never synthesizes answers")
	assert.Equal(t, "Refunds within 30 days.", svc.ingest.contents["policy.txt"])
	assert.Equal(t, "Shipping is free.", svc.ingest.contents["faq.txt"])
	assert.Contains(t, out, "Successfully uploaded and processed policy.txt (2 chunks)")
	assert.Contains(t, out, "Index now holds 4 passages.")
}

func TestIngestCmd_ContinuesAfterFailure(t *testing.T) {
	svc, cleanup := setupTestServices()
	defer cleanup()
	svc.ingest.fail = map[string]error{
		"report.docx": fmt.Errorf("%w: .docx", domain.ErrUnsupportedFormat),
	}
	bad := writeFile(t, "report.docx", "binary")
	good := writeFile(t, "notes.txt", "Some notes.")

	out, err := runRoot(t, "ingest", bad, good)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 files failed")
	assert.Contains(t, out, "unsupported")
	assert.Contains(t, svc.ingest.contents, "notes.txt")
}

func TestIngestCmd_MissingFile(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := runRoot(t, "ingest", filepath.Join(t.TempDir(), "missing.txt"))

	require.Error(t, err)
	assert.Contains(t, out, "missing.txt")
}

func TestIngestCmd_WarnsWhenPDFToolMissing(t *testing.T) {
	svc, cleanup := setupTestServices()
	defer cleanup()
	svc.noPDF = true
	path := writeFile(t, "handbook.pdf", "%PDF-1.4")

	out, err := runRoot(t, "ingest", path)

	require.NoError(t, err)
	assert.Contains(t, out, "pdftotext not found")
	assert.Contains(t, out, "brew install poppler")
}

func TestIngestCmd_NoPDFWarningForText(t *testing.T) {
	svc, cleanup := setupTestServices()
	defer cleanup()
	svc.noPDF = true
	path := writeFile(t, "notes.txt", "Some notes.")

	out, err := runRoot(t, "ingest", path)

	require.NoError(t, err)
	assert.NotContains(t, out, "pdftotext")
}
