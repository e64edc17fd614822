package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quoteflow/quoteflow-backend/pkg/testutil"
)

func writeTemp(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := rootCmd(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestReportParse_MVR(t *testing.T) {
	path := writeTemp(t, "mvr.txt", []byte(testutil.MVRReportText))

	out, err := execute(t, "mvr", path)
	require.NoError(t, err)

	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &record))
	assert.Equal(t, "mvr", record["report_type"])
	assert.Equal(t, "D1234-56789-80302", record["license_number"])
	assert.Equal(t, "2", record["convictions_count"])
}

func TestReportParse_DashPDFPretty(t *testing.T) {
	path := writeTemp(t, "dash.pdf", testutil.BuildPDF(testutil.Lines(testutil.DashReportText)))

	out, err := execute(t, "dash", path, "--pretty")
	require.NoError(t, err)

	assert.Contains(t, out, "\n  \"report_type\": \"dash\"")
	assert.Contains(t, out, `"license_number": "S1234-56789-01234"`)
}

func TestReportParse_Raw(t *testing.T) {
	path := writeTemp(t, "mvr.pdf", testutil.BuildPDF([]string{"Driver Record Abstract", "Licence Number: D1234-56789-80302"}))

	out, err := execute(t, "mvr", path, "--raw")
	require.NoError(t, err)
	assert.Equal(t, "Driver Record Abstract\nLicence Number: D1234-56789-80302\n", out)
}

func TestReportParse_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := execute(t, "dash", filepath.Join(t.TempDir(), "nope.pdf"))
		assert.Error(t, err)
	})

	t.Run("missing argument", func(t *testing.T) {
		_, err := execute(t, "mvr")
		assert.Error(t, err)
	})

	t.Run("unreadable document", func(t *testing.T) {
		path := writeTemp(t, "blob.bin", []byte{0x00, 0x01, 0x02})
		_, err := execute(t, "dash", path)
		assert.Error(t, err)
	})
}
