package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/kindaran/pia-stats/internal/errs"
)

const speedtestLog = "Date: Mon Jan  1 10:00:01 UTC 2024\nDownload: 93.21 Mbit/s\nUpload: 11.02 Mbit/s\n" +
	"Date: Mon Jan  1 11:00:01 UTC 2024\nDate: Mon Jan  1 12:00:01 UTC 2024\nDownload: 88 Mbit/s\nUpload: 9.5 Mbit/s\n"

// execute runs the root command in a clean working directory.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	chdir(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func writeLog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "speedtest.log")
	require.NoError(t, os.WriteFile(path, []byte(speedtestLog), 0o644))
	return path
}

func TestExtractCommand(t *testing.T) {
	input := writeLog(t)
	outDir := t.TempDir()

	stdout, err := execute(t, "extract", "--output-dir", outDir, input)
	require.NoError(t, err)

	written := strings.TrimSpace(stdout)
	assert.True(t, strings.HasPrefix(filepath.Base(written), "speedtest_"))
	data, err := os.ReadFile(written)
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(string(data), "\r\n"))
}

func TestExtractCommandReadFailure(t *testing.T) {
	_, err := execute(t, "extract", filepath.Join(t.TempDir(), "missing.log"))

	require.ErrorIs(t, err, errs.ErrRead)
}

func TestShowCommandJSON(t *testing.T) {
	input := writeLog(t)

	stdout, err := execute(t, "show", "--format", "json", input)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 2)
	var row struct {
		Date          string  `json:"date"`
		DownloadSpeed float64 `json:"download_speed"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &row))
	assert.Equal(t, "Mon Jan  1 12:00:01 UTC 2024", row.Date)
	assert.Equal(t, 88.0, row.DownloadSpeed)
}

func TestConfigInitCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "piastats.yaml")

	_, err := execute(t, "config", "init", path)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]interface{}
	require.NoError(t, yaml.Unmarshal(raw, &doc))
	assert.Equal(t, []interface{}{"Date", "Download", "Upload"}, doc["keywords"])

	_, err = execute(t, "config", "init", path)
	assert.Error(t, err, "refuses to overwrite without --force")
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
