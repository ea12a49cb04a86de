package monitor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLog(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestAnalyze_Clean(t *testing.T) {
	path := writeLog(t, "app.log", "INFO started\nINFO listening on :8080\n")

	result, err := Analyze([]string{path}, 0)
	require.NoError(t, err)

	assert.Empty(t, result.Issues)
	assert.Equal(t, 2, result.Scanned)
	assert.Contains(t, result.Summary, "no issues")
}

func TestAnalyze_Signatures(t *testing.T) {
	path := writeLog(t, "app.log", ""+
		"INFO ok\n"+
		"ERROR db connection refused\n"+
		"Traceback (most recent call last):\n"+
		"ValueError: bad input\n"+
		"panic: runtime error: index out of range\n"+
		`10.0.0.1 - - [29/Aug/2026] "GET /api HTTP/1.1" 502 17`+"\n"+
		"WARNING retrying\n")

	result, err := Analyze([]string{path}, 0)
	require.NoError(t, err)

	require.Len(t, result.Issues, 6)
	assert.Equal(t, 2, result.Critical)
	assert.Equal(t, 3, result.Errors)
	assert.Equal(t, 1, result.Warnings)

	first := result.Issues[0]
	assert.Equal(t, 2, first.Line)
	assert.Equal(t, "error", first.Pattern)
	assert.Equal(t, SeverityError, first.Severity)

	patterns := make([]string, 0, len(result.Issues))
	for _, issue := range result.Issues {
		patterns = append(patterns, issue.Pattern)
	}
	assert.Equal(t, []string{"error", "traceback", "exception", "panic", "http_5xx", "warning"}, patterns)
}

func TestAnalyze_OneIssuePerLine(t *testing.T) {
	// A line matching multiple signatures is reported once, at the most
	// severe match.
	path := writeLog(t, "app.log", "panic: ERROR everything broke\n")

	result, err := Analyze([]string{path}, 0)
	require.NoError(t, err)

	require.Len(t, result.Issues, 1)
	assert.Equal(t, "panic", result.Issues[0].Pattern)
	assert.Equal(t, SeverityCritical, result.Issues[0].Severity)
}

func TestAnalyze_MaxLines(t *testing.T) {
	path := writeLog(t, "app.log", "ERROR one\nERROR two\nERROR three\n")

	result, err := Analyze([]string{path}, 2)
	require.NoError(t, err)

	assert.Len(t, result.Issues, 2)
	assert.Equal(t, 2, result.Scanned)
}

func TestAnalyze_MultipleFiles(t *testing.T) {
	a := writeLog(t, "a.log", "ERROR from a\n")
	b := writeLog(t, "b.log", "ERROR from b\n")

	result, err := Analyze([]string{a, b}, 0)
	require.NoError(t, err)

	require.Len(t, result.Issues, 2)
	assert.Equal(t, a, result.Issues[0].File)
	assert.Equal(t, b, result.Issues[1].File)
}

func TestAnalyze_MissingFile(t *testing.T) {
	_, err := Analyze([]string{"/nonexistent/app.log"}, 0)
	assert.Error(t, err)
}
