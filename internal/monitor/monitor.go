// Package monitor scans service log files for failure signatures. It is a
// read-only diagnostic surface: findings are reported to the caller and
// never trigger workflows on their own.
package monitor

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Severity ranks a finding.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityError    Severity = "error"
	SeverityWarning  Severity = "warning"
)

// Issue is one matched failure signature.
type Issue struct {
	File     string   `json:"file"`
	Line     int      `json:"line"`
	Severity Severity `json:"severity"`
	Pattern  string   `json:"pattern"`
	Text     string   `json:"text"`
}

// Result summarizes one analysis pass.
type Result struct {
	Issues   []Issue `json:"issues"`
	Scanned  int     `json:"scanned_lines"`
	Summary  string  `json:"summary"`
	Critical int     `json:"critical"`
	Errors   int     `json:"errors"`
	Warnings int     `json:"warnings"`
}

// DefaultMaxLines bounds a single file scan when the caller does not set a
// limit.
const DefaultMaxLines = 10000

type signature struct {
	name     string
	severity Severity
	re       *regexp.Regexp
}

// Ordered by severity so the first match on a line wins.
var signatures = []signature{
	{"panic", SeverityCritical, regexp.MustCompile(`\bpanic:`)},
	{"traceback", SeverityCritical, regexp.MustCompile(`\bTraceback \(most recent call last\)`)},
	{"fatal", SeverityCritical, regexp.MustCompile(`(?i)\bfatal\b`)},
	{"http_5xx", SeverityError, regexp.MustCompile(`"\s5\d{2}\s|\b5\d{2} (Internal Server Error|Bad Gateway|Service Unavailable)\b|status[ =]5\d{2}\b`)},
	{"exception", SeverityError, regexp.MustCompile(`\b\w*(Exception|Error):`)},
	{"error", SeverityError, regexp.MustCompile(`\bERROR\b`)},
	{"warning", SeverityWarning, regexp.MustCompile(`\bWARN(ING)?\b`)},
}

// Analyze scans the given log files, up to maxLines per file (zero means
// DefaultMaxLines), and reports every matched failure signature with its
// location. Unreadable files produce an error; empty input is a clean result.
func Analyze(files []string, maxLines int) (*Result, error) {
	if maxLines <= 0 {
		maxLines = DefaultMaxLines
	}

	result := &Result{}
	for _, file := range files {
		if err := scanFile(file, maxLines, result); err != nil {
			return nil, err
		}
	}

	for _, issue := range result.Issues {
		switch issue.Severity {
		case SeverityCritical:
			result.Critical++
		case SeverityError:
			result.Errors++
		case SeverityWarning:
			result.Warnings++
		}
	}
	result.Summary = summarize(result)
	return result, nil
}

func scanFile(path string, maxLines int, result *Result) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() && line < maxLines {
		line++
		text := scanner.Text()
		result.Scanned++

		for _, sig := range signatures {
			if sig.re.MatchString(text) {
				result.Issues = append(result.Issues, Issue{
					File:     path,
					Line:     line,
					Severity: sig.severity,
					Pattern:  sig.name,
					Text:     strings.TrimSpace(text),
				})
				break
			}
		}
	}
	return scanner.Err()
}

func summarize(r *Result) string {
	if len(r.Issues) == 0 {
		return fmt.Sprintf("no issues found in %d scanned lines", r.Scanned)
	}
	return fmt.Sprintf("%d issues (%d critical, %d errors, %d warnings) in %d scanned lines",
		len(r.Issues), r.Critical, r.Errors, r.Warnings, r.Scanned)
}
