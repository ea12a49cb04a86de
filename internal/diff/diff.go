// Package diff extracts changed files and added lines from unified diffs.
package diff

import (
	"strings"
)

// FileDiff holds the changed lines for a single file in a unified diff.
type FileDiff struct {
	// Path is the file path relative to the repository root, with the
	// conventional a/ or b/ prefix stripped.
	Path string

	// AddedLines are the lines introduced by the diff for this file,
	// without the leading "+" marker. File header lines ("+++ b/...")
	// are not included.
	AddedLines []string
}

const nullDevice = "/dev/null"

// Parse extracts per-file changes from unified diff text.
//
// Files appear in first-seen order. A path named by both the "---" and
// "+++" headers of the same section appears once. Malformed input is not
// an error; unrecognized lines are skipped.
func Parse(text string) []FileDiff {
	var (
		files   []FileDiff
		index   = map[string]int{}
		current = -1
	)

	record := func(path string) {
		if path == "" || path == nullDevice {
			return
		}
		if i, ok := index[path]; ok {
			current = i
			return
		}
		files = append(files, FileDiff{Path: path})
		index[path] = len(files) - 1
		current = index[path]
	}

	for _, line := range strings.Split(text, "\n") {
		switch {
		case strings.HasPrefix(line, "--- "):
			record(stripPrefix(line[4:], "a/"))
		case strings.HasPrefix(line, "+++ "):
			record(stripPrefix(line[4:], "b/"))
		case strings.HasPrefix(line, "diff "):
			// New section; the following header lines re-establish the file.
			current = -1
		case strings.HasPrefix(line, "+"):
			if current >= 0 {
				files[current].AddedLines = append(files[current].AddedLines, line[1:])
			}
		}
	}

	return files
}

// ChangedFiles returns the ordered set of unique file paths touched by the diff.
func ChangedFiles(text string) []string {
	parsed := Parse(text)
	paths := make([]string, 0, len(parsed))
	for _, f := range parsed {
		paths = append(paths, f.Path)
	}
	return paths
}

func stripPrefix(path, prefix string) string {
	path = strings.TrimSpace(path)
	// "--- a/foo\ttimestamp" forms carry a trailing tab section.
	if i := strings.IndexByte(path, '\t'); i >= 0 {
		path = path[:i]
	}
	return strings.TrimPrefix(path, prefix)
}
