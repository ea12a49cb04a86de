package llm

import (
	"encoding/json"
	"errors"
	"strings"
)

// ResultKind tags a codegen response variant.
type ResultKind string

const (
	// ResultPatch carries one or more file patches to apply.
	ResultPatch ResultKind = "patch"
	// ResultRetry asks the caller to re-prompt with the given reason.
	ResultRetry ResultKind = "retry"
	// ResultNotes carries prose with no applicable changes.
	ResultNotes ResultKind = "notes"
)

// FilePatch is one generated file, whole-content replacement.
type FilePatch struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// CodegenResult is the structured contract for generation responses: a
// tagged variant rather than free text to be pattern-matched.
type CodegenResult struct {
	Kind    ResultKind  `json:"kind"`
	Patches []FilePatch `json:"patches,omitempty"`
	Reason  string      `json:"reason,omitempty"`
	Notes   string      `json:"notes,omitempty"`
}

// ErrUnparseableResponse indicates neither the structured contract nor
// the marker fallback recognized the response.
var ErrUnparseableResponse = errors.New("unparseable generation response")

const fileMarkerPrefix = "=== FILE: "

// ParseCodegenResponse decodes a generation response. The primary
// contract is the JSON-encoded CodegenResult; marker-delimited free text
// ("=== FILE: path ===" sections) is accepted as a fallback adapter for
// providers that do not honor the structured contract.
func ParseCodegenResponse(text string) (CodegenResult, error) {
	trimmed := strings.TrimSpace(text)

	if jsonBody, ok := extractJSON(trimmed); ok {
		var result CodegenResult
		if err := json.Unmarshal([]byte(jsonBody), &result); err == nil && result.Kind != "" {
			return result, nil
		}
	}

	if patches := parseFileMarkers(trimmed); len(patches) > 0 {
		return CodegenResult{Kind: ResultPatch, Patches: patches}, nil
	}

	return CodegenResult{}, ErrUnparseableResponse
}

// extractJSON returns the candidate JSON object in the response,
// unwrapping a fenced code block if present.
func extractJSON(text string) (string, bool) {
	if strings.HasPrefix(text, "```") {
		if start := strings.IndexByte(text, '\n'); start >= 0 {
			rest := text[start+1:]
			if end := strings.LastIndex(rest, "```"); end >= 0 {
				text = strings.TrimSpace(rest[:end])
			}
		}
	}
	if strings.HasPrefix(text, "{") {
		return text, true
	}
	return "", false
}

// parseFileMarkers splits marker-delimited sections into patches.
func parseFileMarkers(text string) []FilePatch {
	var (
		patches []FilePatch
		current *FilePatch
		lines   []string
	)

	flush := func() {
		if current == nil {
			return
		}
		current.Content = strings.Join(lines, "\n")
		patches = append(patches, *current)
		current = nil
		lines = nil
	}

	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, fileMarkerPrefix) {
			flush()
			path := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(line, fileMarkerPrefix), "==="))
			if path != "" {
				current = &FilePatch{Path: path}
			}
			continue
		}
		if current != nil {
			lines = append(lines, line)
		}
	}
	flush()
	return patches
}
