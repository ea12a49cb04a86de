// Package contract validates and drafts design contracts: the markdown
// documents that drive feature generation.
package contract

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/fyrsmithlabs/autopilot/internal/llm"
)

// RequiredSections must all be present (as markdown headings) for a
// contract to be considered complete.
var RequiredSections = []string{
	"Summary",
	"Problem Statement",
	"API Design",
	"Acceptance Criteria",
	"Tests",
}

// ValidationResult reports contract completeness.
type ValidationResult struct {
	Valid   bool     `json:"valid"`
	Missing []string `json:"missing,omitempty"`
}

var headingRe = regexp.MustCompile(`(?m)^#{1,6}\s+(.+?)\s*$`)

// Validate reads the contract at path and checks every required section is
// present as a markdown heading. A missing or empty file is an error; an
// incomplete contract is a non-error invalid result.
func Validate(path string) (ValidationResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return ValidationResult{}, fmt.Errorf("read design contract: %w", err)
	}
	if len(strings.TrimSpace(string(content))) == 0 {
		return ValidationResult{}, fmt.Errorf("design contract %s is empty", path)
	}
	return ValidateContent(string(content)), nil
}

// ValidateContent checks contract text for the required sections.
func ValidateContent(content string) ValidationResult {
	headings := map[string]bool{}
	for _, m := range headingRe.FindAllStringSubmatch(content, -1) {
		headings[normalizeHeading(m[1])] = true
	}

	result := ValidationResult{Valid: true}
	for _, section := range RequiredSections {
		if !headings[normalizeHeading(section)] {
			result.Valid = false
			result.Missing = append(result.Missing, section)
		}
	}
	return result
}

func normalizeHeading(h string) string {
	h = strings.TrimSpace(h)
	h = strings.Trim(h, "*_`")
	return strings.ToLower(h)
}

const draftSystemPrompt = `You are a product designer creating feature design contracts for software development teams.
Transform the feature idea into a detailed, actionable markdown contract with these sections:
Summary, Problem Statement, User Stories, API Design, Data Model, Security, Acceptance Criteria, Tests, Implementation Notes, Dependencies.
Be specific about endpoints, data structures, error handling, and test cases.`

// Draft generates a design contract document from a feature idea through
// the text-generation collaborator. The returned document is markdown
// satisfying Validate.
func Draft(ctx context.Context, client llm.Client, idea string, projectContext map[string]string) (string, error) {
	if strings.TrimSpace(idea) == "" {
		return "", fmt.Errorf("feature idea is empty")
	}

	doc, err := client.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: draftSystemPrompt,
		Prompt:       buildDraftPrompt(idea, projectContext),
		Temperature:  0.4,
	})
	if err != nil {
		return "", fmt.Errorf("draft design contract: %w", err)
	}
	return doc, nil
}

func buildDraftPrompt(idea string, projectContext map[string]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Feature idea: %s\n\n", idea)
	if len(projectContext) > 0 {
		b.WriteString("Project context:\n")
		for _, key := range sortedKeys(projectContext) {
			fmt.Fprintf(&b, "- %s: %s\n", key, projectContext[key])
		}
		b.WriteString("\n")
	}
	b.WriteString("Generate the complete design contract in markdown, ready for code generation.\n")
	return b.String()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
