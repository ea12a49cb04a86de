// Package bugfix asks the text-generation collaborator for a corrective
// patch in response to a failing test step. Collaborator failures are
// wrapped into an unsuccessful result, never propagated.
package bugfix

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/autopilot/internal/llm"
)

const systemPrompt = `You are a senior software engineer specializing in debugging and fixing test failures.
Analyze the failure, identify the root cause, and propose a precise, minimal fix.
Respond with the fix as a unified diff, a retry command, and brief notes.`

// FailingTest describes the failed test step being remediated.
type FailingTest struct {
	Command  string
	ExitCode int
	Stdout   string
	Stderr   string
}

// Result is the remediation outcome. Success is false when the
// collaborator call failed; Error then carries the cause.
type Result struct {
	Success    bool   `json:"success"`
	Suggestion string `json:"suggestion,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Suggester generates fix suggestions for failing tests.
type Suggester struct {
	client llm.Client
	logger *zap.Logger
}

// NewSuggester creates a suggester.
func NewSuggester(client llm.Client, logger *zap.Logger) *Suggester {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Suggester{client: client, logger: logger}
}

// Suggest requests a fix suggestion for the failing test. Any
// collaborator error is absorbed into the result.
func (s *Suggester) Suggest(ctx context.Context, failing FailingTest) Result {
	if s.client == nil {
		return Result{Success: false, Error: "text generation client is not configured"}
	}

	suggestion, err := s.client.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: systemPrompt,
		Prompt:       buildPrompt(failing),
		Temperature:  0.2,
	})
	if err != nil {
		s.logger.Warn("remediation suggestion failed", zap.Error(err))
		return Result{Success: false, Error: err.Error()}
	}
	return Result{Success: true, Suggestion: suggestion}
}

func buildPrompt(failing FailingTest) string {
	var b strings.Builder
	b.WriteString("Test failure analysis:\n\n")
	fmt.Fprintf(&b, "Command: %s\n", failing.Command)
	fmt.Fprintf(&b, "Exit code: %d\n\n", failing.ExitCode)
	b.WriteString("Standard output:\n---\n")
	b.WriteString(orEmpty(failing.Stdout))
	b.WriteString("\n---\n\nStandard error:\n---\n")
	b.WriteString(orEmpty(failing.Stderr))
	b.WriteString("\n---\n\n")
	b.WriteString("Provide a unified diff patch fixing the root cause, a retry command, and brief notes.\n")
	return b.String()
}

func orEmpty(s string) string {
	if s == "" {
		return "(empty)"
	}
	return s
}
