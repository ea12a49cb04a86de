// Package codegen drafts implementation files from a design contract
// through the text-generation collaborator and applies them to the
// project checkout.
package codegen

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/autopilot/internal/gitrepo"
	"github.com/fyrsmithlabs/autopilot/internal/llm"
	"github.com/fyrsmithlabs/autopilot/internal/project"
)

const systemPrompt = `You are a senior software engineer generating production-quality code and tests.
Follow the project's stack and conventions. Return minimal, clean code that compiles.
Respond with a JSON object: {"kind":"patch","patches":[{"path":...,"content":...}]}.
Use {"kind":"retry","reason":...} when the contract is insufficient and
{"kind":"notes","notes":...} when no change is needed.`

// Result summarizes one generation pass.
type Result struct {
	// Files are the paths written to the checkout.
	Files []string `json:"files"`

	// Notes carries the collaborator's prose for retry/notes variants.
	Notes string `json:"notes,omitempty"`
}

// Generator turns design contracts into applied file patches.
type Generator struct {
	client llm.Client
	logger *zap.Logger
}

// NewGenerator creates a generator.
func NewGenerator(client llm.Client, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{client: client, logger: logger}
}

// Generate reads the contract from the checkout, drafts patches, and
// writes them back. Errors propagate: generation is a workflow-defining
// step and the coordinator treats its failure as fatal.
func (g *Generator) Generate(ctx context.Context, repo gitrepo.Repo, contractPath string, cfg *project.Config) (*Result, error) {
	if g.client == nil {
		return nil, fmt.Errorf("text generation client is not configured")
	}

	contract, err := repo.ReadFile(contractPath)
	if err != nil {
		return nil, fmt.Errorf("read design contract: %w", err)
	}

	response, err := g.client.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: systemPrompt,
		Prompt:       buildPrompt(string(contract), cfg),
		Temperature:  0.2,
	})
	if err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}

	parsed, err := llm.ParseCodegenResponse(response)
	if err != nil {
		return nil, err
	}

	switch parsed.Kind {
	case llm.ResultPatch:
		result := &Result{}
		for _, patch := range parsed.Patches {
			if err := repo.WriteFile(patch.Path, []byte(patch.Content)); err != nil {
				return nil, fmt.Errorf("apply patch %s: %w", patch.Path, err)
			}
			result.Files = append(result.Files, patch.Path)
		}
		g.logger.Info("applied generated patches", zap.Int("files", len(result.Files)))
		return result, nil

	case llm.ResultRetry:
		return nil, fmt.Errorf("generation asked for retry: %s", parsed.Reason)

	case llm.ResultNotes:
		return &Result{Notes: parsed.Notes}, nil

	default:
		return nil, fmt.Errorf("unexpected generation result kind %q", parsed.Kind)
	}
}

func buildPrompt(contract string, cfg *project.Config) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Stack: %s\n", cfg.Stack)
	fmt.Fprintf(&b, "Test command: %s\n", cfg.TestCommand())
	b.WriteString("\nDesign contract:\n")
	b.WriteString(contract)
	b.WriteString("\n\nGenerate concise, production-ready code and tests aligned to the stack.\n")
	return b.String()
}
