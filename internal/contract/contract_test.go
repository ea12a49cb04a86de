package contract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/autopilot/internal/llm"
)

const completeContract = `# Checkout Flow

## Summary
Adds a checkout flow.

## Problem Statement
Users cannot pay.

## API Design
POST /api/v1/checkout

## Acceptance Criteria
- [ ] payment succeeds

## Tests
- unit: totals
`

func TestValidate_Complete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contract.md")
	require.NoError(t, os.WriteFile(path, []byte(completeContract), 0o644))

	result, err := Validate(path)
	require.NoError(t, err)

	assert.True(t, result.Valid)
	assert.Empty(t, result.Missing)
}

func TestValidate_MissingSections(t *testing.T) {
	result := ValidateContent("# Feature\n\n## Summary\nshort\n")

	assert.False(t, result.Valid)
	assert.Contains(t, result.Missing, "Problem Statement")
	assert.Contains(t, result.Missing, "Tests")
	assert.NotContains(t, result.Missing, "Summary")
}

func TestValidate_HeadingCaseAndDecoration(t *testing.T) {
	result := ValidateContent(`
## summary
## **Problem Statement**
### API design
## Acceptance criteria
## TESTS
`)
	assert.True(t, result.Valid)
}

func TestValidate_MissingFile(t *testing.T) {
	_, err := Validate(filepath.Join(t.TempDir(), "nope.md"))
	assert.Error(t, err)
}

func TestValidate_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contract.md")
	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0o644))

	_, err := Validate(path)
	assert.Error(t, err)
}

type fakeClient struct {
	response string
	err      error
	lastReq  llm.CompletionRequest
}

func (f *fakeClient) Complete(_ context.Context, req llm.CompletionRequest) (string, error) {
	f.lastReq = req
	return f.response, f.err
}

func TestDraft(t *testing.T) {
	client := &fakeClient{response: completeContract}

	doc, err := Draft(context.Background(), client, "checkout flow", map[string]string{
		"stack":   "python",
		"service": "shop-api",
	})
	require.NoError(t, err)

	assert.Equal(t, completeContract, doc)
	assert.Contains(t, client.lastReq.Prompt, "checkout flow")
	assert.Contains(t, client.lastReq.Prompt, "service: shop-api")
	assert.True(t, ValidateContent(doc).Valid)
}

func TestDraft_EmptyIdea(t *testing.T) {
	_, err := Draft(context.Background(), &fakeClient{}, "  ", nil)
	assert.Error(t, err)
}

func TestDraft_CollaboratorError(t *testing.T) {
	client := &fakeClient{err: errors.New("unavailable")}
	_, err := Draft(context.Background(), client, "checkout flow", nil)
	assert.Error(t, err)
}
