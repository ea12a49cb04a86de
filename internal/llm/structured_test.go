package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCodegenResponse_StructuredPatch(t *testing.T) {
	raw := `{"kind":"patch","patches":[{"path":"app/service.py","content":"import os\n"}]}`

	result, err := ParseCodegenResponse(raw)

	require.NoError(t, err)
	assert.Equal(t, ResultPatch, result.Kind)
	require.Len(t, result.Patches, 1)
	assert.Equal(t, "app/service.py", result.Patches[0].Path)
}

func TestParseCodegenResponse_StructuredInCodeFence(t *testing.T) {
	raw := "```json\n{\"kind\":\"retry\",\"reason\":\"contract section missing\"}\n```"

	result, err := ParseCodegenResponse(raw)

	require.NoError(t, err)
	assert.Equal(t, ResultRetry, result.Kind)
	assert.Equal(t, "contract section missing", result.Reason)
}

func TestParseCodegenResponse_NotesVariant(t *testing.T) {
	result, err := ParseCodegenResponse(`{"kind":"notes","notes":"nothing to change"}`)

	require.NoError(t, err)
	assert.Equal(t, ResultNotes, result.Kind)
	assert.Equal(t, "nothing to change", result.Notes)
}

func TestParseCodegenResponse_MarkerFallback(t *testing.T) {
	raw := "Here are the files:\n" +
		"=== FILE: app/a.py ===\n" +
		"print(\"a\")\n" +
		"=== FILE: app/b.py ===\n" +
		"print(\"b\")"

	result, err := ParseCodegenResponse(raw)

	require.NoError(t, err)
	assert.Equal(t, ResultPatch, result.Kind)
	require.Len(t, result.Patches, 2)
	assert.Equal(t, "app/a.py", result.Patches[0].Path)
	assert.Equal(t, "print(\"a\")", result.Patches[0].Content)
	assert.Equal(t, "app/b.py", result.Patches[1].Path)
}

func TestParseCodegenResponse_Unparseable(t *testing.T) {
	_, err := ParseCodegenResponse("I could not complete the task.")
	assert.ErrorIs(t, err, ErrUnparseableResponse)
}

func TestParseCodegenResponse_InvalidJSONFallsThrough(t *testing.T) {
	_, err := ParseCodegenResponse("{not valid json")
	assert.ErrorIs(t, err, ErrUnparseableResponse)
}
