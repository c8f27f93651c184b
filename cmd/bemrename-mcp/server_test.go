package main

import (
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// extractText mirrors the teacher's extractTextFromResult helper: the
// mcp-go content union requires a type switch to recover the string the
// tool actually returned to the caller.
func extractText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	textContent, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected mcp.TextContent")
	return textContent.Text
}

func TestTextResultMarshalsIndentedJSON(t *testing.T) {
	result, err := textResult(map[string]any{"field_count": 3})
	require.NoError(t, err)

	text := extractText(t, result)
	assert.Contains(t, text, "\"field_count\": 3")
}

func TestTextResultOnUnmarshalableValueReturnsToolError(t *testing.T) {
	result, err := textResult(make(chan int))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}
