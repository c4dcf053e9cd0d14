package botly

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trishiras/botly-v3-rag/internal/rag"
)

func TestRenderPromptPlain(t *testing.T) {
	messages, err := RenderPrompt(PromptPlain, map[string]string{"message": "hi there"})
	require.NoError(t, err)
	require.Len(t, messages, 2)

	assert.Equal(t, "system", messages[0].Role)
	assert.Contains(t, messages[0].Content, "Always answer as short as possible")
	assert.Contains(t, messages[0].Content, "created by Sumit kumar")
	assert.Equal(t, rag.Message{Role: "user", Content: "hi there"}, messages[1])
}

func TestRenderPromptRAG(t *testing.T) {
	messages, err := RenderPrompt(PromptRAG, map[string]string{
		"context":  "chunk one\n\nchunk two",
		"question": "what happened?",
	})
	require.NoError(t, err)
	require.Len(t, messages, 2)

	assert.Equal(t, "system", messages[0].Role)
	assert.Contains(t, messages[0].Content, "Avoid hallucinating information not present in the context")

	assert.Equal(t, "user", messages[1].Role)
	assert.Contains(t, messages[1].Content, "Document Context:\nchunk one\n\nchunk two")
	assert.Contains(t, messages[1].Content, "Question: what happened?")
	assert.Contains(t, messages[1].Content, "based exclusively on the information in the document context")
}

func TestRenderPromptMissingVariables(t *testing.T) {
	tests := []struct {
		name string
		kind PromptKind
		vars map[string]string
	}{
		{"plain without message", PromptPlain, map[string]string{}},
		{"rag without context", PromptRAG, map[string]string{"question": "q"}},
		{"rag without question", PromptRAG, map[string]string{"context": "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RenderPrompt(tt.kind, tt.vars)
			require.Error(t, err)
			assert.Equal(t, ErrorKindTemplate, KindOf(err))
		})
	}
}

func TestRenderPromptUnknownKind(t *testing.T) {
	_, err := RenderPrompt(PromptKind("mystery"), nil)
	require.Error(t, err)
	assert.Equal(t, ErrorKindTemplate, KindOf(err))
}

func TestRenderPromptEmptyValuesAllowed(t *testing.T) {
	// Present-but-empty variables render; only absent variables fail.
	messages, err := RenderPrompt(PromptPlain, map[string]string{"message": ""})
	require.NoError(t, err)
	assert.Equal(t, "", messages[1].Content)
}

func TestFormatContext(t *testing.T) {
	assert.Equal(t, "", FormatContext(nil))
	assert.Equal(t, "", FormatContext([]rag.SearchResult{}))

	results := []rag.SearchResult{
		{Content: "first chunk", Score: 0.9},
		{Content: "second chunk", Score: 0.5},
		{Content: "third chunk", Score: 0.1},
	}
	assert.Equal(t, "first chunk\n\nsecond chunk\n\nthird chunk", FormatContext(results))
}
