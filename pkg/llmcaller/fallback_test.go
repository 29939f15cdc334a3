package llmcaller

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsUnsupportedParameterError_MatchesSubstring(t *testing.T) {
	assert.True(t, IsUnsupportedParameterError(errors.New("Unknown parameter: prompt_cache_key")))
	assert.False(t, IsUnsupportedParameterError(errors.New("rate limit exceeded")))
}

func TestStripCanonicalParam_RemovesPromptCacheKey(t *testing.T) {
	req := &Request{Extra: map[string]any{"prompt_cache_key": "abc", "other": 1}}
	changed := StripCanonicalParam(req)
	assert.True(t, changed)
	_, ok := req.Extra["prompt_cache_key"]
	assert.False(t, ok)
	assert.Equal(t, 1, req.Extra["other"])
}

func TestStripCanonicalParam_NoOpWhenAbsent(t *testing.T) {
	req := &Request{Extra: map[string]any{}}
	assert.False(t, StripCanonicalParam(req))
}

func TestPatchReasoningContent_MarksAssistantMessagesOnly(t *testing.T) {
	messages := []Message{
		{Role: "system", Content: "sys"},
		{Role: "assistant", Content: "hi"},
		{Role: "user", Content: "hello"},
	}
	patched := PatchReasoningContent(messages)
	assert.False(t, patched[0].ReasoningSet)
	assert.True(t, patched[1].ReasoningSet)
	assert.False(t, patched[2].ReasoningSet)
	// original untouched
	assert.False(t, messages[1].ReasoningSet)
}

func TestMergeLeadingSystemMessages_CollapsesLeadingRun(t *testing.T) {
	messages := []Message{
		{Role: "system", Content: "a"},
		{Role: "system", Content: "b"},
		{Role: "user", Content: "hi"},
	}
	merged := MergeLeadingSystemMessages(messages)
	require.Len(t, merged, 2)
	assert.Equal(t, "system", merged[0].Role)
	assert.Contains(t, merged[0].Content, "a")
	assert.Contains(t, merged[0].Content, "b")
	assert.Equal(t, "user", merged[1].Role)
}

func TestMergeLeadingSystemMessages_NoOpWithSingleSystemMessage(t *testing.T) {
	messages := []Message{{Role: "system", Content: "a"}, {Role: "user", Content: "hi"}}
	merged := MergeLeadingSystemMessages(messages)
	require.Len(t, merged, 2)
	assert.Equal(t, messages, merged)
}

func TestSystemMergeCache_RoundTrips(t *testing.T) {
	assert.False(t, NeedsSystemMerge("test-model-x", "https://example.test"))
	MarkSystemMergeRequired("test-model-x", "https://example.test")
	assert.True(t, NeedsSystemMerge("test-model-x", "https://example.test"))
	assert.False(t, NeedsSystemMerge("test-model-x", "https://other.test"))
}
