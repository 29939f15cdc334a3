package sheettools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheetrtd/sheetrt/pkg/store"
)

type fakeMemory struct {
	topics       map[store.MemoryCategory]string
	saveErr      error
	savedCat     store.MemoryCategory
	savedContent string
}

func newFakeMemory() *fakeMemory {
	return &fakeMemory{topics: make(map[store.MemoryCategory]string)}
}

func (f *fakeMemory) ReadTopic(ctx context.Context, category store.MemoryCategory) (string, error) {
	if out, ok := f.topics[category]; ok {
		return out, nil
	}
	return "## " + string(category), nil
}

func (f *fakeMemory) Save(ctx context.Context, category store.MemoryCategory, content, source string) (*store.MemoryEntry, error) {
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	f.savedCat = category
	f.savedContent = content
	return &store.MemoryEntry{Category: category, Content: content, Source: source}, nil
}

func TestMemoryReadTopicTool_EmptyTopicReturnsFriendlyMessage(t *testing.T) {
	tool := NewMemoryReadTopicTool()
	tc := Context{Ctx: context.Background(), Memory: newFakeMemory()}

	out, err := tool.Call(tc, map[string]any{"topic": "general"})
	require.NoError(t, err)
	assert.Contains(t, out["result"], "no memory saved yet")
}

func TestMemoryReadTopicTool_RejectsUnknownTopic(t *testing.T) {
	tool := NewMemoryReadTopicTool()
	tc := Context{Ctx: context.Background(), Memory: newFakeMemory()}

	out, err := tool.Call(tc, map[string]any{"topic": "not_a_topic"})
	require.NoError(t, err)
	assert.Contains(t, out["result"], "unknown topic")
}

func TestMemoryReadTopicTool_DisabledWhenMemoryNil(t *testing.T) {
	tool := NewMemoryReadTopicTool()
	tc := Context{Ctx: context.Background(), Memory: nil}

	out, err := tool.Call(tc, map[string]any{"topic": "general"})
	require.NoError(t, err)
	assert.Equal(t, "memory is disabled for this session", out["result"])
}

func TestMemoryReadTopicTool_ReturnsSavedContent(t *testing.T) {
	mem := newFakeMemory()
	mem.topics[store.CategoryUserPref] = "## user_pref\n- likes dark mode"
	tool := NewMemoryReadTopicTool()
	tc := Context{Ctx: context.Background(), Memory: mem}

	out, err := tool.Call(tc, map[string]any{"topic": "user_prefs"})
	require.NoError(t, err)
	assert.Contains(t, out["result"], "likes dark mode")
}

func TestMemorySaveTool_RejectsEmptyContent(t *testing.T) {
	tool := NewMemorySaveTool()
	tc := Context{Ctx: context.Background(), Memory: newFakeMemory()}

	out, err := tool.Call(tc, map[string]any{"content": "   ", "category": "general"})
	require.NoError(t, err)
	assert.Contains(t, out["result"], "must not be empty")
}

func TestMemorySaveTool_RejectsUnknownCategory(t *testing.T) {
	tool := NewMemorySaveTool()
	tc := Context{Ctx: context.Background(), Memory: newFakeMemory()}

	out, err := tool.Call(tc, map[string]any{"content": "x", "category": "bogus"})
	require.NoError(t, err)
	assert.Contains(t, out["result"], "unknown category")
}

func TestMemorySaveTool_SavesUnderResolvedCategory(t *testing.T) {
	mem := newFakeMemory()
	tool := NewMemorySaveTool()
	tc := Context{Ctx: context.Background(), Memory: mem}

	out, err := tool.Call(tc, map[string]any{"content": "prefers dark mode", "category": "user_prefs"})
	require.NoError(t, err)
	assert.Equal(t, "saved", out["result"])
	assert.Equal(t, store.CategoryUserPref, mem.savedCat)
	assert.Equal(t, "prefers dark mode", mem.savedContent)
}

func TestSchema_GeneratesRequiredFields(t *testing.T) {
	schema, err := generateSchema[SaveArgs]()
	require.NoError(t, err)
	assert.Equal(t, "object", schema["type"])
	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "content")
	assert.Contains(t, props, "category")
}
