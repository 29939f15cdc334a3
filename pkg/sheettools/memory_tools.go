package sheettools

import (
	"strings"

	"github.com/sheetrtd/sheetrt/pkg/store"
)

// validMemoryTopics is the fixed set memory_read_topic and memory_save
// accept; anything else is rejected with a fixed message rather than
// silently coerced.
var validMemoryTopics = map[string]store.MemoryCategory{
	"file_patterns":   store.CategoryFilePattern,
	"user_prefs":      store.CategoryUserPref,
	"error_solutions": store.CategoryErrorSolution,
	"general":         store.CategoryGeneral,
}

// ReadTopicArgs is memory_read_topic's argument shape.
type ReadTopicArgs struct {
	Topic string `json:"topic" jsonschema:"required,description=Memory topic to read,enum=file_patterns|user_prefs|error_solutions|general"`
}

// MemoryReadTopicTool implements memory_read_topic: returns every saved
// memory entry for a fixed topic, rendered as markdown.
type MemoryReadTopicTool struct{}

func NewMemoryReadTopicTool() *MemoryReadTopicTool { return &MemoryReadTopicTool{} }

func (t *MemoryReadTopicTool) Name() string { return "memory_read_topic" }

func (t *MemoryReadTopicTool) Description() string {
	return "Read previously saved memory entries for a topic (file_patterns, user_prefs, error_solutions, or general)."
}

func (t *MemoryReadTopicTool) Schema() map[string]any {
	schema, err := generateSchema[ReadTopicArgs]()
	if err != nil {
		return map[string]any{"type": "object"}
	}
	return schema
}

func (t *MemoryReadTopicTool) Call(tc Context, args map[string]any) (map[string]any, error) {
	if tc.Memory == nil {
		return map[string]any{"result": "memory is disabled for this session"}, nil
	}
	var parsed ReadTopicArgs
	if err := mapToStruct(args, &parsed); err != nil {
		return map[string]any{"result": "invalid arguments"}, nil
	}
	category, ok := validMemoryTopics[strings.TrimSpace(parsed.Topic)]
	if !ok {
		return map[string]any{"result": "unknown topic: " + parsed.Topic}, nil
	}
	out, err := tc.Memory.ReadTopic(tc.Ctx, category)
	if err != nil {
		return map[string]any{"result": "failed to read memory: " + err.Error()}, nil
	}
	if strings.TrimSpace(out) == "## "+string(category) {
		return map[string]any{"result": "no memory saved yet for " + parsed.Topic}, nil
	}
	return map[string]any{"result": out}, nil
}

// SaveArgs is memory_save's argument shape.
type SaveArgs struct {
	Content  string `json:"content" jsonschema:"required,description=What to remember"`
	Category string `json:"category" jsonschema:"required,description=Memory category,enum=file_patterns|user_prefs|error_solutions|general"`
}

// MemorySaveTool implements memory_save: trims and validates content,
// maps category to the fixed enum, and persists it.
type MemorySaveTool struct{}

func NewMemorySaveTool() *MemorySaveTool { return &MemorySaveTool{} }

func (t *MemorySaveTool) Name() string { return "memory_save" }

func (t *MemorySaveTool) Description() string {
	return "Save a fact, preference, or lesson learned for future turns and sessions."
}

func (t *MemorySaveTool) Schema() map[string]any {
	schema, err := generateSchema[SaveArgs]()
	if err != nil {
		return map[string]any{"type": "object"}
	}
	return schema
}

func (t *MemorySaveTool) Call(tc Context, args map[string]any) (map[string]any, error) {
	if tc.Memory == nil {
		return map[string]any{"result": "memory is disabled for this session"}, nil
	}
	var parsed SaveArgs
	if err := mapToStruct(args, &parsed); err != nil {
		return map[string]any{"result": "invalid arguments"}, nil
	}
	content := strings.TrimSpace(parsed.Content)
	if content == "" {
		return map[string]any{"result": "content must not be empty"}, nil
	}
	category, ok := validMemoryTopics[strings.TrimSpace(parsed.Category)]
	if !ok {
		return map[string]any{"result": "unknown category: " + parsed.Category}, nil
	}
	if _, err := tc.Memory.Save(tc.Ctx, category, content, "tool"); err != nil {
		return map[string]any{"result": "failed to save: " + err.Error()}, nil
	}
	return map[string]any{"result": "saved"}, nil
}
