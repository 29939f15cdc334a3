// Package sheettools declares the three tools the model can call during
// an agent turn: memory_read_topic, memory_save, and focus_window. Each
// exposes a Name()/Schema() pair the way haasonsaas-nexus's per-tool
// structs under internal/tools do (e.g. internal/tools/models.Tool),
// but the schema here is reflected from a typed Go input struct via
// invopop/jsonschema (the same reflector haasonsaas-nexus's own
// internal/config.JSONSchema uses) instead of hand-built as a literal
// map.
package sheettools

import (
	"context"

	"github.com/sheetrtd/sheetrt/pkg/store"
	"github.com/sheetrtd/sheetrt/pkg/window"
)

// Context is the execution context passed to every tool call: the
// memory service and window manager bound for the current session, plus
// the ambient context.Context for cancellation/timeouts.
type Context struct {
	Ctx     context.Context
	Memory  PersistentMemory
	Windows *window.Manager
}

// PersistentMemory is the narrow memory surface tools need, satisfied by
// both pmemory.Service and pmemory.SemanticService.
type PersistentMemory interface {
	ReadTopic(ctx context.Context, category store.MemoryCategory) (string, error)
	Save(ctx context.Context, category store.MemoryCategory, content, source string) (*store.MemoryEntry, error)
}

// Tool is the common shape of a function tool: a name, description,
// JSON schema, and typed call.
type Tool interface {
	Name() string
	Description() string
	Schema() map[string]any
	Call(tc Context, args map[string]any) (map[string]any, error)
}
