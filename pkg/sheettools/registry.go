package sheettools

// Registry is the fixed set of tools the engine offers the model every
// turn, keyed by name.
type Registry struct {
	byName map[string]Tool
}

func NewRegistry() *Registry {
	r := &Registry{byName: make(map[string]Tool)}
	for _, t := range []Tool{
		NewMemoryReadTopicTool(),
		NewMemorySaveTool(),
		NewFocusWindowTool(),
	} {
		r.byName[t.Name()] = t
	}
	return r
}

func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.byName[name]
	return t, ok
}

func (r *Registry) Definitions() []map[string]any {
	out := make([]map[string]any, 0, len(r.byName))
	for _, t := range r.byName {
		out = append(out, map[string]any{
			"name":        t.Name(),
			"description": t.Description(),
			"parameters":  t.Schema(),
		})
	}
	return out
}
