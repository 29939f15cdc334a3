package sheettools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_ContainsAllThreeDomainTools(t *testing.T) {
	r := NewRegistry()

	for _, name := range []string{"memory_read_topic", "memory_save", "focus_window"} {
		tool, ok := r.Get(name)
		require.True(t, ok, "expected %s to be registered", name)
		assert.Equal(t, name, tool.Name())
	}
}

func TestRegistry_UnknownToolNotFound(t *testing.T) {
	r := NewRegistry()
	_, ok := r.Get("does_not_exist")
	assert.False(t, ok)
}

func TestRegistry_DefinitionsIncludeSchemaForEachTool(t *testing.T) {
	r := NewRegistry()
	defs := r.Definitions()
	require.Len(t, defs, 3)
	for _, d := range defs {
		assert.NotEmpty(t, d["name"])
		assert.NotEmpty(t, d["description"])
		assert.NotNil(t, d["parameters"])
	}
}
