package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheetrtd/sheetrt/pkg/window"
)

func TestLoadIntentKeywords_MissingFileReturnsDefaults(t *testing.T) {
	got, err := LoadIntentKeywords(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultIntentKeywords, got)
}

func TestLoadIntentKeywords_PartialOverrideFallsBackForUnsetTags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keywords.yaml")
	require.NoError(t, os.WriteFile(path, []byte("aggregate: [\"suma\", \"promedio\"]\n"), 0o644))

	got, err := LoadIntentKeywords(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"suma", "promedio"}, got[window.IntentAggregate])
	assert.Equal(t, DefaultIntentKeywords[window.IntentFormat], got[window.IntentFormat])
}

func TestLoadIntentKeywords_AllTagsCoveredByDefault(t *testing.T) {
	for _, tag := range []window.IntentTag{
		window.IntentAggregate, window.IntentFormat, window.IntentValidate,
		window.IntentFormula, window.IntentEntry,
	} {
		assert.NotEmpty(t, DefaultIntentKeywords[tag], "tag %s has no default keywords", tag)
	}
}
