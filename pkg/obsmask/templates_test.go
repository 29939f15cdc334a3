package obsmask

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize_MemorySaveExtractsResultField(t *testing.T) {
	got := Summarize("memory_save", `{"result":"saved"}`)
	assert.Equal(t, "[memory_save] saved", got)
}

func TestSummarize_MemoryReadTopicExtractsErrorField(t *testing.T) {
	got := Summarize("memory_read_topic", `{"error":"unknown topic: bogus"}`)
	assert.Equal(t, "[memory_read_topic] error: unknown topic: bogus", got)
}

func TestSummarize_FocusWindowUnwrapsDoubleEncodedResult(t *testing.T) {
	// focus_window's own Call wraps its payload once via jsonResult; the
	// engine's json.Marshal of the returned map wraps it again.
	got := Summarize("focus_window", `{"result":"{\"result\":\"window sheet_1 scrolled to A20:E40\"}"}`)
	assert.Equal(t, "[focus_window] window sheet_1 scrolled to A20:E40", got)
}

func TestSummarize_FocusWindowErrorSurvivesOneUnwrap(t *testing.T) {
	got := Summarize("focus_window", `{"result":"{\"error\":\"unknown window\",\"available_windows\":[\"sheet_1\"]}"}`)
	assert.True(t, strings.Contains(got, "unknown window"))
}

func TestSummarize_UnknownToolFallsBackToTruncatedRawContent(t *testing.T) {
	got := Summarize("", "plain text that is not json at all")
	assert.Equal(t, "plain text that is not json at all", got)
}

func TestSummarize_TruncatesLongFallbackContent(t *testing.T) {
	long := strings.Repeat("a", 250)
	got := Summarize("unregistered_tool", long)
	assert.True(t, strings.HasSuffix(got, "…"))
	assert.True(t, len(got) < len(long))
}

func TestTruncate_NoOpUnderLimit(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 200))
}
