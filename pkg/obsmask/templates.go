package obsmask

import (
	"encoding/json"
	"fmt"
)

// fallbackChars is the truncation length for tool results this package
// cannot parse into a known shape — the Open Question decision in
// DESIGN.md: no structured extraction beyond the tools this package
// knows about, just a bounded prefix.
const fallbackChars = 200

// Summarize rewrites one tool-result message body to a short, tool-
// name-keyed summary. toolName may be empty (the assistant tool_calls
// entry it answers couldn't be found); content is the raw tool message
// body.
func Summarize(toolName, content string) string {
	switch toolName {
	case "memory_read_topic", "memory_save":
		return memoryTemplate(toolName, content)
	case "focus_window":
		return focusWindowTemplate(content)
	default:
		return fallback(content)
	}
}

func memoryTemplate(toolName, content string) string {
	result, ok := unwrapResult(content)
	if !ok {
		return fallback(content)
	}
	return fmt.Sprintf("[%s] %s", toolName, truncate(result, fallbackChars))
}

func focusWindowTemplate(content string) string {
	result, ok := unwrapResult(content)
	if !ok {
		return fallback(content)
	}
	// focus_window's payload arrives JSON-encoded twice (once by its
	// Call's jsonResult, which encodes the inner {result|error, ...}
	// map, once more by the engine's own json.Marshal of the tool's
	// returned map), so the
	// first unwrap typically still yields a JSON string rather than
	// plain text — try one more level before giving up.
	if inner, ok := unwrapResult(result); ok {
		result = inner
	}
	return "[focus_window] " + truncate(result, fallbackChars)
}

// unwrapResult extracts content["result"] (preferred) or
// content["error"] from a JSON object, reporting whether content parsed
// as such an object at all.
func unwrapResult(content string) (string, bool) {
	var parsed map[string]any
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return "", false
	}
	if v, ok := parsed["result"].(string); ok {
		return v, true
	}
	if v, ok := parsed["error"].(string); ok {
		return "error: " + v, true
	}
	raw, err := json.Marshal(parsed)
	if err != nil {
		return "", false
	}
	return string(raw), true
}

func fallback(content string) string {
	return truncate(content, fallbackChars)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
