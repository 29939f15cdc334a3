package llmcaller

import (
	"strings"
	"sync"
)

// UnsupportedParamPattern is the canonical detection signal for an
// unsupported request parameter (fallback step 1).
const UnsupportedParamPattern = "unknown parameter"

// canonicalStrippableParam is the step-1 fixup's example offending
// parameter.
const canonicalStrippableParam = "prompt_cache_key"

// IsUnsupportedParameterError reports whether err looks like a
// provider rejecting a request parameter it doesn't understand.
func IsUnsupportedParameterError(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), UnsupportedParamPattern)
}

// StripCanonicalParam removes prompt_cache_key from req.Extra, the
// fallback chain's step-1 fixup.
func StripCanonicalParam(req *Request) bool {
	if req.Extra == nil {
		return false
	}
	if _, ok := req.Extra[canonicalStrippableParam]; !ok {
		return false
	}
	delete(req.Extra, canonicalStrippableParam)
	return true
}

// IsMissingReasoningContentError reports whether err looks like a
// provider requiring a reasoning_content field on prior assistant
// turns that the request omitted.
func IsMissingReasoningContentError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "reasoning_content")
}

// PatchReasoningContent forces every assistant message in messages to
// carry an explicit (possibly empty) reasoning_content field (fallback
// step 2). Returns a new slice; messages is not mutated.
func PatchReasoningContent(messages []Message) []Message {
	out := make([]Message, len(messages))
	copy(out, messages)
	for i := range out {
		if out[i].Role == "assistant" && !out[i].ReasoningSet {
			out[i].ReasoningSet = true
		}
	}
	return out
}

// IsSystemMultiplicityError reports whether err looks like a provider
// rejecting more than one leading system message.
func IsSystemMultiplicityError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "system") &&
		(strings.Contains(msg, "single") || strings.Contains(msg, "only one") || strings.Contains(msg, "multiple"))
}

// MergeLeadingSystemMessages collapses every leading system-role
// message into one, joined by a blank line (fallback step 3). Returns a
// new slice; messages is not mutated.
func MergeLeadingSystemMessages(messages []Message) []Message {
	i := 0
	for i < len(messages) && messages[i].Role == "system" {
		i++
	}
	if i <= 1 {
		return messages
	}
	parts := make([]string, 0, i)
	for _, m := range messages[:i] {
		parts = append(parts, m.Content)
	}
	merged := Message{Role: "system", Content: strings.Join(parts, "\n\n")}
	out := make([]Message, 0, len(messages)-i+1)
	out = append(out, merged)
	out = append(out, messages[i:]...)
	return out
}

// systemMergeCache is the process-wide (model, base_url) → "merge
// required" memo for the step-3 fixup. Entries are monotonically
// written and readable by any session.
var systemMergeCache sync.Map // map[string]bool

func fallbackCacheKey(model, baseURL string) string {
	return model + "|" + baseURL
}

// NeedsSystemMerge reports whether a prior call against (model,
// baseURL) already discovered that leading system messages must be
// merged.
func NeedsSystemMerge(model, baseURL string) bool {
	v, ok := systemMergeCache.Load(fallbackCacheKey(model, baseURL))
	return ok && v.(bool)
}

// MarkSystemMergeRequired records that (model, baseURL) requires
// leading-system-message merging for all future calls.
func MarkSystemMergeRequired(model, baseURL string) {
	systemMergeCache.Store(fallbackCacheKey(model, baseURL), true)
}
