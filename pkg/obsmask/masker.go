// Package obsmask compacts a conversation before it goes to the LLM:
// the most recent FRESH_WINDOW user turns stay verbatim, older
// tool-result messages get rewritten to short, tool-name-keyed
// summaries. Grounded on haasonsaas-nexus's internal/agent.
// CompactionManager, which watches context usage against a threshold
// and triggers a flush once a session's window fills — unlike that
// manager, which prompts the model to externalize state before a hard
// drop, this package rewrites in place so the model keeps cheap
// awareness of what happened without paying for the full payload.
package obsmask

import (
	"github.com/sheetrtd/sheetrt/pkg/llmcaller"
)

// DefaultFreshWindow is used when Masker is constructed with
// freshWindow <= 0.
const DefaultFreshWindow = 3

// Masker rewrites older tool-result messages to compact summaries.
// User, assistant, and system messages are never rewritten.
type Masker struct {
	freshWindow int
}

// NewMasker builds a Masker keeping the last freshWindow user turns (and
// everything after them) verbatim. freshWindow <= 0 falls back to
// DefaultFreshWindow.
func NewMasker(freshWindow int) *Masker {
	if freshWindow <= 0 {
		freshWindow = DefaultFreshWindow
	}
	return &Masker{freshWindow: freshWindow}
}

// Mask returns a new message list; messages is never mutated.
func (m *Masker) Mask(messages []llmcaller.Message) []llmcaller.Message {
	boundary := m.freshBoundary(messages)
	toolNames := toolNamesByCallID(messages)

	out := make([]llmcaller.Message, len(messages))
	for i, msg := range messages {
		if i >= boundary || msg.Role != "tool" {
			out[i] = msg
			continue
		}
		out[i] = msg
		out[i].Content = Summarize(toolNames[toolCallID(msg)], msg.Content)
	}
	return out
}

// freshBoundary returns the index of the earliest message that must be
// kept verbatim: the start of the freshWindow-th most recent user turn,
// or 0 if there are fewer than freshWindow user turns in total.
func (m *Masker) freshBoundary(messages []llmcaller.Message) int {
	userTurns := 0
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			userTurns++
			if userTurns == m.freshWindow {
				return i
			}
		}
	}
	return 0
}

// toolCallID recovers the id a "tool" role message answers. Message
// itself has no dedicated field for it in this package's view of the
// wire shape (llmcaller.Message carries ToolCalls only on assistant
// messages) — engine threads the id through ToolCalls[0].ID on the
// synthetic single-entry slice it builds for tool-result messages.
func toolCallID(msg llmcaller.Message) string {
	if len(msg.ToolCalls) == 1 {
		return msg.ToolCalls[0].ID
	}
	return ""
}

// toolNamesByCallID joins a tool-result message back to the name of the
// tool that produced it by scanning preceding assistant messages'
// tool_calls, since a tool-result message itself carries only its call
// ID.
func toolNamesByCallID(messages []llmcaller.Message) map[string]string {
	names := make(map[string]string)
	for _, msg := range messages {
		if msg.Role != "assistant" {
			continue
		}
		for _, tc := range msg.ToolCalls {
			names[tc.ID] = tc.Name
		}
	}
	return names
}
