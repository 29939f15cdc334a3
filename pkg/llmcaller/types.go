// Package llmcaller wraps a streaming chat-completion client: it
// normalizes provider chunk shapes, accumulates text/reasoning/tool
// calls, measures time-to-first-token, and applies a compatibility
// fallback chain plus retry/backoff around transient failures.
package llmcaller

import (
	"context"
	"time"
)

// Message is one entry in a chat-completion request payload.
type Message struct {
	Role    string
	Content string

	// ReasoningContent mirrors some providers' requirement that prior
	// assistant turns carry this field even when empty. ReasoningSet
	// tracks whether PatchReasoningContent has forced it onto the wire.
	ReasoningContent string
	ReasoningSet     bool

	ToolCalls []ToolCall
}

// ToolCall is a resolved (non-delta) tool invocation.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ToolDefinition is what the provider needs to offer a tool to the model.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Usage is token accounting returned with a completion.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Request is the abstract chat-completion request, modeled on the
// `chat.completions.create` contract.
type Request struct {
	Model    string
	BaseURL  string
	Messages []Message
	Tools    []ToolDefinition
	Timeout  time.Duration

	// Extra carries provider-specific top-level request parameters
	// (e.g. prompt_cache_key) that the fallback chain may need to
	// strip without touching Messages/Tools.
	Extra map[string]any
}

// NativeToolCallDelta is one index-keyed fragment of a streamed tool
// call, shared by both chunk shapes below.
type NativeToolCallDelta struct {
	Index        int
	ID           string
	FunctionName string
	FunctionArgs string
}

// NativeDelta is the `choices[0].delta` shape most OpenAI-compatible
// providers stream.
type NativeDelta struct {
	Content          string
	Reasoning        string
	ReasoningContent string
	ToolCalls        []NativeToolCallDelta
	FinishReason     string
	Usage            *Usage
}

// GenericDelta is the alternate, provider-agnostic chunk shape:
// `{content_delta, thinking_delta, tool_calls_delta, finish_reason,
// usage}`.
type GenericDelta struct {
	ContentDelta   string
	ThinkingDelta  string
	ToolCallsDelta []NativeToolCallDelta
	FinishReason   string
	Usage          *Usage
}

// RawChunk is one item off the provider's stream. Exactly one of
// Native/Generic is set on a non-error chunk; Err is set on a
// terminal stream error.
type RawChunk struct {
	Native  *NativeDelta
	Generic *GenericDelta
	Err     error
}

// StreamEventKind names the typed events the consumer emits.
type StreamEventKind string

const (
	EventTextDelta         StreamEventKind = "TEXT_DELTA"
	EventThinkingDelta     StreamEventKind = "THINKING_DELTA"
	EventToolCallArgsDelta StreamEventKind = "TOOL_CALL_ARGS_DELTA"
	EventPipelineProgress  StreamEventKind = "PIPELINE_PROGRESS"
)

// StreamEvent is forwarded to the caller's Emit callback as the stream
// is consumed, ahead of the final accumulated message.
type StreamEvent struct {
	Kind          StreamEventKind
	Text          string
	ToolCallIndex int
	ToolCallName  string
}

// AccumulatedMessage is the (message, usage) pair produced once a
// stream drains.
type AccumulatedMessage struct {
	Text      string
	Reasoning string
	ToolCalls []ToolCall
	Usage     Usage
	TTFT      time.Duration
	Truncated bool
}

// ChatClient is the abstract streaming chat client this package
// retries/falls-back around. OpenAIClient in this package implements
// it for OpenAI-compatible completions endpoints.
type ChatClient interface {
	Stream(ctx context.Context, req Request) (<-chan RawChunk, error)
}
