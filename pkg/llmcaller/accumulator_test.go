package llmcaller

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chunks(cs ...RawChunk) <-chan RawChunk {
	ch := make(chan RawChunk, len(cs))
	for _, c := range cs {
		ch <- c
	}
	close(ch)
	return ch
}

func TestConsume_AccumulatesTextAcrossNativeChunks(t *testing.T) {
	result, err := Consume(chunks(
		RawChunk{Native: &NativeDelta{Content: "Hello, "}},
		RawChunk{Native: &NativeDelta{Content: "world"}},
		RawChunk{Native: &NativeDelta{Usage: &Usage{TotalTokens: 12}}},
	), nil)
	require.NoError(t, err)
	assert.Equal(t, "Hello, world", result.Text)
	assert.Equal(t, 12, result.Usage.TotalTokens)
}

func TestConsume_AccumulatesGenericChunkShape(t *testing.T) {
	result, err := Consume(chunks(
		RawChunk{Generic: &GenericDelta{ContentDelta: "a"}},
		RawChunk{Generic: &GenericDelta{ContentDelta: "b", ThinkingDelta: "thinking"}},
	), nil)
	require.NoError(t, err)
	assert.Equal(t, "ab", result.Text)
	assert.Equal(t, "thinking", result.Reasoning)
}

func TestConsume_ReassemblesToolCallsByIndex(t *testing.T) {
	result, err := Consume(chunks(
		RawChunk{Native: &NativeDelta{ToolCalls: []NativeToolCallDelta{{Index: 0, ID: "call_1", FunctionName: "foc"}}}},
		RawChunk{Native: &NativeDelta{ToolCalls: []NativeToolCallDelta{{Index: 0, FunctionName: "us_window"}}}},
		RawChunk{Native: &NativeDelta{ToolCalls: []NativeToolCallDelta{{Index: 0, FunctionArgs: `{"window_id":"w1"`}}}},
		RawChunk{Native: &NativeDelta{ToolCalls: []NativeToolCallDelta{{Index: 0, FunctionArgs: `}`}}}},
	), nil)
	require.NoError(t, err)
	require.Len(t, result.ToolCalls, 1)
	assert.Equal(t, "call_1", result.ToolCalls[0].ID)
	assert.Equal(t, "focus_window", result.ToolCalls[0].Name)
	assert.Equal(t, `{"window_id":"w1"}`, result.ToolCalls[0].Arguments)
}

func TestConsume_MultipleToolCallsPreserveFirstSeenOrder(t *testing.T) {
	result, err := Consume(chunks(
		RawChunk{Native: &NativeDelta{ToolCalls: []NativeToolCallDelta{{Index: 1, FunctionName: "second"}}}},
		RawChunk{Native: &NativeDelta{ToolCalls: []NativeToolCallDelta{{Index: 0, FunctionName: "first"}}}},
	), nil)
	require.NoError(t, err)
	require.Len(t, result.ToolCalls, 2)
	assert.Equal(t, "second", result.ToolCalls[0].Name)
	assert.Equal(t, "first", result.ToolCalls[1].Name)
}

func TestConsume_EmitsTypedEventsInOrder(t *testing.T) {
	var events []StreamEvent
	_, err := Consume(chunks(
		RawChunk{Native: &NativeDelta{Content: "hi"}},
		RawChunk{Native: &NativeDelta{ToolCalls: []NativeToolCallDelta{{Index: 0, FunctionName: "focus_window", FunctionArgs: "{}"}}}},
	), func(e StreamEvent) { events = append(events, e) })
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, EventTextDelta, events[0].Kind)
	assert.Equal(t, EventPipelineProgress, events[1].Kind)
	assert.Equal(t, EventToolCallArgsDelta, events[2].Kind)
}

func TestConsume_PropagatesStreamError(t *testing.T) {
	_, err := Consume(chunks(
		RawChunk{Native: &NativeDelta{Content: "partial"}},
		RawChunk{Err: assertError("boom")},
	), nil)
	assert.EqualError(t, err, "boom")
}

type assertError string

func (e assertError) Error() string { return string(e) }
