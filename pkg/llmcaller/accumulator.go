package llmcaller

import (
	"strings"
	"time"
)

type toolCallBuilder struct {
	id   string
	name strings.Builder
	args strings.Builder
}

// Consume drains chunks, accumulating text/reasoning/tool-call
// fragments into a single AccumulatedMessage. emit (may be nil) is
// called once per delta found in a chunk (so zero or more times per
// chunk) with the corresponding typed event from the
// TEXT_DELTA/THINKING_DELTA/TOOL_CALL_ARGS_DELTA/PIPELINE_PROGRESS
// stream.
func Consume(chunks <-chan RawChunk, emit func(StreamEvent)) (*AccumulatedMessage, error) {
	var text, reasoning strings.Builder
	var usage Usage
	order := make([]int, 0, 4)
	builders := make(map[int]*toolCallBuilder)
	var start time.Time
	var ttft time.Duration
	ttftCaptured := false

	touch := func() {
		if start.IsZero() {
			start = time.Now()
		}
	}
	captureTTFT := func() {
		if !ttftCaptured {
			ttft = time.Since(start)
			ttftCaptured = true
		}
	}

	for chunk := range chunks {
		touch()
		if chunk.Err != nil {
			return nil, chunk.Err
		}

		content, thinking, toolCalls, finishUsage := normalize(chunk)

		if content != "" {
			captureTTFT()
			text.WriteString(content)
			if emit != nil {
				emit(StreamEvent{Kind: EventTextDelta, Text: content})
			}
		}
		if thinking != "" {
			captureTTFT()
			reasoning.WriteString(thinking)
			if emit != nil {
				emit(StreamEvent{Kind: EventThinkingDelta, Text: thinking})
			}
		}
		for _, tc := range toolCalls {
			captureTTFT()
			b, seen := builders[tc.Index]
			if !seen {
				b = &toolCallBuilder{}
				builders[tc.Index] = b
				order = append(order, tc.Index)
				if emit != nil {
					emit(StreamEvent{Kind: EventPipelineProgress, ToolCallIndex: tc.Index, ToolCallName: tc.FunctionName})
				}
			}
			if tc.ID != "" {
				b.id = tc.ID
			}
			if tc.FunctionName != "" {
				b.name.WriteString(tc.FunctionName)
			}
			if tc.FunctionArgs != "" {
				b.args.WriteString(tc.FunctionArgs)
				if emit != nil {
					emit(StreamEvent{Kind: EventToolCallArgsDelta, Text: tc.FunctionArgs, ToolCallIndex: tc.Index})
				}
			}
		}
		if finishUsage != nil {
			usage = *finishUsage
		}
	}

	result := &AccumulatedMessage{
		Text:      text.String(),
		Reasoning: reasoning.String(),
		Usage:     usage,
		TTFT:      ttft,
	}
	for _, idx := range order {
		b := builders[idx]
		result.ToolCalls = append(result.ToolCalls, ToolCall{
			ID:        b.id,
			Name:      b.name.String(),
			Arguments: b.args.String(),
		})
	}
	return result, nil
}

// normalize flattens either chunk shape into a common (content,
// thinking, toolCalls, usage) tuple.
func normalize(chunk RawChunk) (content, thinking string, toolCalls []NativeToolCallDelta, usage *Usage) {
	switch {
	case chunk.Native != nil:
		n := chunk.Native
		reasoning := n.Reasoning
		if reasoning == "" {
			reasoning = n.ReasoningContent
		}
		return n.Content, reasoning, n.ToolCalls, n.Usage
	case chunk.Generic != nil:
		g := chunk.Generic
		return g.ContentDelta, g.ThinkingDelta, g.ToolCallsDelta, g.Usage
	default:
		return "", "", nil, nil
	}
}
