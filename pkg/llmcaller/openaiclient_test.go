package llmcaller

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sseServer(t *testing.T, frames []string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, f := range frames {
			fmt.Fprintf(w, "data: %s\n\n", f)
			flusher.Flush()
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
		flusher.Flush()
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIClient_Stream_EmitsNativeDeltasInOrder(t *testing.T) {
	srv := sseServer(t, []string{
		`{"choices":[{"delta":{"content":"Hel"},"finish_reason":""}]}`,
		`{"choices":[{"delta":{"content":"lo"},"finish_reason":"stop"}],"usage":{"prompt_tokens":10,"completion_tokens":2,"total_tokens":12}}`,
	})

	client := NewOpenAIClient(srv.URL, "test-key")
	ch, err := client.Stream(context.Background(), Request{Model: "gpt-4o", Messages: []Message{{Role: "user", Content: "hi"}}})
	require.NoError(t, err)

	var texts []string
	var lastUsage *Usage
	for chunk := range ch {
		require.NoError(t, chunk.Err)
		require.NotNil(t, chunk.Native)
		texts = append(texts, chunk.Native.Content)
		if chunk.Native.Usage != nil {
			lastUsage = chunk.Native.Usage
		}
	}

	assert.Equal(t, []string{"Hel", "lo"}, texts)
	require.NotNil(t, lastUsage)
	assert.Equal(t, 12, lastUsage.TotalTokens)
}

func TestOpenAIClient_Stream_CarriesToolCallDeltas(t *testing.T) {
	srv := sseServer(t, []string{
		`{"choices":[{"delta":{"tool_calls":[{"index":0,"id":"call_1","function":{"name":"sum_range","arguments":"{\"range\""}}]},"finish_reason":""}]}`,
	})

	client := NewOpenAIClient(srv.URL, "test-key")
	ch, err := client.Stream(context.Background(), Request{Model: "gpt-4o"})
	require.NoError(t, err)

	chunk := <-ch
	require.NoError(t, chunk.Err)
	require.Len(t, chunk.Native.ToolCalls, 1)
	assert.Equal(t, "call_1", chunk.Native.ToolCalls[0].ID)
	assert.Equal(t, "sum_range", chunk.Native.ToolCalls[0].FunctionName)
}

func TestOpenAIClient_Stream_NonOKStatusReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewOpenAIClient(srv.URL, "bad-key")
	_, err := client.Stream(context.Background(), Request{Model: "gpt-4o"})
	require.Error(t, err)
}
