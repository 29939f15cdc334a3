package sessionmgr

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheetrtd/sheetrt/pkg/llmcaller"
)

type fixedClient struct {
	text string
}

func (c *fixedClient) Stream(_ context.Context, _ llmcaller.Request) (<-chan llmcaller.RawChunk, error) {
	ch := make(chan llmcaller.RawChunk, 1)
	ch <- llmcaller.RawChunk{Native: &llmcaller.NativeDelta{Content: c.text}}
	close(ch)
	return ch, nil
}

func testRetry() llmcaller.RetryConfig {
	return llmcaller.RetryConfig{MaxRetries: 1, MinDelay: time.Millisecond, MaxDelay: time.Millisecond, RetryAfterCap: time.Second}
}

func TestTitleSynthesizer_ClampsToMaxChars(t *testing.T) {
	caller := llmcaller.NewCaller(&fixedClient{text: "Quarterly Budget Review Spreadsheet"}, testRetry())
	ts := NewTitleSynthesizer(caller, "gpt-4o")

	title, err := ts.Synthesize(context.Background(), "help me with my budget")
	require.NoError(t, err)
	assert.LessOrEqual(t, len(title), SynthesizedTitleMaxChars)
}

func TestTitleSynthesizer_TrimsQuotesAndWhitespace(t *testing.T) {
	caller := llmcaller.NewCaller(&fixedClient{text: `  "Budget"  `}, testRetry())
	ts := NewTitleSynthesizer(caller, "gpt-4o")

	title, err := ts.Synthesize(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "Budget", title)
}

func TestTitleSynthesizer_NilCallerIsNoOp(t *testing.T) {
	ts := NewTitleSynthesizer(nil, "gpt-4o")
	title, err := ts.Synthesize(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, "", title)
}
