// Package embedclient wraps an abstract embedding provider with
// batching, timeout, and index-preservation rules. The concrete wire
// format is out of scope — Provider is implemented by whatever HTTP
// client a deployment wires in, following haasonsaas-nexus's
// internal/memory/embeddings.Provider interface (Embed/EmbedBatch/
// Name/Dimension/MaxBatchSize) and its openai/ollama implementations'
// request/response shape.
package embedclient

import (
	"context"
	"strings"
	"time"

	"github.com/sheetrtd/sheetrt/pkg/errs"
)

// MaxBatchSize is the largest number of texts sent to Provider.EmbedBatch
// in one call.
const MaxBatchSize = 256

// DefaultTimeout is the per-request timeout applied around each batch
// call when the caller does not override it.
const DefaultTimeout = 30 * time.Second

// Provider is the abstract vectorizer a concrete embedding backend
// implements (OpenAI, Cohere, a local model server, ...).
type Provider interface {
	// EmbedBatch embeds a non-empty slice of non-empty, already-trimmed
	// texts (at most MaxBatchSize long) and returns one row per input in
	// the same order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	// Dimensions reports the width of vectors this provider returns.
	Dimensions() int
}

// Client applies a batching/timeout/index-preservation contract on top
// of a raw Provider.
type Client struct {
	provider Provider
	timeout  time.Duration
}

// New constructs a Client over provider. A zero timeout falls back to
// DefaultTimeout.
func New(provider Provider, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{provider: provider, timeout: timeout}
}

// Embed embeds texts, returning one row per input in original index
// order. An empty slice returns an empty matrix of the provider's width.
// Empty (post-trim) strings map to a zero row without calling the
// provider. A timeout or transport error from the provider propagates as
// a typed errs.KindTransientLLM failure so callers can choose to degrade.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	dim := c.provider.Dimensions()
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	trimmed := make([]string, len(texts))
	for i, t := range texts {
		trimmed[i] = strings.TrimSpace(t)
	}

	result := make([][]float32, len(texts))
	for i, t := range trimmed {
		if t == "" {
			result[i] = make([]float32, dim)
		}
	}

	// Collect indices of non-empty texts so batches can be re-keyed back
	// to their original position after the provider call.
	var nonEmptyIdx []int
	var nonEmptyTexts []string
	for i, t := range trimmed {
		if t != "" {
			nonEmptyIdx = append(nonEmptyIdx, i)
			nonEmptyTexts = append(nonEmptyTexts, t)
		}
	}

	for start := 0; start < len(nonEmptyTexts); start += MaxBatchSize {
		end := start + MaxBatchSize
		if end > len(nonEmptyTexts) {
			end = len(nonEmptyTexts)
		}
		batch := nonEmptyTexts[start:end]

		batchCtx, cancel := context.WithTimeout(ctx, c.timeout)
		vectors, err := c.provider.EmbedBatch(batchCtx, batch)
		cancel()
		if err != nil {
			if batchCtx.Err() != nil {
				return nil, errs.New(errs.KindTransientLLM, "embedclient", "embed batch timed out", err)
			}
			return nil, errs.New(errs.KindTransientLLM, "embedclient", "embed batch failed", err)
		}
		if len(vectors) != len(batch) {
			return nil, errs.New(errs.KindTransientLLM, "embedclient", "provider returned mismatched row count", nil)
		}
		for j, v := range vectors {
			result[nonEmptyIdx[start+j]] = v
		}
	}
	return result, nil
}

// EmbedSingle is sugar for Embed([]string{text}) returning the first
// (only) row.
func (c *Client) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	rows, err := c.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return make([]float32, c.provider.Dimensions()), nil
	}
	return rows[0], nil
}

// Dimensions reports the underlying provider's vector width.
func (c *Client) Dimensions() int { return c.provider.Dimensions() }
