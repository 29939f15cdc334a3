package embedclient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	dim       int
	batches   [][]string
	err       error
	sleepFor  time.Duration
}

func (f *fakeProvider) Dimensions() int { return f.dim }

func (f *fakeProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.batches = append(f.batches, append([]string{}, texts...))
	if f.sleepFor > 0 {
		select {
		case <-time.After(f.sleepFor):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t))}
	}
	return out, nil
}

func TestEmbed_EmptyInputReturnsEmptyMatrix(t *testing.T) {
	c := New(&fakeProvider{dim: 3}, time.Second)
	rows, err := c.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestEmbed_EmptyStringsMapToZeroRowWithoutProviderCall(t *testing.T) {
	provider := &fakeProvider{dim: 4}
	c := New(provider, time.Second)

	rows, err := c.Embed(context.Background(), []string{"", "  ", "hello"})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []float32{0, 0, 0, 0}, rows[0])
	assert.Equal(t, []float32{0, 0, 0, 0}, rows[1])
	assert.NotEqual(t, []float32{0, 0, 0, 0}, rows[2])

	require.Len(t, provider.batches, 1)
	assert.Equal(t, []string{"hello"}, provider.batches[0])
}

func TestEmbed_PreservesOriginalIndexOrder(t *testing.T) {
	c := New(&fakeProvider{dim: 1}, time.Second)
	rows, err := c.Embed(context.Background(), []string{"a", "", "bb", "ccc"})
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, float32(1), rows[0][0])
	assert.Equal(t, float32(0), rows[1][0])
	assert.Equal(t, float32(2), rows[2][0])
	assert.Equal(t, float32(3), rows[3][0])
}

func TestEmbed_SplitsIntoBatchesOfAtMost256(t *testing.T) {
	provider := &fakeProvider{dim: 1}
	c := New(provider, time.Second)

	texts := make([]string, 300)
	for i := range texts {
		texts[i] = "x"
	}
	_, err := c.Embed(context.Background(), texts)
	require.NoError(t, err)

	require.Len(t, provider.batches, 2)
	assert.Len(t, provider.batches[0], 256)
	assert.Len(t, provider.batches[1], 44)
}

func TestEmbed_ProviderErrorPropagatesAsTypedFailure(t *testing.T) {
	provider := &fakeProvider{dim: 1, err: errors.New("boom")}
	c := New(provider, time.Second)
	_, err := c.Embed(context.Background(), []string{"x"})
	assert.Error(t, err)
}

func TestEmbed_TimeoutPropagates(t *testing.T) {
	provider := &fakeProvider{dim: 1, sleepFor: 50 * time.Millisecond}
	c := New(provider, 5*time.Millisecond)
	_, err := c.Embed(context.Background(), []string{"x"})
	assert.Error(t, err)
}

func TestEmbedSingle(t *testing.T) {
	c := New(&fakeProvider{dim: 1}, time.Second)
	row, err := c.EmbedSingle(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, float32(5), row[0])
}
