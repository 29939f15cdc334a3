package window

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFocusService_ClearFilterRestoresBuffer(t *testing.T) {
	w := newTestSheetWindow()
	w.Sheet.DataBuffer = []map[string]any{{"A": 1}, {"A": 2}}
	applyFilterIngest(w, FilterDelta{Description: "f", Rows: []map[string]any{{"A": 1}}}, 1)

	f := NewFocusService(nil)
	_, err := f.Apply(context.Background(), w, ActionClearFilter, "", 2)
	require.NoError(t, err)
	assert.Len(t, w.Sheet.DataBuffer, 2)
}

func TestFocusService_RestoreHitsCacheWithoutRefill(t *testing.T) {
	w := newTestSheetWindow()
	applyReadIngest(w, ReadDelta{RangeRef: "A1:B2", Rows: []map[string]any{{"A": 1}, {"A": 2}}}, 1)

	f := NewFocusService(nil)
	msg, err := f.Apply(context.Background(), w, ActionRestore, "A1:B2", 2)
	require.NoError(t, err)
	assert.Contains(t, msg, "from cache")
}

func TestFocusService_RestoreFallsBackToRefillOnCacheMiss(t *testing.T) {
	w := newTestSheetWindow()
	called := false
	refill := func(ctx context.Context, file, sheet, rangeRef string) ([]map[string]any, error) {
		called = true
		return []map[string]any{{"A": 1}}, nil
	}
	f := NewFocusService(refill)
	msg, err := f.Apply(context.Background(), w, ActionRestore, "A1:B2", 1)
	require.NoError(t, err)
	assert.True(t, called)
	assert.Contains(t, msg, "refilled")
	assert.NotEmpty(t, w.Sheet.CachedRanges)
}

func TestFocusService_ScrollWithoutRangeFails(t *testing.T) {
	w := newTestSheetWindow()
	f := NewFocusService(nil)
	_, err := f.Apply(context.Background(), w, ActionScroll, "", 1)
	assert.Error(t, err)
}

func TestFocusService_RequiresSheetWindow(t *testing.T) {
	w := &Window{ID: "w1", Kind: KindExplorer, Explorer: &ExplorerData{}}
	f := NewFocusService(nil)
	_, err := f.Apply(context.Background(), w, ActionClearFilter, "", 1)
	assert.Error(t, err)
}
