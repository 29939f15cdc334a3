package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSheetWindow() *Window {
	return &Window{ID: "w1", Kind: KindSheet, Sheet: &SheetData{FilePath: "/a.xlsx", SheetName: "Sheet1"}}
}

func TestApplyReadIngest_MergesAdjacentRanges(t *testing.T) {
	w := newTestSheetWindow()
	applyReadIngest(w, ReadDelta{RangeRef: "A1:B2", Rows: []map[string]any{{"A": 1}, {"A": 2}}}, 1)
	applyReadIngest(w, ReadDelta{RangeRef: "A3:B4", Rows: []map[string]any{{"A": 3}, {"A": 4}}}, 2)

	require.Len(t, w.Sheet.CachedRanges, 1)
	assert.Equal(t, "A1:B4", w.Sheet.CachedRanges[0].RangeRef)
	assert.Len(t, w.Sheet.CachedRanges[0].Rows, 4)
}

func TestApplyReadIngest_DisjointRangesStaySeparate(t *testing.T) {
	w := newTestSheetWindow()
	applyReadIngest(w, ReadDelta{RangeRef: "A1:B2", Rows: []map[string]any{{"A": 1}}}, 1)
	applyReadIngest(w, ReadDelta{RangeRef: "Z1:Z2", Rows: []map[string]any{{"A": 2}}}, 2)

	assert.Len(t, w.Sheet.CachedRanges, 2)
}

func TestApplyReadIngest_TrimsToMaxCachedRowsEvictingOldestNonCurrent(t *testing.T) {
	w := newTestSheetWindow()
	rowsOf := func(n int) []map[string]any {
		rows := make([]map[string]any, n)
		for i := range rows {
			rows[i] = map[string]any{"A": i}
		}
		return rows
	}
	applyReadIngest(w, ReadDelta{RangeRef: "A1:A5", Rows: rowsOf(5)}, 1)
	applyReadIngest(w, ReadDelta{RangeRef: "D1:D5", Rows: rowsOf(5)}, 2)

	trimCachedRows(w.Sheet, 6)

	total := 0
	for _, cr := range w.Sheet.CachedRanges {
		total += len(cr.Rows)
	}
	assert.LessOrEqual(t, total, 6)
	// the most recent block (current viewport) must survive
	assert.True(t, w.Sheet.CachedRanges[len(w.Sheet.CachedRanges)-1].IsCurrentViewport)
}

func TestApplyWriteIngest_PatchesCachedCellsByAbsoluteCoordinate(t *testing.T) {
	w := newTestSheetWindow()
	applyReadIngest(w, ReadDelta{RangeRef: "A1:A2", Rows: []map[string]any{{"A": 1}, {"A": 2}}}, 1)

	applyWriteIngest(w, WriteDelta{
		RangeRef:     "A1",
		PreviewAfter: map[[2]int]any{{1, 1}: 99},
	}, 2)

	assert.Equal(t, 99, w.Sheet.CachedRanges[0].Rows[0]["A"])
}

func TestApplyWriteIngest_WipeCacheClearsUnconditionally(t *testing.T) {
	w := newTestSheetWindow()
	applyReadIngest(w, ReadDelta{RangeRef: "A1:A2", Rows: []map[string]any{{"A": 1}, {"A": 2}}}, 1)

	applyWriteIngest(w, WriteDelta{RangeRef: "A1:A2", WipeCache: true}, 2)

	assert.Empty(t, w.Sheet.CachedRanges)
	assert.NotEmpty(t, w.Sheet.StaleHint)
}

func TestApplyFilterIngest_SnapshotsUnfilteredOnceThenReplacesBuffer(t *testing.T) {
	w := newTestSheetWindow()
	w.Sheet.DataBuffer = []map[string]any{{"A": 1}, {"A": 2}, {"A": 3}}

	applyFilterIngest(w, FilterDelta{Description: "A>1", Rows: []map[string]any{{"A": 2}, {"A": 3}}}, 1)
	assert.Equal(t, []map[string]any{{"A": 1}, {"A": 2}, {"A": 3}}, w.Sheet.UnfilteredBuffer)
	assert.Len(t, w.Sheet.DataBuffer, 2)
	require.Len(t, w.Sheet.CachedRanges, 1)
	assert.True(t, w.Sheet.CachedRanges[0].IsCurrentViewport)

	// second filter refines from the same original snapshot
	applyFilterIngest(w, FilterDelta{Description: "A>2", Rows: []map[string]any{{"A": 3}}}, 2)
	assert.Equal(t, []map[string]any{{"A": 1}, {"A": 2}, {"A": 3}}, w.Sheet.UnfilteredBuffer)
	assert.Len(t, w.Sheet.DataBuffer, 1)
}

func TestClearFilter_RestoresOriginalBuffer(t *testing.T) {
	w := newTestSheetWindow()
	w.Sheet.DataBuffer = []map[string]any{{"A": 1}, {"A": 2}}
	applyFilterIngest(w, FilterDelta{Description: "f", Rows: []map[string]any{{"A": 1}}}, 1)

	ClearFilter(w)

	assert.Len(t, w.Sheet.DataBuffer, 2)
	assert.False(t, w.Sheet.Filter.Active)
	assert.Nil(t, w.Sheet.UnfilteredBuffer)
}

func TestApplyDelta_RejectsSheetDeltaAgainstExplorerWindow(t *testing.T) {
	w := &Window{ID: "w1", Kind: KindExplorer, Explorer: &ExplorerData{Directory: "/tmp"}}
	err := ApplyDelta(w, Delta{Kind: DeltaRead, Read: &ReadDelta{RangeRef: "A1"}}, 1)
	require.Error(t, err)
	require.NotEmpty(t, w.Audit.OperationHistory)
	assert.Contains(t, w.Audit.OperationHistory[0].Summary, "rejected")
}
