package window

import "fmt"

// PrimaryKeyColumn is the column mergeRows matches rows on when both
// merged row sets carry it; when either side lacks it, the rows are
// concatenated instead.
const PrimaryKeyColumn = "_row_id"

// applyReadIngest folds a freshly read range into a sheet window's
// cached ranges: rectangles that overlap or touch any existing range are
// merged transitively into one block (rows reconciled by primary key
// where possible, else concatenated); disjoint rectangles become new
// blocks. The result is then trimmed to MaxCachedRows, evicting the
// oldest non-current block first.
func applyReadIngest(w *Window, d ReadDelta, iteration int) {
	s := w.Sheet
	newRect := parseRange(d.RangeRef)

	ref, rows := d.RangeRef, d.Rows
	for i := 0; i < len(s.CachedRanges); i++ {
		existing := parseRange(s.CachedRanges[i].RangeRef)
		if !overlapsOrAdjacent(existing, newRect) {
			continue
		}
		// Transitive closure: keep merging while the growing union keeps
		// touching further existing blocks.
		newRect = union(existing, newRect)
		ref, rows = formatRange(newRect), mergeRows(s.CachedRanges[i].Rows, rows)
		s.CachedRanges = append(s.CachedRanges[:i], s.CachedRanges[i+1:]...)
		i = -1
	}
	s.CachedRanges = append(s.CachedRanges, CachedRange{
		RangeRef:          ref,
		Rows:              rows,
		IsCurrentViewport: true,
		AddedAtIteration:  iteration,
	})
	for i := range s.CachedRanges {
		s.CachedRanges[i].IsCurrentViewport = s.CachedRanges[i].RangeRef == s.CachedRanges[len(s.CachedRanges)-1].RangeRef
	}
	if len(d.Columns) > 0 {
		s.Columns = d.Columns
	}
	s.Viewport.RangeRef = d.RangeRef
	s.Viewport.VisibleRows = len(d.Rows)

	trimCachedRows(s, DefaultPerceptionBudget().MaxCachedRows)
	w.AppendOp(OpEntry{Iteration: iteration, Tool: "read_excel", Summary: fmt.Sprintf("read %s (%d rows)", d.RangeRef, len(d.Rows))})
}

// mergeRows reconciles two row sets belonging to the same merged block.
// It prefers matching on PrimaryKeyColumn when both sides carry it;
// otherwise it falls back to straight concatenation (duplicates are an
// acceptable cost of an ungrounded merge — correctness here favors never
// silently dropping rows).
func mergeRows(existing, fresh []map[string]any) []map[string]any {
	if len(existing) == 0 {
		return fresh
	}
	if len(fresh) == 0 {
		return existing
	}
	if !rowsHaveKey(existing, PrimaryKeyColumn) || !rowsHaveKey(fresh, PrimaryKeyColumn) {
		return append(append([]map[string]any{}, existing...), fresh...)
	}

	byKey := make(map[any]int, len(existing))
	out := append([]map[string]any{}, existing...)
	for i, row := range out {
		byKey[row[PrimaryKeyColumn]] = i
	}
	for _, row := range fresh {
		if i, ok := byKey[row[PrimaryKeyColumn]]; ok {
			out[i] = row
			continue
		}
		byKey[row[PrimaryKeyColumn]] = len(out)
		out = append(out, row)
	}
	return out
}

func rowsHaveKey(rows []map[string]any, key string) bool {
	if len(rows) == 0 {
		return false
	}
	_, ok := rows[0][key]
	return ok
}

// trimCachedRows evicts the oldest non-current-viewport block first,
// repeatedly, until the total cached row count is within max, or only
// the current viewport block remains.
func trimCachedRows(s *SheetData, max int) {
	total := func() int {
		n := 0
		for _, r := range s.CachedRanges {
			n += len(r.Rows)
		}
		return n
	}
	for total() > max {
		oldestIdx := -1
		oldestIter := int(^uint(0) >> 1)
		for i, r := range s.CachedRanges {
			if r.IsCurrentViewport {
				continue
			}
			if r.AddedAtIteration < oldestIter {
				oldestIter = r.AddedAtIteration
				oldestIdx = i
			}
		}
		if oldestIdx == -1 {
			break
		}
		s.CachedRanges = append(s.CachedRanges[:oldestIdx], s.CachedRanges[oldestIdx+1:]...)
	}
}

// applyWriteIngest patches cached rows in place using the preview-after
// matrix (keyed by absolute row/col), when possible. When WipeCache is
// set (the phase-2 variant used for writes whose blast radius cannot be
// safely localized, e.g. a paste that may have shifted rows) the cache
// is cleared unconditionally instead of patched, and a stale hint is
// recorded so the next read is known to be authoritative again.
func applyWriteIngest(w *Window, d WriteDelta, iteration int) {
	s := w.Sheet
	if d.WipeCache {
		s.CachedRanges = nil
		s.StaleHint = fmt.Sprintf("cache invalidated by write to %s at iteration %d", d.RangeRef, iteration)
		w.AppendChange(ChangeRecord{Iteration: iteration, Kind: "write", Summary: "wiped cache: " + d.RangeRef})
		return
	}
	patched := 0
	for i := range s.CachedRanges {
		rangeRect := parseRange(s.CachedRanges[i].RangeRef)
		for coord, val := range d.PreviewAfter {
			row, col := coord[0], coord[1]
			if row < rangeRect.r1 || row > rangeRect.r2 || col < rangeRect.c1 || col > rangeRect.c2 {
				continue
			}
			localIdx := row - rangeRect.r1
			if localIdx < 0 || localIdx >= len(s.CachedRanges[i].Rows) {
				continue
			}
			colName := colLetters(col)
			s.CachedRanges[i].Rows[localIdx][colName] = val
			patched++
		}
	}
	if patched == 0 {
		s.StaleHint = fmt.Sprintf("write to %s not covered by any cached range", d.RangeRef)
	}
	w.AppendChange(ChangeRecord{Iteration: iteration, Kind: "write", Summary: fmt.Sprintf("patched %d cells in %s", patched, d.RangeRef)})
}

// applyFilterIngest snapshots the current data buffer into
// UnfilteredBuffer (only on the first filter application — subsequent
// filters refine from the same original snapshot, not from a
// previously filtered view) and replaces the visible buffer and cached
// ranges with the filtered rows, collapsing to a single current-viewport
// cached block.
func applyFilterIngest(w *Window, d FilterDelta, iteration int) {
	s := w.Sheet
	if !s.Filter.Active {
		s.UnfilteredBuffer = append([]map[string]any{}, s.DataBuffer...)
	}
	s.DataBuffer = d.Rows
	s.Filter = FilterState{Description: d.Description, Active: true}
	s.CachedRanges = []CachedRange{{
		RangeRef:          s.Viewport.RangeRef,
		Rows:              d.Rows,
		IsCurrentViewport: true,
		AddedAtIteration:  iteration,
	}}
	w.AppendChange(ChangeRecord{Iteration: iteration, Kind: "filter", Summary: d.Description})
}

// ClearFilter restores DataBuffer from UnfilteredBuffer and deactivates
// the filter, used by the focus service's clear_filter action.
func ClearFilter(w *Window) {
	s := w.Sheet
	if !s.Filter.Active {
		return
	}
	s.DataBuffer = s.UnfilteredBuffer
	s.UnfilteredBuffer = nil
	s.Filter = FilterState{}
}
