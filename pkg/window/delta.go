package window

import "github.com/sheetrtd/sheetrt/pkg/errs"

// DeltaKind discriminates the tagged-union Delta payloads a window can
// be asked to apply.
type DeltaKind string

const (
	DeltaRead      DeltaKind = "read"
	DeltaWrite     DeltaKind = "write"
	DeltaFilter    DeltaKind = "filter"
	DeltaStyle     DeltaKind = "style"
	DeltaNavigate  DeltaKind = "navigate"
)

// Delta is the tagged union applied to a Window by ApplyDelta. Exactly
// the field matching Kind is meaningful; the others are ignored.
type Delta struct {
	Kind DeltaKind

	Read   *ReadDelta
	Write  *WriteDelta
	Filter *FilterDelta
	Style  *StyleDelta
	Navigate *NavigateDelta
}

// ReadDelta carries the rows/columns a read-ingest observed.
type ReadDelta struct {
	RangeRef string
	Rows     []map[string]any
	Columns  []ColumnDef
}

// WriteDelta carries the preview of cell values after a write, keyed by
// absolute (row, col).
type WriteDelta struct {
	RangeRef     string
	PreviewAfter map[[2]int]any
	// WipeCache, when true, unconditionally clears cached ranges instead
	// of patching them cell-by-cell (the "phase-2 variant").
	WipeCache bool
}

// FilterDelta carries the filtered view of a sheet's data.
type FilterDelta struct {
	Description string
	Rows        []map[string]any
}

// StyleDelta carries an updated style summary.
type StyleDelta struct {
	Summary           string
	FreezeRef         string
	ColumnWidths      map[string]float64
	RowHeights        map[int]float64
	MergedRanges      []string
	ConditionalEffect string
}

// NavigateDelta carries a viewport change (scroll/expand) with no data
// payload.
type NavigateDelta struct {
	RangeRef    string
	VisibleRows int
	VisibleCols int
}

// ApplyDelta mutates w according to d, enforcing the kind-mismatch
// reject: applying a Delta whose Kind does not correspond to w's data
// shape (e.g. a sheet-only delta against an explorer window) is an
// explicit reject appended to the window's audit trail, never a panic.
func ApplyDelta(w *Window, d Delta, iteration int) error {
	if w.Sheet == nil && d.Kind != DeltaNavigate {
		return reject(w, iteration, "delta applies only to sheet windows")
	}

	switch d.Kind {
	case DeltaRead:
		if d.Read == nil {
			return reject(w, iteration, "read delta missing payload")
		}
		applyReadIngest(w, *d.Read, iteration)
	case DeltaWrite:
		if d.Write == nil {
			return reject(w, iteration, "write delta missing payload")
		}
		applyWriteIngest(w, *d.Write, iteration)
	case DeltaFilter:
		if d.Filter == nil {
			return reject(w, iteration, "filter delta missing payload")
		}
		applyFilterIngest(w, *d.Filter, iteration)
	case DeltaStyle:
		if d.Style == nil {
			return reject(w, iteration, "style delta missing payload")
		}
		w.Sheet.Style = StyleInfo{
			Summary:           d.Style.Summary,
			FreezeRef:         d.Style.FreezeRef,
			ColumnWidths:      d.Style.ColumnWidths,
			RowHeights:        d.Style.RowHeights,
			MergedRanges:      d.Style.MergedRanges,
			ConditionalEffect: d.Style.ConditionalEffect,
		}
		w.AppendChange(ChangeRecord{Iteration: iteration, Kind: "style", Summary: d.Style.Summary})
	case DeltaNavigate:
		if d.Navigate == nil {
			return reject(w, iteration, "navigate delta missing payload")
		}
		if w.Sheet != nil {
			w.Sheet.Viewport.RangeRef = d.Navigate.RangeRef
			w.Sheet.Viewport.VisibleRows = d.Navigate.VisibleRows
			w.Sheet.Viewport.VisibleCols = d.Navigate.VisibleCols
		}
	default:
		return reject(w, iteration, "unknown delta kind")
	}
	return nil
}

func reject(w *Window, iteration int, reason string) error {
	w.AppendOp(OpEntry{Iteration: iteration, Tool: "apply_delta", Summary: "rejected: " + reason})
	return errs.New(errs.KindPerceptionReject, "window.delta", reason, nil)
}
