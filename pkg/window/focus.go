package window

import (
	"context"
	"fmt"

	"github.com/sheetrtd/sheetrt/pkg/errs"
)

// RefillFunc re-reads rowRange from the underlying spreadsheet engine on
// a cache miss during FocusAction(restore/expand). Supplied by the
// caller (the tools layer), since pkg/window has no spreadsheet I/O of
// its own.
type RefillFunc func(ctx context.Context, filePath, sheetName, rangeRef string) ([]map[string]any, error)

// FocusAction names one of the four focus-service verbs.
type FocusAction string

const (
	ActionRestore     FocusAction = "restore"
	ActionClearFilter FocusAction = "clear_filter"
	ActionScroll      FocusAction = "scroll"
	ActionExpand      FocusAction = "expand"
)

// FocusService implements the four window-focus verbs the focus_window
// tool dispatches to.
type FocusService struct {
	refill RefillFunc
}

func NewFocusService(refill RefillFunc) *FocusService {
	return &FocusService{refill: refill}
}

// Apply executes action against w. rangeRef is required for
// scroll/expand (the target viewport) and optional for restore (falls
// back to the last-known viewport range).
func (f *FocusService) Apply(ctx context.Context, w *Window, action FocusAction, rangeRef string, iteration int) (string, error) {
	if w.Sheet == nil {
		return "", errs.New(errs.KindToolFailure, "window.focus", "focus actions require a sheet window", nil)
	}

	switch action {
	case ActionClearFilter:
		ClearFilter(w)
		w.FocusState = Focus{IsActive: true, LastAction: string(action)}
		return "filter cleared", nil

	case ActionRestore:
		target := rangeRef
		if target == "" {
			target = w.Sheet.Viewport.RangeRef
		}
		if rows, ok := findCachedRows(w, target); ok {
			w.Sheet.Viewport.RangeRef = target
			w.Sheet.Viewport.VisibleRows = len(rows)
			w.FocusState = Focus{IsActive: true, LastAction: string(action)}
			return fmt.Sprintf("restored %s from cache (%d rows)", target, len(rows)), nil
		}
		return f.refillAndCache(ctx, w, target, iteration, action)

	case ActionScroll, ActionExpand:
		if rangeRef == "" {
			return "", errs.New(errs.KindToolFailure, "window.focus", "scroll/expand requires a range", nil)
		}
		if rows, ok := findCachedRows(w, rangeRef); ok {
			w.Sheet.Viewport.RangeRef = rangeRef
			w.Sheet.Viewport.VisibleRows = len(rows)
			w.FocusState = Focus{IsActive: true, LastAction: string(action)}
			return fmt.Sprintf("%s to %s (cached)", action, rangeRef), nil
		}
		return f.refillAndCache(ctx, w, rangeRef, iteration, action)

	default:
		return "", errs.New(errs.KindToolFailure, "window.focus", "unknown focus action", nil)
	}
}

// refillAndCache handles the cache-miss path common to restore/expand:
// calls the caller-supplied RefillFunc, then folds the result back in
// through the normal read-ingest path so subsequent lookups hit cache.
func (f *FocusService) refillAndCache(ctx context.Context, w *Window, rangeRef string, iteration int, action FocusAction) (string, error) {
	if f.refill == nil {
		return "", errs.New(errs.KindToolFailure, "window.focus", "range not cached and no refill source configured", nil)
	}
	rows, err := f.refill(ctx, w.Sheet.FilePath, w.Sheet.SheetName, rangeRef)
	if err != nil {
		return "", errs.New(errs.KindIngestFailure, "window.focus", "refill failed", err)
	}
	applyReadIngest(w, ReadDelta{RangeRef: rangeRef, Rows: rows}, iteration)
	w.FocusState = Focus{IsActive: true, LastAction: string(action)}
	return fmt.Sprintf("%s to %s (refilled %d rows)", action, rangeRef, len(rows)), nil
}

func findCachedRows(w *Window, rangeRef string) ([]map[string]any, bool) {
	target := parseRange(rangeRef)
	for _, cr := range w.Sheet.CachedRanges {
		existing := parseRange(cr.RangeRef)
		if existing.r1 <= target.r1 && existing.r2 >= target.r2 && existing.c1 <= target.c1 && existing.c2 >= target.c2 {
			return cr.Rows, true
		}
	}
	return nil, false
}
