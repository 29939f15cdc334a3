package window

import (
	"fmt"
	"regexp"
	"strings"
)

// Confirmation is the parsed form of a rendered window line, used to
// round-trip renderer output back into structured fields for tests and
// for the engine's own bookkeeping.
type Confirmation struct {
	WindowID string
	Kind     Kind
	Ref      string // file/sheet or directory
	RangeRef string
	Intent   IntentTag
}

var (
	anchoredRe = regexp.MustCompile(`^\[(\w[\w-]*)\]\s+(sheet|explorer)\s+(.+?)\s+@\s+(\S+)$`)
	unifiedRe  = regexp.MustCompile(`^\[(\w[\w-]*)\]\s+(sheet|explorer)\s+(.+?)\s+@\s+(\S+)\s+\((\w+)\)$`)
)

// RenderEnriched produces the full multi-line perception block: window
// identity, viewport, cached-range summary, and intent, one field per
// line. This is the most token-expensive and most detailed mode;
// RenderAll uses it for DetailFull windows when the adaptive mode is
// ModeEnriched.
func RenderEnriched(w *Window) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Window [%s] (%s)\n", w.ID, w.Kind)
	if w.Sheet != nil {
		fmt.Fprintf(&b, "  File: %s\n  Sheet: %s\n", w.Sheet.FilePath, w.Sheet.SheetName)
		fmt.Fprintf(&b, "  Viewport: %s (%d rows x %d cols of %d x %d)\n",
			w.Sheet.Viewport.RangeRef, w.Sheet.Viewport.VisibleRows, w.Sheet.Viewport.VisibleCols,
			w.Sheet.Viewport.TotalRows, w.Sheet.Viewport.TotalCols)
		fmt.Fprintf(&b, "  Cached ranges: %d\n", len(w.Sheet.CachedRanges))
		if w.Sheet.Filter.Active {
			fmt.Fprintf(&b, "  Filter: %s\n", w.Sheet.Filter.Description)
		}
		if w.Sheet.StaleHint != "" {
			fmt.Fprintf(&b, "  Stale: %s\n", w.Sheet.StaleHint)
		}
	} else if w.Explorer != nil {
		fmt.Fprintf(&b, "  Directory: %s (%d entries)\n", w.Explorer.Directory, len(w.Explorer.Entries))
	}
	fmt.Fprintf(&b, "  Intent: %s (%.2f, %s)\n", w.IntentState.Tag, w.IntentState.Confidence, w.IntentState.Source)
	return strings.TrimRight(b.String(), "\n")
}

// RenderAnchored produces the single-line confirmation format:
// "[window_id] kind ref @ range_ref", parseable back by ParseAnchored.
func RenderAnchored(w *Window) string {
	ref, rangeRef := refAndRange(w)
	return fmt.Sprintf("[%s] %s %s @ %s", w.ID, w.Kind, ref, rangeRef)
}

// RenderUnified produces the single-line-with-inline-intent format:
// "[window_id] kind ref @ range_ref (intent)".
func RenderUnified(w *Window) string {
	ref, rangeRef := refAndRange(w)
	return fmt.Sprintf("[%s] %s %s @ %s (%s)", w.ID, w.Kind, ref, rangeRef, w.IntentState.Tag)
}

func refAndRange(w *Window) (ref, rangeRef string) {
	if w.Sheet != nil {
		ref = w.Sheet.FilePath + "/" + w.Sheet.SheetName
		rangeRef = w.Sheet.Viewport.RangeRef
		if rangeRef == "" {
			rangeRef = "-"
		}
		return
	}
	if w.Explorer != nil {
		return w.Explorer.Directory, "-"
	}
	return "-", "-"
}

// ParseAnchored parses a RenderAnchored-format line back into a
// Confirmation. Returns false if line does not match the expected shape.
func ParseAnchored(line string) (Confirmation, bool) {
	m := anchoredRe.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return Confirmation{}, false
	}
	return Confirmation{WindowID: m[1], Kind: Kind(m[2]), Ref: m[3], RangeRef: m[4]}, true
}

// ParseUnified parses a RenderUnified-format line back into a
// Confirmation, including the inline intent tag.
func ParseUnified(line string) (Confirmation, bool) {
	m := unifiedRe.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return Confirmation{}, false
	}
	return Confirmation{WindowID: m[1], Kind: Kind(m[2]), Ref: m[3], RangeRef: m[4], Intent: IntentTag(m[5])}, true
}

// Render dispatches to the renderer matching mode.
func Render(w *Window, mode Mode) string {
	switch mode {
	case ModeEnriched:
		return RenderEnriched(w)
	case ModeAnchored:
		return RenderAnchored(w)
	default:
		return RenderUnified(w)
	}
}
