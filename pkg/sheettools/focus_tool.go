package sheettools

import (
	"encoding/json"
	"strings"

	"github.com/sheetrtd/sheetrt/pkg/window"
)

// FocusArgs is focus_window's argument shape. Range and Rows are both
// optional: restore/clear_filter typically omit both, scroll/expand
// supply Range. Call does not read Rows; the window manager receives
// only the window id, action and Range.
type FocusArgs struct {
	WindowID string `json:"window_id" jsonschema:"required,description=Target window id"`
	Action   string `json:"action" jsonschema:"required,description=Focus action,enum=restore|clear_filter|scroll|expand"`
	Range    string `json:"range,omitempty" jsonschema:"description=Target range reference, required for scroll/expand"`
	Rows     int    `json:"rows,omitempty" jsonschema:"description=Number of rows to expand by (not read; expand targets range)"`
}

// FocusWindowTool implements focus_window: dispatches to the session's
// window.Manager and returns its result (or an error carrying the set of
// currently open window ids as a hint).
type FocusWindowTool struct{}

func NewFocusWindowTool() *FocusWindowTool { return &FocusWindowTool{} }

func (t *FocusWindowTool) Name() string { return "focus_window" }

func (t *FocusWindowTool) Description() string {
	return "Restore, clear a filter on, scroll, or expand an open spreadsheet window."
}

func (t *FocusWindowTool) Schema() map[string]any {
	schema, err := generateSchema[FocusArgs]()
	if err != nil {
		return map[string]any{"type": "object"}
	}
	return schema
}

func (t *FocusWindowTool) Call(tc Context, args map[string]any) (map[string]any, error) {
	var parsed FocusArgs
	if err := mapToStruct(args, &parsed); err != nil {
		return jsonResult(map[string]any{"error": "invalid arguments"}), nil
	}
	if tc.Windows == nil {
		return jsonResult(map[string]any{"error": "no windows are open"}), nil
	}

	action := window.FocusAction(strings.TrimSpace(parsed.Action))
	msg, err := tc.Windows.Focus(tc.Ctx, parsed.WindowID, action, parsed.Range)
	if err != nil {
		ids := make([]string, 0)
		for _, w := range tc.Windows.All() {
			ids = append(ids, w.ID)
		}
		return jsonResult(map[string]any{
			"error":             err.Error(),
			"available_windows": ids,
		}), nil
	}
	return jsonResult(map[string]any{"result": msg}), nil
}

func jsonResult(v map[string]any) map[string]any {
	data, err := json.Marshal(v)
	if err != nil {
		return map[string]any{"result": "internal error rendering response"}
	}
	return map[string]any{"result": string(data)}
}
