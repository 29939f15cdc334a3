package sheettools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheetrtd/sheetrt/pkg/window"
)

func TestFocusWindowTool_NoWindowsOpen(t *testing.T) {
	tool := NewFocusWindowTool()
	tc := Context{Ctx: context.Background(), Windows: nil}

	out, err := tool.Call(tc, map[string]any{"window_id": "w1", "action": "restore"})
	require.NoError(t, err)
	assert.Contains(t, out["result"], "no windows are open")
}

func TestFocusWindowTool_UnknownWindowReturnsAvailableHint(t *testing.T) {
	mgr := window.NewManager(window.DefaultPerceptionBudget(), "gpt-4o", nil, nil)
	_, err := mgr.OpenSheet("/tmp/a.xlsx", "Sheet1")
	require.NoError(t, err)

	tool := NewFocusWindowTool()
	tc := Context{Ctx: context.Background(), Windows: mgr}

	out, callErr := tool.Call(tc, map[string]any{"window_id": "does-not-exist", "action": "restore"})
	require.NoError(t, callErr)
	assert.Contains(t, out["result"], "available_windows")
}

func TestFocusWindowTool_ClearFilterSucceedsOnOpenWindow(t *testing.T) {
	mgr := window.NewManager(window.DefaultPerceptionBudget(), "gpt-4o", nil, nil)
	w, err := mgr.OpenSheet("/tmp/a.xlsx", "Sheet1")
	require.NoError(t, err)

	tool := NewFocusWindowTool()
	tc := Context{Ctx: context.Background(), Windows: mgr}

	out, callErr := tool.Call(tc, map[string]any{"window_id": w.ID, "action": "clear_filter"})
	require.NoError(t, callErr)
	assert.Contains(t, out["result"], "result")
}

func TestFocusWindowTool_InvalidArgsDoNotPanic(t *testing.T) {
	mgr := window.NewManager(window.DefaultPerceptionBudget(), "gpt-4o", nil, nil)
	tool := NewFocusWindowTool()
	tc := Context{Ctx: context.Background(), Windows: mgr}

	out, err := tool.Call(tc, map[string]any{"window_id": 42, "action": []string{"bad"}})
	require.NoError(t, err)
	assert.Contains(t, out["result"], "invalid arguments")
}
