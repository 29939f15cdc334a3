package manifest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanner_Refresh_ReusesSheetsWhenUnchanged(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "sales.xlsx")

	s := NewScanner()
	prev, err := s.Build(root)
	require.NoError(t, err)
	require.Len(t, prev.Files, 1)
	prev.Files[0].Sheets = []SheetSummary{{Name: "sales", Rows: 120, Cols: 6, Headers: []string{"date", "amount"}}}

	fresh, err := s.Refresh(prev, root)
	require.NoError(t, err)
	require.Len(t, fresh.Files, 1)
	assert.Equal(t, prev.Files[0].Sheets, fresh.Files[0].Sheets)
}

func TestScanner_Refresh_ResetsSheetsWhenFileChanges(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "sales.xlsx")

	s := NewScanner()
	prev, err := s.Build(root)
	require.NoError(t, err)
	prev.Files[0].Sheets = []SheetSummary{{Name: "sales", Rows: 120, Cols: 6}}

	// Force a detectable mtime/size change.
	full := filepath.Join(root, "sales.xlsx")
	require.NoError(t, os.WriteFile(full, []byte("much longer replacement content"), 0o644))
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(full, future, future))

	fresh, err := s.Refresh(prev, root)
	require.NoError(t, err)
	require.Len(t, fresh.Files, 1)
	assert.Equal(t, []SheetSummary{{Name: "sales"}}, fresh.Files[0].Sheets)
}

func TestScanner_Refresh_WithNilPreviousBuildsFresh(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "report.csv")

	s := NewScanner()
	fresh, err := s.Refresh(nil, root)
	require.NoError(t, err)
	assert.Equal(t, []string{"report.csv"}, filePaths(fresh))
}

func TestScanner_Refresh_DropsStaleFilesThatNoLongerExist(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "keep.csv")
	stalePath := filepath.Join(root, "removed.csv")
	require.NoError(t, os.WriteFile(stalePath, []byte("gone soon"), 0o644))

	s := NewScanner()
	prev, err := s.Build(root)
	require.NoError(t, err)
	require.Len(t, prev.Files, 2)

	require.NoError(t, os.Remove(stalePath))

	fresh, err := s.Refresh(prev, root)
	require.NoError(t, err)
	assert.Equal(t, []string{"keep.csv"}, filePaths(fresh))
}
