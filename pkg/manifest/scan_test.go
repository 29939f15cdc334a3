package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel string) {
	t.Helper()
	full := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte("data"), 0o644))
}

func TestScanner_Build_SkipsNoiseDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "budget.xlsx")
	writeFile(t, root, ".git/HEAD")
	writeFile(t, root, "node_modules/pkg/index.js")
	writeFile(t, root, ".venv/lib/site.py")
	writeFile(t, root, "__pycache__/mod.pyc")

	s := NewScanner()
	m, err := s.Build(root)
	require.NoError(t, err)

	paths := filePaths(m)
	assert.Equal(t, []string{"budget.xlsx"}, paths)
}

func TestScanner_Build_SkipsHiddenFilesAndDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "report.csv")
	writeFile(t, root, ".DS_Store")
	writeFile(t, root, ".idea/workspace.xml")
	writeFile(t, root, "scratch.tmp")
	writeFile(t, root, "~$report.xlsx")

	s := NewScanner()
	m, err := s.Build(root)
	require.NoError(t, err)

	assert.Equal(t, []string{"report.csv"}, filePaths(m))
}

func TestScanner_Build_ClassifiesSpreadsheetExtensions(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "sales.xlsx")
	writeFile(t, root, "legacy.xls")
	writeFile(t, root, "export.csv")
	writeFile(t, root, "notes.txt")

	s := NewScanner()
	m, err := s.Build(root)
	require.NoError(t, err)

	byPath := make(map[string]FileEntry)
	for _, f := range m.Files {
		byPath[f.Path] = f
	}
	assert.Len(t, byPath["sales.xlsx"].Sheets, 1)
	assert.Equal(t, "sales", byPath["sales.xlsx"].Sheets[0].Name)
	assert.Len(t, byPath["legacy.xls"].Sheets, 1)
	assert.Len(t, byPath["export.csv"].Sheets, 1)
	assert.Empty(t, byPath["notes.txt"].Sheets)
}

func TestScanner_Build_OrdersFilesByPath(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "zeta.csv")
	writeFile(t, root, "alpha/nested.csv")
	writeFile(t, root, "beta.csv")

	s := NewScanner()
	m, err := s.Build(root)
	require.NoError(t, err)

	assert.Equal(t, []string{"alpha/nested.csv", "beta.csv", "zeta.csv"}, filePaths(m))
}

func TestScanner_Build_HonorsExtraExclusions(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "keep.csv")
	writeFile(t, root, "archive/old.csv")

	s := NewScanner("**/archive/**")
	m, err := s.Build(root)
	require.NoError(t, err)

	assert.Equal(t, []string{"keep.csv"}, filePaths(m))
}

func filePaths(m *Manifest) []string {
	paths := make([]string, len(m.Files))
	for i, f := range m.Files {
		paths[i] = f.Path
	}
	return paths
}
