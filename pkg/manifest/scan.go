package manifest

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/sheetrtd/sheetrt/pkg/errs"
)

// DefaultExclusions are the noise directories and file patterns a
// workspace scan skips by default (".git, node_modules, etc.") plus the
// hidden- and temporary-file rule.
var DefaultExclusions = []string{
	"**/.git/**",
	"**/node_modules/**",
	"**/.venv/**",
	"**/__pycache__/**",
	"**/.DS_Store",
	"**/*.tmp",
	"**/~$*",
}

// Scanner walks a workspace root, excluding noise directories and
// hidden files.
type Scanner struct {
	Exclusions []string
}

// NewScanner builds a Scanner with DefaultExclusions plus any extra
// caller-supplied patterns.
func NewScanner(extra ...string) *Scanner {
	patterns := make([]string, 0, len(DefaultExclusions)+len(extra))
	patterns = append(patterns, DefaultExclusions...)
	patterns = append(patterns, extra...)
	return &Scanner{Exclusions: patterns}
}

// Build scans root into a fresh Manifest.
func (s *Scanner) Build(root string) (*Manifest, error) {
	m := &Manifest{WorkspaceRoot: root, ScanTime: time.Now()}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		if rel == "." {
			return nil
		}
		if d.IsDir() && isHidden(d.Name()) {
			return fs.SkipDir
		}
		if s.excluded(rel, d.IsDir()) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if isHidden(d.Name()) {
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			return infoErr
		}
		entry := FileEntry{
			Path:    filepath.ToSlash(rel),
			Name:    d.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		}
		if ext := strings.ToLower(filepath.Ext(d.Name())); isSpreadsheet(ext) {
			entry.Sheets = []SheetSummary{{Name: strings.TrimSuffix(d.Name(), filepath.Ext(d.Name()))}}
		}
		m.Files = append(m.Files, entry)
		return nil
	})
	if err != nil {
		return nil, errs.New(errs.KindIngestFailure, "manifest", "scan "+root, err)
	}

	sort.Slice(m.Files, func(i, j int) bool { return m.Files[i].Path < m.Files[j].Path })
	return m, nil
}

func (s *Scanner) excluded(relPath string, isDir bool) bool {
	candidate := filepath.ToSlash(relPath)
	if isDir {
		candidate += "/"
	}
	for _, pattern := range s.Exclusions {
		if ok, _ := doublestar.Match(pattern, candidate); ok {
			return true
		}
		// Directory exclusions are commonly authored without a
		// trailing slash (e.g. "**/.git/**" still needs to match the
		// bare directory itself so WalkDir can SkipDir it early).
		if isDir {
			if ok, _ := doublestar.Match(strings.TrimSuffix(pattern, "/**"), strings.TrimSuffix(candidate, "/")); ok {
				return true
			}
		}
	}
	return false
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}
