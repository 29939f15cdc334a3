package window

import (
	"path/filepath"
	"strings"
)

// Identity is the stable, content-derived key a window is registered
// under. Two opens of the same file/sheet (or directory) must resolve
// to the same Identity regardless of path spelling, so the locator can
// reuse the existing window_id instead of registering a duplicate.
type Identity struct {
	Kind Kind
	Key  string
}

// NewSheetIdentity builds the Identity for a (file, sheet) pair: the
// file path is trimmed, cleaned with filepath.Clean (which does not make
// it absolute), slash-normalised and lower-cased, and the sheet name is
// trimmed and lower-cased, matching spreadsheet engines' case-insensitive
// sheet-name comparison.
func NewSheetIdentity(filePath, sheetName string) Identity {
	norm := normalizePath(filePath)
	return Identity{Kind: KindSheet, Key: norm + "::" + strings.ToLower(strings.TrimSpace(sheetName))}
}

// NewExplorerIdentity builds the Identity for a browsed directory.
func NewExplorerIdentity(directory string) Identity {
	return Identity{Kind: KindExplorer, Key: normalizePath(directory)}
}

func normalizePath(p string) string {
	p = strings.TrimSpace(p)
	p = filepath.ToSlash(filepath.Clean(p))
	return strings.ToLower(p)
}
