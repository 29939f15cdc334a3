// Package manifest scans a workspace directory into a WorkspaceManifest:
// a point-in-time file listing that skips noise directories and
// hidden/temporary files, rebuilt on session start and incrementally
// refreshed by mtime diff thereafter. This package has no direct
// haasonsaas-nexus analogue — nexus indexes conversation memories, not a
// filesystem tree — so the scan/diff logic is new code in its idiom;
// jack-phare-goat's pkg/tools/glob.go supplies the
// bmatcuk/doublestar/v4 exclusion-pattern matching in place of a
// hand-rolled directory walk.
package manifest

import "time"

// SheetSummary is one sheet inside a spreadsheet file, part of a
// WorkspaceManifest's per-file sheet listing. Rows/Cols/Headers are left
// zero-valued until something actually opens the file — no wired
// dependency parses spreadsheet contents, so the scan only ever
// classifies by extension.
type SheetSummary struct {
	Name    string
	Rows    int
	Cols    int
	Headers []string
}

// FileEntry is one scanned file.
type FileEntry struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
	Sheets  []SheetSummary
}

// Manifest is a point-in-time scan of a workspace root.
type Manifest struct {
	WorkspaceRoot string
	ScanTime      time.Time
	Files         []FileEntry
}

// spreadsheetExtensions are the extensions flagged as spreadsheets —
// FileEntry.Sheets is populated with a placeholder entry for these so
// downstream code (and a future parser) has a stable slot to fill in,
// even though this package cannot itself read sheet contents.
var spreadsheetExtensions = map[string]bool{
	".xlsx": true,
	".xls":  true,
	".csv":  true,
}

func isSpreadsheet(ext string) bool {
	return spreadsheetExtensions[ext]
}
