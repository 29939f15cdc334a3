package manifest

import (
	"encoding/json"

	"github.com/sheetrtd/sheetrt/pkg/store"
)

// ToRows converts m into the row shape store.WorkspaceFileStore
// persists — one row per file, sheets JSON-encoded.
func ToRows(m *Manifest) ([]*store.WorkspaceFile, error) {
	rows := make([]*store.WorkspaceFile, 0, len(m.Files))
	for _, f := range m.Files {
		sheets := f.Sheets
		if sheets == nil {
			sheets = []SheetSummary{}
		}
		sheetsJSON, err := json.Marshal(sheets)
		if err != nil {
			return nil, err
		}
		rows = append(rows, &store.WorkspaceFile{
			WorkspaceRoot: m.WorkspaceRoot,
			Path:          f.Path,
			Name:          f.Name,
			Size:          f.Size,
			ModTime:       f.ModTime,
			SheetsJSON:    string(sheetsJSON),
		})
	}
	return rows, nil
}

// FromRows reconstructs a Manifest from persisted rows. ScanTime is left
// zero-valued — it is not part of the persisted row shape — callers
// that need it should track it separately (e.g. the row's own
// freshest ModTime, or a side channel).
func FromRows(workspaceRoot string, rows []*store.WorkspaceFile) (*Manifest, error) {
	m := &Manifest{WorkspaceRoot: workspaceRoot}
	for _, r := range rows {
		var sheets []SheetSummary
		if r.SheetsJSON != "" {
			if err := json.Unmarshal([]byte(r.SheetsJSON), &sheets); err != nil {
				return nil, err
			}
		}
		m.Files = append(m.Files, FileEntry{
			Path:    r.Path,
			Name:    r.Name,
			Size:    r.Size,
			ModTime: r.ModTime,
			Sheets:  sheets,
		})
	}
	return m, nil
}
