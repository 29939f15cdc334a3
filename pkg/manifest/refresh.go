package manifest

// Refresh rebuilds root and carries over Sheets from prev for any file
// whose size and mtime are unchanged, so a future sheet-content parser
// only ever re-parses what actually changed. Idempotent: calling Refresh
// twice with no filesystem mutation between calls yields the same
// Files in the same order (Scanner.Build sorts by path).
func (s *Scanner) Refresh(prev *Manifest, root string) (*Manifest, error) {
	fresh, err := s.Build(root)
	if err != nil {
		return nil, err
	}
	if prev == nil {
		return fresh, nil
	}

	prevByPath := make(map[string]FileEntry, len(prev.Files))
	for _, f := range prev.Files {
		prevByPath[f.Path] = f
	}
	for i, f := range fresh.Files {
		old, ok := prevByPath[f.Path]
		if ok && old.Size == f.Size && old.ModTime.Equal(f.ModTime) && len(old.Sheets) > 0 {
			fresh.Files[i].Sheets = old.Sheets
		}
	}
	return fresh, nil
}
