package manifest

import (
	"fmt"
	"strings"
)

// Summary renders m as the short block pkg/sessionmgr injects into the
// system prompt on session start.
func Summary(m *Manifest) string {
	if m == nil || len(m.Files) == 0 {
		return "Workspace is empty."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Workspace %s (%d files):\n", m.WorkspaceRoot, len(m.Files))
	for _, f := range m.Files {
		if len(f.Sheets) > 0 {
			names := make([]string, len(f.Sheets))
			for i, s := range f.Sheets {
				names[i] = s.Name
			}
			fmt.Fprintf(&b, "- %s (%d bytes, sheets: %s)\n", f.Path, f.Size, strings.Join(names, ", "))
			continue
		}
		fmt.Fprintf(&b, "- %s (%d bytes)\n", f.Path, f.Size)
	}
	return b.String()
}
