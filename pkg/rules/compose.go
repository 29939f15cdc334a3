package rules

import (
	"strings"

	"github.com/sheetrtd/sheetrt/pkg/store"
)

// Compose concatenates enabled global rules followed by enabled session
// rules into the block pkg/sessionmgr folds into the system prompt.
// Disabled rules of either scope are skipped entirely.
func Compose(global []GlobalRule, session []*store.Rule) string {
	var lines []string
	for _, r := range global {
		if r.Enabled {
			lines = append(lines, "- "+r.Content)
		}
	}
	for _, r := range session {
		if r.Enabled {
			lines = append(lines, "- "+r.Content)
		}
	}
	if len(lines) == 0 {
		return ""
	}
	return "Rules:\n" + strings.Join(lines, "\n")
}
