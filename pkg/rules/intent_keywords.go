package rules

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sheetrtd/sheetrt/pkg/errs"
	"github.com/sheetrtd/sheetrt/pkg/window"
)

// DefaultIntentKeywords mirrors pkg/window's own built-in fallback set.
// It exists here, as data, so a deployment can override it from YAML
// without touching window's resolution logic — locale-dependent intent
// keywords belong in configuration, not logic.
var DefaultIntentKeywords = map[window.IntentTag][]string{
	window.IntentAggregate: {"sum", "total", "average", "count", "aggregate", "group by"},
	window.IntentFormat:    {"format", "color", "bold", "highlight", "style", "font"},
	window.IntentValidate:  {"check", "validate", "verify", "audit", "find errors"},
	window.IntentFormula:   {"formula", "=sum", "vlookup", "calculate", "compute"},
	window.IntentEntry:     {"enter", "type", "fill in", "input", "add row"},
}

// intentKeywordsFile is the on-disk YAML shape: one flat key per
// intent tag, each holding the keyword list it matches.
type intentKeywordsFile struct {
	Aggregate []string `yaml:"aggregate"`
	Format    []string `yaml:"format"`
	Validate  []string `yaml:"validate"`
	Formula   []string `yaml:"formula"`
	Entry     []string `yaml:"entry"`
}

// LoadIntentKeywords reads a locale-specific keyword override from
// path. A tag whose list is empty/absent in the file falls back to
// DefaultIntentKeywords for that tag, so a partial override file only
// needs to name the tags it changes.
func LoadIntentKeywords(path string) (map[window.IntentTag][]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultIntentKeywords, nil
		}
		return nil, errs.New(errs.KindConfig, "rules.intent", "read", err)
	}
	var f intentKeywordsFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, errs.New(errs.KindConfig, "rules.intent", "parse", err)
	}

	merged := map[window.IntentTag][]string{
		window.IntentAggregate: coalesce(f.Aggregate, DefaultIntentKeywords[window.IntentAggregate]),
		window.IntentFormat:    coalesce(f.Format, DefaultIntentKeywords[window.IntentFormat]),
		window.IntentValidate:  coalesce(f.Validate, DefaultIntentKeywords[window.IntentValidate]),
		window.IntentFormula:   coalesce(f.Formula, DefaultIntentKeywords[window.IntentFormula]),
		window.IntentEntry:     coalesce(f.Entry, DefaultIntentKeywords[window.IntentEntry]),
	}
	return merged, nil
}

func coalesce(override, fallback []string) []string {
	if len(override) > 0 {
		return override
	}
	return fallback
}
