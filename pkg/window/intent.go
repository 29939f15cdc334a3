package window

import "strings"

// keywordsByIntent is the default keyword set user-expressed intent
// resolution scans the latest user message against. Kept here as a
// built-in fallback; pkg/rules owns the richer, user-configurable set
// loaded from YAML.
var keywordsByIntent = map[IntentTag][]string{
	IntentAggregate: {"sum", "total", "average", "count", "aggregate", "group by"},
	IntentFormat:    {"format", "color", "bold", "highlight", "style", "font"},
	IntentValidate:  {"check", "validate", "verify", "audit", "find errors"},
	IntentFormula:   {"formula", "=sum", "vlookup", "calculate", "compute"},
	IntentEntry:     {"enter", "type", "fill in", "input", "add row"},
}

const (
	forceSwitchThreshold = 0.75
	softSwitchThreshold  = 0.5
)

// toolNameIntentClass maps a tool name to the intent it signals when
// invoked, for the tool-inferred resolution step.
var toolNameIntentClass = map[string]IntentTag{
	"run_code":       IntentFormula,
	"set_formula":    IntentFormula,
	"apply_style":    IntentFormat,
	"format_range":   IntentFormat,
	"validate_sheet": IntentValidate,
	"write_cell":     IntentEntry,
	"write_range":    IntentEntry,
}

// IntentResolver resolves each window's current intent following a
// 4-step precedence: (1) user-expressed keywords in the latest message,
// scored by keyword density and compared against force-switch/soft
// thresholds; (2) tool-inferred, from the name class of the most recent
// tool call plus a formula-signal scan of its arguments; (3) sticky
// lock, carrying the previous intent forward until LockUntilTurn
// elapses; (4) default: carry the previous tag forward at 0.9x
// confidence, or IntentGeneral when there is no previous tag.
type IntentResolver struct {
	stickyTurns int
	keywords    map[IntentTag][]string
}

func NewIntentResolver(stickyTurns int) *IntentResolver {
	return &IntentResolver{stickyTurns: stickyTurns, keywords: keywordsByIntent}
}

// WithKeywords overrides the keyword set used for user-expressed intent
// resolution (e.g. pkg/rules' YAML-loaded, locale-specific set) in
// place of the package's built-in fallback.
func (r *IntentResolver) WithKeywords(keywords map[IntentTag][]string) *IntentResolver {
	r.keywords = keywords
	return r
}

// Resolve computes the new Intent for a window given the latest user
// message text, the most recent tool name (if any) and its argument
// text, and the current turn number.
func (r *IntentResolver) Resolve(prev Intent, userMessage, toolName, toolArgsText string, currentTurn int) Intent {
	if tag, score, ok := matchUserKeywords(userMessage, r.keywords); ok {
		if score >= forceSwitchThreshold {
			return r.lock(tag, score, "user", currentTurn)
		}
		if score >= softSwitchThreshold && prev.Tag != tag {
			return r.lock(tag, score, "user", currentTurn)
		}
	}

	if toolName != "" {
		if tag, ok := toolNameIntentClass[toolName]; ok {
			return r.lock(tag, 1.0, "tool", currentTurn)
		}
		if containsFormulaSignal(toolArgsText) {
			return r.lock(IntentFormula, 0.6, "tool", currentTurn)
		}
	}

	if prev.LockUntilTurn >= currentTurn && prev.Tag != "" {
		return Intent{Tag: prev.Tag, Confidence: prev.Confidence, Source: "sticky", UpdatedTurn: prev.UpdatedTurn, LockUntilTurn: prev.LockUntilTurn}
	}

	if prev.Tag != "" {
		return Intent{Tag: prev.Tag, Confidence: prev.Confidence * 0.9, Source: "default", UpdatedTurn: currentTurn, LockUntilTurn: prev.LockUntilTurn}
	}
	return Intent{Tag: IntentGeneral, Confidence: 0.3, Source: "default", UpdatedTurn: currentTurn, LockUntilTurn: currentTurn}
}

func (r *IntentResolver) lock(tag IntentTag, confidence float64, source string, currentTurn int) Intent {
	return Intent{
		Tag:           tag,
		Confidence:    confidence,
		Source:        source,
		UpdatedTurn:   currentTurn,
		LockUntilTurn: currentTurn + r.stickyTurns - 1,
	}
}

func matchUserKeywords(message string, keywords map[IntentTag][]string) (IntentTag, float64, bool) {
	if message == "" {
		return "", 0, false
	}
	if keywords == nil {
		keywords = keywordsByIntent
	}
	lower := strings.ToLower(message)
	words := strings.Fields(lower)
	if len(words) == 0 {
		return "", 0, false
	}

	var bestTag IntentTag
	bestHits := 0
	for tag, keywords := range keywords {
		hits := 0
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				hits++
			}
		}
		if hits > bestHits {
			bestHits = hits
			bestTag = tag
		}
	}
	if bestHits == 0 {
		return "", 0, false
	}
	score := float64(bestHits) / float64(min(len(words), 4))
	if score > 1 {
		score = 1
	}
	return bestTag, score, true
}

func containsFormulaSignal(text string) bool {
	lower := strings.ToLower(text)
	return strings.HasPrefix(strings.TrimSpace(lower), "=") || strings.Contains(lower, "formula")
}
