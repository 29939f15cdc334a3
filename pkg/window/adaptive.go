package window

import "strings"

// defaultModelModePrefixes maps a model-id prefix to its recommended
// initial rendering mode. Longer (more specific) prefixes win over
// shorter ones, e.g. "gpt-4o-mini" matches before the shorter "gpt-4o".
var defaultModelModePrefixes = map[string]Mode{
	"gpt-4o-mini": ModeAnchored,
	"gpt-4o":      ModeEnriched,
	"gpt-3.5":     ModeUnified,
	"claude-3-5":  ModeEnriched,
	"claude-3":    ModeAnchored,
	"o1":          ModeEnriched,
}

// AdaptiveModeSelector resolves the initial rendering mode for a model
// and ratchets it toward more conservative (higher-detail,
// lower-risk-of-truncation) modes as ingest failures or repeat
// tripwires accumulate, never back down.
type AdaptiveModeSelector struct {
	userOverrides map[string]Mode

	current            Mode
	consecutiveFailures int
}

// NewAdaptiveModeSelector builds a selector with optional user-provided
// model-id -> mode overrides, consulted before the built-in prefix
// table.
func NewAdaptiveModeSelector(userOverrides map[string]Mode) *AdaptiveModeSelector {
	return &AdaptiveModeSelector{userOverrides: userOverrides}
}

// ResolveInitial picks the starting mode for modelID: a user override
// (exact match) wins outright; otherwise the longest matching prefix in
// the built-in table is used; with no match, ModeUnified is the
// default.
func (s *AdaptiveModeSelector) ResolveInitial(modelID string) Mode {
	if s.userOverrides != nil {
		if mode, ok := s.userOverrides[modelID]; ok {
			s.current = mode
			return mode
		}
	}
	bestPrefix := ""
	bestMode := ModeUnified
	for prefix, mode := range defaultModelModePrefixes {
		if strings.HasPrefix(modelID, prefix) && len(prefix) > len(bestPrefix) {
			bestPrefix = prefix
			bestMode = mode
		}
	}
	s.current = bestMode
	return bestMode
}

// Current returns the selector's current mode without mutating it.
func (s *AdaptiveModeSelector) Current() Mode { return s.current }

// downgrade moves current strictly toward ModeEnriched, a no-op once
// already there.
func (s *AdaptiveModeSelector) downgrade() Mode {
	switch s.current {
	case ModeUnified:
		s.current = ModeAnchored
	case ModeAnchored:
		s.current = ModeEnriched
	}
	return s.current
}

// RecordIngestOutcome tracks consecutive ingest failures and downgrades
// after 2 in a row, resetting the streak on any success.
func (s *AdaptiveModeSelector) RecordIngestOutcome(success bool) Mode {
	if success {
		s.consecutiveFailures = 0
		return s.current
	}
	s.consecutiveFailures++
	if s.consecutiveFailures >= 2 {
		s.consecutiveFailures = 0
		return s.downgrade()
	}
	return s.current
}

// RecordRepeatTripwire forces an immediate downgrade regardless of the
// ingest-failure streak: a tripped repeat detector means the model is
// already confused at the current mode, so waiting for a second ingest
// failure would be too slow.
func (s *AdaptiveModeSelector) RecordRepeatTripwire() Mode {
	return s.downgrade()
}
