package window

import "sort"

// RenderPlan is the budget allocator's decision for one window: which
// detail level its renderer should use, given the remaining system token
// budget.
type RenderPlan struct {
	WindowID string
	Detail   DetailLevel
	Tokens   int
}

// tokenEstimate is a rough per-detail-level token cost model. Window
// Perception budgeting is advisory (it shapes how much gets rendered,
// never correctness), so a coarse estimate is enough: a fixed cost per
// level, plus 12 tokens per cached row at full detail.
func tokenEstimate(w *Window, detail DetailLevel, minimized int) int {
	switch detail {
	case DetailFull:
		base := 200
		if w.Sheet != nil {
			for _, cr := range w.Sheet.CachedRanges {
				base += len(cr.Rows) * 12
			}
		}
		return base
	case DetailSummary:
		return 80
	case DetailOneLine:
		return minimized
	default:
		return 0
	}
}

// Allocate assigns a render detail level to every window: windows are
// ordered active-first, then by LastAccessSeq descending (most recently
// touched first), capped to MaxWindows. Each window then walks the
// fallback chain full -> summary -> one_line -> none, accepting the
// first tier whose estimated token cost fits the remaining budget. The
// active window alone gets a relaxed floor of max(1, minimized/2) tokens
// even if the nominal one_line cost would not otherwise fit, so the
// window the user is actually looking at is never fully dropped.
func Allocate(windows []*Window, tiers map[string]Tier, activeID string, budget PerceptionBudget) []RenderPlan {
	ordered := make([]*Window, len(windows))
	copy(ordered, windows)
	sort.SliceStable(ordered, func(i, j int) bool {
		iActive := ordered[i].ID == activeID
		jActive := ordered[j].ID == activeID
		if iActive != jActive {
			return iActive
		}
		return ordered[i].Lifecycle.LastAccessSeq > ordered[j].Lifecycle.LastAccessSeq
	})
	if len(ordered) > budget.MaxWindows {
		ordered = ordered[:budget.MaxWindows]
	}

	remaining := budget.SystemBudgetTokens
	plans := make([]RenderPlan, 0, len(ordered))
	for _, w := range ordered {
		tier := tiers[w.ID]
		if tier == TierTerminated {
			plans = append(plans, RenderPlan{WindowID: w.ID, Detail: DetailNone, Tokens: 0})
			continue
		}

		chain := detailChainFor(tier)
		assigned := RenderPlan{WindowID: w.ID, Detail: DetailNone, Tokens: 0}
		for _, detail := range chain {
			cost := tokenEstimate(w, detail, budget.MinimizedTokens)
			if cost <= remaining {
				assigned = RenderPlan{WindowID: w.ID, Detail: detail, Tokens: cost}
				break
			}
		}
		if assigned.Detail == DetailNone && w.ID == activeID {
			floor := budget.MinimizedTokens / 2
			if floor < 1 {
				floor = 1
			}
			assigned = RenderPlan{WindowID: w.ID, Detail: DetailOneLine, Tokens: floor}
		}
		remaining -= assigned.Tokens
		if remaining < 0 {
			remaining = 0
		}
		plans = append(plans, assigned)
	}
	return plans
}

// detailChainFor returns the fallback chain a window's lifecycle tier is
// permitted to walk: a suspended window never renders at full detail
// even if the budget would allow it, and a terminated window never
// renders at all (handled before this is called).
func detailChainFor(tier Tier) []DetailLevel {
	switch tier {
	case TierActive:
		return []DetailLevel{DetailFull, DetailSummary, DetailOneLine}
	case TierBackground:
		return []DetailLevel{DetailSummary, DetailOneLine}
	case TierSuspended:
		return []DetailLevel{DetailOneLine}
	default:
		return nil
	}
}
