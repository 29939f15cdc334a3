package window

import (
	"context"
)

// WindowAdvice is one window's lifecycle tier recommendation.
type WindowAdvice struct {
	WindowID string
	Tier     Tier
}

// LifecyclePlan is the batched output of an (optionally async) advisor
// pass, cached for PlanTTLTurns turns before it is considered stale.
type LifecyclePlan struct {
	Advice      []WindowAdvice
	ComputedTurn int
}

// Advisor classifies each window's lifecycle tier given its idle turns
// and active status.
type Advisor interface {
	Advise(ctx context.Context, windows []*Window, activeID string, currentTurn int, budget PerceptionBudget) (LifecyclePlan, error)
}

// RuleBasedAdvisor is the default, always-available advisor: three
// strictly-ascending idle-turn thresholds classify every window except
// the currently active one, which is always TierActive.
type RuleBasedAdvisor struct{}

func NewRuleBasedAdvisor() *RuleBasedAdvisor { return &RuleBasedAdvisor{} }

func (a *RuleBasedAdvisor) Advise(_ context.Context, windows []*Window, activeID string, currentTurn int, budget PerceptionBudget) (LifecyclePlan, error) {
	plan := LifecyclePlan{ComputedTurn: currentTurn}
	for _, w := range windows {
		tier := classify(w, activeID, budget)
		plan.Advice = append(plan.Advice, WindowAdvice{WindowID: w.ID, Tier: tier})
	}
	return plan, nil
}

func classify(w *Window, activeID string, budget PerceptionBudget) Tier {
	if w.ID == activeID {
		return TierActive
	}
	idle := w.Lifecycle.IdleTurns
	switch {
	case idle >= budget.TerminateAfter:
		return TierTerminated
	case idle >= budget.SuspendAfter:
		return TierSuspended
	case idle >= budget.BackgroundAfter:
		return TierBackground
	default:
		return TierActive
	}
}

// SmallModelCaller is the minimal surface HybridAdvisor needs from an
// auxiliary LLM invocation. pkg/llmcaller's Caller does not implement
// it; the caller of NewHybridAdvisor supplies the implementation. Kept
// narrow here so pkg/window never imports pkg/llmcaller directly.
type SmallModelCaller interface {
	ProposeLifecycle(ctx context.Context, windows []*Window, activeID string, currentTurn int) (LifecyclePlan, error)
}

// HybridAdvisor wraps RuleBasedAdvisor with an optional small-model pass:
// the model's plan is consulted only when it was computed within
// PlanTTLTurns of the current turn; otherwise (no plan yet, plan
// expired, or the model call itself fails) the rule-based fallback
// decides alone. A rule-based terminate or suspend decision is never
// overridden by a stale or absent model plan — the fallback is
// conservative by construction.
type HybridAdvisor struct {
	rules *RuleBasedAdvisor
	model SmallModelCaller

	lastPlan    LifecyclePlan
	havePlan    bool
}

func NewHybridAdvisor(model SmallModelCaller) *HybridAdvisor {
	return &HybridAdvisor{rules: NewRuleBasedAdvisor(), model: model}
}

func (a *HybridAdvisor) Advise(ctx context.Context, windows []*Window, activeID string, currentTurn int, budget PerceptionBudget) (LifecyclePlan, error) {
	base, err := a.rules.Advise(ctx, windows, activeID, currentTurn, budget)
	if err != nil {
		return base, err
	}

	if a.model == nil {
		return base, nil
	}

	shouldRefresh := !a.havePlan || currentTurn-a.lastPlan.ComputedTurn >= budget.PlanTTLTurns
	if shouldRefresh && len(windows) >= budget.TriggerWindowCount {
		plan, err := a.model.ProposeLifecycle(ctx, windows, activeID, currentTurn)
		if err == nil {
			a.lastPlan = plan
			a.havePlan = true
		}
	}

	if !a.havePlan || currentTurn-a.lastPlan.ComputedTurn >= budget.PlanTTLTurns {
		return base, nil
	}

	byID := make(map[string]Tier, len(a.lastPlan.Advice))
	for _, adv := range a.lastPlan.Advice {
		byID[adv.WindowID] = adv.Tier
	}
	merged := LifecyclePlan{ComputedTurn: currentTurn}
	for _, adv := range base.Advice {
		tier := adv.Tier
		if modelTier, ok := byID[adv.WindowID]; ok && tier != TierActive {
			tier = modelTier
		}
		merged.Advice = append(merged.Advice, WindowAdvice{WindowID: adv.WindowID, Tier: tier})
	}
	return merged, nil
}

// planTTLExpired reports whether plan is too old to trust at currentTurn.
func planTTLExpired(plan LifecyclePlan, currentTurn, ttl int) bool {
	return currentTurn-plan.ComputedTurn >= ttl
}
