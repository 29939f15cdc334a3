package window

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleBasedAdvisor_ActiveWindowAlwaysActive(t *testing.T) {
	budget := DefaultPerceptionBudget()
	windows := []*Window{{ID: "w1", Lifecycle: Lifecycle{IdleTurns: 100}}}
	plan, err := NewRuleBasedAdvisor().Advise(context.Background(), windows, "w1", 5, budget)
	require.NoError(t, err)
	require.Len(t, plan.Advice, 1)
	assert.Equal(t, TierActive, plan.Advice[0].Tier)
}

func TestRuleBasedAdvisor_ThresholdsAreStrictlyAscending(t *testing.T) {
	budget := DefaultPerceptionBudget()
	require.Less(t, budget.BackgroundAfter, budget.SuspendAfter)
	require.Less(t, budget.SuspendAfter, budget.TerminateAfter)

	cases := []struct {
		idle int
		want Tier
	}{
		{0, TierActive},
		{budget.BackgroundAfter, TierBackground},
		{budget.SuspendAfter, TierSuspended},
		{budget.TerminateAfter, TierTerminated},
	}
	for _, c := range cases {
		windows := []*Window{{ID: "w2", Lifecycle: Lifecycle{IdleTurns: c.idle}}}
		plan, err := NewRuleBasedAdvisor().Advise(context.Background(), windows, "other", 1, budget)
		require.NoError(t, err)
		assert.Equal(t, c.want, plan.Advice[0].Tier, "idle=%d", c.idle)
	}
}

type fakeModelCaller struct {
	plan LifecyclePlan
	err  error
}

func (f *fakeModelCaller) ProposeLifecycle(_ context.Context, _ []*Window, _ string, _ int) (LifecyclePlan, error) {
	return f.plan, f.err
}

func TestHybridAdvisor_FallsBackWhenNoPlanYet(t *testing.T) {
	budget := DefaultPerceptionBudget()
	budget.TriggerWindowCount = 100 // never triggers the model call
	windows := []*Window{{ID: "w1", Lifecycle: Lifecycle{IdleTurns: budget.BackgroundAfter}}}
	adv := NewHybridAdvisor(&fakeModelCaller{})
	plan, err := adv.Advise(context.Background(), windows, "other", 1, budget)
	require.NoError(t, err)
	assert.Equal(t, TierBackground, plan.Advice[0].Tier)
}

func TestHybridAdvisor_NeverOverridesActiveWindow(t *testing.T) {
	budget := DefaultPerceptionBudget()
	budget.TriggerWindowCount = 0
	windows := []*Window{{ID: "w1", Lifecycle: Lifecycle{IdleTurns: 0}}}
	model := &fakeModelCaller{plan: LifecyclePlan{ComputedTurn: 1, Advice: []WindowAdvice{{WindowID: "w1", Tier: TierSuspended}}}}
	adv := NewHybridAdvisor(model)
	plan, err := adv.Advise(context.Background(), windows, "w1", 1, budget)
	require.NoError(t, err)
	assert.Equal(t, TierActive, plan.Advice[0].Tier)
}

func TestPlanTTLExpired(t *testing.T) {
	plan := LifecyclePlan{ComputedTurn: 1}
	assert.False(t, planTTLExpired(plan, 2, 3))
	assert.True(t, planTTLExpired(plan, 4, 3))
}
