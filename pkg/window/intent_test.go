package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIntentResolver_UserKeywordsForceSwitchAboveThreshold(t *testing.T) {
	r := NewIntentResolver(3)
	intent := r.Resolve(Intent{}, "sum total average count", "", "", 1)
	assert.Equal(t, IntentAggregate, intent.Tag)
	assert.Equal(t, "user", intent.Source)
}

func TestIntentResolver_ToolInferredWhenNoUserSignal(t *testing.T) {
	r := NewIntentResolver(3)
	intent := r.Resolve(Intent{Tag: IntentGeneral}, "", "apply_style", "", 2)
	assert.Equal(t, IntentFormat, intent.Tag)
	assert.Equal(t, "tool", intent.Source)
}

func TestIntentResolver_FormulaSignalInToolArgsText(t *testing.T) {
	r := NewIntentResolver(3)
	intent := r.Resolve(Intent{}, "", "run_something_else", "=SUM(A1:A10)", 1)
	assert.Equal(t, IntentFormula, intent.Tag)
}

func TestIntentResolver_StickyLockCarriesForwardUntilExpiry(t *testing.T) {
	r := NewIntentResolver(3)
	first := r.Resolve(Intent{}, "sum total average", "", "", 1)
	// turn 2: no new signal, should stay locked
	second := r.Resolve(first, "", "", "", 2)
	assert.Equal(t, IntentAggregate, second.Tag)
	assert.Equal(t, "sticky", second.Source)
}

func TestIntentResolver_DefaultsToGeneralWithNoHistory(t *testing.T) {
	r := NewIntentResolver(3)
	intent := r.Resolve(Intent{}, "", "", "", 1)
	assert.Equal(t, IntentGeneral, intent.Tag)
}

func TestIntentResolver_LockUntilTurnUpdatesOnSwitch(t *testing.T) {
	r := NewIntentResolver(3)
	intent := r.Resolve(Intent{}, "sum total average", "", "", 5)
	assert.Equal(t, 5+3-1, intent.LockUntilTurn)
}

func TestIntentResolver_WithKeywordsOverridesDefaultSet(t *testing.T) {
	r := NewIntentResolver(3).WithKeywords(map[IntentTag][]string{
		IntentAggregate: {"suma", "promedio"},
	})
	intent := r.Resolve(Intent{}, "dame la suma y el promedio", "", "", 1)
	assert.Equal(t, IntentAggregate, intent.Tag)

	// The English default keyword no longer matches once overridden.
	none := r.Resolve(Intent{}, "sum total average count", "", "", 1)
	assert.Equal(t, IntentGeneral, none.Tag)
}
