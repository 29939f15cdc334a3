package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sheetrtd/sheetrt/pkg/store"
)

func TestCompose_ConcatenatesEnabledGlobalThenSessionRules(t *testing.T) {
	global := []GlobalRule{
		{ID: "g1", Content: "Always use USD", Enabled: true},
		{ID: "g2", Content: "disabled global", Enabled: false},
	}
	session := []*store.Rule{
		{ID: "s1", Content: "Keep a backup sheet", Enabled: true},
		{ID: "s2", Content: "disabled session", Enabled: false},
	}

	out := Compose(global, session)

	assert.Contains(t, out, "Always use USD")
	assert.Contains(t, out, "Keep a backup sheet")
	assert.NotContains(t, out, "disabled global")
	assert.NotContains(t, out, "disabled session")
}

func TestCompose_EmptyInputsReturnEmptyString(t *testing.T) {
	assert.Equal(t, "", Compose(nil, nil))
}

func TestCompose_AllDisabledReturnsEmptyString(t *testing.T) {
	global := []GlobalRule{{ID: "g1", Content: "x", Enabled: false}}
	assert.Equal(t, "", Compose(global, nil))
}
