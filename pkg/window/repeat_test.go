package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRepeatDetector_TripsEarlierForTightIntents(t *testing.T) {
	d := NewRepeatDetector()
	var tripped bool
	for i := 0; i < 5; i++ {
		_, tripped = d.Observe("a.xlsx", "S1", "A1:B2", IntentAggregate)
	}
	assert.True(t, tripped)
}

func TestRepeatDetector_RelaxedThresholdForFormatIntent(t *testing.T) {
	d := NewRepeatDetector()
	_, tripped := d.Observe("a.xlsx", "S1", "A1:B2", IntentFormat)
	assert.False(t, tripped)
	for i := 0; i < 7; i++ {
		_, tripped = d.Observe("a.xlsx", "S1", "A1:B2", IntentFormat)
	}
	assert.True(t, tripped)
}

func TestRepeatDetector_DistinctRangesDoNotAccumulateTogether(t *testing.T) {
	d := NewRepeatDetector()
	_, tripped := d.Observe("a.xlsx", "S1", "A1:B2", IntentAggregate)
	assert.False(t, tripped)
	_, tripped = d.Observe("a.xlsx", "S1", "C1:D2", IntentAggregate)
	assert.False(t, tripped)
}

func TestRepeatDetector_ResetOnWriteClearsSheetCounts(t *testing.T) {
	d := NewRepeatDetector()
	for i := 0; i < 4; i++ {
		d.Observe("a.xlsx", "S1", "A1:B2", IntentAggregate)
	}
	d.ResetOnWrite("a.xlsx", "S1")
	_, tripped := d.Observe("a.xlsx", "S1", "A1:B2", IntentAggregate)
	assert.False(t, tripped)
}
