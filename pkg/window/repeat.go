package window

import "strings"

// repeatKey is the tuple a RepeatDetector counts against: the same
// (file, sheet, upper-cased range, intent) seen again without an
// intervening write is what "repeating" means here.
type repeatKey struct {
	file   string
	sheet  string
	rangeU string
	intent IntentTag
}

// RepeatDetector counts consecutive identical (file, sheet, range,
// intent) observations and reports when the count crosses a warn or
// trip threshold. Thresholds are relaxed for intents where repetition
// is expected and benign (formatting sweeps, manual data entry, general
// browsing) and tight for intents where repetition usually signals the
// model is stuck (aggregate, validate, formula).
type RepeatDetector struct {
	counts map[repeatKey]int
}

func NewRepeatDetector() *RepeatDetector {
	return &RepeatDetector{counts: make(map[repeatKey]int)}
}

// Thresholds for an intent: warn at the first value, trip at the
// second.
func thresholdsFor(intent IntentTag) (warn, trip int) {
	switch intent {
	case IntentFormat, IntentEntry, IntentGeneral:
		return 5, 8
	default:
		return 3, 5
	}
}

// Observe records one occurrence of the key and returns whether it has
// crossed the warn or trip threshold for its intent.
func (d *RepeatDetector) Observe(file, sheet, rangeRef string, intent IntentTag) (warned, tripped bool) {
	key := repeatKey{file: strings.ToLower(file), sheet: strings.ToLower(sheet), rangeU: strings.ToUpper(rangeRef), intent: intent}
	d.counts[key]++
	n := d.counts[key]
	warn, trip := thresholdsFor(intent)
	return n >= warn, n >= trip
}

// ResetOnWrite clears the repeat count for (file, sheet) across all
// ranges and intents: a write is evidence of forward progress, so any
// accumulated repeat count for that sheet is no longer meaningful.
func (d *RepeatDetector) ResetOnWrite(file, sheet string) {
	fileL, sheetL := strings.ToLower(file), strings.ToLower(sheet)
	for k := range d.counts {
		if k.file == fileL && k.sheet == sheetL {
			delete(d.counts, k)
		}
	}
}
