package window

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/sheetrtd/sheetrt/pkg/errs"
)

// Manager is the per-session Window Perception coordinator: it owns the
// window set, the identity locator, the lifecycle advisor, the budget
// allocator, the repeat detector, the adaptive mode selector, and the
// intent resolver, and exposes the handful of operations the engine loop
// and the tools layer actually call.
type Manager struct {
	mu sync.Mutex

	budget   PerceptionBudget
	locator  *Locator
	advisor  Advisor
	repeats  *RepeatDetector
	mode     *AdaptiveModeSelector
	intents  *IntentResolver
	focus    *FocusService

	windows   map[string]*Window
	activeID  string
	seq       int
	turn      int
	nextSlot  int
}

// NewManager constructs a Manager with the rule-based advisor; callers
// that want the hybrid small-model advisor should build one with
// NewHybridAdvisor and pass it via WithAdvisor.
func NewManager(budget PerceptionBudget, modelID string, userModeOverrides map[string]Mode, refill RefillFunc) *Manager {
	mode := NewAdaptiveModeSelector(userModeOverrides)
	mode.ResolveInitial(modelID)
	return &Manager{
		budget:  budget,
		locator: NewLocator(),
		advisor: NewRuleBasedAdvisor(),
		repeats: NewRepeatDetector(),
		mode:    mode,
		intents: NewIntentResolver(budget.StickyTurns),
		focus:   NewFocusService(refill),
		windows: make(map[string]*Window),
	}
}

// WithAdvisor swaps in a different Advisor (e.g. a HybridAdvisor).
func (m *Manager) WithAdvisor(a Advisor) *Manager {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.advisor = a
	return m
}

// WithIntentKeywords overrides the keyword set the manager's
// IntentResolver uses for user-expressed intent resolution (e.g.
// pkg/rules' YAML-loaded, locale-specific set).
func (m *Manager) WithIntentKeywords(keywords map[IntentTag][]string) *Manager {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.intents.WithKeywords(keywords)
	return m
}

// AdvanceTurn increments the manager's turn counter. Called once per
// engine loop turn, before any tool dispatch for that turn.
func (m *Manager) AdvanceTurn() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turn++
	return m.turn
}

// OpenSheet registers (or reuses) the window for (filePath, sheetName)
// and marks it active. A prior identity conflict is returned as an
// error; the caller should fall back to the locator's legacy index.
func (m *Manager) OpenSheet(filePath, sheetName string) (*Window, error) {
	return m.open(NewSheetIdentity(filePath, sheetName), KindSheet, func(id string) *Window {
		return &Window{ID: id, Kind: KindSheet, Sheet: &SheetData{FilePath: filePath, SheetName: sheetName}}
	})
}

// OpenExplorer registers (or reuses) the window for directory and marks
// it active.
func (m *Manager) OpenExplorer(directory string) (*Window, error) {
	return m.open(NewExplorerIdentity(directory), KindExplorer, func(id string) *Window {
		return &Window{ID: id, Kind: KindExplorer, Explorer: &ExplorerData{Directory: directory}}
	})
}

func (m *Manager) open(identity Identity, kind Kind, build func(id string) *Window) (*Window, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok, err := m.locator.Lookup(identity, kind); err != nil {
		return nil, err
	} else if ok {
		w := m.windows[id]
		m.touchLocked(w)
		return w, nil
	}

	m.nextSlot++
	id := fmt.Sprintf("w%d", m.nextSlot)
	if err := m.locator.Register(identity, id); err != nil {
		return nil, err
	}
	w := build(id)
	m.windows[id] = w
	m.touchLocked(w)
	return w, nil
}

func (m *Manager) touchLocked(w *Window) {
	m.seq++
	w.Lifecycle.LastAccessSeq = m.seq
	w.Lifecycle.IdleTurns = 0
	m.activeID = w.ID
}

// Get returns the window registered under id, if any.
func (m *Manager) Get(id string) (*Window, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.windows[id]
	return w, ok
}

// All returns every tracked window, in no particular order.
func (m *Manager) All() []*Window {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Window, 0, len(m.windows))
	for _, w := range m.windows {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ApplyDelta applies d to the window registered under windowID and, for
// writes, resets the repeat detector for that sheet. It does not change
// the window's idle turns.
func (m *Manager) ApplyDelta(windowID string, d Delta) error {
	m.mu.Lock()
	w, ok := m.windows[windowID]
	m.mu.Unlock()
	if !ok {
		return errs.New(errs.KindPerceptionReject, "window.manager", "unknown window id", nil)
	}
	if err := ApplyDelta(w, d, m.turn); err != nil {
		return err
	}
	if d.Kind == DeltaWrite && w.Sheet != nil {
		m.repeats.ResetOnWrite(w.Sheet.FilePath, w.Sheet.SheetName)
	}
	return nil
}

// ResolveIntent resolves and stores windowID's intent given the latest
// turn signals, returning the new Intent.
func (m *Manager) ResolveIntent(windowID, userMessage, toolName, toolArgsText string) (Intent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.windows[windowID]
	if !ok {
		return Intent{}, errs.New(errs.KindPerceptionReject, "window.manager", "unknown window id", nil)
	}
	w.IntentState = m.intents.Resolve(w.IntentState, userMessage, toolName, toolArgsText, m.turn)
	return w.IntentState, nil
}

// ObserveRepeat feeds one observation into the repeat detector for
// windowID and, on trip, forces an adaptive-mode downgrade.
func (m *Manager) ObserveRepeat(windowID, rangeRef string) (warned, tripped bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.windows[windowID]
	if !ok {
		return false, false, errs.New(errs.KindPerceptionReject, "window.manager", "unknown window id", nil)
	}
	if w.Sheet == nil {
		return false, false, nil
	}
	warned, tripped = m.repeats.Observe(w.Sheet.FilePath, w.Sheet.SheetName, rangeRef, w.IntentState.Tag)
	if tripped {
		m.mode.RecordRepeatTripwire()
	}
	return warned, tripped, nil
}

// RecordIngestOutcome feeds one ingest success/failure into the adaptive
// mode selector.
func (m *Manager) RecordIngestOutcome(success bool) Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode.RecordIngestOutcome(success)
}

// Mode reports the manager's current adaptive rendering mode.
func (m *Manager) Mode() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode.Current()
}

// Tick runs the lifecycle advisor and budget allocator over all tracked
// windows for the current turn, ageing every non-active window's idle
// counter by one first.
func (m *Manager) Tick(ctx context.Context) ([]RenderPlan, error) {
	m.mu.Lock()
	windows := make([]*Window, 0, len(m.windows))
	for _, w := range m.windows {
		if w.ID != m.activeID {
			w.Lifecycle.IdleTurns++
		}
		windows = append(windows, w)
	}
	activeID := m.activeID
	turn := m.turn
	budget := m.budget
	advisor := m.advisor
	m.mu.Unlock()

	plan, err := advisor.Advise(ctx, windows, activeID, turn, budget)
	if err != nil {
		return nil, err
	}

	tiers := make(map[string]Tier, len(plan.Advice))
	for _, a := range plan.Advice {
		tiers[a.WindowID] = a.Tier
	}

	m.mu.Lock()
	for id, tier := range tiers {
		if tier == TierTerminated {
			if w, ok := m.windows[id]; ok {
				w.Lifecycle.Dormant = true
			}
		}
	}
	m.mu.Unlock()

	return Allocate(windows, tiers, activeID, budget), nil
}

// Focus dispatches a focus action to the focus service for windowID.
func (m *Manager) Focus(ctx context.Context, windowID string, action FocusAction, rangeRef string) (string, error) {
	m.mu.Lock()
	w, ok := m.windows[windowID]
	turn := m.turn
	m.mu.Unlock()
	if !ok {
		return "", errs.New(errs.KindToolFailure, "window.manager", "unknown window id", nil)
	}
	return m.focus.Apply(ctx, w, action, rangeRef, turn)
}

// RenderAll renders every window at its currently assigned detail level
// (from the most recent Tick): DetailFull uses the manager's current
// adaptive mode, DetailSummary the anchored form, and DetailOneLine the
// unified one-line form.
func (m *Manager) RenderAll(plans []RenderPlan) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(plans))
	mode := m.mode.Current()
	for _, p := range plans {
		w, ok := m.windows[p.WindowID]
		if !ok || p.Detail == DetailNone {
			continue
		}
		switch p.Detail {
		case DetailFull:
			out = append(out, Render(w, mode))
		case DetailSummary:
			out = append(out, RenderAnchored(w))
		default:
			out = append(out, RenderUnified(w))
		}
	}
	return out
}
