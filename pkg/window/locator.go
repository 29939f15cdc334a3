package window

import (
	"sync"

	"github.com/sheetrtd/sheetrt/pkg/errs"
)

// Locator maintains the bidirectional identity<->window_id map described
// in the original window_perception's WindowLocator. Registration and
// lookup conflicts are explicit rejects recorded on the locator (via
// LastReject) rather than panics or escaping exceptions, so a caller can
// fall back to legacy positional indexing instead of aborting the turn.
type Locator struct {
	mu sync.Mutex

	byIdentity map[Identity]string
	byID       map[string]Identity

	// legacyIndex maps a 0-based positional slot (the order windows were
	// first seen in, independent of identity) to a window_id, backing the
	// "falls back to legacy indexes" behavior on reject.
	legacyIndex []string

	lastReject string
}

// NewLocator constructs an empty Locator.
func NewLocator() *Locator {
	return &Locator{
		byIdentity: make(map[Identity]string),
		byID:       make(map[string]Identity),
	}
}

// Register binds identity to windowID. Registering the same identity
// with the same windowID again is a no-op (idempotent re-registration).
// Registering the same identity with a *different* windowID fails with
// WINDOW_IDENTITY_CONFLICT and leaves the existing binding untouched.
func (l *Locator) Register(identity Identity, windowID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if existing, ok := l.byIdentity[identity]; ok {
		if existing == windowID {
			return nil
		}
		l.lastReject = errs.WindowIdentityConflict
		return errs.New(errs.KindPerceptionReject, "window.locator",
			"identity already bound to a different window_id", nil)
	}

	l.byIdentity[identity] = windowID
	l.byID[windowID] = identity
	l.legacyIndex = append(l.legacyIndex, windowID)
	return nil
}

// Lookup resolves identity to its window_id, enforcing that the caller's
// expected kind matches the identity's actual kind. A kind mismatch
// fails with WINDOW_KIND_CONFLICT rather than silently returning a
// window of the wrong shape.
func (l *Locator) Lookup(identity Identity, expectedKind Kind) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if identity.Kind != expectedKind {
		l.lastReject = errs.WindowKindConflict
		return "", false, errs.New(errs.KindPerceptionReject, "window.locator",
			"identity kind does not match expected kind", nil)
	}
	id, ok := l.byIdentity[identity]
	return id, ok, nil
}

// IdentityFor returns the identity a given window_id was registered
// under, if any.
func (l *Locator) IdentityFor(windowID string) (Identity, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	id, ok := l.byID[windowID]
	return id, ok
}

// LastReject returns the most recent reject code recorded by Register
// or Lookup, or "" if none has occurred yet.
func (l *Locator) LastReject() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastReject
}

// LegacyIndexOf returns the 0-based positional slot for windowID, and
// whether it exists. This is the fallback path a caller uses after a
// reject: rather than trust identity resolution, address the window by
// the order it was first registered in.
func (l *Locator) LegacyIndexOf(windowID string) (int, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, id := range l.legacyIndex {
		if id == windowID {
			return i, true
		}
	}
	return 0, false
}

// LegacyAt resolves a positional slot back to a window_id.
func (l *Locator) LegacyAt(index int) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if index < 0 || index >= len(l.legacyIndex) {
		return "", false
	}
	return l.legacyIndex[index], true
}

// Unregister removes windowID's identity binding in both directions, so
// Lookup and IdentityFor no longer resolve it. Its legacy positional
// slot is kept: LegacyAt and LegacyIndexOf still return it, and later
// windows keep their slots.
func (l *Locator) Unregister(windowID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if identity, ok := l.byID[windowID]; ok {
		delete(l.byIdentity, identity)
		delete(l.byID, windowID)
	}
}
