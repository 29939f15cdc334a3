package sessionmgr

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/sheetrtd/sheetrt/pkg/store"
)

// Snapshot is the data a persistence flush needs from a running Engine:
// its full conversation, how much of it has already been flushed, and
// the turn counter — a plain struct, not an Engine pointer, crosses the
// package boundary so sessionmgr never imports pkg/engine.
type Snapshot struct {
	SessionID     string
	UserText      string // first user message, used only for lazy session creation
	RawMessages   int    // len(engine.RawMessages)
	SnapshotIndex int    // engine.SnapshotIndex before this flush
	SessionTurn   int
}

// FlushResult reports what FlushSnapshot did, so the caller can update
// its own Engine.SnapshotIndex.
type FlushResult struct {
	NewSnapshotIndex int
	MessagesFlushed  int
}

// FlushSnapshot is the persistence bridge between a running Engine and
// pkg/store: it creates the session row lazily if absent (title derived
// from the first user message, truncated to FallbackTitleMaxChars),
// computes how many messages are new since the last flush, and bumps
// the session's message_count/updated_at by that delta.
func (m *Manager) FlushSnapshot(ctx context.Context, snap Snapshot) (*FlushResult, error) {
	_, err := m.scope.Sessions.Get(ctx, snap.SessionID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		now := time.Now().UTC()
		if err := m.scope.Sessions.Create(ctx, &store.Session{
			ID:          snap.SessionID,
			Title:       truncateTitle(snap.UserText, FallbackTitleMaxChars),
			TitleSource: store.TitleUnset,
			CreatedAt:   now,
			UpdatedAt:   now,
			Status:      store.SessionActive,
		}); err != nil {
			return nil, err
		}
	}

	delta := snap.RawMessages - snap.SnapshotIndex
	if delta < 0 {
		delta = 0
	}
	if delta > 0 {
		if err := m.scope.Sessions.IncrementMessageCount(ctx, snap.SessionID, delta, time.Now().UTC()); err != nil {
			return nil, err
		}
	}

	return &FlushResult{NewSnapshotIndex: snap.RawMessages, MessagesFlushed: delta}, nil
}

func truncateTitle(text string, max int) string {
	if len(text) <= max {
		return text
	}
	return text[:max]
}
