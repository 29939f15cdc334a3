package store

import (
	"context"

	"github.com/sheetrtd/sheetrt/pkg/db"
	"github.com/sheetrtd/sheetrt/pkg/errs"
)

// MessageStore is the append-only CRUD surface over the messages table.
// Messages are never updated or reordered; Append is the only write.
type MessageStore struct {
	adapter *db.Adapter
}

// NewMessageStore constructs a MessageStore. Messages are keyed by
// session, not by user, so this store carries no user scope of its own —
// scoping happens one level up, at the Session that owns the messages.
func NewMessageStore(adapter *db.Adapter) *MessageStore {
	return &MessageStore{adapter: adapter}
}

// Append inserts a new message and returns its assigned, monotonically
// increasing id.
func (s *MessageStore) Append(ctx context.Context, m *Message) (int64, error) {
	res, err := s.adapter.Exec(ctx,
		`INSERT INTO messages (session_id, role, content, turn_number, tool_call_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		m.SessionID, string(m.Role), m.Content, m.TurnNumber, m.ToolCallID, m.CreatedAt)
	if err != nil {
		return 0, errs.New(errs.KindPersistence, "store.message", "append", err)
	}
	return res.LastInsertId()
}

// ListBySession returns every message for sessionID, ordered by id.
func (s *MessageStore) ListBySession(ctx context.Context, sessionID string) ([]*Message, error) {
	rows, err := s.adapter.Query(ctx,
		`SELECT id, session_id, role, content, turn_number, tool_call_id, created_at
		 FROM messages WHERE session_id = ? ORDER BY id ASC`, sessionID)
	if err != nil {
		return nil, errs.New(errs.KindPersistence, "store.message", "list by session", err)
	}
	defer rows.Close()

	var out []*Message
	for rows.Next() {
		m := &Message{}
		var role string
		if err := rows.Scan(&m.ID, &m.SessionID, &role, &m.Content, &m.TurnNumber, &m.ToolCallID, &m.CreatedAt); err != nil {
			return nil, errs.New(errs.KindPersistence, "store.message", "scan", err)
		}
		m.Role = MessageRole(role)
		out = append(out, m)
	}
	return out, rows.Err()
}

// ClearSession deletes every message belonging to sessionID (used by
// session clear / rollback).
func (s *MessageStore) ClearSession(ctx context.Context, sessionID string) error {
	_, err := s.adapter.Exec(ctx, "DELETE FROM messages WHERE session_id = ?", sessionID)
	if err != nil {
		return errs.New(errs.KindPersistence, "store.message", "clear session", err)
	}
	return nil
}
