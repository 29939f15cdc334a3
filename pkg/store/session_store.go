package store

import (
	"context"
	"fmt"

	"github.com/sheetrtd/sheetrt/pkg/db"
	"github.com/sheetrtd/sheetrt/pkg/errs"
)

// SessionStore is the CRUD surface over the sessions table.
type SessionStore struct {
	adapter *db.Adapter
	userID  *string
}

// NewSessionStore constructs a SessionStore bound to adapter and userID
// (nil for an anonymous scope).
func NewSessionStore(adapter *db.Adapter, userID *string) *SessionStore {
	return &SessionStore{adapter: adapter, userID: userID}
}

// Create inserts a new session row.
func (s *SessionStore) Create(ctx context.Context, session *Session) error {
	_, err := s.adapter.Exec(ctx,
		`INSERT INTO sessions (id, title, title_source, created_at, updated_at, message_count, status, user_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID, session.Title, string(session.TitleSource), session.CreatedAt, session.UpdatedAt,
		session.MessageCount, string(session.Status), s.userID)
	if err != nil {
		return errs.New(errs.KindPersistence, "store.session", "create", err)
	}
	return nil
}

// Get fetches a session by id, scoped to the store's user.
func (s *SessionStore) Get(ctx context.Context, id string) (*Session, error) {
	clause, clauseArgs := userClause(s.userID)
	query := fmt.Sprintf(`SELECT id, title, title_source, created_at, updated_at, message_count, status, user_id
		FROM sessions WHERE id = ? AND %s`, clause)
	args := append([]any{id}, clauseArgs...)

	row := s.adapter.QueryRow(ctx, query, args...)
	sess := &Session{}
	var titleSource, status string
	if err := row.Scan(&sess.ID, &sess.Title, &titleSource, &sess.CreatedAt, &sess.UpdatedAt,
		&sess.MessageCount, &status, &sess.UserID); err != nil {
		return nil, errs.New(errs.KindPersistence, "store.session", "get", err)
	}
	sess.TitleSource = TitleSource(titleSource)
	sess.Status = SessionStatus(status)
	return sess, nil
}

// List returns sessions for the store's user, most recently updated
// first.
func (s *SessionStore) List(ctx context.Context) ([]*Session, error) {
	clause, clauseArgs := userClause(s.userID)
	query := fmt.Sprintf(`SELECT id, title, title_source, created_at, updated_at, message_count, status, user_id
		FROM sessions WHERE %s ORDER BY updated_at DESC`, clause)

	rows, err := s.adapter.Query(ctx, query, clauseArgs...)
	if err != nil {
		return nil, errs.New(errs.KindPersistence, "store.session", "list", err)
	}
	defer rows.Close()

	var out []*Session
	for rows.Next() {
		sess := &Session{}
		var titleSource, status string
		if err := rows.Scan(&sess.ID, &sess.Title, &titleSource, &sess.CreatedAt, &sess.UpdatedAt,
			&sess.MessageCount, &status, &sess.UserID); err != nil {
			return nil, errs.New(errs.KindPersistence, "store.session", "list scan", err)
		}
		sess.TitleSource = TitleSource(titleSource)
		sess.Status = SessionStatus(status)
		out = append(out, sess)
	}
	return out, rows.Err()
}

// UpdateTitle sets a session's title and title_source.
func (s *SessionStore) UpdateTitle(ctx context.Context, id, title string, source TitleSource) error {
	clause, clauseArgs := userClause(s.userID)
	query := fmt.Sprintf("UPDATE sessions SET title = ?, title_source = ? WHERE id = ? AND %s", clause)
	args := append([]any{title, string(source), id}, clauseArgs...)
	_, err := s.adapter.Exec(ctx, query, args...)
	if err != nil {
		return errs.New(errs.KindPersistence, "store.session", "update title", err)
	}
	return nil
}

// IncrementMessageCount bumps message_count by delta and refreshes
// updated_at.
func (s *SessionStore) IncrementMessageCount(ctx context.Context, id string, delta int, updatedAt any) error {
	clause, clauseArgs := userClause(s.userID)
	query := fmt.Sprintf("UPDATE sessions SET message_count = message_count + ?, updated_at = ? WHERE id = ? AND %s", clause)
	args := append([]any{delta, updatedAt, id}, clauseArgs...)
	_, err := s.adapter.Exec(ctx, query, args...)
	if err != nil {
		return errs.New(errs.KindPersistence, "store.session", "increment message count", err)
	}
	return nil
}

// SetStatus transitions a session's status (e.g. to archived).
func (s *SessionStore) SetStatus(ctx context.Context, id string, status SessionStatus) error {
	clause, clauseArgs := userClause(s.userID)
	query := fmt.Sprintf("UPDATE sessions SET status = ? WHERE id = ? AND %s", clause)
	args := append([]any{string(status), id}, clauseArgs...)
	_, err := s.adapter.Exec(ctx, query, args...)
	if err != nil {
		return errs.New(errs.KindPersistence, "store.session", "set status", err)
	}
	return nil
}

// Delete removes a session row; messages cascade-delete via the schema's
// foreign key.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	clause, clauseArgs := userClause(s.userID)
	query := fmt.Sprintf("DELETE FROM sessions WHERE id = ? AND %s", clause)
	args := append([]any{id}, clauseArgs...)
	_, err := s.adapter.Exec(ctx, query, args...)
	if err != nil {
		return errs.New(errs.KindPersistence, "store.session", "delete", err)
	}
	return nil
}
