package store

import (
	"context"

	"github.com/sheetrtd/sheetrt/pkg/db"
	"github.com/sheetrtd/sheetrt/pkg/errs"
)

// RuleStore is the DB-backed half of the rules system: session-scoped
// rules only. Global rules are persisted to YAML by pkg/rules, not here.
type RuleStore struct {
	adapter *db.Adapter
}

// NewRuleStore constructs a RuleStore.
func NewRuleStore(adapter *db.Adapter) *RuleStore {
	return &RuleStore{adapter: adapter}
}

// Create inserts a session rule row.
func (s *RuleStore) Create(ctx context.Context, r *Rule) error {
	_, err := s.adapter.Exec(ctx,
		`INSERT INTO rules (id, content, enabled, scope, session_id, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.Content, r.Enabled, string(RuleSession), r.SessionID, r.CreatedAt)
	if err != nil {
		return errs.New(errs.KindPersistence, "store.rule", "create", err)
	}
	return nil
}

// ListBySession returns every session rule for sessionID.
func (s *RuleStore) ListBySession(ctx context.Context, sessionID string) ([]*Rule, error) {
	rows, err := s.adapter.Query(ctx,
		`SELECT id, content, enabled, scope, session_id, created_at
		 FROM rules WHERE scope = ? AND session_id = ? ORDER BY created_at ASC`,
		string(RuleSession), sessionID)
	if err != nil {
		return nil, errs.New(errs.KindPersistence, "store.rule", "list by session", err)
	}
	defer rows.Close()

	var out []*Rule
	for rows.Next() {
		r := &Rule{}
		var scope string
		if err := rows.Scan(&r.ID, &r.Content, &r.Enabled, &scope, &r.SessionID, &r.CreatedAt); err != nil {
			return nil, errs.New(errs.KindPersistence, "store.rule", "scan", err)
		}
		r.Scope = RuleScope(scope)
		out = append(out, r)
	}
	return out, rows.Err()
}

// SetEnabled toggles whether a session rule is active.
func (s *RuleStore) SetEnabled(ctx context.Context, id string, enabled bool) error {
	_, err := s.adapter.Exec(ctx, "UPDATE rules SET enabled = ? WHERE id = ?", enabled, id)
	if err != nil {
		return errs.New(errs.KindPersistence, "store.rule", "set enabled", err)
	}
	return nil
}

// Delete removes a session rule.
func (s *RuleStore) Delete(ctx context.Context, id string) error {
	_, err := s.adapter.Exec(ctx, "DELETE FROM rules WHERE id = ?", id)
	if err != nil {
		return errs.New(errs.KindPersistence, "store.rule", "delete", err)
	}
	return nil
}

// ConfigStore is the CRUD surface over the config table: small
// per-user key/value settings that don't warrant a dedicated table.
type ConfigStore struct {
	adapter *db.Adapter
	userID  *string
}

// NewConfigStore constructs a ConfigStore bound to adapter and userID.
func NewConfigStore(adapter *db.Adapter, userID *string) *ConfigStore {
	return &ConfigStore{adapter: adapter, userID: userID}
}

// Set upserts a config key/value pair. Any existing row for key in the
// store's user scope is deleted first, because a NULL user_id never
// conflicts on the (key, user_id) primary key.
func (s *ConfigStore) Set(ctx context.Context, key, value string, updatedAt any) error {
	clause, clauseArgs := userClause(s.userID)
	delArgs := append([]any{key}, clauseArgs...)
	if _, err := s.adapter.Exec(ctx, "DELETE FROM config_entries WHERE key = ? AND "+clause, delArgs...); err != nil {
		return errs.New(errs.KindPersistence, "store.config", "set", err)
	}
	_, err := s.adapter.Exec(ctx,
		`INSERT OR REPLACE INTO config_entries (key, value, user_id, updated_at) VALUES (?, ?, ?, ?)`,
		key, value, s.userID, updatedAt)
	if err != nil {
		return errs.New(errs.KindPersistence, "store.config", "set", err)
	}
	return nil
}

// Get fetches a config value by key, scoped to the store's user.
func (s *ConfigStore) Get(ctx context.Context, key string) (string, bool, error) {
	clause, clauseArgs := userClause(s.userID)
	query := "SELECT value FROM config_entries WHERE key = ? AND " + clause
	args := append([]any{key}, clauseArgs...)

	var value string
	err := s.adapter.QueryRow(ctx, query, args...).Scan(&value)
	if err != nil {
		if err.Error() == "sql: no rows in result set" {
			return "", false, nil
		}
		return "", false, errs.New(errs.KindPersistence, "store.config", "get", err)
	}
	return value, true, nil
}
