package store

import (
	"context"
	"fmt"

	"github.com/sheetrtd/sheetrt/pkg/db"
	"github.com/sheetrtd/sheetrt/pkg/errs"
)

// MemoryStore is the CRUD surface over the memory_entries table,
// including a capacity-enforcement rule.
type MemoryStore struct {
	adapter *db.Adapter
	userID  *string
}

// NewMemoryStore constructs a MemoryStore bound to adapter and userID.
func NewMemoryStore(adapter *db.Adapter, userID *string) *MemoryStore {
	return &MemoryStore{adapter: adapter, userID: userID}
}

// Save inserts entry, ignoring the insert if a row with the same id
// already exists; the id is the only key checked.
func (s *MemoryStore) Save(ctx context.Context, entry *MemoryEntry) error {
	_, err := s.adapter.Exec(ctx,
		`INSERT OR IGNORE INTO memory_entries (id, category, content, timestamp, source, user_id)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, string(entry.Category), entry.Content, entry.Timestamp, entry.Source, s.userID)
	if err != nil {
		return errs.New(errs.KindPersistence, "store.memory", "save", err)
	}
	return nil
}

// Get fetches one entry by id, scoped to the store's user.
func (s *MemoryStore) Get(ctx context.Context, id string) (*MemoryEntry, error) {
	clause, clauseArgs := userClause(s.userID)
	query := fmt.Sprintf(`SELECT id, category, content, timestamp, source, user_id
		FROM memory_entries WHERE id = ? AND %s`, clause)
	args := append([]any{id}, clauseArgs...)

	row := s.adapter.QueryRow(ctx, query, args...)
	e := &MemoryEntry{}
	var category string
	if err := row.Scan(&e.ID, &category, &e.Content, &e.Timestamp, &e.Source, &e.UserID); err != nil {
		return nil, errs.New(errs.KindPersistence, "store.memory", "get", err)
	}
	e.Category = MemoryCategory(category)
	return e, nil
}

// ListByCategory returns entries for category, ordered by timestamp
// then id, scoped to the store's user.
func (s *MemoryStore) ListByCategory(ctx context.Context, category MemoryCategory) ([]*MemoryEntry, error) {
	clause, clauseArgs := userClause(s.userID)
	query := fmt.Sprintf(`SELECT id, category, content, timestamp, source, user_id
		FROM memory_entries WHERE category = ? AND %s ORDER BY timestamp ASC, id ASC`, clause)
	args := append([]any{string(category)}, clauseArgs...)

	rows, err := s.adapter.Query(ctx, query, args...)
	if err != nil {
		return nil, errs.New(errs.KindPersistence, "store.memory", "list by category", err)
	}
	defer rows.Close()

	var out []*MemoryEntry
	for rows.Next() {
		e := &MemoryEntry{}
		var cat string
		if err := rows.Scan(&e.ID, &cat, &e.Content, &e.Timestamp, &e.Source, &e.UserID); err != nil {
			return nil, errs.New(errs.KindPersistence, "store.memory", "scan", err)
		}
		e.Category = MemoryCategory(cat)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Delete removes a single memory entry by id.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	clause, clauseArgs := userClause(s.userID)
	query := fmt.Sprintf("DELETE FROM memory_entries WHERE id = ? AND %s", clause)
	args := append([]any{id}, clauseArgs...)
	_, err := s.adapter.Exec(ctx, query, args...)
	if err != nil {
		return errs.New(errs.KindPersistence, "store.memory", "delete", err)
	}
	return nil
}

// Count returns the total number of memory entries in the store's user
// scope.
func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	clause, clauseArgs := userClause(s.userID)
	query := fmt.Sprintf("SELECT COUNT(*) FROM memory_entries WHERE %s", clause)
	var n int
	if err := s.adapter.QueryRow(ctx, query, clauseArgs...).Scan(&n); err != nil {
		return 0, errs.New(errs.KindPersistence, "store.memory", "count", err)
	}
	return n, nil
}

// EnforceCapacity deletes the oldest rows so that at most maxEntries
// remain.
func (s *MemoryStore) EnforceCapacity(ctx context.Context, maxEntries int) (deleted int, err error) {
	total, err := s.Count(ctx)
	if err != nil {
		return 0, err
	}
	if total <= maxEntries {
		return 0, nil
	}
	overflow := total - maxEntries

	clause, clauseArgs := userClause(s.userID)
	selectQuery := fmt.Sprintf(
		"SELECT id FROM memory_entries WHERE %s ORDER BY timestamp ASC, id ASC LIMIT ?", clause)
	args := append(append([]any{}, clauseArgs...), overflow)

	rows, qerr := s.adapter.Query(ctx, selectQuery, args...)
	if qerr != nil {
		return 0, errs.New(errs.KindPersistence, "store.memory", "select overflow", qerr)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, errs.New(errs.KindPersistence, "store.memory", "scan overflow id", err)
		}
		ids = append(ids, id)
	}
	rows.Close()

	for _, id := range ids {
		if err := s.Delete(ctx, id); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}
