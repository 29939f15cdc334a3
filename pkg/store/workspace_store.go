package store

import (
	"context"

	"github.com/sheetrtd/sheetrt/pkg/db"
	"github.com/sheetrtd/sheetrt/pkg/errs"
)

// WorkspaceFileStore persists the per-file rows of a scanned
// WorkspaceManifest, replacing a workspace's rows wholesale on rescan.
type WorkspaceFileStore struct {
	adapter *db.Adapter
}

// NewWorkspaceFileStore constructs a WorkspaceFileStore.
func NewWorkspaceFileStore(adapter *db.Adapter) *WorkspaceFileStore {
	return &WorkspaceFileStore{adapter: adapter}
}

// ReplaceAll deletes every row for workspaceRoot and inserts files in
// its place, inside one transaction.
func (s *WorkspaceFileStore) ReplaceAll(ctx context.Context, workspaceRoot string, files []*WorkspaceFile) error {
	return s.adapter.WithTx(ctx, func(tx *db.Adapter) error {
		if _, err := tx.Exec(ctx, "DELETE FROM workspace_files WHERE workspace_root = ?", workspaceRoot); err != nil {
			return err
		}
		for _, f := range files {
			if _, err := tx.Exec(ctx,
				`INSERT INTO workspace_files (workspace_root, path, name, size, mod_time, sheets_json)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				f.WorkspaceRoot, f.Path, f.Name, f.Size, f.ModTime, f.SheetsJSON); err != nil {
				return err
			}
		}
		return nil
	})
}

// Upsert replaces a single file's row (used for incremental mtime-diff
// refresh rather than a full rescan).
func (s *WorkspaceFileStore) Upsert(ctx context.Context, f *WorkspaceFile) error {
	_, err := s.adapter.Exec(ctx,
		`INSERT OR REPLACE INTO workspace_files (workspace_root, path, name, size, mod_time, sheets_json)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		f.WorkspaceRoot, f.Path, f.Name, f.Size, f.ModTime, f.SheetsJSON)
	if err != nil {
		return errs.New(errs.KindPersistence, "store.workspacefile", "upsert", err)
	}
	return nil
}

// ListByWorkspace returns every file row for workspaceRoot.
func (s *WorkspaceFileStore) ListByWorkspace(ctx context.Context, workspaceRoot string) ([]*WorkspaceFile, error) {
	rows, err := s.adapter.Query(ctx,
		`SELECT workspace_root, path, name, size, mod_time, sheets_json
		 FROM workspace_files WHERE workspace_root = ? ORDER BY path ASC`, workspaceRoot)
	if err != nil {
		return nil, errs.New(errs.KindPersistence, "store.workspacefile", "list by workspace", err)
	}
	defer rows.Close()

	var out []*WorkspaceFile
	for rows.Next() {
		f := &WorkspaceFile{}
		if err := rows.Scan(&f.WorkspaceRoot, &f.Path, &f.Name, &f.Size, &f.ModTime, &f.SheetsJSON); err != nil {
			return nil, errs.New(errs.KindPersistence, "store.workspacefile", "scan", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// CheckpointStore persists the checkpoint entity, keeping at most
// maxPerSession rows per session (oldest evicted).
type CheckpointStore struct {
	adapter *db.Adapter
}

// NewCheckpointStore constructs a CheckpointStore.
func NewCheckpointStore(adapter *db.Adapter) *CheckpointStore {
	return &CheckpointStore{adapter: adapter}
}

// Save writes a checkpoint row, then evicts the oldest rows beyond
// maxPerSession for that session.
func (s *CheckpointStore) Save(ctx context.Context, c *Checkpoint, maxPerSession int) error {
	_, err := s.adapter.Exec(ctx,
		`INSERT INTO checkpoints (session_id, state_json, task_list_json, turn_number, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		c.SessionID, c.StateJSON, c.TaskListJSON, c.TurnNumber, c.CreatedAt)
	if err != nil {
		return errs.New(errs.KindPersistence, "store.checkpoint", "save", err)
	}
	return s.evictOldest(ctx, c.SessionID, maxPerSession)
}

func (s *CheckpointStore) evictOldest(ctx context.Context, sessionID string, maxPerSession int) error {
	var total int
	if err := s.adapter.QueryRow(ctx,
		"SELECT COUNT(*) FROM checkpoints WHERE session_id = ?", sessionID).Scan(&total); err != nil {
		return errs.New(errs.KindPersistence, "store.checkpoint", "count", err)
	}
	if total <= maxPerSession {
		return nil
	}
	overflow := total - maxPerSession
	_, err := s.adapter.Exec(ctx,
		`DELETE FROM checkpoints WHERE session_id = ? AND turn_number IN (
			SELECT turn_number FROM checkpoints WHERE session_id = ? ORDER BY turn_number ASC LIMIT ?)`,
		sessionID, sessionID, overflow)
	if err != nil {
		return errs.New(errs.KindPersistence, "store.checkpoint", "evict oldest", err)
	}
	return nil
}

// Latest returns the most recent checkpoint for sessionID. When none
// exist it returns a persistence error wrapping sql.ErrNoRows.
func (s *CheckpointStore) Latest(ctx context.Context, sessionID string) (*Checkpoint, error) {
	row := s.adapter.QueryRow(ctx,
		`SELECT session_id, state_json, task_list_json, turn_number, created_at
		 FROM checkpoints WHERE session_id = ? ORDER BY turn_number DESC LIMIT 1`, sessionID)
	c := &Checkpoint{}
	if err := row.Scan(&c.SessionID, &c.StateJSON, &c.TaskListJSON, &c.TurnNumber, &c.CreatedAt); err != nil {
		return nil, errs.New(errs.KindPersistence, "store.checkpoint", "latest", err)
	}
	return c, nil
}

// Clear removes every checkpoint for sessionID.
func (s *CheckpointStore) Clear(ctx context.Context, sessionID string) error {
	_, err := s.adapter.Exec(ctx, "DELETE FROM checkpoints WHERE session_id = ?", sessionID)
	if err != nil {
		return errs.New(errs.KindPersistence, "store.checkpoint", "clear", err)
	}
	return nil
}
