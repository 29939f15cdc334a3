package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/sheetrtd/sheetrt/pkg/db"
	"github.com/sheetrtd/sheetrt/pkg/errs"
)

// ApprovalStore is the CRUD surface over the approvals table. Approvals
// only ever advance pending -> {success, failed}; Advance is the sole
// mutation after Create.
type ApprovalStore struct {
	adapter *db.Adapter
	userID  *string
}

// NewApprovalStore constructs an ApprovalStore bound to adapter and
// userID.
func NewApprovalStore(adapter *db.Adapter, userID *string) *ApprovalStore {
	return &ApprovalStore{adapter: adapter, userID: userID}
}

// Create inserts a new pending approval row.
func (s *ApprovalStore) Create(ctx context.Context, a *Approval) error {
	_, err := s.adapter.Exec(ctx,
		`INSERT INTO approvals (id, tool_name, arguments, tool_scope, status, undoable, artefact_paths, user_id, session_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.ToolName, a.Arguments, a.ToolScope, string(a.Status), a.Undoable,
		strings.Join(a.ArtefactPaths, "\n"), s.userID, a.SessionID, a.CreatedAt)
	if err != nil {
		return errs.New(errs.KindPersistence, "store.approval", "create", err)
	}
	return nil
}

// Advance transitions an approval from pending to a terminal status,
// optionally recording artefact paths produced by the tool run. It
// refuses to touch a row that is already terminal.
func (s *ApprovalStore) Advance(ctx context.Context, id string, status ApprovalStatus, artefactPaths []string) error {
	if status == ApprovalPending {
		return errs.New(errs.KindPersistence, "store.approval", "cannot advance to pending", nil)
	}
	clause, clauseArgs := userClause(s.userID)
	query := fmt.Sprintf(
		`UPDATE approvals SET status = ?, artefact_paths = ? WHERE id = ? AND status = 'pending' AND %s`, clause)
	args := append([]any{string(status), strings.Join(artefactPaths, "\n"), id}, clauseArgs...)

	res, err := s.adapter.Exec(ctx, query, args...)
	if err != nil {
		return errs.New(errs.KindPersistence, "store.approval", "advance", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errs.New(errs.KindPersistence, "store.approval", "advance rows affected", err)
	}
	if n == 0 {
		return errs.New(errs.KindPersistence, "store.approval", "approval not found or already terminal", nil)
	}
	return nil
}

// Get fetches an approval by id, scoped to the store's user.
func (s *ApprovalStore) Get(ctx context.Context, id string) (*Approval, error) {
	clause, clauseArgs := userClause(s.userID)
	query := fmt.Sprintf(
		`SELECT id, tool_name, arguments, tool_scope, status, undoable, artefact_paths, user_id, session_id, created_at
		 FROM approvals WHERE id = ? AND %s`, clause)
	args := append([]any{id}, clauseArgs...)

	row := s.adapter.QueryRow(ctx, query, args...)
	a := &Approval{}
	var status, artefacts string
	var sessionID *string
	if err := row.Scan(&a.ID, &a.ToolName, &a.Arguments, &a.ToolScope, &status, &a.Undoable,
		&artefacts, &a.UserID, &sessionID, &a.CreatedAt); err != nil {
		return nil, errs.New(errs.KindPersistence, "store.approval", "get", err)
	}
	a.Status = ApprovalStatus(status)
	a.SessionID = sessionID
	if artefacts != "" {
		a.ArtefactPaths = strings.Split(artefacts, "\n")
	}
	return a, nil
}

// ListPending returns every pending approval for the store's user scope.
func (s *ApprovalStore) ListPending(ctx context.Context) ([]*Approval, error) {
	clause, clauseArgs := userClause(s.userID)
	query := fmt.Sprintf(
		`SELECT id, tool_name, arguments, tool_scope, status, undoable, artefact_paths, user_id, session_id, created_at
		 FROM approvals WHERE status = 'pending' AND %s ORDER BY created_at ASC`, clause)

	rows, err := s.adapter.Query(ctx, query, clauseArgs...)
	if err != nil {
		return nil, errs.New(errs.KindPersistence, "store.approval", "list pending", err)
	}
	defer rows.Close()

	var out []*Approval
	for rows.Next() {
		a := &Approval{}
		var status, artefacts string
		var sessionID *string
		if err := rows.Scan(&a.ID, &a.ToolName, &a.Arguments, &a.ToolScope, &status, &a.Undoable,
			&artefacts, &a.UserID, &sessionID, &a.CreatedAt); err != nil {
			return nil, errs.New(errs.KindPersistence, "store.approval", "scan", err)
		}
		a.Status = ApprovalStatus(status)
		a.SessionID = sessionID
		if artefacts != "" {
			a.ArtefactPaths = strings.Split(artefacts, "\n")
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
