package store

import (
	"context"
	"fmt"

	"github.com/sheetrtd/sheetrt/pkg/db"
	"github.com/sheetrtd/sheetrt/pkg/errs"
)

// ToolCallLogStore is the append-only audit log written after each tool
// call.
type ToolCallLogStore struct {
	adapter *db.Adapter
	userID  *string
}

// NewToolCallLogStore constructs a ToolCallLogStore bound to adapter and
// userID.
func NewToolCallLogStore(adapter *db.Adapter, userID *string) *ToolCallLogStore {
	return &ToolCallLogStore{adapter: adapter, userID: userID}
}

// Append records one tool-call audit row.
func (s *ToolCallLogStore) Append(ctx context.Context, l *ToolCallLog) error {
	_, err := s.adapter.Exec(ctx,
		`INSERT INTO tool_call_logs (session_id, turn, iteration, tool_name, latency_ms, success, user_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		l.SessionID, l.Turn, l.Iteration, l.ToolName, l.LatencyMS, l.Success, s.userID, l.CreatedAt)
	if err != nil {
		return errs.New(errs.KindPersistence, "store.toolcalllog", "append", err)
	}
	return nil
}

// ListBySession returns every tool-call log row for sessionID, ordered
// by created_at then id.
func (s *ToolCallLogStore) ListBySession(ctx context.Context, sessionID string) ([]*ToolCallLog, error) {
	clause, clauseArgs := userClause(s.userID)
	query := fmt.Sprintf(
		`SELECT id, session_id, turn, iteration, tool_name, latency_ms, success, user_id, created_at
		 FROM tool_call_logs WHERE session_id = ? AND %s ORDER BY created_at ASC, id ASC`, clause)
	args := append([]any{sessionID}, clauseArgs...)

	rows, err := s.adapter.Query(ctx, query, args...)
	if err != nil {
		return nil, errs.New(errs.KindPersistence, "store.toolcalllog", "list by session", err)
	}
	defer rows.Close()

	var out []*ToolCallLog
	for rows.Next() {
		l := &ToolCallLog{}
		if err := rows.Scan(&l.ID, &l.SessionID, &l.Turn, &l.Iteration, &l.ToolName, &l.LatencyMS,
			&l.Success, &l.UserID, &l.CreatedAt); err != nil {
			return nil, errs.New(errs.KindPersistence, "store.toolcalllog", "scan", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// LLMCallLogStore is the append-only audit log written after each LLM
// call.
type LLMCallLogStore struct {
	adapter *db.Adapter
	userID  *string
}

// NewLLMCallLogStore constructs an LLMCallLogStore bound to adapter and
// userID.
func NewLLMCallLogStore(adapter *db.Adapter, userID *string) *LLMCallLogStore {
	return &LLMCallLogStore{adapter: adapter, userID: userID}
}

// Append records one LLM-call audit row.
func (s *LLMCallLogStore) Append(ctx context.Context, l *LLMCallLog) error {
	_, err := s.adapter.Exec(ctx,
		`INSERT INTO llm_call_logs (session_id, turn, iteration, model_name, tokens, latency_ms, ttft_ms, success, user_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.SessionID, l.Turn, l.Iteration, l.ModelName, l.Tokens, l.LatencyMS, l.TTFTMS, l.Success, s.userID, l.CreatedAt)
	if err != nil {
		return errs.New(errs.KindPersistence, "store.llmcalllog", "append", err)
	}
	return nil
}

// ListBySession returns every LLM-call log row for sessionID, ordered by
// created_at then id.
func (s *LLMCallLogStore) ListBySession(ctx context.Context, sessionID string) ([]*LLMCallLog, error) {
	clause, clauseArgs := userClause(s.userID)
	query := fmt.Sprintf(
		`SELECT id, session_id, turn, iteration, model_name, tokens, latency_ms, ttft_ms, success, user_id, created_at
		 FROM llm_call_logs WHERE session_id = ? AND %s ORDER BY created_at ASC, id ASC`, clause)
	args := append([]any{sessionID}, clauseArgs...)

	rows, err := s.adapter.Query(ctx, query, args...)
	if err != nil {
		return nil, errs.New(errs.KindPersistence, "store.llmcalllog", "list by session", err)
	}
	defer rows.Close()

	var out []*LLMCallLog
	for rows.Next() {
		l := &LLMCallLog{}
		if err := rows.Scan(&l.ID, &l.SessionID, &l.Turn, &l.Iteration, &l.ModelName, &l.Tokens,
			&l.LatencyMS, &l.TTFTMS, &l.Success, &l.UserID, &l.CreatedAt); err != nil {
			return nil, errs.New(errs.KindPersistence, "store.llmcalllog", "scan", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
