// Package sessionmgr is the glue layer above pkg/engine: it creates or
// loads a Session row, rehydrates a resumed engine's conversation from
// its latest checkpoint, builds/refreshes the workspace manifest,
// composes the system prompt from global+session rules, synthesizes
// session titles, and bridges the engine's in-memory snapshot fields
// back to pkg/store. Grounded on haasonsaas-nexus's
// internal/sessions.ScopedStore (GetOrCreateScoped's find-else-create
// orchestration over a lower-level Store) and internal/agent's
// CompactionManager/checkpoint-style session-state tracking.
package sessionmgr

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/sheetrtd/sheetrt/pkg/errs"
	"github.com/sheetrtd/sheetrt/pkg/llmcaller"
	"github.com/sheetrtd/sheetrt/pkg/manifest"
	"github.com/sheetrtd/sheetrt/pkg/rules"
	"github.com/sheetrtd/sheetrt/pkg/scope"
	"github.com/sheetrtd/sheetrt/pkg/store"
)

// SynthesizedTitleMaxChars and FallbackTitleMaxChars bound the length
// of an auto-derived session title:
// an LLM-synthesized title is capped short (5-10 characters), while
// the lazily-created fallback title instead truncates the first user
// message to 80 characters.
const (
	SynthesizedTitleMaxChars = 10
	FallbackTitleMaxChars    = 80
)

// Manager orchestrates session lifecycle for one UserScope.
type Manager struct {
	scope       *scope.UserScope
	globalRules *rules.GlobalStore
	scanner     *manifest.Scanner
	logger      *slog.Logger
}

// NewManager constructs a Manager bound to scope, reading/writing global
// rules through globalRules and scanning workspaces through scanner.
func NewManager(sc *scope.UserScope, globalRules *rules.GlobalStore, scanner *manifest.Scanner, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{scope: sc, globalRules: globalRules, scanner: scanner, logger: logger}
}

// EnsureSession loads sessionID if it exists, or creates it with an
// unset title — the title is filled in lazily on first user message.
func (m *Manager) EnsureSession(ctx context.Context, sessionID string) (*store.Session, error) {
	sess, err := m.scope.Sessions.Get(ctx, sessionID)
	if err == nil {
		return sess, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	now := time.Now().UTC()
	created := &store.Session{
		ID:          sessionID,
		Title:       "",
		TitleSource: store.TitleUnset,
		CreatedAt:   now,
		UpdatedAt:   now,
		Status:      store.SessionActive,
	}
	if err := m.scope.Sessions.Create(ctx, created); err != nil {
		return nil, err
	}
	return created, nil
}

// RehydrateMessages loads the latest checkpoint for sessionID, if any,
// and decodes its snapshotted conversation back into the shape an
// Engine's RawMessages field expects. Returns (nil, 0) when no
// checkpoint exists yet (a brand new session).
func (m *Manager) RehydrateMessages(ctx context.Context, sessionID string) ([]llmcaller.Message, int, error) {
	cp, err := m.scope.Checkpoints.Latest(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, nil
		}
		return nil, 0, err
	}
	var messages []llmcaller.Message
	if err := json.Unmarshal([]byte(cp.StateJSON), &messages); err != nil {
		return nil, 0, errs.New(errs.KindPersistence, "sessionmgr", "decode checkpoint state", err)
	}
	return messages, cp.TurnNumber, nil
}

// BuildManifest scans (or incrementally refreshes) workspaceRoot and
// persists the result, replacing any previously stored rows for that
// root wholesale.
func (m *Manager) BuildManifest(ctx context.Context, workspaceRoot string, prev *manifest.Manifest) (*manifest.Manifest, error) {
	var (
		fresh *manifest.Manifest
		err   error
	)
	if prev != nil {
		fresh, err = m.scanner.Refresh(prev, workspaceRoot)
	} else {
		fresh, err = m.scanner.Build(workspaceRoot)
	}
	if err != nil {
		return nil, err
	}

	rows, err := manifest.ToRows(fresh)
	if err != nil {
		return nil, err
	}
	if err := m.scope.WorkspaceFiles.ReplaceAll(ctx, workspaceRoot, rows); err != nil {
		return nil, err
	}
	return fresh, nil
}

// LoadManifest reconstructs the last-persisted manifest for
// workspaceRoot, or nil if nothing has been scanned yet.
func (m *Manager) LoadManifest(ctx context.Context, workspaceRoot string) (*manifest.Manifest, error) {
	rows, err := m.scope.WorkspaceFiles.ListByWorkspace(ctx, workspaceRoot)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return manifest.FromRows(workspaceRoot, rows)
}

// SystemPrompt composes the block injected ahead of every session's
// conversation: the workspace manifest summary, then compiled
// global+session rules.
func (m *Manager) SystemPrompt(ctx context.Context, sessionID string, ws *manifest.Manifest) (string, error) {
	global, err := m.globalRules.Load()
	if err != nil {
		return "", err
	}
	session, err := m.scope.Rules.ListBySession(ctx, sessionID)
	if err != nil {
		return "", err
	}

	var b []string
	b = append(b, manifest.Summary(ws))
	if composed := rules.Compose(global, session); composed != "" {
		b = append(b, composed)
	}
	out := b[0]
	for _, part := range b[1:] {
		out += "\n\n" + part
	}
	return out, nil
}
