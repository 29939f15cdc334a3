// Package scope binds a user's identity to a database connection and
// the set of stores built on top of it.
//
// Grounded on haasonsaas-nexus's internal/identity.Identity (an
// immutable canonical-identity value distinct from any one channel's
// peer ID) and internal/sessions.ScopedStore (a mutable wrapper that
// owns the resources — key builder, expiry — tied to that identity for
// the lifetime of one request): an immutable identity value, and a
// mutable scope that owns the resources built on top of it.
package scope

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sheetrtd/sheetrt/pkg/db"
	"github.com/sheetrtd/sheetrt/pkg/errs"
	"github.com/sheetrtd/sheetrt/pkg/store"
)

// Role is the privilege level carried by a UserContext.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleMember Role = "member"
	RoleGuest  Role = "guest"
)

// UserContext is an immutable per-request identity. AnonymousSentinel
// marks a request with no authenticated user.
type UserContext struct {
	userID        string
	role          Role
	workspaceRoot string
	isAnonymous   bool
}

// AnonymousSentinel is the db_user_id equivalent used for unauthenticated
// requests: never persisted as a literal user_id value (anonymous scopes
// always bind a nil *string), kept here only for display/logging.
const AnonymousSentinel = "anonymous"

// NewUserContext builds an authenticated identity. workspaceRoot must
// already exist.
func NewUserContext(userID string, role Role, workspaceRoot string) (*UserContext, error) {
	if userID == "" {
		return nil, errs.New(errs.KindConfig, "scope", "user id must not be empty", nil)
	}
	if _, err := os.Stat(workspaceRoot); err != nil {
		return nil, errs.New(errs.KindConfig, "scope", fmt.Sprintf("workspace root %q does not exist", workspaceRoot), err)
	}
	return &UserContext{userID: userID, role: role, workspaceRoot: workspaceRoot, isAnonymous: false}, nil
}

// NewAnonymousContext builds an unauthenticated identity scoped to
// workspaceRoot.
func NewAnonymousContext(workspaceRoot string) (*UserContext, error) {
	if _, err := os.Stat(workspaceRoot); err != nil {
		return nil, errs.New(errs.KindConfig, "scope", fmt.Sprintf("workspace root %q does not exist", workspaceRoot), err)
	}
	return &UserContext{userID: AnonymousSentinel, role: RoleGuest, workspaceRoot: workspaceRoot, isAnonymous: true}, nil
}

// UserID returns the opaque user identifier, or AnonymousSentinel.
func (c *UserContext) UserID() string { return c.userID }

// Role returns the context's privilege level.
func (c *UserContext) Role() Role { return c.role }

// WorkspaceRoot returns the filesystem root this context is scoped to.
func (c *UserContext) WorkspaceRoot() string { return c.workspaceRoot }

// IsAnonymous reports whether this context lacks an authenticated user.
func (c *UserContext) IsAnonymous() bool { return c.isAnonymous }

// dbUserID returns the *string passed to every store constructor: nil
// for anonymous contexts so queries fall onto the `user_id IS NULL`
// branch, never the literal sentinel string.
func (c *UserContext) dbUserID() *string {
	if c.isAnonymous {
		return nil
	}
	id := c.userID
	return &id
}

// UserScope owns the adapter and every store bound to one UserContext
// for the lifetime of a request. For SQLite + authenticated users it
// owns a dedicated per-user DB file; for Postgres or anonymous
// requests it shares a process-wide connection pool and Close is a
// no-op.
type UserScope struct {
	ctx     *UserContext
	adapter *db.Adapter
	owned   bool // true if this scope must Close its own adapter

	Sessions      *store.SessionStore
	Messages      *store.MessageStore
	Memory        *store.MemoryStore
	Approvals     *store.ApprovalStore
	ToolCallLogs  *store.ToolCallLogStore
	LLMCallLogs   *store.LLMCallLogStore
	WorkspaceFiles *store.WorkspaceFileStore
	Checkpoints   *store.CheckpointStore
	Rules         *store.RuleStore
	Config        *store.ConfigStore
}

// PerUserSQLitePath computes the dedicated SQLite file path for an
// authenticated user under dataDir.
func PerUserSQLitePath(dataDir, userID string) string {
	return filepath.Join(dataDir, fmt.Sprintf("user_%s.db", userID))
}

// OpenForSQLiteUser opens (creating and migrating if needed) a per-user
// SQLite database file exclusively owned by that user's scope.
func OpenForSQLiteUser(ctx context.Context, userCtx *UserContext, dataDir string) (*UserScope, error) {
	if userCtx.IsAnonymous() {
		return nil, errs.New(errs.KindConfig, "scope", "OpenForSQLiteUser requires an authenticated context", nil)
	}
	path := PerUserSQLitePath(dataDir, userCtx.UserID())
	adapter, err := db.Open(db.SQLite, "sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, adapter, store.Migrations()); err != nil {
		adapter.Close()
		return nil, err
	}
	return newScope(userCtx, adapter, true), nil
}

// OpenShared binds userCtx to an already-open, already-migrated shared
// adapter (Postgres backends, or any anonymous request — these
// never own their own connection).
func OpenShared(userCtx *UserContext, adapter *db.Adapter) *UserScope {
	return newScope(userCtx, adapter, false)
}

func newScope(userCtx *UserContext, adapter *db.Adapter, owned bool) *UserScope {
	uid := userCtx.dbUserID()
	return &UserScope{
		ctx:            userCtx,
		adapter:        adapter,
		owned:          owned,
		Sessions:       store.NewSessionStore(adapter, uid),
		Messages:       store.NewMessageStore(adapter),
		Memory:         store.NewMemoryStore(adapter, uid),
		Approvals:      store.NewApprovalStore(adapter, uid),
		ToolCallLogs:   store.NewToolCallLogStore(adapter, uid),
		LLMCallLogs:    store.NewLLMCallLogStore(adapter, uid),
		WorkspaceFiles: store.NewWorkspaceFileStore(adapter),
		Checkpoints:    store.NewCheckpointStore(adapter),
		Rules:          store.NewRuleStore(adapter),
		Config:         store.NewConfigStore(adapter, uid),
	}
}

// Context returns the identity this scope was opened for.
func (s *UserScope) Context() *UserContext { return s.ctx }

// Adapter exposes the underlying connection for components (window
// perception's vector store, engine checkpointing) that need it
// directly rather than through a pkg/store type.
func (s *UserScope) Adapter() *db.Adapter { return s.adapter }

// Close releases the scope's owned resources. A shared scope's Close is
// a no-op: the pool outlives any one request.
func (s *UserScope) Close() error {
	if !s.owned {
		return nil
	}
	return s.adapter.Close()
}
