// Package store holds one CRUD type per table of the runtime's scoped
// persistence layer. Every store is constructed with a db.Adapter and an
// optional user id, and every query on a user-owned table appends
// `user_id IS NULL` or `user_id = ?` accordingly.
//
// Grounded on haasonsaas-nexus's internal/sessions.CockroachStore,
// which carries (db *sql.DB, driver-specific prepared statements) on a
// service struct and builds queries against it method by method.
package store

import "time"

// SessionStatus is the lifecycle state of a Session.
type SessionStatus string

const (
	SessionActive   SessionStatus = "active"
	SessionArchived SessionStatus = "archived"
)

// TitleSource records how a Session's title was set.
type TitleSource string

const (
	TitleAuto   TitleSource = "auto"
	TitleUser   TitleSource = "user"
	TitleUnset  TitleSource = "unset"
)

// Session is the persisted session-row entity.
type Session struct {
	ID           string
	Title        string
	TitleSource  TitleSource
	CreatedAt    time.Time
	UpdatedAt    time.Time
	MessageCount int
	Status       SessionStatus
	UserID       *string
}

// MessageRole is one of the four roles a Message may carry.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleTool      MessageRole = "tool"
	RoleSystem    MessageRole = "system"
)

// Message is the persisted message entity: append-only, ordered by ID
// within a session.
type Message struct {
	ID          int64
	SessionID   string
	Role        MessageRole
	Content     string // JSON-serialised original payload
	TurnNumber  int
	ToolCallID  string
	CreatedAt   time.Time
}

// MemoryCategory classifies a MemoryEntry.
type MemoryCategory string

const (
	CategoryFilePattern    MemoryCategory = "file_pattern"
	CategoryUserPref       MemoryCategory = "user_pref"
	CategoryErrorSolution  MemoryCategory = "error_solution"
	CategoryGeneral        MemoryCategory = "general"
)

// MemoryEntry is the persisted memory entity. ID is a 12-hex hash of
// category+content-prefix+timestamp (see pmemory.NewEntryID).
type MemoryEntry struct {
	ID        string
	Category  MemoryCategory
	Content   string
	Timestamp time.Time
	Source    string
	UserID    *string
}

// VectorRecord is the persisted vector-index entity.
type VectorRecord struct {
	ContentHash string // 16-hex
	Text        string
	Metadata    string // JSON
	Vector      []float32
	Dimensions  int
}

// ApprovalStatus is the lifecycle state of an Approval.
type ApprovalStatus string

const (
	ApprovalPending ApprovalStatus = "pending"
	ApprovalSuccess ApprovalStatus = "success"
	ApprovalFailed  ApprovalStatus = "failed"
)

// Approval is the persisted approval entity: created before a
// side-effectful tool runs, never mutated after it reaches a terminal
// status.
type Approval struct {
	ID            string
	ToolName      string
	Arguments     string // JSON
	ToolScope     string
	Status        ApprovalStatus
	Undoable      bool
	ArtefactPaths []string
	UserID        *string
	SessionID     *string
	CreatedAt     time.Time
}

// ToolCallLog is an append-only audit row written after each tool call.
type ToolCallLog struct {
	ID         int64
	SessionID  string
	Turn       int
	Iteration  int
	ToolName   string
	LatencyMS  int64
	Success    bool
	UserID     *string
	CreatedAt  time.Time
}

// LLMCallLog is an append-only audit row written after each LLM call.
type LLMCallLog struct {
	ID         int64
	SessionID  string
	Turn       int
	Iteration  int
	ModelName  string
	Tokens     int
	LatencyMS  int64
	TTFTMS     int64
	Success    bool
	UserID     *string
	CreatedAt  time.Time
}

// WorkspaceFile is one row of a scanned WorkspaceManifest.
type WorkspaceFile struct {
	WorkspaceRoot string
	Path          string
	Name          string
	Size          int64
	ModTime       time.Time
	SheetsJSON    string // JSON-encoded []SheetSummary
}

// Checkpoint is the persisted checkpoint entity: written every turn,
// with at most N retained per session (oldest evicted).
type Checkpoint struct {
	SessionID     string
	StateJSON     string
	TaskListJSON  string
	TurnNumber    int
	CreatedAt     time.Time
}

// RuleScope distinguishes a global rule (persisted to YAML) from a
// session rule (persisted to DB).
type RuleScope string

const (
	RuleGlobal  RuleScope = "global"
	RuleSession RuleScope = "session"
)

// Rule is the persisted rule entity.
type Rule struct {
	ID        string
	Content   string
	Enabled   bool
	Scope     RuleScope
	SessionID string // only set when Scope == RuleSession
	CreatedAt time.Time
}

// ConfigEntry is a single persisted key/value configuration row, scoped
// the same way as every other user-owned table.
type ConfigEntry struct {
	Key       string
	Value     string
	UserID    *string
	UpdatedAt time.Time
}
