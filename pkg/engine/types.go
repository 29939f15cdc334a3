// Package engine drives the per-turn agent loop: append the user
// message, call the LLM (with the window manager's rendered perception
// state folded in as a system message), dispatch any tool calls through
// an approval gate, append tool results, and repeat until the LLM
// returns a terminal message or the iteration/time budget is exhausted.
// Tool results are appended to the conversation as the tool returned
// them; they are not passed to the window manager for ingest.
// Grounded on haasonsaas-nexus's internal/agent.LoopConfig, which
// bounds the same loop with
// MaxIterations/MaxWallTime/MaxToolCalls and gates tool calls through
// an ApprovalChecker before they run.
package engine

import (
	"time"

	"github.com/sheetrtd/sheetrt/pkg/llmcaller"
	"github.com/sheetrtd/sheetrt/pkg/sheettools"
)

// ToolRegistry is the narrow lookup surface the engine needs out of
// sheettools.Registry (kept as an interface so tests can substitute a
// fake set of tools without touching the real one).
type ToolRegistry interface {
	Get(name string) (sheettools.Tool, bool)
	Definitions() []map[string]any
}

// Masker rewrites a message list before it goes to the LLM (e.g.
// collapsing stale tool-result content). A nil Masker is a no-op. The
// interface is satisfied structurally by pkg/obsmask.Masker; engine
// does not import that package so the two can evolve independently.
type Masker interface {
	Mask(messages []llmcaller.Message) []llmcaller.Message
}

// ApprovalGate decides whether a tool call must pause for approval
// before it runs, mirroring haasonsaas-nexus's internal/agent.ApprovalChecker
// and its Allowed/Denied/Pending ApprovalDecision outcomes.
type ApprovalGate interface {
	RequiresApproval(toolName string) bool
}

// AlwaysApprove never gates a tool call; it is the default ApprovalGate
// for tool sets with no side-effectful tools.
type AlwaysApprove struct{}

func (AlwaysApprove) RequiresApproval(string) bool { return false }

// Config holds the construction-time knobs a Engine does not need to
// vary per turn.
type Config struct {
	Model   string
	BaseURL string

	// MaxIterations bounds how many LLM round-trips a single turn may
	// take before it is forcibly truncated.
	MaxIterations int
	// TurnTimeout bounds the wall-clock duration of a single turn; zero
	// means no deadline beyond ctx's own.
	TurnTimeout time.Duration
	// CheckpointCap is the max number of checkpoints retained per
	// session (oldest evicted), passed through to CheckpointStore.Save.
	CheckpointCap int
}

// DefaultConfig returns sane defaults: 12 LLM round-trips, a two-minute
// wall-clock turn budget, 5 retained checkpoints per session.
func DefaultConfig(model, baseURL string) Config {
	return Config{
		Model:         model,
		BaseURL:       baseURL,
		MaxIterations: 12,
		TurnTimeout:   2 * time.Minute,
		CheckpointCap: 5,
	}
}

// TurnResult summarizes one completed (or truncated) turn.
type TurnResult struct {
	Text          string
	Iterations    int
	ToolCallCount int
	Truncated     bool
}
