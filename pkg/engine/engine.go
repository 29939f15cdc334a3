package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sheetrtd/sheetrt/pkg/errs"
	"github.com/sheetrtd/sheetrt/pkg/llmcaller"
	"github.com/sheetrtd/sheetrt/pkg/sheettools"
	"github.com/sheetrtd/sheetrt/pkg/store"
	"github.com/sheetrtd/sheetrt/pkg/window"
)

// Engine runs the agent loop for one session. It is not safe for
// concurrent use by more than one goroutine at a time — callers running
// several sessions concurrently should hold one Engine per session.
type Engine struct {
	cfg Config

	caller   *llmcaller.Caller
	tools    ToolRegistry
	windows  *window.Manager
	memory   sheettools.PersistentMemory
	approval ApprovalGate
	masker   Masker
	logger   *slog.Logger

	messages    *store.MessageStore
	toolLogs    *store.ToolCallLogStore
	llmLogs     *store.LLMCallLogStore
	checkpoints *store.CheckpointStore
	approvals   *store.ApprovalStore

	sessionID string
	userID    *string

	// RawMessages is the full in-memory conversation log the next LLM
	// call is built from (after masking). SnapshotIndex and SessionTurn
	// are exposed for pkg/sessionmgr's persistence bridge, which decides
	// how much of RawMessages is new since the last flush.
	RawMessages   []llmcaller.Message
	SnapshotIndex int
	SessionTurn   int
}

// Deps bundles the collaborators an Engine needs, split out from Config
// so construction-time policy (iteration caps, timeouts) stays separate
// from wiring (stores, tool registry, window manager).
type Deps struct {
	Caller      *llmcaller.Caller
	Tools       ToolRegistry
	Windows     *window.Manager
	Memory      sheettools.PersistentMemory
	Approval    ApprovalGate
	Masker      Masker
	Logger      *slog.Logger
	Messages    *store.MessageStore
	ToolLogs    *store.ToolCallLogStore
	LLMLogs     *store.LLMCallLogStore
	Checkpoints *store.CheckpointStore
	Approvals   *store.ApprovalStore
}

// New constructs an Engine bound to one session. sessionID and userID
// identify the scope every store write carries.
func New(cfg Config, deps Deps, sessionID string, userID *string) *Engine {
	approval := deps.Approval
	if approval == nil {
		approval = AlwaysApprove{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		cfg:         cfg,
		caller:      deps.Caller,
		tools:       deps.Tools,
		windows:     deps.Windows,
		memory:      deps.Memory,
		approval:    approval,
		masker:      deps.Masker,
		logger:      logger,
		messages:    deps.Messages,
		toolLogs:    deps.ToolLogs,
		llmLogs:     deps.LLMLogs,
		checkpoints: deps.Checkpoints,
		approvals:   deps.Approvals,
		sessionID:   sessionID,
		userID:      userID,
	}
}

// RunTurn appends userText as a new user message, then iterates LLM
// calls and tool dispatch until the LLM returns a message with no tool
// calls, or the iteration/time budget is exhausted.
func (e *Engine) RunTurn(ctx context.Context, userText string) (*TurnResult, error) {
	turn := e.SessionTurn + 1

	if e.cfg.TurnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.TurnTimeout)
		defer cancel()
	}

	e.appendRaw(llmcaller.Message{Role: "user", Content: userText})
	if err := e.persistMessage(ctx, store.RoleUser, userText, turn, ""); err != nil {
		return nil, err
	}

	result := &TurnResult{}
	maxIterations := e.cfg.MaxIterations
	if maxIterations <= 0 {
		maxIterations = 1
	}

	for iteration := 1; iteration <= maxIterations; iteration++ {
		result.Iterations = iteration

		if err := ctx.Err(); err != nil {
			result.Truncated = true
			break
		}

		acc, err := e.callLLM(ctx, turn, iteration)
		if err != nil {
			return nil, err
		}

		assistantMsg := llmcaller.Message{Role: "assistant", Content: acc.Text, ToolCalls: acc.ToolCalls}
		e.appendRaw(assistantMsg)
		if err := e.persistMessage(ctx, store.RoleAssistant, acc.Text, turn, ""); err != nil {
			return nil, err
		}

		if len(acc.ToolCalls) == 0 {
			result.Text = acc.Text
			break
		}

		for _, tc := range acc.ToolCalls {
			result.ToolCallCount++
			content := e.dispatchTool(ctx, turn, iteration, tc)
			// ToolCalls here is a single-entry slice carrying the id this
			// tool-result message answers, not a request to call more
			// tools — pkg/obsmask joins back to the tool name through it.
			e.appendRaw(llmcaller.Message{Role: "tool", Content: content, ToolCalls: []llmcaller.ToolCall{{ID: tc.ID}}})
			if err := e.persistMessage(ctx, store.RoleTool, content, turn, tc.ID); err != nil {
				return nil, err
			}
		}

		if iteration == maxIterations {
			result.Truncated = true
		}
	}

	e.SessionTurn = turn
	if err := e.checkpoint(ctx, turn); err != nil {
		return nil, err
	}
	return result, nil
}

func (e *Engine) appendRaw(m llmcaller.Message) {
	e.RawMessages = append(e.RawMessages, m)
}

func (e *Engine) persistMessage(ctx context.Context, role store.MessageRole, content string, turn int, toolCallID string) error {
	if e.messages == nil {
		return nil
	}
	_, err := e.messages.Append(ctx, &store.Message{
		SessionID:  e.sessionID,
		Role:       role,
		Content:    content,
		TurnNumber: turn,
		ToolCallID: toolCallID,
		CreatedAt:  time.Now(),
	})
	if err != nil {
		return err
	}
	return nil
}

// callLLM advances the window manager's perception state, builds a
// request from the (masked) conversation plus the live tool registry,
// and drives it through the retrying/fallback-aware Caller.
func (e *Engine) callLLM(ctx context.Context, turn, iteration int) (*llmcaller.AccumulatedMessage, error) {
	messages := e.RawMessages
	if e.masker != nil {
		messages = e.masker.Mask(messages)
	}
	if e.windows != nil {
		plans, err := e.windows.Tick(ctx)
		if err != nil {
			e.logger.Warn("window tick failed", "session_id", e.sessionID, "error", err)
		} else if lines := e.windows.RenderAll(plans); len(lines) > 0 {
			messages = append(messages, llmcaller.Message{
				Role:    "system",
				Content: strings.Join(lines, "\n"),
			})
		}
	}

	var tools []llmcaller.ToolDefinition
	if e.tools != nil {
		tools = toolDefinitions(e.tools.Definitions())
	}

	start := time.Now()
	acc, err := e.caller.Complete(ctx, llmcaller.Request{
		Model:    e.cfg.Model,
		BaseURL:  e.cfg.BaseURL,
		Messages: messages,
		Tools:    tools,
	}, nil)
	latency := time.Since(start)

	if e.llmLogs != nil {
		logErr := e.llmLogs.Append(ctx, &store.LLMCallLog{
			SessionID: e.sessionID,
			Turn:      turn,
			Iteration: iteration,
			ModelName: e.cfg.Model,
			Success:   err == nil,
			LatencyMS: latency.Milliseconds(),
			CreatedAt: time.Now(),
			UserID:    e.userID,
			Tokens:    tokensOf(acc),
			TTFTMS:    ttftOf(acc),
		})
		if logErr != nil {
			e.logger.Warn("llm call log append failed", "session_id", e.sessionID, "error", logErr)
		}
	}

	if err != nil {
		return nil, errs.New(errs.KindTransientLLM, "engine", "llm call failed", err)
	}
	return acc, nil
}

// dispatchTool resolves and runs one tool call, gating it behind an
// approval row when the registered ApprovalGate requires one, and
// always returns a JSON string suitable for a "tool" role message —
// errors are surfaced to the model as {"error": "..."} rather than
// aborting the turn.
func (e *Engine) dispatchTool(ctx context.Context, turn, iteration int, tc llmcaller.ToolCall) string {
	start := time.Now()
	out, err := e.runTool(ctx, turn, tc)
	latency := time.Since(start)

	if e.toolLogs != nil {
		if logErr := e.toolLogs.Append(ctx, &store.ToolCallLog{
			SessionID: e.sessionID,
			Turn:      turn,
			Iteration: iteration,
			ToolName:  tc.Name,
			LatencyMS: latency.Milliseconds(),
			Success:   err == nil,
			UserID:    e.userID,
			CreatedAt: time.Now(),
		}); logErr != nil {
			e.logger.Warn("tool call log append failed", "session_id", e.sessionID, "tool", tc.Name, "error", logErr)
		}
	}

	if err != nil {
		return errorJSON(err)
	}
	return out
}

func (e *Engine) runTool(ctx context.Context, turn int, tc llmcaller.ToolCall) (string, error) {
	impl, ok := e.tools.Get(tc.Name)
	if !ok {
		return "", errs.New(errs.KindToolFailure, "engine", fmt.Sprintf("unknown tool %q", tc.Name), nil)
	}

	var args map[string]any
	if tc.Arguments != "" {
		if err := json.Unmarshal([]byte(tc.Arguments), &args); err != nil {
			return "", errs.New(errs.KindToolFailure, "engine", "invalid tool arguments", err)
		}
	}

	requiresApproval := e.approval.RequiresApproval(tc.Name)
	var approvalID string
	if requiresApproval && e.approvals != nil {
		approvalID = tc.ID
		if approvalID == "" {
			approvalID = fmt.Sprintf("%s-%d", tc.Name, time.Now().UnixNano())
		}
		rawArgs, _ := json.Marshal(args)
		if err := e.approvals.Create(ctx, &store.Approval{
			ID:        approvalID,
			ToolName:  tc.Name,
			Arguments: string(rawArgs),
			Status:    store.ApprovalPending,
			UserID:    e.userID,
			SessionID: &e.sessionID,
			CreatedAt: time.Now(),
		}); err != nil {
			return "", err
		}
	}

	result, callErr := impl.Call(sheettools.Context{Ctx: ctx, Memory: e.memory, Windows: e.windows}, args)

	if approvalID != "" {
		status := store.ApprovalSuccess
		if callErr != nil {
			status = store.ApprovalFailed
		}
		if err := e.approvals.Advance(ctx, approvalID, status, nil); err != nil {
			e.logger.Warn("approval advance failed", "session_id", e.sessionID, "tool", tc.Name, "error", err)
		}
	}

	if callErr != nil {
		return "", errs.New(errs.KindToolFailure, "engine", fmt.Sprintf("tool %q failed", tc.Name), callErr)
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return "", errs.New(errs.KindToolFailure, "engine", "tool result not serializable", err)
	}
	return string(raw), nil
}

func (e *Engine) checkpoint(ctx context.Context, turn int) error {
	if e.checkpoints == nil {
		return nil
	}
	state, err := json.Marshal(e.RawMessages)
	if err != nil {
		return errs.New(errs.KindPersistence, "engine", "checkpoint marshal", err)
	}
	maxPerSession := e.cfg.CheckpointCap
	if maxPerSession <= 0 {
		maxPerSession = 1
	}
	return e.checkpoints.Save(ctx, &store.Checkpoint{
		SessionID:  e.sessionID,
		StateJSON:  string(state),
		TurnNumber: turn,
		CreatedAt:  time.Now(),
	}, maxPerSession)
}

func toolDefinitions(defs []map[string]any) []llmcaller.ToolDefinition {
	out := make([]llmcaller.ToolDefinition, 0, len(defs))
	for _, d := range defs {
		name, _ := d["name"].(string)
		desc, _ := d["description"].(string)
		params, _ := d["parameters"].(map[string]any)
		out = append(out, llmcaller.ToolDefinition{Name: name, Description: desc, Parameters: params})
	}
	return out
}

func tokensOf(acc *llmcaller.AccumulatedMessage) int {
	if acc == nil {
		return 0
	}
	return acc.Usage.TotalTokens
}

func ttftOf(acc *llmcaller.AccumulatedMessage) int64 {
	if acc == nil {
		return 0
	}
	return acc.TTFT.Milliseconds()
}

func errorJSON(err error) string {
	raw, _ := json.Marshal(map[string]any{"error": err.Error()})
	return string(raw)
}
