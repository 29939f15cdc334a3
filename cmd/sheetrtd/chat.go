package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/sheetrtd/sheetrt/pkg/config"
	"github.com/sheetrtd/sheetrt/pkg/db"
	"github.com/sheetrtd/sheetrt/pkg/engine"
	"github.com/sheetrtd/sheetrt/pkg/errs"
	"github.com/sheetrtd/sheetrt/pkg/llmcaller"
	"github.com/sheetrtd/sheetrt/pkg/manifest"
	"github.com/sheetrtd/sheetrt/pkg/obsmask"
	"github.com/sheetrtd/sheetrt/pkg/pmemory"
	"github.com/sheetrtd/sheetrt/pkg/rules"
	"github.com/sheetrtd/sheetrt/pkg/scope"
	"github.com/sheetrtd/sheetrt/pkg/sessionmgr"
	"github.com/sheetrtd/sheetrt/pkg/sheettools"
	"github.com/sheetrtd/sheetrt/pkg/store"
	"github.com/sheetrtd/sheetrt/pkg/window"
)

// chatArgs holds the flags bound to the chat subcommand.
type chatArgs struct {
	User    string
	Session string
	DataDir string
}

// chatCmd builds the "chat" subcommand, which starts an interactive
// chat session against one workspace.
func chatCmd() *cobra.Command {
	c := &chatArgs{}
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run()
		},
	}
	cmd.Flags().StringVar(&c.User, "user", "", "authenticated user id (empty runs anonymously, single shared database)")
	cmd.Flags().StringVar(&c.Session, "session", "", "session id to resume (a new one is generated if empty)")
	cmd.Flags().StringVar(&c.DataDir, "data-dir", ".sheetrt", "directory holding the SQLite database file(s)")
	return cmd
}

func (c *chatArgs) run() error {
	ctx, cancel := setupSignalContext()
	defer cancel()

	cfg, err := config.Load(cli.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	sc, err := c.openScope(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open scope: %w", err)
	}
	defer sc.Close()

	sessionID := c.Session
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	globalRules := rules.NewGlobalStore(cfg.Rules.GlobalPath)
	scanner := manifest.NewScanner(cfg.Workspace.Exclude...)
	mgr := sessionmgr.NewManager(sc, globalRules, scanner, slog.Default())

	if _, err := mgr.EnsureSession(ctx, sessionID); err != nil {
		return fmt.Errorf("ensure session: %w", err)
	}

	ws, err := mgr.BuildManifest(ctx, cfg.Workspace.Root, nil)
	if err != nil {
		return fmt.Errorf("scan workspace: %w", err)
	}
	systemPrompt, err := mgr.SystemPrompt(ctx, sessionID, ws)
	if err != nil {
		return fmt.Errorf("compose system prompt: %w", err)
	}

	rawMessages, snapshotIndex, err := mgr.RehydrateMessages(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("rehydrate session: %w", err)
	}

	client := llmcaller.NewOpenAIClient(cfg.LLM.BaseURL, cfg.LLM.APIKey)
	caller := llmcaller.NewCaller(client, llmcaller.DefaultRetryConfig())

	memSvc := pmemory.NewService(sc.Memory, pmemory.DefaultMaxEntries)

	budget := window.DefaultPerceptionBudget()
	windows := window.NewManager(budget, cfg.LLM.Model, nil, unimplementedRefill)

	eng := engine.New(engine.DefaultConfig(cfg.LLM.Model, cfg.LLM.BaseURL), engine.Deps{
		Caller:      caller,
		Tools:       sheettools.NewRegistry(),
		Windows:     windows,
		Memory:      memSvc,
		Masker:      obsmask.NewMasker(budget.StickyTurns),
		Logger:      slog.Default(),
		Messages:    sc.Messages,
		ToolLogs:    sc.ToolCallLogs,
		LLMLogs:     sc.LLMCallLogs,
		Checkpoints: sc.Checkpoints,
		Approvals:   sc.Approvals,
	}, sessionID, dbUserIDFor(c.User))
	eng.RawMessages = append([]llmcaller.Message{{Role: "system", Content: systemPrompt}}, rawMessages...)
	eng.SnapshotIndex = snapshotIndex

	return runREPL(ctx, eng)
}

// openScope opens the persistence layer for the configured dialect.
// SQLite, authenticated: a dedicated per-user file under DataDir.
// Anything else (anonymous, or Postgres): one shared, migrated
// connection pool bound to the context.
func (c *chatArgs) openScope(ctx context.Context, cfg *config.Config) (*scope.UserScope, error) {
	dialect, err := db.ParseDialect(cfg.Database.Dialect())
	if err != nil {
		return nil, err
	}

	if dialect == db.SQLite && c.User != "" {
		userCtx, err := scope.NewUserContext(c.User, scope.RoleOwner, cfg.Workspace.Root)
		if err != nil {
			return nil, err
		}
		return scope.OpenForSQLiteUser(ctx, userCtx, c.DataDir)
	}

	userCtx, err := scope.NewAnonymousContext(cfg.Workspace.Root)
	if err != nil {
		return nil, err
	}
	dsn := cfg.Database.DSN()
	if dialect == db.SQLite {
		if err := os.MkdirAll(c.DataDir, 0o755); err != nil {
			return nil, errs.New(errs.KindConfig, "sheetrtd", "create data dir", err)
		}
		dsn = dsn + "?_journal_mode=WAL&_busy_timeout=5000"
	}
	adapter, err := db.Open(dialect, db.DriverFor(dialect), dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, adapter, store.Migrations()); err != nil {
		adapter.Close()
		return nil, err
	}
	return scope.OpenShared(userCtx, adapter), nil
}

func dbUserIDFor(user string) *string {
	if user == "" {
		return nil
	}
	return &user
}

// unimplementedRefill stands in for the concrete spreadsheet-engine
// refill hook; spreadsheet read/write is a declared external
// collaborator (black-box tool), not part of this runtime.
func unimplementedRefill(ctx context.Context, filePath, sheetName, rangeRef string) ([]map[string]any, error) {
	return nil, errs.New(errs.KindConfig, "sheetrtd", fmt.Sprintf("no spreadsheet backend configured to refill %s!%s %s", filePath, sheetName, rangeRef), nil)
}

func runREPL(ctx context.Context, eng *engine.Engine) error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("sheetrtd ready. Type your instruction, or /quit to exit.")
	for {
		fmt.Print("you> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "/quit" || line == "/exit" {
			return nil
		}

		result, err := eng.RunTurn(ctx, line)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		fmt.Printf("assistant> %s\n", result.Text)
		if result.Truncated {
			fmt.Println("(turn truncated: iteration or time budget exhausted)")
		}
	}
}
