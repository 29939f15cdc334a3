package sessionmgr

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheetrtd/sheetrt/pkg/db"
	"github.com/sheetrtd/sheetrt/pkg/manifest"
	"github.com/sheetrtd/sheetrt/pkg/rules"
	"github.com/sheetrtd/sheetrt/pkg/scope"
	"github.com/sheetrtd/sheetrt/pkg/store"
)

func testManager(t *testing.T) (*Manager, *scope.UserScope) {
	t.Helper()
	adapter, err := db.Open(db.SQLite, "sqlite3", "file::memory:?cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { adapter.Close() })
	require.NoError(t, db.Migrate(context.Background(), adapter, store.Migrations()))

	userCtx, err := scope.NewAnonymousContext(t.TempDir())
	require.NoError(t, err)
	sc := scope.OpenShared(userCtx, adapter)

	globalRules := rules.NewGlobalStore(filepath.Join(t.TempDir(), "rules.yaml"))
	scanner := manifest.NewScanner()
	return NewManager(sc, globalRules, scanner, nil), sc
}

func TestManager_EnsureSession_CreatesWhenAbsent(t *testing.T) {
	m, _ := testManager(t)
	sess, err := m.EnsureSession(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", sess.ID)
	assert.Equal(t, store.TitleUnset, sess.TitleSource)
}

func TestManager_EnsureSession_LoadsExisting(t *testing.T) {
	m, sc := testManager(t)
	ctx := context.Background()
	first, err := m.EnsureSession(ctx, "sess-1")
	require.NoError(t, err)
	require.NoError(t, sc.Sessions.UpdateTitle(ctx, first.ID, "My Sheet", store.TitleUser))

	second, err := m.EnsureSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "My Sheet", second.Title)
	assert.Equal(t, store.TitleUser, second.TitleSource)
}

func TestManager_RehydrateMessages_NoneWhenNoCheckpoint(t *testing.T) {
	m, _ := testManager(t)
	msgs, turn, err := m.RehydrateMessages(context.Background(), "fresh-session")
	require.NoError(t, err)
	assert.Nil(t, msgs)
	assert.Equal(t, 0, turn)
}

func TestManager_RehydrateMessages_DecodesLatestCheckpoint(t *testing.T) {
	m, sc := testManager(t)
	ctx := context.Background()
	_, err := m.EnsureSession(ctx, "sess-1")
	require.NoError(t, err)

	require.NoError(t, sc.Checkpoints.Save(ctx, &store.Checkpoint{
		SessionID:  "sess-1",
		StateJSON:  `[{"Role":"user","Content":"hello"},{"Role":"assistant","Content":"hi"}]`,
		TurnNumber: 3,
	}, 5))

	msgs, turn, err := m.RehydrateMessages(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "hello", msgs[0].Content)
	assert.Equal(t, 3, turn)
}

func TestManager_BuildManifest_PersistsAndReloads(t *testing.T) {
	m, _ := testManager(t)
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "sales.csv"), []byte("a,b\n1,2\n"), 0o644))

	fresh, err := m.BuildManifest(context.Background(), root, nil)
	require.NoError(t, err)
	require.Len(t, fresh.Files, 1)

	reloaded, err := m.LoadManifest(context.Background(), root)
	require.NoError(t, err)
	require.NotNil(t, reloaded)
	require.Len(t, reloaded.Files, 1)
	assert.Equal(t, "sales.csv", reloaded.Files[0].Path)
}

func TestManager_LoadManifest_NilWhenNeverScanned(t *testing.T) {
	m, _ := testManager(t)
	got, err := m.LoadManifest(context.Background(), "/never/scanned")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestManager_SystemPrompt_IncludesManifestAndRules(t *testing.T) {
	m, sc := testManager(t)
	ctx := context.Background()
	_, err := m.EnsureSession(ctx, "sess-1")
	require.NoError(t, err)
	require.NoError(t, m.globalRules.Add("g1", "Always use USD"))
	require.NoError(t, sc.Rules.Create(ctx, &store.Rule{ID: "r1", Content: "Keep a backup sheet", Enabled: true, Scope: store.RuleSession, SessionID: "sess-1"}))

	ws := &manifest.Manifest{WorkspaceRoot: "/ws", Files: []manifest.FileEntry{{Path: "a.csv", Name: "a.csv"}}}
	prompt, err := m.SystemPrompt(ctx, "sess-1", ws)
	require.NoError(t, err)
	assert.Contains(t, prompt, "/ws")
	assert.Contains(t, prompt, "Always use USD")
	assert.Contains(t, prompt, "Keep a backup sheet")
}

func TestManager_FlushSnapshot_CreatesSessionAndCountsDelta(t *testing.T) {
	m, sc := testManager(t)
	ctx := context.Background()

	result, err := m.FlushSnapshot(ctx, Snapshot{
		SessionID:     "brand-new",
		UserText:      "please total column B",
		RawMessages:   2,
		SnapshotIndex: 0,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.NewSnapshotIndex)
	assert.Equal(t, 2, result.MessagesFlushed)

	sess, err := sc.Sessions.Get(ctx, "brand-new")
	require.NoError(t, err)
	assert.Equal(t, "please total column B", sess.Title)
	assert.Equal(t, 2, sess.MessageCount)
}

func TestManager_FlushSnapshot_SkipsSessionCreateWhenExisting(t *testing.T) {
	m, sc := testManager(t)
	ctx := context.Background()
	_, err := m.EnsureSession(ctx, "sess-1")
	require.NoError(t, err)
	require.NoError(t, sc.Sessions.UpdateTitle(ctx, "sess-1", "Kept Title", store.TitleUser))

	_, err = m.FlushSnapshot(ctx, Snapshot{SessionID: "sess-1", UserText: "ignored", RawMessages: 3, SnapshotIndex: 1})
	require.NoError(t, err)

	sess, err := sc.Sessions.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "Kept Title", sess.Title)
	assert.Equal(t, 2, sess.MessageCount)
}

func TestManager_SyncTitle_OnlyWritesWhenSourceUnset(t *testing.T) {
	m, sc := testManager(t)
	ctx := context.Background()
	_, err := m.EnsureSession(ctx, "sess-1")
	require.NoError(t, err)

	require.NoError(t, m.SyncTitle(ctx, "sess-1", "Budget Q1"))
	sess, err := sc.Sessions.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "Budget Q1", sess.Title)
	assert.Equal(t, store.TitleAuto, sess.TitleSource)

	// Once set, a second sync must not override it.
	require.NoError(t, m.SyncTitle(ctx, "sess-1", "Something Else"))
	sess, err = sc.Sessions.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "Budget Q1", sess.Title)
}
