package pmemory

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheetrtd/sheetrt/pkg/db"
	"github.com/sheetrtd/sheetrt/pkg/store"
)

func newTestService(t *testing.T, maxEntries int) *Service {
	t.Helper()
	a, err := db.Open(db.SQLite, "sqlite3", "file::memory:?cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	require.NoError(t, db.Migrate(context.Background(), a, store.Migrations()))
	return NewService(store.NewMemoryStore(a, nil), maxEntries)
}

func TestService_SaveRejectsBlankContent(t *testing.T) {
	s := newTestService(t, 10)
	_, err := s.Save(context.Background(), store.CategoryGeneral, "   ", "test")
	assert.Error(t, err)
}

func TestService_SaveDedupesIdenticalContent(t *testing.T) {
	s := newTestService(t, 10)
	ctx := context.Background()

	_, err := s.Save(ctx, store.CategoryUserPref, "prefers dark mode", "test")
	require.NoError(t, err)
	_, err = s.Save(ctx, store.CategoryUserPref, "prefers dark mode", "test")
	require.NoError(t, err)

	out, err := s.ReadTopic(ctx, store.CategoryUserPref)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "prefers dark mode"))
}

func TestFormatMarkdown_ParseMarkdown_RoundTrip(t *testing.T) {
	ts1, err := time.Parse("2006-01-02 15:04", "2026-03-01 10:00")
	require.NoError(t, err)
	ts2, err := time.Parse("2006-01-02 15:04", "2026-03-02 11:30")
	require.NoError(t, err)

	entries := []*store.MemoryEntry{
		{Content: "use xlsx not csv", Timestamp: ts1},
		{Content: "retry on 429", Timestamp: ts2},
	}
	block := FormatMarkdown(store.CategoryErrorSolution, entries)

	category, parsed, err := ParseMarkdown(block)
	require.NoError(t, err)
	assert.Equal(t, store.CategoryErrorSolution, category)
	require.Len(t, parsed, 2)
	assert.Equal(t, "use xlsx not csv", parsed[0].Content)
	assert.Equal(t, "retry on 429", parsed[1].Content)
	assert.True(t, ts1.Equal(parsed[0].Timestamp))
}

func TestService_EnforcesCapacityAfterSave(t *testing.T) {
	s := newTestService(t, 2)
	ctx := context.Background()

	_, err := s.Save(ctx, store.CategoryGeneral, "first", "test")
	require.NoError(t, err)
	_, err = s.Save(ctx, store.CategoryGeneral, "second", "test")
	require.NoError(t, err)
	_, err = s.Save(ctx, store.CategoryGeneral, "third", "test")
	require.NoError(t, err)

	out, err := s.ReadTopic(ctx, store.CategoryGeneral)
	require.NoError(t, err)
	assert.NotContains(t, out, "first")
	assert.Contains(t, out, "second")
	assert.Contains(t, out, "third")
}
