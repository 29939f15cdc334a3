package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheetrtd/sheetrt/pkg/db"
)

func openTestDB(t *testing.T) *db.Adapter {
	t.Helper()
	a, err := db.Open(db.SQLite, "sqlite3", "file::memory:?cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	require.NoError(t, db.Migrate(context.Background(), a, Migrations()))
	return a
}

func TestMemoryStore_SaveIgnoresDuplicateHash(t *testing.T) {
	a := openTestDB(t)
	ms := NewMemoryStore(a, nil)
	ctx := context.Background()

	id := ContentHash("the quick brown fox", nil)
	e := &MemoryEntry{ID: id, Category: CategoryGeneral, Content: "the quick brown fox", Timestamp: time.Now().UTC(), Source: "test"}

	require.NoError(t, ms.Save(ctx, e))
	require.NoError(t, ms.Save(ctx, e)) // duplicate insert must be ignored, not error

	n, err := ms.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMemoryStore_EnforceCapacityDeletesOldestFirst(t *testing.T) {
	a := openTestDB(t)
	ms := NewMemoryStore(a, nil)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		content := string(rune('a' + i))
		e := &MemoryEntry{
			ID:        ContentHash(content, nil),
			Category:  CategoryGeneral,
			Content:   content,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Source:    "test",
		}
		require.NoError(t, ms.Save(ctx, e))
	}

	deleted, err := ms.EnforceCapacity(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	n, err := ms.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	remaining, err := ms.ListByCategory(ctx, CategoryGeneral)
	require.NoError(t, err)
	require.Len(t, remaining, 3)
	assert.Equal(t, "c", remaining[0].Content)
	assert.Equal(t, "e", remaining[2].Content)
}

func TestMemoryStore_UserScopeIsolatesContent(t *testing.T) {
	a := openTestDB(t)
	alice := "alice"
	msAlice := NewMemoryStore(a, &alice)
	msAnon := NewMemoryStore(a, nil)
	ctx := context.Background()

	content := "shared looking text"
	require.NoError(t, msAlice.Save(ctx, &MemoryEntry{
		ID: ContentHash(content, &alice), Category: CategoryGeneral, Content: content,
		Timestamp: time.Now().UTC(), Source: "test",
	}))
	require.NoError(t, msAnon.Save(ctx, &MemoryEntry{
		ID: ContentHash(content, nil), Category: CategoryGeneral, Content: content,
		Timestamp: time.Now().UTC(), Source: "test",
	}))

	aliceCount, err := msAlice.Count(ctx)
	require.NoError(t, err)
	anonCount, err := msAnon.Count(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, aliceCount)
	assert.Equal(t, 1, anonCount)
}
