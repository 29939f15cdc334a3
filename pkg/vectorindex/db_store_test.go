package vectorindex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheetrtd/sheetrt/pkg/db"
	"github.com/sheetrtd/sheetrt/pkg/store"
)

func openTestDBStore(t *testing.T) *DBStore {
	t.Helper()
	a, err := db.Open(db.SQLite, "sqlite3", "file::memory:?cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	require.NoError(t, db.Migrate(context.Background(), a, store.Migrations()))
	return NewDBStore(a, nil)
}

func TestDBStore_AddBatchDedupesAndRoundTrips(t *testing.T) {
	s := openTestDBStore(t)
	ctx := context.Background()

	vec := []float32{0.5, -0.25, 3.0}
	added, err := s.AddBatch(ctx, []Record{{ContentHash: "h1", Text: "a", Metadata: "{}", Vector: vec}})
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	added, err = s.AddBatch(ctx, []Record{{ContentHash: "h1", Text: "a", Metadata: "{}", Vector: vec}})
	require.NoError(t, err)
	assert.Equal(t, 0, added)

	results, err := s.Search(ctx, vec, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, vec, results[0].Vector)
}

func TestDBStore_CacheInvalidatesOnAdd(t *testing.T) {
	s := openTestDBStore(t)
	ctx := context.Background()

	n, err := s.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = s.AddBatch(ctx, []Record{{ContentHash: "h1", Vector: []float32{1, 0}}})
	require.NoError(t, err)

	dim, err := s.Dimensions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, dim)

	_, err = s.AddBatch(ctx, []Record{{ContentHash: "h2", Vector: []float32{0, 1}}})
	require.NoError(t, err)

	results, err := s.Search(ctx, []float32{0, 1}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "h2", results[0].ContentHash)
}
