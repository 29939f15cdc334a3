// Package vectorindex implements a pure-Go vector store: content-hash
// deduped rows backed either by a flat file pair (JSONL metadata +
// packed float32 binary) or by pkg/store's VectorRecord table, both
// exposing the same cosine top-k search over an in-memory copy of the
// rows.
//
// Grounded in shape on haasonsaas-nexus's
// internal/memory/backend.Backend interface and its sqlitevec.Backend
// implementation (a pure-Go, embeddable backend behind that interface,
// via modernc.org/sqlite rather than cgo) — kept as a pure-Go, optional-
// persistence Store rather than a literal sqlitevec wrapper because the
// bit-exact float32 round-trip and content-hash dedup invariants need a
// custom on-disk layout sqlitevec's vec0-extension schema does not
// expose; the provider-interface shape is theirs.
package vectorindex

import (
	"context"
	"math"

	"github.com/sheetrtd/sheetrt/pkg/errs"
)

// Record is one entry in a vector index.
type Record struct {
	ContentHash string
	Text        string
	Metadata    string // JSON
	Vector      []float32
}

// ScoredRecord pairs a Record with its cosine similarity to a query
// vector.
type ScoredRecord struct {
	Record
	Score float32
}

// Store is the common interface both backends implement.
type Store interface {
	// AddBatch inserts rows, skipping any whose ContentHash already
	// exists, and returns how many rows were newly added.
	AddBatch(ctx context.Context, rows []Record) (added int, err error)
	// Search returns the topK rows most similar to query by cosine
	// similarity, descending.
	Search(ctx context.Context, query []float32, topK int) ([]ScoredRecord, error)
	// Len reports the current row count.
	Len(ctx context.Context) (int, error)
	// Dimensions reports the fixed vector width of this store, or 0 if
	// empty.
	Dimensions(ctx context.Context) (int, error)
}

// cosineSimilarity computes the cosine similarity between a and b. Both
// must be the same length and non-zero; callers (AddBatch) are
// responsible for rejecting dimension mismatches before this is called.
func cosineSimilarity(a, b []float32) float32 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// topK sorts candidates by score, descending, and returns the first k
// of them (all of them when k <= 0 or k >= len(candidates)).
func topK(candidates []ScoredRecord, k int) []ScoredRecord {
	if k <= 0 || k >= len(candidates) {
		sortDescending(candidates)
		return candidates
	}
	sortDescending(candidates)
	return candidates[:k]
}

func sortDescending(rows []ScoredRecord) {
	for i := 1; i < len(rows); i++ {
		j := i
		for j > 0 && rows[j-1].Score < rows[j].Score {
			rows[j-1], rows[j] = rows[j], rows[j-1]
			j--
		}
	}
}

func validateDimensions(existing int, vec []float32) error {
	if existing != 0 && len(vec) != existing {
		return errs.New(errs.KindIngestFailure, "vectorindex",
			"vector dimension mismatch with existing store", nil)
	}
	return nil
}
