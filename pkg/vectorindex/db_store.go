package vectorindex

import (
	"context"
	"encoding/binary"
	"math"
	"sync"

	"github.com/sheetrtd/sheetrt/pkg/db"
	"github.com/sheetrtd/sheetrt/pkg/errs"
)

// DBStore is the blob-per-row backend, storing vectors in the
// vector_records table created by pkg/store's migrations. It keeps an
// in-memory cache of the rows, rebuilt lazily after AddBatch adds a row,
// so Search never pays a per-row deserialize cost on the hot path.
type DBStore struct {
	adapter *db.Adapter
	userID  *string

	mu         sync.RWMutex
	cache      []Record
	cacheValid bool
	dimensions int
}

// NewDBStore constructs a DBStore bound to adapter and userID.
func NewDBStore(adapter *db.Adapter, userID *string) *DBStore {
	return &DBStore{adapter: adapter, userID: userID}
}

func packVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:i*4+4], math.Float32bits(f))
	}
	return buf
}

func unpackVector(buf []byte) []float32 {
	out := make([]float32, len(buf)/4)
	for i := range out {
		bits := binary.LittleEndian.Uint32(buf[i*4 : i*4+4])
		out[i] = math.Float32frombits(bits)
	}
	return out
}

// AddBatch inserts rows not already present by ContentHash, ignoring
// duplicates via the underlying table's primary key.
func (s *DBStore) AddBatch(ctx context.Context, rows []Record) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, r := range rows {
		if s.dimensions != 0 && len(r.Vector) != s.dimensions {
			return added, errs.New(errs.KindIngestFailure, "vectorindex.db", "vector dimension mismatch with existing store", nil)
		}
		res, err := s.adapter.Exec(ctx,
			`INSERT OR IGNORE INTO vector_records (content_hash, text, metadata, vector, dimensions, user_id)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			r.ContentHash, r.Text, r.Metadata, packVector(r.Vector), len(r.Vector), s.userID)
		if err != nil {
			return added, errs.New(errs.KindPersistence, "vectorindex.db", "insert", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return added, errs.New(errs.KindPersistence, "vectorindex.db", "rows affected", err)
		}
		if n > 0 {
			added++
			if s.dimensions == 0 {
				s.dimensions = len(r.Vector)
			}
		}
	}
	if added > 0 {
		s.cacheValid = false
	}
	return added, nil
}

func (s *DBStore) rebuildCacheLocked(ctx context.Context) error {
	if s.cacheValid {
		return nil
	}
	clause := "user_id IS NULL"
	var args []any
	if s.userID != nil {
		clause = "user_id = ?"
		args = append(args, *s.userID)
	}
	rows, err := s.adapter.Query(ctx,
		"SELECT content_hash, text, metadata, vector, dimensions FROM vector_records WHERE "+clause, args...)
	if err != nil {
		return errs.New(errs.KindPersistence, "vectorindex.db", "rebuild cache query", err)
	}
	defer rows.Close()

	var cache []Record
	dim := 0
	for rows.Next() {
		var r Record
		var vecBytes []byte
		var dimensions int
		if err := rows.Scan(&r.ContentHash, &r.Text, &r.Metadata, &vecBytes, &dimensions); err != nil {
			return errs.New(errs.KindPersistence, "vectorindex.db", "scan", err)
		}
		r.Vector = unpackVector(vecBytes)
		cache = append(cache, r)
		dim = dimensions
	}
	if err := rows.Err(); err != nil {
		return errs.New(errs.KindPersistence, "vectorindex.db", "iterate cache rows", err)
	}
	s.cache = cache
	s.dimensions = dim
	s.cacheValid = true
	return nil
}

// Search returns the topK rows most similar to query.
func (s *DBStore) Search(ctx context.Context, query []float32, k int) ([]ScoredRecord, error) {
	s.mu.Lock()
	if err := s.rebuildCacheLocked(ctx); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	cache := s.cache
	dim := s.dimensions
	s.mu.Unlock()

	if dim != 0 && len(query) != dim {
		return nil, errs.New(errs.KindIngestFailure, "vectorindex.db", "query dimension mismatch", nil)
	}
	candidates := make([]ScoredRecord, 0, len(cache))
	for _, r := range cache {
		candidates = append(candidates, ScoredRecord{Record: r, Score: cosineSimilarity(query, r.Vector)})
	}
	return topK(candidates, k), nil
}

// Len reports the current row count.
func (s *DBStore) Len(ctx context.Context) (int, error) {
	clause := "user_id IS NULL"
	var args []any
	if s.userID != nil {
		clause = "user_id = ?"
		args = append(args, *s.userID)
	}
	var n int
	err := s.adapter.QueryRow(ctx, "SELECT COUNT(*) FROM vector_records WHERE "+clause, args...).Scan(&n)
	if err != nil {
		return 0, errs.New(errs.KindPersistence, "vectorindex.db", "count", err)
	}
	return n, nil
}

// Dimensions reports the fixed vector width, or 0 if empty.
func (s *DBStore) Dimensions(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.rebuildCacheLocked(ctx); err != nil {
		return 0, err
	}
	return s.dimensions, nil
}
