package pmemory

import (
	"context"

	"github.com/sheetrtd/sheetrt/pkg/embedclient"
	"github.com/sheetrtd/sheetrt/pkg/store"
	"github.com/sheetrtd/sheetrt/pkg/vectorindex"
)

// SemanticService layers cross-session recall on top of Service: saving
// a memory entry also embeds and indexes its content, and Recall does a
// similarity search instead of a category scan. Grounded on
// haasonsaas-nexus's internal/memory.Manager, which embeds and indexes
// captured memories through the same backend.Backend/embeddings.Provider
// pair this package's vectorindex.Store/embedclient.Provider mirror, and
// performs vector/bm25/hybrid search over them instead of a plain scan.
type SemanticService struct {
	*Service
	embedder Embedder
	index    vectorindex.Store
}

// Embedder is the minimal embedding surface SemanticService needs,
// satisfied by *embedclient.Client.
type Embedder interface {
	EmbedSingle(ctx context.Context, text string) ([]float32, error)
}

var _ Embedder = (*embedclient.Client)(nil)

// NewSemanticService constructs a SemanticService over an existing
// Service, embedder, and vector index.
func NewSemanticService(base *Service, embedder Embedder, index vectorindex.Store) *SemanticService {
	return &SemanticService{Service: base, embedder: embedder, index: index}
}

// Save stores the entry via Service.Save, then embeds and indexes its
// content for later similarity recall. A failure to index does not roll
// back the already-persisted entry — the caller degrades to category
// listing if semantic recall is unavailable.
func (s *SemanticService) Save(ctx context.Context, category store.MemoryCategory, content, source string) (*store.MemoryEntry, error) {
	entry, err := s.Service.Save(ctx, category, content, source)
	if err != nil {
		return nil, err
	}
	vec, err := s.embedder.EmbedSingle(ctx, entry.Content)
	if err != nil {
		return entry, nil
	}
	if _, err := s.index.AddBatch(ctx, []vectorindex.Record{{
		ContentHash: entry.ID,
		Text:        entry.Content,
		Metadata:    string(entry.Category),
		Vector:      vec,
	}}); err != nil {
		return entry, nil
	}
	return entry, nil
}

// Recall returns the topK memory entries most semantically similar to
// query, across all categories.
func (s *SemanticService) Recall(ctx context.Context, query string, topK int) ([]vectorindex.ScoredRecord, error) {
	vec, err := s.embedder.EmbedSingle(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.index.Search(ctx, vec, topK)
}
