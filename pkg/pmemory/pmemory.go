// Package pmemory is the domain layer above pkg/store's MemoryStore:
// categorised entries, dedup-by-hash save, and a markdown rendering used
// by the legacy file-backed memory format.
//
// Grounded on haasonsaas-nexus's internal/memory.Manager (a service
// wrapping a lower-level backend, exposing categorized save/search
// operations — nexus's MemoryCategory enum of preference/fact/decision/
// entity/other is the same shape as this package's MemoryCategory) and
// its auto-capture hooks, which render captured entries back into
// readable conversational text.
package pmemory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/sheetrtd/sheetrt/pkg/errs"
	"github.com/sheetrtd/sheetrt/pkg/store"
)

// DefaultMaxEntries is the capacity ceiling enforced after every Save,
// matching the store-level capacity rule MemoryStore.EnforceCapacity
// applies.
const DefaultMaxEntries = 500

// Service is the domain-level facade over a MemoryStore.
type Service struct {
	memory     *store.MemoryStore
	maxEntries int
}

// NewService constructs a Service over memoryStore, enforcing maxEntries
// (DefaultMaxEntries if zero) after every Save.
func NewService(memoryStore *store.MemoryStore, maxEntries int) *Service {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Service{memory: memoryStore, maxEntries: maxEntries}
}

// NewEntryID derives the 12-hex id for a new entry: a hash of
// category+content_prefix+timestamp.
func NewEntryID(category store.MemoryCategory, content string, timestamp time.Time) string {
	prefix := content
	if len(prefix) > 64 {
		prefix = prefix[:64]
	}
	sum := sha256.Sum256([]byte(string(category) + "::" + prefix + "::" + timestamp.UTC().Format(time.RFC3339Nano)))
	return hex.EncodeToString(sum[:])[:12]
}

// Save trims content, rejects empty/blank entries, and persists the
// entry. If category already holds an entry (in the store's user
// scope) with the same normalised content hash, that entry is returned
// and nothing is written, so duplicate saves are no-ops. After saving
// it enforces the store's capacity ceiling.
func (s *Service) Save(ctx context.Context, category store.MemoryCategory, content, source string) (*store.MemoryEntry, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, errs.New(errs.KindPersistence, "pmemory", "content must not be empty", nil)
	}
	existing, err := s.memory.ListByCategory(ctx, category)
	if err != nil {
		return nil, err
	}
	hash := store.ContentHash(trimmed, nil)
	for _, e := range existing {
		if store.ContentHash(e.Content, nil) == hash {
			return e, nil
		}
	}
	now := time.Now().UTC()
	entry := &store.MemoryEntry{
		ID:        NewEntryID(category, trimmed, now),
		Category:  category,
		Content:   trimmed,
		Timestamp: now,
		Source:    source,
	}
	if err := s.memory.Save(ctx, entry); err != nil {
		return nil, err
	}
	if _, err := s.memory.EnforceCapacity(ctx, s.maxEntries); err != nil {
		return nil, err
	}
	return entry, nil
}

// ReadTopic returns every entry in category, formatted as markdown for
// model consumption via the memory_read_topic tool.
func (s *Service) ReadTopic(ctx context.Context, category store.MemoryCategory) (string, error) {
	entries, err := s.memory.ListByCategory(ctx, category)
	if err != nil {
		return "", err
	}
	return FormatMarkdown(category, entries), nil
}

// Delete removes a single entry by id.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.memory.Delete(ctx, id)
}

// FormatMarkdown renders entries as the legacy file-backend markdown
// shape: a level-2 heading per category, one bullet per entry with an
// inline timestamp.
func FormatMarkdown(category store.MemoryCategory, entries []*store.MemoryEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", category)
	for _, e := range entries {
		fmt.Fprintf(&b, "- [%s] %s\n", e.Timestamp.UTC().Format("2006-01-02 15:04"), e.Content)
	}
	return b.String()
}

// ParseMarkdown is FormatMarkdown's inverse: it recovers category and
// per-entry (timestamp, content) pairs from a rendered block, so that
// format then parse recovers the original entries, up to ordering.
func ParseMarkdown(block string) (store.MemoryCategory, []ParsedEntry, error) {
	lines := strings.Split(strings.TrimRight(block, "\n"), "\n")
	if len(lines) == 0 {
		return "", nil, errs.New(errs.KindPersistence, "pmemory", "empty markdown block", nil)
	}
	heading := strings.TrimSpace(lines[0])
	if !strings.HasPrefix(heading, "## ") {
		return "", nil, errs.New(errs.KindPersistence, "pmemory", "missing category heading", nil)
	}
	category := store.MemoryCategory(strings.TrimSpace(strings.TrimPrefix(heading, "## ")))

	var out []ParsedEntry
	for _, line := range lines[1:] {
		line = strings.TrimSpace(line)
		if line == "" || !strings.HasPrefix(line, "- [") {
			continue
		}
		closeIdx := strings.Index(line, "]")
		if closeIdx < 0 {
			continue
		}
		tsStr := line[3:closeIdx]
		ts, err := time.Parse("2006-01-02 15:04", tsStr)
		if err != nil {
			return "", nil, errs.New(errs.KindPersistence, "pmemory", "malformed entry timestamp", err)
		}
		content := strings.TrimSpace(line[closeIdx+1:])
		out = append(out, ParsedEntry{Timestamp: ts.UTC(), Content: content})
	}
	return category, out, nil
}

// ParsedEntry is one markdown bullet recovered by ParseMarkdown.
type ParsedEntry struct {
	Timestamp time.Time
	Content   string
}
