// Package rules composes the system prompt's rule block from two
// sources: global rules persisted to a YAML file on disk, and session
// rules persisted in the DB (store.RuleStore). Grounded on pkg/config's
// gopkg.in/yaml.v3 usage for the global half; the session half defers
// entirely to the already-built store.RuleStore.
package rules

import (
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/sheetrtd/sheetrt/pkg/errs"
)

// GlobalRule is one rule in the global rules file.
type GlobalRule struct {
	ID      string `yaml:"id"`
	Content string `yaml:"content"`
	Enabled bool   `yaml:"enabled"`
}

// globalFile is the on-disk YAML shape: a flat list under a single key,
// so the file stays readable/editable by hand.
type globalFile struct {
	Rules []GlobalRule `yaml:"rules"`
}

// GlobalStore loads and persists the global rules file. Safe for
// concurrent use.
type GlobalStore struct {
	mu   sync.Mutex
	path string
}

// NewGlobalStore constructs a GlobalStore backed by path. The file need
// not exist yet — Load returns an empty set and Save creates it.
func NewGlobalStore(path string) *GlobalStore {
	return &GlobalStore{path: path}
}

// Load reads every global rule from disk, in file order.
func (s *GlobalStore) Load() ([]GlobalRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *GlobalStore) load() ([]GlobalRule, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errs.New(errs.KindConfig, "rules.global", "read", err)
	}
	var f globalFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, errs.New(errs.KindConfig, "rules.global", "parse", err)
	}
	return f.Rules, nil
}

func (s *GlobalStore) save(rules []GlobalRule) error {
	raw, err := yaml.Marshal(globalFile{Rules: rules})
	if err != nil {
		return errs.New(errs.KindConfig, "rules.global", "marshal", err)
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return errs.New(errs.KindConfig, "rules.global", "write", err)
	}
	return nil
}

// Add appends a new global rule, enabled by default, and persists it.
func (s *GlobalStore) Add(id, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, err := s.load()
	if err != nil {
		return err
	}
	existing = append(existing, GlobalRule{ID: id, Content: content, Enabled: true})
	return s.save(existing)
}

// SetEnabled toggles a global rule by id and persists the change. Returns
// false if no rule with that id exists.
func (s *GlobalStore) SetEnabled(id string, enabled bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, err := s.load()
	if err != nil {
		return false, err
	}
	found := false
	for i := range existing {
		if existing[i].ID == id {
			existing[i].Enabled = enabled
			found = true
			break
		}
	}
	if !found {
		return false, nil
	}
	return true, s.save(existing)
}

// Remove deletes a global rule by id and persists the change.
func (s *GlobalStore) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, err := s.load()
	if err != nil {
		return err
	}
	filtered := existing[:0]
	for _, r := range existing {
		if r.ID != id {
			filtered = append(filtered, r)
		}
	}
	return s.save(filtered)
}
