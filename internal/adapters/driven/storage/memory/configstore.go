package memory

import (
	"github.com/custodia-labs/askdocs/internal/adapters/driven/config"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore keeps settings in memory only. Tests use it in place of
// config.toml.
type ConfigStore struct {
	config.Values
}

// NewConfigStore returns an empty store.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{}
}

// NewConfigStoreFrom returns a store seeded with dotted keys, e.g.
// {"chunking.size": 800}. Nested tables are flattened first.
func NewConfigStoreFrom(values map[string]any) *ConfigStore {
	s := NewConfigStore()
	s.Replace(config.Flatten(values))
	return s
}

// Set stores value under key.
func (s *ConfigStore) Set(key string, value any) error {
	s.Put(key, value)
	return nil
}

// Save is a no-op.
func (s *ConfigStore) Save() error { return nil }

// Load is a no-op.
func (s *ConfigStore) Load() error { return nil }

// Path reports ":memory:".
func (s *ConfigStore) Path() string { return ":memory:" }
