package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/askdocs/internal/adapters/driven/config"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigFileName is the settings file inside the config directory.
const ConfigFileName = "config.toml"

// ConfigStore keeps askdocs settings in config.toml. Keys are dotted in
// memory ("llm.model") and written back as TOML tables ([llm] model = ...),
// so a hand-edited file and a saved one look the same.
type ConfigStore struct {
	config.Values

	// writeMu serialises writers so concurrent Sets cannot interleave
	// their rename of the temp file.
	writeMu sync.Mutex
	path    string
}

// NewConfigStore opens dir/config.toml, creating dir when needed. An empty
// dir means ~/.askdocs. A missing file is an empty configuration.
func NewConfigStore(dir string) (*ConfigStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("locating home directory: %w", err)
		}
		dir = filepath.Join(home, ".askdocs")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	s := &ConfigStore{path: filepath.Join(dir, ConfigFileName)}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Set stores value under key and rewrites the file.
func (s *ConfigStore) Set(key string, value any) error {
	s.Put(key, value)
	return s.Save()
}

// Save writes the current values to disk through a temp file and rename,
// so a crash mid-write leaves the previous file intact. The file is
// created 0600 because it may hold API keys.
func (s *ConfigStore) Save() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	data, err := toml.Marshal(s.Nested())
	if err != nil {
		return fmt.Errorf("encoding %s: %w", ConfigFileName, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ConfigFileName+".*")
	if err != nil {
		return fmt.Errorf("writing %s: %w", ConfigFileName, err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", ConfigFileName, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", ConfigFileName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", ConfigFileName, err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("writing %s: %w", ConfigFileName, err)
	}
	return nil
}

// Load replaces the in-memory values with the file's contents.
func (s *ConfigStore) Load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.Replace(make(map[string]any))
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", ConfigFileName, err)
	}

	var nested map[string]any
	if err := toml.Unmarshal(data, &nested); err != nil {
		return fmt.Errorf("parsing %s: %w", s.path, err)
	}
	s.Replace(config.Flatten(nested))
	return nil
}

// Path returns the location of config.toml.
func (s *ConfigStore) Path() string {
	return s.path
}
