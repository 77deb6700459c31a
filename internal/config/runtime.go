package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/ini.v1"
)

// RuntimeStore persists values the process learns about itself — today,
// per-model LLM capability flags — into config.runtime.ini, leaving
// config.ini untouched so operator comments and version history survive.
//
// Mirrors the original service's runtime_config.py: the runtime file is
// read-modify-written one section at a time, under the store's own mutex
// (one lock per RuntimeStore value).
type RuntimeStore struct {
	path string
	mu   sync.Mutex
}

// NewRuntimeStore returns a store backed by config.runtime.ini in dir.
func NewRuntimeStore(dir string) *RuntimeStore {
	return &RuntimeStore{path: filepath.Join(dir, "config.runtime.ini")}
}

// Section returns the key/value pairs of a runtime section, or an empty
// map if the file or section does not exist yet.
func (s *RuntimeStore) Section(name string) map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := map[string]string{}
	cfg, err := s.load()
	if err != nil {
		return out
	}
	if !cfg.HasSection(name) {
		return out
	}
	for _, key := range cfg.Section(name).Keys() {
		out[key.Name()] = key.Value()
	}
	return out
}

// UpdateSection merges updates into the named section and persists the
// file, creating both the file and the section if needed.
func (s *RuntimeStore) UpdateSection(name string, updates map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.load()
	if err != nil {
		return err
	}
	section, err := cfg.NewSection(name)
	if err != nil {
		return fmt.Errorf("open runtime section %q: %w", name, err)
	}
	for k, v := range updates {
		section.Key(k).SetValue(v)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create runtime config dir: %w", err)
	}
	if err := cfg.SaveTo(s.path); err != nil {
		return fmt.Errorf("save runtime config: %w", err)
	}
	return nil
}

func (s *RuntimeStore) load() (*ini.File, error) {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return ini.Empty(), nil
	}
	cfg, err := ini.Load(s.path)
	if err != nil {
		return nil, fmt.Errorf("load runtime config %s: %w", s.path, err)
	}
	return cfg, nil
}
