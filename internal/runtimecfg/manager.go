package runtimecfg

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/pcdogyu/market-closure/internal/config"
)

type Manager struct {
	path string
	mu   sync.RWMutex
	cfg  config.Config

	// file is the config as written on disk, before environment overrides
	// and defaults. Patches apply to it and it is what gets saved.
	file config.Config

	// Hooks run with the candidate config before it is committed; an
	// error rejects the update.
	hooks []func(config.Config) error
}

func Load(path string) (*Manager, error) {
	file, err := config.LoadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Resolve(file)
	if err != nil {
		return nil, err
	}
	return &Manager{path: path, cfg: cfg, file: file}, nil
}

// NewStatic wraps an already resolved config. Updates are never saved.
func NewStatic(cfg config.Config) *Manager {
	return &Manager{cfg: cfg, file: cfg.Clone()}
}

func (m *Manager) Get() config.Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg.Clone()
}

// OnUpdate registers fn to run on every accepted update.
func (m *Manager) OnUpdate(fn func(config.Config) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, fn)
}

func (m *Manager) Update(p Patch) (config.Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	file := m.file.Clone()
	if err := p.Apply(&file); err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Resolve(file)
	if err != nil {
		return config.Config{}, err
	}
	for _, fn := range m.hooks {
		if err := fn(cfg.Clone()); err != nil {
			return config.Config{}, fmt.Errorf("apply update: %w", err)
		}
	}

	if m.path != "" {
		if err := save(m.path, file); err != nil {
			return config.Config{}, err
		}
	}
	m.file = file
	m.cfg = cfg
	return cfg.Clone(), nil
}

func save(path string, cfg config.Config) error {
	b, err := yaml.Marshal(&cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
