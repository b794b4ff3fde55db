package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Manager persists the resolved configuration as JSON under the data
// directory and picks up external edits to the file while the process runs.
// Keys present in the file win over defaults and environment; keys absent
// from the file keep their resolved values.
type Manager struct {
	path     string
	debounce time.Duration

	mu       sync.RWMutex
	cfg      Config
	watcher  *fsnotify.Watcher
	onReload func(*Config)

	// selfWrite filters watcher events caused by our own Save.
	selfWrite atomic.Bool
}

type ManagerOption func(*Manager)

// WithConfigPath overrides the default <DataDir>/config.json location.
func WithConfigPath(path string) ManagerOption {
	return func(m *Manager) {
		if path != "" {
			m.path = path
		}
	}
}

// WithDebounce adjusts the reload debounce window.
func WithDebounce(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.debounce = d
		}
	}
}

// NewManager layers the persisted config file over initial and writes the
// file on first run so users have something to edit.
func NewManager(initial *Config, opts ...ManagerOption) (*Manager, error) {
	if initial == nil {
		return nil, fmt.Errorf("initial config is required")
	}

	m := &Manager{
		path:     filepath.Join(initial.DataDir, "config.json"),
		debounce: 300 * time.Millisecond,
		cfg:      *initial,
	}
	for _, opt := range opts {
		opt(m)
	}

	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}

	data, err := os.ReadFile(m.path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &m.cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", m.path, err)
		}
		if err := m.cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid config in %s: %w", m.path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		if err := writeConfigFile(m.path, m.cfg); err != nil {
			return nil, fmt.Errorf("write initial config: %w", err)
		}
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	return m, nil
}

// Get returns a copy of the current configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfg := m.cfg
	return &cfg
}

// Path returns the location of the persisted config file.
func (m *Manager) Path() string {
	return m.path
}

// Save validates cfg, writes it to disk, and makes it current.
func (m *Manager) Save(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	m.mu.RLock()
	unchanged := reflect.DeepEqual(m.cfg, *cfg)
	m.mu.RUnlock()
	if unchanged {
		return nil
	}

	m.selfWrite.Store(true)
	defer time.AfterFunc(m.debounce, func() { m.selfWrite.Store(false) })

	if err := writeConfigFile(m.path, *cfg); err != nil {
		m.selfWrite.Store(false)
		return err
	}

	m.mu.Lock()
	m.cfg = *cfg
	m.mu.Unlock()
	return nil
}

// Watch reloads the file on external changes until ctx is done. onReload,
// when not nil, runs after every applied reload with the new configuration.
func (m *Manager) Watch(ctx context.Context, onReload func(*Config)) error {
	m.mu.Lock()
	m.onReload = onReload
	if m.watcher != nil {
		m.mu.Unlock()
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		m.mu.Unlock()
		return err
	}
	m.watcher = watcher
	m.mu.Unlock()

	// Watch the directory, not the file: editors and atomic renames
	// replace the inode.
	if err := watcher.Add(filepath.Dir(m.path)); err != nil {
		return fmt.Errorf("watch config dir: %w", err)
	}

	go m.watchLoop(ctx, watcher)
	return nil
}

func (m *Manager) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer watcher.Close()

	var timerMu sync.Mutex
	var timer *time.Timer
	schedule := func() {
		timerMu.Lock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(m.debounce, m.reload)
		timerMu.Unlock()
	}

	for {
		select {
		case evt, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(evt.Name) != filepath.Clean(m.path) {
				continue
			}
			if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if m.selfWrite.Load() {
				continue
			}
			schedule()
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			if err != nil {
				log.Printf("[Config] watcher error: %v", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) reload() {
	data, err := os.ReadFile(m.path)
	if err != nil {
		log.Printf("[Config] reload failed: %v", err)
		return
	}

	m.mu.RLock()
	cfg := m.cfg
	m.mu.RUnlock()

	if err := json.Unmarshal(data, &cfg); err != nil {
		log.Printf("[Config] reload failed: %v", err)
		return
	}
	if err := cfg.Validate(); err != nil {
		log.Printf("[Config] reload rejected: %v", err)
		return
	}

	m.mu.Lock()
	if reflect.DeepEqual(m.cfg, cfg) {
		m.mu.Unlock()
		return
	}
	m.cfg = cfg
	cb := m.onReload
	m.mu.Unlock()

	if cb != nil {
		applied := cfg
		cb(&applied)
	}
}

// writeConfigFile writes atomically so a watcher never sees a partial file.
func writeConfigFile(path string, cfg Config) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "config-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	encoder := json.NewEncoder(tmp)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(&cfg); err != nil {
		tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("encode config: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("flush config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close temp config: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}
