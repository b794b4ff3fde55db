package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewManagerWritesInitialFile(t *testing.T) {
	cfg := DefaultConfigWithRoot(t.TempDir())
	mgr, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	if _, err := os.Stat(mgr.Path()); err != nil {
		t.Fatalf("config file not created: %v", err)
	}
	if got := mgr.Get(); got.Horizon != cfg.Horizon || got.MaxDebateRounds != cfg.MaxDebateRounds {
		t.Fatalf("persisted config diverged from initial: %+v", got)
	}
}

func TestNewManagerOverlaysPersistedFile(t *testing.T) {
	cfg := DefaultConfigWithRoot(t.TempDir())
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	path := filepath.Join(cfg.DataDir, "config.json")
	if err := os.WriteFile(path, []byte(`{"max_debate_rounds": 3, "horizon": "long"}`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	mgr, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	got := mgr.Get()
	if got.MaxDebateRounds != 3 {
		t.Fatalf("expected 3 debate rounds from file, got %d", got.MaxDebateRounds)
	}
	if got.Horizon != "long" {
		t.Fatalf("expected long horizon from file, got %q", got.Horizon)
	}
	// Keys absent from the file keep their resolved values.
	if got.QuickThinkLLM != cfg.QuickThinkLLM {
		t.Fatalf("expected quick model %q, got %q", cfg.QuickThinkLLM, got.QuickThinkLLM)
	}
}

func TestManagerSavePersistsAcrossRestarts(t *testing.T) {
	root := t.TempDir()
	mgr, err := NewManager(DefaultConfigWithRoot(root))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	cfg := mgr.Get()
	cfg.MaxRiskRounds = 2
	cfg.Horizon = "short"
	if err := mgr.Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reopened, err := NewManager(DefaultConfigWithRoot(root))
	if err != nil {
		t.Fatalf("NewManager after save: %v", err)
	}
	got := reopened.Get()
	if got.MaxRiskRounds != 2 || got.Horizon != "short" {
		t.Fatalf("saved config not reloaded: %+v", got)
	}
}

func TestManagerSaveRejectsInvalidConfig(t *testing.T) {
	mgr, err := NewManager(DefaultConfigWithRoot(t.TempDir()))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	bad := mgr.Get()
	bad.MaxDebateRounds = 0
	if err := mgr.Save(bad); err == nil {
		t.Fatalf("expected validation error for zero debate rounds")
	}

	bad = mgr.Get()
	bad.Horizon = "forever"
	if err := mgr.Save(bad); err == nil {
		t.Fatalf("expected validation error for bad horizon")
	}

	if got := mgr.Get(); got.MaxDebateRounds < 1 {
		t.Fatalf("invalid config was applied: %+v", got)
	}
}

func TestManagerWatchReloadsExternalEdits(t *testing.T) {
	mgr, err := NewManager(DefaultConfigWithRoot(t.TempDir()), WithDebounce(50*time.Millisecond))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *Config, 1)
	if err := mgr.Watch(ctx, func(cfg *Config) {
		reloaded <- cfg
	}); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	edited := mgr.Get()
	edited.MaxDebateRounds = 2
	if err := writeConfigFile(mgr.Path(), *edited); err != nil {
		t.Fatalf("writeConfigFile: %v", err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.MaxDebateRounds != 2 {
			t.Fatalf("expected reloaded rounds 2, got %d", cfg.MaxDebateRounds)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("watcher did not fire on config change")
	}

	if got := mgr.Get(); got.MaxDebateRounds != 2 {
		t.Fatalf("reload not applied, got %d rounds", got.MaxDebateRounds)
	}
}
