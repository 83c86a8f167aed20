package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.UserName != "bot" {
		t.Fatalf("expected default user_name 'bot', got %q", cfg.UserName)
	}
	if cfg.DedupeLimit != 1000 {
		t.Fatalf("expected default dedupe_limit 1000, got %d", cfg.DedupeLimit)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("CHATCORE_USER_NAME", "ops-bot")
	t.Setenv("CHATCORE_DEDUPE_LIMIT", "42")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.UserName != "ops-bot" {
		t.Fatalf("expected env override, got %q", cfg.UserName)
	}
	if cfg.DedupeLimit != 42 {
		t.Fatalf("expected env override, got %d", cfg.DedupeLimit)
	}
}

func TestLoadYAMLOverlayTakesPrecedence(t *testing.T) {
	t.Setenv("CHATCORE_USER_NAME", "env-bot")

	dir := t.TempDir()
	path := filepath.Join(dir, "chatcore.yaml")
	yaml := "user_name: yaml-bot\nadapter_opts:\n  slack:\n    token: xoxb-test\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write yaml: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.UserName != "yaml-bot" {
		t.Fatalf("expected yaml overlay to win over env, got %q", cfg.UserName)
	}
	if cfg.AdapterOpts["slack"]["token"] != "xoxb-test" {
		t.Fatalf("expected adapter_opts to load from yaml, got %+v", cfg.AdapterOpts)
	}
}

func TestLoadMissingYAMLFileIsTolerated(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("expected a missing overlay file to be tolerated, got %v", err)
	}
	if cfg.UserName != "bot" {
		t.Fatalf("expected defaults to apply, got %q", cfg.UserName)
	}
}

func TestLoadMalformedYAMLFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chatcore.yaml")
	if err := os.WriteFile(path, []byte("not: [valid: yaml"), 0o600); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected malformed yaml to fail loud")
	}
}
