// Package config loads the core's ambient settings: environment variables
// via caarlos0/env, with an optional YAML overlay for values operators
// prefer to keep in a file (bot identity, adapter options).
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config is the core's typed configuration. Every env-bound field also has
// an envDefault so a fresh checkout runs with sane defaults.
type Config struct {
	UserName    string `env:"CHATCORE_USER_NAME" envDefault:"bot"`
	DedupeLimit int    `env:"CHATCORE_DEDUPE_LIMIT" envDefault:"1000"`

	SnapshotDBPath string `env:"CHATCORE_SNAPSHOT_DB" envDefault:"chatcore_snapshots.db"`

	LogLevel string `env:"CHATCORE_LOG_LEVEL" envDefault:"info"`

	// AdapterOpts is arbitrary adapter-init options, loaded only from the
	// YAML overlay (env vars don't model nested maps well): a keyword-like
	// bag passed through to adapter init/shutdown.
	AdapterOpts map[string]map[string]interface{} `yaml:"adapter_opts"`
}

// overlay is the subset of Config that may additionally come from a YAML
// file; fields not present in the file are left untouched.
type overlay struct {
	UserName       *string                            `yaml:"user_name"`
	DedupeLimit    *int                               `yaml:"dedupe_limit"`
	SnapshotDBPath *string                            `yaml:"snapshot_db"`
	LogLevel       *string                            `yaml:"log_level"`
	AdapterOpts    map[string]map[string]interface{} `yaml:"adapter_opts"`
}

// Load parses environment variables into a Config, then merges in
// yamlPath's overlay (if non-empty and the file exists). Env values set the
// baseline; present YAML keys take precedence, mirroring the templates
// package's "load YAML, fail loud on malformed syntax, tolerate a missing
// file" posture.
func Load(yamlPath string) (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parse env: %w", err)
	}

	if yamlPath == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(yamlPath)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", yamlPath, err)
	}

	var ov overlay
	if err := yaml.Unmarshal(data, &ov); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", yamlPath, err)
	}
	applyOverlay(cfg, ov)
	return cfg, nil
}

func applyOverlay(cfg *Config, ov overlay) {
	if ov.UserName != nil {
		cfg.UserName = *ov.UserName
	}
	if ov.DedupeLimit != nil {
		cfg.DedupeLimit = *ov.DedupeLimit
	}
	if ov.SnapshotDBPath != nil {
		cfg.SnapshotDBPath = *ov.SnapshotDBPath
	}
	if ov.LogLevel != nil {
		cfg.LogLevel = *ov.LogLevel
	}
	if ov.AdapterOpts != nil {
		cfg.AdapterOpts = ov.AdapterOpts
	}
}
