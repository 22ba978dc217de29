// Pathweaver - Learning Content Recommendation and Path Construction
// Copyright 2026 T. Machnicki (tmachnicki)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tmachnicki/pathweaver

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8096 {
		t.Errorf("server port = %d, want 8096", cfg.Server.Port)
	}
	if cfg.Server.ListenAddr() != "0.0.0.0:8096" {
		t.Errorf("listen addr = %s", cfg.Server.ListenAddr())
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("logging defaults = %+v", cfg.Logging)
	}
	if !cfg.Catalog.Watch {
		t.Error("catalog watch should default on")
	}
	if cfg.Relevance.Tier1Threshold != 60 {
		t.Errorf("relevance tier1 threshold = %v", cfg.Relevance.Tier1Threshold)
	}
	if cfg.Path.TimeBudgetMinutes == 0 {
		t.Error("path time budget default missing")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PATHWEAVER_SERVER_PORT", "9000")
	t.Setenv("PATHWEAVER_CATALOG_DATA_DIR", "/tmp/catalog")
	t.Setenv("PATHWEAVER_LOGGING_LEVEL", "debug")
	t.Setenv("PATHWEAVER_FEEDBACK_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("server port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Catalog.DataDir != "/tmp/catalog" {
		t.Errorf("data dir = %s", cfg.Catalog.DataDir)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %s", cfg.Logging.Level)
	}
	if cfg.Feedback.Enabled {
		t.Error("feedback should be disabled by env")
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("server:\n  port: 9100\ncatalog:\n  data_dir: /srv/catalog\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("server port = %d, want 9100 from file", cfg.Server.Port)
	}
	if cfg.Catalog.DataDir != "/srv/catalog" {
		t.Errorf("data dir = %s", cfg.Catalog.DataDir)
	}
	// File values that the file does not set keep their defaults.
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("host = %s", cfg.Server.Host)
	}
}

func TestEnvBeatsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9100\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("PATHWEAVER_SERVER_PORT", "9200")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9200 {
		t.Errorf("server port = %d, env must beat file", cfg.Server.Port)
	}
}

func TestEnvTransform(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"PATHWEAVER_SERVER_PORT", "server.port"},
		{"PATHWEAVER_CATALOG_DATA_DIR", "catalog.data_dir"},
		{"PATHWEAVER_RELEVANCE_TAG_BOOST_FACTOR", "relevance.tag_boost_factor"},
		{"PATHWEAVER_CONFIG_PATH", ""},
		{"PATHWEAVER_UNKNOWN_KEY", ""},
	}
	for _, tc := range cases {
		if got := envTransformFunc(tc.in); got != tc.want {
			t.Errorf("envTransformFunc(%s) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults valid", func(c *Config) {}, false},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, true},
		{"missing data dir", func(c *Config) { c.Catalog.DataDir = "" }, true},
		{"feedback dir required", func(c *Config) { c.Feedback.Dir = "" }, true},
		{"feedback dir optional when disabled", func(c *Config) {
			c.Feedback.Enabled = false
			c.Feedback.Dir = ""
		}, false},
		{"relevance invariant", func(c *Config) { c.Relevance.MinResults = 0 }, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
