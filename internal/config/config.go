// Pathweaver - Learning Content Recommendation and Path Construction
// Copyright 2026 T. Machnicki (tmachnicki)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tmachnicki/pathweaver

// Package config loads layered configuration: built-in defaults, then an
// optional YAML file, then PATHWEAVER_-prefixed environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tmachnicki/pathweaver/internal/api"
	"github.com/tmachnicki/pathweaver/internal/diagnosis"
	"github.com/tmachnicki/pathweaver/internal/flatten"
	"github.com/tmachnicki/pathweaver/internal/logging"
	"github.com/tmachnicki/pathweaver/internal/match"
	"github.com/tmachnicki/pathweaver/internal/pathbuild"
	"github.com/tmachnicki/pathweaver/internal/relevance"
	"github.com/tmachnicki/pathweaver/internal/taxonomy"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/pathweaver/config.yaml",
	"/etc/pathweaver/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "PATHWEAVER_CONFIG_PATH"

// envPrefix namespaces all configuration environment variables.
const envPrefix = "PATHWEAVER_"

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	// Host to bind. Default: 0.0.0.0.
	Host string `json:"host" koanf:"host"`

	// Port to listen on. Default: 8096.
	Port int `json:"port" koanf:"port"`

	// ReadTimeout and WriteTimeout bound request handling.
	ReadTimeout  time.Duration `json:"read_timeout" koanf:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout" koanf:"write_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `json:"shutdown_timeout" koanf:"shutdown_timeout"`
}

// CatalogConfig holds catalog repository settings.
type CatalogConfig struct {
	// DataDir contains the catalog JSON files.
	DataDir string `json:"data_dir" koanf:"data_dir"`

	// Watch enables filesystem-change hot reload.
	Watch bool `json:"watch" koanf:"watch"`
}

// FeedbackConfig holds the feedback store settings.
type FeedbackConfig struct {
	// Enabled toggles the per-user feedback signal.
	Enabled bool `json:"enabled" koanf:"enabled"`

	// Dir is the BadgerDB directory.
	Dir string `json:"dir" koanf:"dir"`
}

// Config is the complete service configuration.
type Config struct {
	Server    ServerConfig         `json:"server" koanf:"server"`
	API       api.MiddlewareConfig `json:"api" koanf:"api"`
	Logging   logging.Config       `json:"logging" koanf:"logging"`
	Catalog   CatalogConfig        `json:"catalog" koanf:"catalog"`
	Feedback  FeedbackConfig       `json:"feedback" koanf:"feedback"`
	Diagnosis diagnosis.Config     `json:"diagnosis" koanf:"diagnosis"`
	Taxonomy  taxonomy.Config      `json:"taxonomy" koanf:"taxonomy"`
	Lexical   match.LexicalConfig  `json:"lexical" koanf:"lexical"`
	Semantic  match.SemanticConfig `json:"semantic" koanf:"semantic"`
	Relevance relevance.Config     `json:"relevance" koanf:"relevance"`
	Path      pathbuild.Config     `json:"path" koanf:"path"`
	Flatten   flatten.Config       `json:"flatten" koanf:"flatten"`
}

// defaultConfig returns the built-in defaults, applied before file and
// environment layers.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8096,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: logging.Config{
			Level:  "info",
			Format: "json",
		},
		Catalog: CatalogConfig{
			DataDir: "/data/catalog",
			Watch:   true,
		},
		Feedback: FeedbackConfig{
			Enabled: true,
			Dir:     "/data/feedback",
		},
		API:       api.DefaultMiddlewareConfig(),
		Diagnosis: diagnosis.DefaultConfig(),
		Taxonomy:  taxonomy.DefaultConfig(),
		Lexical:   match.DefaultLexicalConfig(),
		Semantic:  match.DefaultSemanticConfig(),
		Relevance: relevance.DefaultConfig(),
		Path:      pathbuild.DefaultConfig(),
		Flatten:   flatten.DefaultConfig(),
	}
}

// Load builds the configuration from defaults, an optional YAML file, and
// PATHWEAVER_ environment variables, in increasing priority.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// PATHWEAVER_SERVER_PORT -> server.port
	// PATHWEAVER_CATALOG_DATA_DIR -> catalog.data_dir
	envProvider := env.Provider(envPrefix, ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns the first existing config file path, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sectionNames are the top-level config sections, used to split env var
// names into section and key parts.
var sectionNames = []string{
	"server", "api", "logging", "catalog", "feedback", "diagnosis",
	"taxonomy", "lexical", "semantic", "relevance", "path", "flatten",
}

// envTransformFunc maps PATHWEAVER_SECTION_KEY_NAME to section.key_name.
// The config file path override is handled separately and skipped here.
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	if key == "config_path" {
		return ""
	}
	for _, section := range sectionNames {
		if strings.HasPrefix(key, section+"_") {
			return section + "." + strings.TrimPrefix(key, section+"_")
		}
	}
	return ""
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", c.Server.Port)
	}
	if c.Catalog.DataDir == "" {
		return fmt.Errorf("catalog.data_dir is required")
	}
	if c.Feedback.Enabled && c.Feedback.Dir == "" {
		return fmt.Errorf("feedback.dir is required when feedback is enabled")
	}
	if err := c.Relevance.Validate(); err != nil {
		return err
	}
	return nil
}

// ListenAddr returns the host:port the server binds.
func (c *ServerConfig) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
