// Package config provides 12-factor configuration for the fileplane
// server. Settings load from environment variables with defaults; an
// optional YAML file overrides them for the pieces that are awkward as
// env vars (namespace layout, sandbox connection details).
package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Backend   BackendConfig   `yaml:"backend"`
	Logging   LogConfig       `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8700" yaml:"port"`
	Host string `envconfig:"HOST" default:"0.0.0.0" yaml:"host"`
}

// BackendConfig selects and parameterizes the file backend.
type BackendConfig struct {
	// Kind is one of "memory", "store", "sandbox".
	Kind string `envconfig:"BACKEND" default:"memory" yaml:"kind"`

	// Store settings.
	StorePath    string   `envconfig:"STORE_PATH" default:"fileplane.db" yaml:"store_path"`
	Namespace    []string `envconfig:"STORE_NAMESPACE" default:"fileplane,{tenant}" yaml:"namespace"`
	Tenant       string   `envconfig:"STORE_TENANT" default:"default" yaml:"tenant"`
	Compression  bool     `envconfig:"STORE_COMPRESSION" default:"false" yaml:"compression"`
	LegacyWrites bool     `envconfig:"STORE_LEGACY_WRITES" default:"false" yaml:"legacy_writes"`

	// Sandbox settings. SandboxKind is "local", "ssh", or "http".
	SandboxKind  string `envconfig:"SANDBOX" default:"local" yaml:"sandbox_kind"`
	SandboxRoot  string `envconfig:"SANDBOX_ROOT" default:"" yaml:"sandbox_root"`
	SSHAddr      string `envconfig:"SANDBOX_SSH_ADDR" default:"" yaml:"ssh_addr"`
	SSHUser      string `envconfig:"SANDBOX_SSH_USER" default:"" yaml:"ssh_user"`
	SSHKeyFile   string `envconfig:"SANDBOX_SSH_KEY_FILE" default:"" yaml:"ssh_key_file"`
	HTTPEndpoint string `envconfig:"SANDBOX_HTTP_ENDPOINT" default:"" yaml:"http_endpoint"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info" yaml:"level"`
	Development bool   `envconfig:"LOG_DEV" default:"false" yaml:"development"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100" yaml:"requests_per_second"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200" yaml:"burst"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true" yaml:"enabled"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config from environment: %w", err)
	}
	return &cfg, nil
}

// LoadFile loads from the environment, then overlays the YAML file.
func LoadFile(path string) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return cfg, nil
}
