// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

// Package config loads and validates claimd configuration.
//
// Values come from three layers with increasing priority: DefaultConfig,
// the key=value config file in the data directory, and CLAIM_* environment
// variables.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// ConfigFileName is the config file inside the data directory.
const ConfigFileName = "config"

// Config holds claimd settings.
type Config struct {
	DataDir    string `env:"CLAIM_DATADIR"`
	ListenAddr string `env:"CLAIM_LISTEN"`
	LogLevel   string `env:"CLAIM_LOG_LEVEL"`
	LogFile    string `env:"CLAIM_LOG_FILE"`

	// Owner and Operator seed the roles of a fresh contract state. Once
	// state exists they are read from the store.
	Owner    string `env:"CLAIM_OWNER"`
	Operator string `env:"CLAIM_OPERATOR"`

	// SelfAccount is the account holding airdropped tokens on the token
	// service; funding checks query its balance.
	SelfAccount string `env:"CLAIM_SELF_ACCOUNT"`

	TokenRPCURL     string        `env:"CLAIM_TOKEN_RPC_URL"`
	TokenRPCUser    string        `env:"CLAIM_TOKEN_RPC_USER"`
	TokenRPCPass    string        `env:"CLAIM_TOKEN_RPC_PASS"`
	TokenRPCTimeout time.Duration `env:"CLAIM_TOKEN_RPC_TIMEOUT"`
}

// DefaultDataDir returns ~/.claimd, or .claimd when the home directory is unknown.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".claimd"
	}
	return filepath.Join(home, ".claimd")
}

// DefaultConfig returns a Config with defaults filled in. Roles and the
// self account have no default.
func DefaultConfig() Config {
	return Config{
		DataDir:         DefaultDataDir(),
		ListenAddr:      ":8080",
		LogLevel:        "info",
		TokenRPCURL:     "http://localhost:3030",
		TokenRPCTimeout: 30 * time.Second,
	}
}

// ConfigPath returns the config file path for dataDir.
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, ConfigFileName)
}

// LoadConfig reads a key=value config file on top of DefaultConfig.
// Blank lines and lines starting with '#' are skipped; unknown keys are
// ignored.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return cfg, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, err := parseKeyValue(line)
		if err != nil {
			return cfg, fmt.Errorf("%w: line %d: %q", ErrInvalidConfigLine, lineNo, line)
		}
		if err := cfg.set(key, value); err != nil {
			return cfg, fmt.Errorf("%w: line %d: %w", ErrInvalidConfigLine, lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	return cfg, nil
}

// SaveConfig writes cfg as key=value lines, creating parent directories.
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}

	var b strings.Builder
	b.WriteString("# claimd configuration\n\n")
	for _, kv := range [][2]string{
		{"datadir", cfg.DataDir},
		{"listen", cfg.ListenAddr},
		{"loglevel", cfg.LogLevel},
		{"logfile", cfg.LogFile},
		{"owner", cfg.Owner},
		{"operator", cfg.Operator},
		{"self", cfg.SelfAccount},
		{"token_rpc_url", cfg.TokenRPCURL},
		{"token_rpc_user", cfg.TokenRPCUser},
		{"token_rpc_pass", cfg.TokenRPCPass},
		{"token_rpc_timeout", cfg.TokenRPCTimeout.String()},
	} {
		fmt.Fprintf(&b, "%s = %s\n", kv[0], kv[1])
	}

	if err := os.WriteFile(path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides cfg with any CLAIM_* variables set in the process
// environment.
func ApplyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("config: parse env: %w", err)
	}
	return nil
}

// ApplyEnvFrom is ApplyEnv reading from environ instead of the process
// environment.
func ApplyEnvFrom(cfg *Config, environ map[string]string) error {
	if err := env.ParseWithOptions(cfg, env.Options{Environment: environ}); err != nil {
		return fmt.Errorf("config: parse env: %w", err)
	}
	return nil
}

func (c *Config) set(key, value string) error {
	switch key {
	case "datadir":
		c.DataDir = value
	case "listen":
		c.ListenAddr = value
	case "loglevel":
		c.LogLevel = value
	case "logfile":
		c.LogFile = value
	case "owner":
		c.Owner = value
	case "operator":
		c.Operator = value
	case "self":
		c.SelfAccount = value
	case "token_rpc_url":
		c.TokenRPCURL = value
	case "token_rpc_user":
		c.TokenRPCUser = value
	case "token_rpc_pass":
		c.TokenRPCPass = value
	case "token_rpc_timeout":
		if value == "" {
			c.TokenRPCTimeout = 0
			return nil
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("token_rpc_timeout: %w", err)
		}
		c.TokenRPCTimeout = d
	}
	return nil
}

// parseKeyValue splits "key = value" on the first '='.
func parseKeyValue(line string) (string, string, error) {
	key, value, ok := strings.Cut(line, "=")
	if !ok {
		return "", "", ErrInvalidConfigLine
	}
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return "", "", ErrInvalidConfigLine
	}
	return key, strings.TrimSpace(value), nil
}
