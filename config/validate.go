// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// validLogLevels lists the accepted log level strings.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// ValidateConfig checks that all configuration values are within acceptable
// ranges and returns the first error encountered, or nil if valid.
func ValidateConfig(cfg Config) error {
	if cfg.DataDir == "" {
		return ErrEmptyDataDir
	}

	if err := validateAddr(cfg.ListenAddr); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidListenAddr, err)
	}

	if !validLogLevels[strings.ToLower(cfg.LogLevel)] {
		return ErrInvalidLogLevel
	}

	if cfg.Owner == "" {
		return ErrMissingOwner
	}
	if cfg.Operator == "" {
		return ErrMissingOperator
	}
	if cfg.SelfAccount == "" {
		return ErrMissingSelfAccount
	}

	u, err := url.Parse(cfg.TokenRPCURL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTokenRPC, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidTokenRPC, cfg.TokenRPCURL)
	}
	if cfg.TokenRPCTimeout < 0 {
		return fmt.Errorf("%w: negative timeout %s", ErrInvalidTokenRPC, cfg.TokenRPCTimeout)
	}

	return nil
}

// validateAddr checks that addr is a valid host:port address.
func validateAddr(addr string) error {
	_, _, err := net.SplitHostPort(addr)
	return err
}
