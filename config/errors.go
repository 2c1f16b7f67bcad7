// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import "errors"

var (
	// ErrInvalidListenAddr indicates the listen address is malformed.
	ErrInvalidListenAddr = errors.New("config: invalid listen address")

	// ErrInvalidLogLevel indicates the log level is not recognized.
	ErrInvalidLogLevel = errors.New("config: invalid log level (must be \"debug\", \"info\", \"warn\", or \"error\")")

	// ErrEmptyDataDir indicates the data directory path is empty.
	ErrEmptyDataDir = errors.New("config: data directory must not be empty")

	// ErrMissingOwner indicates no owner account is configured.
	ErrMissingOwner = errors.New("config: owner account must not be empty")

	// ErrMissingOperator indicates no operator account is configured.
	ErrMissingOperator = errors.New("config: operator account must not be empty")

	// ErrMissingSelfAccount indicates the contract's own token account is not configured.
	ErrMissingSelfAccount = errors.New("config: self account must not be empty")

	// ErrInvalidTokenRPC indicates an unusable token service endpoint.
	ErrInvalidTokenRPC = errors.New("config: invalid token rpc endpoint")

	// ErrConfigNotFound indicates the configuration file does not exist.
	ErrConfigNotFound = errors.New("config: configuration file not found")

	// ErrInvalidConfigLine indicates a line in the config file is malformed.
	ErrInvalidConfigLine = errors.New("config: invalid configuration line")
)
