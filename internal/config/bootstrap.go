// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Noah Contributors

package config

import (
	_ "embed"
	"log/slog"
	"os"
	"path/filepath"

	noaherr "github.com/chakany/noah/pkg/errors"
)

// DefaultConfigYAML is the commented starter config written on first run.
// The embedded file ships with empty embedding credentials, so a
// bootstrapped daemon fails validation with a pointer at the key to fill
// in rather than making unauthenticated upstream calls.
//
//go:embed noah.yaml.default
var DefaultConfigYAML []byte

// DefaultConfigPath returns the preferred config location:
// $XDG_CONFIG_HOME/noah/noah.yaml, falling back to ~/.config/noah/noah.yaml.
func DefaultConfigPath() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "noah", "noah.yaml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", noaherr.Errorf(noaherr.CodeConfigLoadReadFailure, "resolving home directory: %w", err)
	}
	return filepath.Join(home, ".config", "noah", "noah.yaml"), nil
}

// BootstrapConfig seeds the default config file when none was discovered.
// It returns the path written, or "" when the file already exists or could
// not be written. Bootstrap failure is never fatal: both the daemon and
// one-shot ingest runs work from defaults plus NOAH_ env vars alone.
func BootstrapConfig() string {
	cfgPath, err := DefaultConfigPath()
	if err != nil {
		slog.Debug("config bootstrap skipped", "error", err)
		return ""
	}

	// Never clobber an existing file, even an empty one the operator
	// created as a placeholder.
	if _, err := os.Stat(cfgPath); err == nil {
		return ""
	}

	if err := os.MkdirAll(filepath.Dir(cfgPath), 0o700); err != nil {
		slog.Debug("config bootstrap skipped", "path", cfgPath, "error", err)
		return ""
	}
	if err := os.WriteFile(cfgPath, DefaultConfigYAML, 0o600); err != nil {
		slog.Debug("config bootstrap skipped", "path", cfgPath, "error", err)
		return ""
	}

	slog.Info("created default config", "path", cfgPath)
	return cfgPath
}
