// Copyright 2026 Red Hat
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared helpers for the E2E tests. This package
// carries no build tags; it is a pure library imported only by tagged test
// files.
package testutil

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// UniqueResultsPath returns a results-file path like
// "<tmp>/vmstor-test-<prefix>-<random>.csv" to avoid collisions between
// parallel test runs. The file itself is not created.
func UniqueResultsPath(prefix string) string {
	return filepath.Join(os.TempDir(), uniqueName(prefix)+".csv")
}

// UniqueDBPath returns a history-database path like
// "<tmp>/vmstor-test-<prefix>-<random>.db". The file itself is not created.
func UniqueDBPath(prefix string) string {
	return filepath.Join(os.TempDir(), uniqueName(prefix)+".db")
}

func uniqueName(prefix string) string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return fmt.Sprintf("vmstor-test-%s-%s", prefix, hex.EncodeToString(b))
}

// WriteConfigFile writes a YAML config file with the given contents into
// dir and returns its path.
func WriteConfigFile(dir, contents string) (string, error) {
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		return "", fmt.Errorf("writing config file: %w", err)
	}
	return path, nil
}
