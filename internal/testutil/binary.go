// Copyright 2026 Red Hat
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
)

var (
	builtBinaryPath string
	buildOnce       sync.Once
	buildErr        error
)

// BinaryPath returns the path to the vmstor binary. It checks the
// VMSTOR_BINARY environment variable first, then falls back to building
// the binary on first call. The build is performed only once per test run.
func BinaryPath() (string, error) {
	if p := os.Getenv("VMSTOR_BINARY"); p != "" {
		return p, nil
	}
	buildOnce.Do(func() {
		builtBinaryPath, buildErr = buildBinary()
	})
	return builtBinaryPath, buildErr
}

// buildBinary compiles the vmstor binary into a temp directory and returns
// its path. The host toolchain's cgo setting is left alone because the
// sqlite driver needs cgo.
func buildBinary() (string, error) {
	tmpDir, err := os.MkdirTemp("", "vmstor-e2e-*")
	if err != nil {
		return "", fmt.Errorf("creating temp dir: %w", err)
	}

	binaryName := "vmstor"
	if runtime.GOOS == "windows" {
		binaryName = "vmstor.exe"
	}
	outputPath := filepath.Join(tmpDir, binaryName)

	// Find the module root by walking up from this file's directory
	_, thisFile, _, _ := runtime.Caller(0)
	moduleRoot := filepath.Dir(filepath.Dir(filepath.Dir(thisFile)))

	cmd := exec.Command("go", "build", "-o", outputPath, "./cmd/vmstor")
	cmd.Dir = moduleRoot

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("building vmstor binary: %w\nstderr: %s", err, stderr.String())
	}

	return outputPath, nil
}

// RunVMStor executes the vmstor binary with the given arguments and
// returns stdout, stderr, and the exit code. The binary is built on first
// call if not provided via VMSTOR_BINARY.
func RunVMStor(args ...string) (stdout string, stderr string, exitCode int, err error) {
	binaryPath, err := BinaryPath()
	if err != nil {
		return "", "", -1, fmt.Errorf("getting binary path: %w", err)
	}

	cmd := exec.Command(binaryPath, args...)

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	runErr := cmd.Run()

	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
			return stdout, stderr, exitCode, nil
		}
		return stdout, stderr, -1, runErr
	}

	return stdout, stderr, 0, nil
}
