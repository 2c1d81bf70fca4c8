// Copyright 2026 Red Hat
// SPDX-License-Identifier: Apache-2.0

// Package sink prepares the results file destination and writes the finished
// report to it. Preparation settles the overwrite question up front so the
// write at the end of a run cannot silently destroy an operator-chosen file.
package sink

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Sentinel errors returned by Prepare and Write.
var (
	ErrEmptyPath         = errors.New("results file path is empty")
	ErrUserDeclined      = errors.New("overwrite of existing results file declined")
	ErrCreate            = errors.New("results file could not be created")
	ErrAppendUnavailable = errors.New("results file could not be opened for append")
)

// Confirmer answers a yes/no question put to the operator. Implementations
// may block indefinitely on input.
type Confirmer func(prompt string) (bool, error)

// FixedConfirmer returns a Confirmer with a canned answer, for
// non-interactive runs and tests.
func FixedConfirmer(answer bool) Confirmer {
	return func(string) (bool, error) {
		return answer, nil
	}
}

// StdinConfirmer returns a Confirmer that prints the prompt on out and reads
// lines from in until one of yes/y/no/n is given, case-insensitively and
// ignoring surrounding whitespace. Any other input re-prompts. Exhausted
// input counts as "no" so a non-interactive session cannot overwrite by
// accident.
func StdinConfirmer(in io.Reader, out io.Writer) Confirmer {
	scanner := bufio.NewScanner(in)
	return func(prompt string) (bool, error) {
		for {
			fmt.Fprintf(out, "%s [y/n]: ", prompt)
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil {
					return false, err
				}
				return false, nil
			}
			switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
			case "yes", "y":
				return true, nil
			case "no", "n":
				return false, nil
			}
		}
	}
}

// Prepare makes path ready to receive the report. An existing file is
// truncated only after the confirmer answers yes; in append mode the file is
// instead opened for appending and closed again to verify writability. A
// missing file is created in either mode.
func Prepare(path string, allowAppend bool, confirm Confirmer) error {
	if strings.TrimSpace(path) == "" {
		return ErrEmptyPath
	}

	info, err := os.Stat(path)
	if err == nil && info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrCreate, path)
	}
	exists := err == nil

	if exists && allowAppend {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrAppendUnavailable, err)
		}
		return f.Close()
	}

	if exists {
		ok, err := confirm(fmt.Sprintf("Results file %s already exists. Overwrite it?", path))
		if err != nil {
			return fmt.Errorf("reading overwrite answer: %w", err)
		}
		if !ok {
			return ErrUserDeclined
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCreate, err)
	}
	return f.Close()
}

// Write stores the result lines at path in one write from memory, each line
// terminated with CRLF. Overwrite mode truncates; append mode adds to the
// existing content.
func Write(path string, lines []string, appendMode bool) error {
	if strings.TrimSpace(path) == "" {
		return ErrEmptyPath
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	sentinel := ErrCreate
	if appendMode {
		flags = os.O_WRONLY | os.O_CREATE | os.O_APPEND
		sentinel = ErrAppendUnavailable
	}

	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return fmt.Errorf("%w: %w", sentinel, err)
	}

	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteString("\r\n")
	}
	if _, err := f.WriteString(b.String()); err != nil {
		f.Close()
		return fmt.Errorf("writing results to %s: %w", path, err)
	}
	return f.Close()
}
