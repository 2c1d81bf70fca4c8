// Copyright 2026 Red Hat
// SPDX-License-Identifier: Apache-2.0

//go:build !windows

package elevation

// The failover cluster service only exists on Windows; any other platform is
// never an elevated cluster session.
func isElevated() bool {
	return false
}
