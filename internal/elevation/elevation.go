// Copyright 2026 Red Hat
// SPDX-License-Identifier: Apache-2.0

// Package elevation answers whether the current process runs with
// administrative rights. Cluster and hypervisor management queries require an
// elevated session, so callers gate collection on this check.
package elevation

// IsElevated reports whether the process runs in an elevated administrative
// session. Any failure to determine this counts as not elevated; the check
// never errors and has no side effects.
func IsElevated() bool {
	return isElevated()
}
