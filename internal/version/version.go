// Copyright 2026 Red Hat
// SPDX-License-Identifier: Apache-2.0

package version

// Version is the current release of vmstor.
const Version = "0.1.0"
