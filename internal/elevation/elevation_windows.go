// Copyright 2026 Red Hat
// SPDX-License-Identifier: Apache-2.0

//go:build windows

package elevation

import "golang.org/x/sys/windows"

// isElevated reports membership of the built-in Administrators group for the
// current security context. CheckTokenMembership requires an impersonation
// token, so the zero Token is passed and the call impersonates the caller
// itself. A token filtered by UAC does not report membership, so a
// non-elevated admin session comes back false.
func isElevated() bool {
	sid, err := windows.CreateWellKnownSid(windows.WinBuiltinAdministratorsSid)
	if err != nil {
		return false
	}
	member, err := windows.Token(0).IsMember(sid)
	if err != nil {
		return false
	}
	return member
}
