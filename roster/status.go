// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

//go:generate go run -tags=tools golang.org/x/tools/cmd/stringer -type=Status -linecomment

package roster

import (
	"strings"
)

// Status is the normalized availability of a contact or of the local user.
// The String form is the short name used in events and commands.
type Status int

// A list of statuses.
// The zero value is not a valid status.
const (
	Available   Status = iota + 1 // avail
	NotAvail                      // notavail
	Error                         // error
	Away                          // away
	Invisible                     // invisible
	XA                            // xa
	DND                           // dnd
	FreeForChat                   // chat
	Blocked                       // blocked
)

// ParseStatus maps a status name or a presence <show/> value to a Status.
// Matching is case insensitive.
func ParseStatus(s string) (Status, bool) {
	for st := Available; st <= Blocked; st++ {
		if strings.EqualFold(s, st.String()) {
			return st, true
		}
	}
	if strings.EqualFold(s, "na") || strings.EqualFold(s, "unavailable") {
		return NotAvail, true
	}
	return 0, false
}

// Show returns the <show/> value that advertises the status, or the empty
// string if the status is not expressed through <show/>.
func (s Status) Show() string {
	switch s {
	case Away, XA, DND, FreeForChat:
		return s.String()
	}
	return ""
}
