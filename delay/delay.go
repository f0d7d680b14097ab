// Copyright 2021 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package delay extracts delayed delivery stamps from stanzas.
package delay // import "mellium.im/imcore/delay"

import (
	"time"

	"mellium.im/imcore/internal/ns"
	"mellium.im/imcore/stanza"
	"mellium.im/imcore/xtime"
)

// Stamp returns the time the stanza was originally sent if it carries a
// delayed delivery payload.
// The urn:xmpp:delay form is preferred over the legacy jabber:x:delay form
// when both are present.
// Payloads with a missing or malformed stamp are ignored.
func Stamp(n *stanza.Node) (time.Time, bool) {
	if n == nil {
		return time.Time{}, false
	}
	var legacy time.Time
	var haveLegacy bool
	for _, c := range n.Children {
		switch {
		case c.Name == "delay" && c.NS() == ns.Delay:
			t, err := time.Parse(time.RFC3339, c.Attr("stamp"))
			if err == nil {
				return t, true
			}
		case c.Name == "x" && c.NS() == ns.LegacyDelay && !haveLegacy:
			t, err := xtime.ParseLegacy(c.Attr("stamp"))
			if err == nil {
				legacy, haveLegacy = t, true
			}
		}
	}
	return legacy, haveLegacy
}

// StampOr is like Stamp but returns now when the stanza was not delayed.
func StampOr(n *stanza.Node, now time.Time) time.Time {
	if t, ok := Stamp(n); ok {
		return t
	}
	return now
}
