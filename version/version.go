// Copyright 2021 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package version builds and reads software version payloads.
package version // import "mellium.im/imcore/version"

import (
	"encoding/xml"
	"strings"

	"golang.org/x/sys/unix"
	"mellium.im/xmlstream"

	"mellium.im/imcore/internal/ns"
	"mellium.im/imcore/stanza"
)

// Query is the payload of a software version query or response.
type Query struct {
	Name    string
	Version string
	OS      string
}

// TokenReader implements xmlstream.Marshaler.
// Empty fields are omitted, so the zero Query is a version request.
func (q Query) TokenReader() xml.TokenReader {
	var payloads []xml.TokenReader
	if q.Name != "" {
		payloads = append(payloads, stanza.Text("name", q.Name))
	}
	if q.Version != "" {
		payloads = append(payloads, stanza.Text("version", q.Version))
	}
	if q.OS != "" {
		payloads = append(payloads, stanza.Text("os", q.OS))
	}
	return xmlstream.Wrap(
		xmlstream.MultiReader(payloads...),
		xml.StartElement{Name: xml.Name{Space: ns.Version, Local: "query"}},
	)
}

// Parse reads a version response, passing every value through unescape.
func Parse(query *stanza.Node, unescape func(string) string) Query {
	return Query{
		Name:    unescape(query.ChildText("name")),
		Version: unescape(query.ChildText("version")),
		OS:      unescape(query.ChildText("os")),
	}
}

// OS describes the running system as "sysname release machine".
// It returns the empty string if the system cannot be queried.
func OS() string {
	var u unix.Utsname
	if err := unix.Uname(&u); err != nil {
		return ""
	}
	return strings.Join([]string{
		unix.ByteSliceToString(u.Sysname[:]),
		unix.ByteSliceToString(u.Release[:]),
		unix.ByteSliceToString(u.Machine[:]),
	}, " ")
}
