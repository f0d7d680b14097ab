// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package vcard reads the subset of vcard-temp profiles shown to users.
package vcard // import "mellium.im/imcore/vcard"

import (
	"encoding/xml"

	"mellium.im/xmlstream"

	"mellium.im/imcore/internal/ns"
	"mellium.im/imcore/stanza"
)

// Card is a user profile.
// Fields missing from the profile are left empty.
type Card struct {
	FullName    string
	Nickname    string
	Birthday    string
	Locality    string
	Description string
}

// Query returns the payload of a profile request.
func Query() xml.TokenReader {
	return xmlstream.Wrap(nil, xml.StartElement{Name: xml.Name{Space: ns.VCard, Local: "vCard"}})
}

// Parse reads a vCard element, passing every value through unescape.
// The locality is taken from the first address.
func Parse(v *stanza.Node, unescape func(string) string) Card {
	return Card{
		FullName:    unescape(v.ChildText("FN")),
		Nickname:    unescape(v.ChildText("NICKNAME")),
		Birthday:    unescape(v.ChildText("BDAY")),
		Locality:    unescape(v.Child("ADR").ChildText("LOCALITY")),
		Description: unescape(v.ChildText("DESC")),
	}
}
