// Copyright 2020 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package receipts implements XEP-0184: Message Delivery Receipts.
package receipts // import "mellium.im/imcore/receipts"

import (
	"encoding/xml"

	"mellium.im/xmlstream"

	"mellium.im/imcore/internal/ns"
	"mellium.im/imcore/stanza"
)

// Request returns the element that asks the recipient for a receipt.
func Request() xml.TokenReader {
	return xmlstream.Wrap(
		nil,
		xml.StartElement{Name: xml.Name{Space: ns.Receipts, Local: "request"}},
	)
}

// Received returns the receipt for the message with the given id.
func Received(id string) xml.TokenReader {
	return xmlstream.Wrap(
		nil,
		xml.StartElement{
			Name: xml.Name{Space: ns.Receipts, Local: "received"},
			Attr: []xml.Attr{{Name: xml.Name{Local: "id"}, Value: id}},
		},
	)
}

// Requested reports whether msg asks for a receipt.
func Requested(msg *stanza.Node) bool {
	return msg.ChildNS("request", ns.Receipts) != nil
}

// ReceivedID returns the id of the message acknowledged by msg, if any.
// Receipts without an id acknowledge the message with the same id as msg.
func ReceivedID(msg *stanza.Node) (string, bool) {
	r := msg.ChildNS("received", ns.Receipts)
	if r == nil {
		return "", false
	}
	if id := r.Attr("id"); id != "" {
		return id, true
	}
	return msg.Attr("id"), true
}
