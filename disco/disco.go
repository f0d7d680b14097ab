// Copyright 2021 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package disco implements service discovery item listings.
package disco // import "mellium.im/imcore/disco"

import (
	"encoding/xml"

	"mellium.im/xmlstream"

	"mellium.im/imcore/internal/ns"
	"mellium.im/imcore/stanza"
)

// Item represents a discovered item, typically a transport or service.
type Item struct {
	JID  string
	Name string
	Node string
}

// ItemsQuery returns the payload of an items request.
// If node is not empty only the items below that node are requested.
func ItemsQuery(node string) xml.TokenReader {
	start := xml.StartElement{Name: xml.Name{Space: ns.Items, Local: "query"}}
	if node != "" {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "node"}, Value: node})
	}
	return xmlstream.Wrap(nil, start)
}

// ParseItems reads the items of a disco#items result in document order.
// Items without a jid are skipped.
func ParseItems(query *stanza.Node, unescape func(string) string) []Item {
	var items []Item
	for _, c := range query.Children {
		if c.Name != "item" || c.Attr("jid") == "" {
			continue
		}
		items = append(items, Item{
			JID:  unescape(c.Attr("jid")),
			Name: unescape(c.Attr("name")),
			Node: c.Attr("node"),
		})
	}
	return items
}
