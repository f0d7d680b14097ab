// Copyright 2017 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package form

import (
	"encoding/xml"
	"sort"

	"mellium.im/xmlstream"

	"mellium.im/imcore/internal/ns"
)

// Submit returns a jabber:iq:register query that answers d with values.
// Values are keyed by field var and are written in sorted order.
// Data forms are answered with a jabber:x:data submission, legacy forms with
// one element per field.
func (d Data) Submit(values map[string]string) xml.TokenReader {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var inner []xml.TokenReader
	for _, k := range keys {
		value := xmlstream.Token(xml.CharData(values[k]))
		if !d.DataForm {
			inner = append(inner, xmlstream.Wrap(value, xml.StartElement{Name: xml.Name{Local: k}}))
			continue
		}
		inner = append(inner, xmlstream.Wrap(
			xmlstream.Wrap(value, xml.StartElement{Name: xml.Name{Local: "value"}}),
			xml.StartElement{
				Name: xml.Name{Local: "field"},
				Attr: []xml.Attr{{Name: xml.Name{Local: "var"}, Value: k}},
			},
		))
	}

	payload := xmlstream.MultiReader(inner...)
	if d.DataForm {
		payload = xmlstream.Wrap(payload, xml.StartElement{
			Name: xml.Name{Space: ns.Data, Local: "x"},
			Attr: []xml.Attr{{Name: xml.Name{Local: "type"}, Value: "submit"}},
		})
	}
	return xmlstream.Wrap(payload, xml.StartElement{Name: xml.Name{Space: ns.Register, Local: "query"}})
}
