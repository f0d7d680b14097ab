// Copyright 2017 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package form reads registration forms in either the data forms or the
// legacy in-band registration format, and builds the matching submissions.
package form // import "mellium.im/imcore/form"

import (
	"strings"

	"mellium.im/imcore/internal/ns"
	"mellium.im/imcore/stanza"
)

// Option is one of the choices offered by a list field.
type Option struct {
	Label string
	Value string
}

// Field is a single form field.
// Legacy registration fields only carry Var and Value.
type Field struct {
	Var      string
	Type     string
	Label    string
	Value    string
	Required bool
	Options  []Option
}

// Choices summarizes the allowed values of a field, for example "0/1" for a
// boolean or "a [A] b [B]" for a list.
func (f Field) Choices() string {
	if f.Type == "boolean" {
		return "0/1"
	}
	var b strings.Builder
	for i, o := range f.Options {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(o.Value)
		b.WriteString(" [")
		b.WriteString(o.Label)
		b.WriteByte(']')
	}
	return b.String()
}

// Data is a registration form.
type Data struct {
	// DataForm is set when the form used the jabber:x:data format.
	DataForm     bool
	Title        string
	Instructions string
	Fields       []Field
}

// Lookup returns the field with the given var.
func (d Data) Lookup(v string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Var == v {
			return f, true
		}
	}
	return Field{}, false
}

// Parse reads the form out of a jabber:iq:register query.
// If the query embeds a jabber:x:data form it takes precedence over the legacy
// fields.
// Every text value is passed through unescape.
func Parse(query *stanza.Node, unescape func(string) string) Data {
	if x := query.ChildNS("x", ns.Data); x != nil {
		return parseData(x, unescape)
	}

	var d Data
	for _, c := range query.Children {
		switch c.Name {
		case "instructions":
			d.Instructions = unescape(c.Text)
		case "registered", "x":
		default:
			d.Fields = append(d.Fields, Field{
				Var:   c.Name,
				Value: unescape(c.Text),
			})
		}
	}
	return d
}

func parseData(x *stanza.Node, unescape func(string) string) Data {
	d := Data{DataForm: true}
	for _, c := range x.Children {
		switch c.Name {
		case "title":
			d.Title = unescape(c.Text)
		case "instructions":
			if d.Instructions != "" {
				d.Instructions += "\n"
			}
			d.Instructions += unescape(c.Text)
		case "field":
			d.Fields = append(d.Fields, parseField(c, unescape))
		}
	}
	return d
}

func parseField(n *stanza.Node, unescape func(string) string) Field {
	f := Field{
		Var:   n.Attr("var"),
		Type:  n.Attr("type"),
		Label: unescape(n.Attr("label")),
	}
	for _, c := range n.Children {
		switch c.Name {
		case "required":
			f.Required = true
		case "value":
			f.Value = unescape(c.Text)
		case "option":
			f.Options = append(f.Options, Option{
				Label: unescape(c.Attr("label")),
				Value: unescape(c.ChildText("value")),
			})
		}
	}
	return f
}
