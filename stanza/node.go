// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package stanza

import (
	"encoding/xml"
	"strings"

	"mellium.im/imcore/internal/xmltok"
)

// Node is an element of an inbound stanza.
// A node owns its children; there are no links back to the parent.
type Node struct {
	Name     string
	Attrs    []xmltok.Attr
	Text     string
	Children []*Node
}

// Attr returns the value of the named attribute or the empty string.
func (n *Node) Attr(name string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value
		}
	}
	return ""
}

// NS returns the namespace declared on the node itself.
func (n *Node) NS() string {
	return n.Attr("xmlns")
}

// Child returns the first child with the given name or nil.
func (n *Node) Child(name string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ChildNS returns the first child with the given name that declares xmlns.
func (n *Node) ChildNS(name, xmlns string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Name == name && c.NS() == xmlns {
			return c
		}
	}
	return nil
}

// ChildText returns the character data of the first child with the given name.
func (n *Node) ChildText(name string) string {
	if c := n.Child(name); c != nil {
		return c.Text
	}
	return ""
}

// String serializes the node.
// It is meant for logging and does not necessarily reproduce the original
// markup.
func (n *Node) String() string {
	var b strings.Builder
	n.write(&b)
	return b.String()
}

func (n *Node) write(b *strings.Builder) {
	if n == nil {
		return
	}
	b.WriteByte('<')
	b.WriteString(n.Name)
	for _, a := range n.Attrs {
		b.WriteByte(' ')
		b.WriteString(a.Name)
		b.WriteString(`="`)
		xml.EscapeText(b, []byte(a.Value))
		b.WriteByte('"')
	}
	if n.Text == "" && len(n.Children) == 0 {
		b.WriteString("/>")
		return
	}
	b.WriteByte('>')
	xml.EscapeText(b, []byte(n.Text))
	for _, c := range n.Children {
		c.write(b)
	}
	b.WriteString("</")
	b.WriteString(n.Name)
	b.WriteByte('>')
}

// StreamHandler receives the stream root and the stanzas inside it.
type StreamHandler interface {
	StreamStart(name string, attr []xmltok.Attr)
	Stanza(n *Node)
	StreamEnd()
}

// Builder turns tokenizer events into one tree per top-level element.
// It implements xmltok.Handler.
type Builder struct {
	h     StreamHandler
	open  bool
	stack []*Node
}

// NewBuilder returns a Builder that reports to h.
func NewBuilder(h StreamHandler) *Builder {
	return &Builder{h: h}
}

// StartElement implements xmltok.Handler.
func (b *Builder) StartElement(name string, attr []xmltok.Attr) {
	if !b.open {
		b.open = true
		b.h.StreamStart(name, attr)
		return
	}
	n := &Node{Name: name, Attrs: attr}
	if len(b.stack) > 0 {
		parent := b.stack[len(b.stack)-1]
		parent.Children = append(parent.Children, n)
	}
	b.stack = append(b.stack, n)
}

// EndElement implements xmltok.Handler.
func (b *Builder) EndElement(string) {
	if len(b.stack) == 0 {
		b.open = false
		b.h.StreamEnd()
		return
	}
	n := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]
	if len(b.stack) == 0 {
		b.h.Stanza(n)
	}
}

// CharData implements xmltok.Handler.
// Whitespace between stanzas is dropped.
func (b *Builder) CharData(data []byte) {
	if len(b.stack) == 0 {
		return
	}
	n := b.stack[len(b.stack)-1]
	n.Text += string(data)
}
