// Copyright 2018 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package roster implements contact list functionality.
package roster // import "mellium.im/imcore/roster"

import (
	"encoding/xml"
	"sort"

	"mellium.im/xmlstream"

	"mellium.im/imcore/internal/ns"
)

// Subscription is the presence subscription state of a contact.
type Subscription string

// A list of subscription states.
// Remove only appears in roster pushes and never in a stored Entry.
const (
	SubNone   Subscription = "none"
	SubTo     Subscription = "to"
	SubFrom   Subscription = "from"
	SubBoth   Subscription = "both"
	SubRemove Subscription = "remove"
)

// Entry is a contact in the roster.
type Entry struct {
	// UID is the "jid:" prefixed bare address of the contact.
	UID          string
	Name         string
	Subscription Subscription
	// Groups is kept sorted and free of duplicates.
	Groups []string
	// Resource is the resource of the contact's currently visible connection.
	Resource    string
	Status      Status
	Description string
}

// Store is the contact list of one session.
// Find returns a pointer into the store that remains valid until the entry is
// removed or replaced.
type Store interface {
	Add(e Entry) *Entry
	Find(uid string) (*Entry, bool)
	Remove(uid string) bool
	AttachGroup(uid, group string) bool
	ClearPresence()
	Clear()
	Entries() []Entry
	Len() int
}

// Roster is an in-memory Store.
// It is not safe for concurrent use.
type Roster struct {
	entries map[string]*Entry
}

// New returns an empty roster.
func New() *Roster {
	return &Roster{entries: make(map[string]*Entry)}
}

// Add inserts e, replacing any entry with the same UID.
func (r *Roster) Add(e Entry) *Entry {
	groups := e.Groups
	e.Groups = nil
	for _, g := range groups {
		e.Groups = insertGroup(e.Groups, g)
	}
	if e.Status == 0 {
		e.Status = NotAvail
	}
	p := &e
	r.entries[e.UID] = p
	return p
}

// Find implements Store.
func (r *Roster) Find(uid string) (*Entry, bool) {
	e, ok := r.entries[uid]
	return e, ok
}

// Remove implements Store.
func (r *Roster) Remove(uid string) bool {
	_, ok := r.entries[uid]
	delete(r.entries, uid)
	return ok
}

// AttachGroup adds the contact to a group.
// It reports false if there is no such contact.
func (r *Roster) AttachGroup(uid, group string) bool {
	e, ok := r.entries[uid]
	if !ok {
		return false
	}
	e.Groups = insertGroup(e.Groups, group)
	return true
}

func insertGroup(groups []string, g string) []string {
	if g == "" {
		return groups
	}
	i := sort.SearchStrings(groups, g)
	if i < len(groups) && groups[i] == g {
		return groups
	}
	groups = append(groups, "")
	copy(groups[i+1:], groups[i:])
	groups[i] = g
	return groups
}

// ClearPresence marks every contact unavailable and forgets their resources.
func (r *Roster) ClearPresence() {
	for _, e := range r.entries {
		e.Status = NotAvail
		e.Description = ""
		e.Resource = ""
	}
}

// Clear removes every contact.
func (r *Roster) Clear() {
	r.entries = make(map[string]*Entry)
}

// Entries returns copies of all entries sorted by UID.
func (r *Roster) Entries() []Entry {
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		c := *e
		c.Groups = append([]string(nil), e.Groups...)
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UID < out[j].UID })
	return out
}

// Len implements Store.
func (r *Roster) Len() int {
	return len(r.entries)
}

// Query returns the payload of a roster get request.
func Query() xml.TokenReader {
	return xmlstream.Wrap(nil, xml.StartElement{Name: xml.Name{Space: ns.Roster, Local: "query"}})
}

// Item is a roster update sent to the server.
// JID and the group names must already be in wire form.
type Item struct {
	JID          string
	Name         string
	Subscription Subscription
	Groups       []string
}

// TokenReader satisfies the xmlstream.Marshaler interface.
// The item is wrapped in a roster query element.
func (item Item) TokenReader() xml.TokenReader {
	var groups []xml.TokenReader
	for _, g := range item.Groups {
		groups = append(groups, xmlstream.Wrap(
			xmlstream.Token(xml.CharData(g)),
			xml.StartElement{Name: xml.Name{Local: "group"}},
		))
	}

	attrs := []xml.Attr{{Name: xml.Name{Local: "jid"}, Value: item.JID}}
	if item.Name != "" {
		attrs = append(attrs, xml.Attr{Name: xml.Name{Local: "name"}, Value: item.Name})
	}
	if item.Subscription != "" {
		attrs = append(attrs, xml.Attr{Name: xml.Name{Local: "subscription"}, Value: string(item.Subscription)})
	}

	return xmlstream.Wrap(
		xmlstream.Wrap(
			xmlstream.MultiReader(groups...),
			xml.StartElement{Name: xml.Name{Local: "item"}, Attr: attrs},
		),
		xml.StartElement{Name: xml.Name{Space: ns.Roster, Local: "query"}},
	)
}
