// Copyright 2021 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package muc tracks Multi-User Chat room occupants.
//
// Rooms are keyed by the bare address of the room and hold one Member per
// occupant nickname.
// Room state is kept apart from the roster: occupants of a room are never
// contacts.
package muc // import "mellium.im/imcore/muc"

import (
	"sort"

	"mellium.im/imcore/internal/ns"
	"mellium.im/imcore/jid"
	"mellium.im/imcore/stanza"
)

// Member is a room occupant.
type Member struct {
	// Nick is the resourcepart of the occupant's room address.
	Nick string
	// UID is the "jid:" prefixed real address when the room reveals it, or the
	// occupant's room address otherwise.
	UID         string
	Role        Role
	Affiliation Affiliation
}

// Rooms holds the member lists of every room a session is in.
// The zero value is an empty set of rooms ready for use.
// It is not safe for concurrent use.
type Rooms struct {
	rooms map[string]map[string]Member
}

// Join adds or updates an occupant of room.
func (r *Rooms) Join(room string, m Member) {
	if r.rooms == nil {
		r.rooms = make(map[string]map[string]Member)
	}
	members, ok := r.rooms[room]
	if !ok {
		members = make(map[string]Member)
		r.rooms[room] = members
	}
	members[m.Nick] = m
}

// Part removes an occupant from room and reports whether it was present.
// The room itself is kept even when it becomes empty.
func (r *Rooms) Part(room, nick string) bool {
	members, ok := r.rooms[room]
	if !ok {
		return false
	}
	_, ok = members[nick]
	delete(members, nick)
	return ok
}

// Leave forgets a room and all of its occupants.
func (r *Rooms) Leave(room string) {
	delete(r.rooms, room)
}

// Members returns the occupants of room sorted by nickname.
func (r *Rooms) Members(room string) []Member {
	members := r.rooms[room]
	out := make([]Member, 0, len(members))
	for _, m := range members {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nick < out[j].Nick })
	return out
}

// Rooms returns the bare addresses of all known rooms in sorted order.
func (r *Rooms) Rooms() []string {
	out := make([]string, 0, len(r.rooms))
	for room := range r.rooms {
		out = append(out, room)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of known rooms.
func (r *Rooms) Len() int {
	return len(r.rooms)
}

// Clear forgets every room.
func (r *Rooms) Clear() {
	r.rooms = nil
}

// Update is a membership change carried by a room presence.
type Update struct {
	Room   string
	Member Member
	// Part is set when the occupant left the room.
	Part bool
}

// ParsePresence extracts the membership changes from a presence stanza.
// It reports false if the presence does not carry a muc#user payload, in
// which case the stanza is not a room presence at all.
// Text values are passed through unescape before they are stored.
func ParsePresence(p *stanza.Node, unescape func(string) string) ([]Update, bool) {
	x := p.ChildNS("x", ns.MUCUser)
	if x == nil {
		return nil, false
	}
	room, nick := jid.Split(unescape(p.Attr("from")))
	part := p.Attr("type") == string(stanza.UnavailablePresence)

	var updates []Update
	for _, item := range x.Children {
		if item.Name != "item" {
			continue
		}
		m := Member{
			Nick:        nick,
			Role:        ParseRole(item.Attr("role")),
			Affiliation: ParseAffiliation(item.Attr("affiliation")),
		}
		if real := unescape(item.Attr("jid")); real != "" {
			m.UID = jid.UIDPrefix + real
		} else {
			m.UID = jid.UIDPrefix + room + "/" + nick
		}
		updates = append(updates, Update{Room: room, Member: m, Part: part})
	}
	return updates, true
}

// Apply applies updates to the rooms.
func (r *Rooms) Apply(updates []Update) {
	for _, u := range updates {
		if u.Part {
			r.Part(u.Room, u.Member.Nick)
			continue
		}
		r.Join(u.Room, u.Member)
	}
}
