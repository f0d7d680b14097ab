// Copyright 2021 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package muc_test

import (
	"strconv"
	"testing"

	"mellium.im/imcore/internal/xmltok"
	"mellium.im/imcore/muc"
	"mellium.im/imcore/stanza"
)

type single struct{ n *stanza.Node }

func (*single) StreamStart(string, []xmltok.Attr) {}
func (s *single) Stanza(n *stanza.Node)           { s.n = n }
func (*single) StreamEnd()                        {}

func parse(t *testing.T, in string) *stanza.Node {
	t.Helper()
	s := &single{}
	tok := xmltok.New(stanza.NewBuilder(s))
	if _, err := tok.Write([]byte("<stream>" + in)); err != nil {
		t.Fatalf("error parsing %q: %v", in, err)
	}
	return s.n
}

func identity(s string) string { return s }

func TestRooms(t *testing.T) {
	var r muc.Rooms
	if r.Len() != 0 || len(r.Members("room@conf")) != 0 {
		t.Fatalf("zero value should be empty")
	}
	r.Join("room@conf", muc.Member{Nick: "b", UID: "jid:b@x"})
	r.Join("room@conf", muc.Member{Nick: "a", UID: "jid:a@x"})
	r.Join("other@conf", muc.Member{Nick: "a"})

	members := r.Members("room@conf")
	if len(members) != 2 || members[0].Nick != "a" || members[1].Nick != "b" {
		t.Errorf("wrong members: %+v", members)
	}
	if !r.Part("room@conf", "a") || r.Part("room@conf", "a") || r.Part("nope@conf", "a") {
		t.Errorf("wrong Part results")
	}
	if rooms := r.Rooms(); len(rooms) != 2 || rooms[0] != "other@conf" {
		t.Errorf("wrong rooms: %v", rooms)
	}
	r.Leave("other@conf")
	if r.Len() != 1 {
		t.Errorf("wrong number of rooms after leave: %d", r.Len())
	}
	r.Clear()
	if r.Len() != 0 {
		t.Errorf("rooms not cleared")
	}
}

var presenceTestCases = [...]struct {
	in   string
	ok   bool
	want []muc.Update
}{
	0: {in: `<presence from="a@b/c"/>`},
	1: {in: `<presence from="a@b/c"><x xmlns="http://jabber.org/protocol/muc"/></presence>`},
	2: {
		in: `<presence from="room@conf/nick"><x xmlns="http://jabber.org/protocol/muc#user"><item affiliation="owner" role="moderator" jid="n@x/r"/></x></presence>`,
		ok: true,
		want: []muc.Update{{
			Room:   "room@conf",
			Member: muc.Member{Nick: "nick", UID: "jid:n@x/r", Role: muc.RoleModerator, Affiliation: muc.AffiliationOwner},
		}},
	},
	3: {
		in: `<presence from="room@conf/nick" type="unavailable"><x xmlns="http://jabber.org/protocol/muc#user"><item affiliation="none" role="none"/><status code="110"/></x></presence>`,
		ok: true,
		want: []muc.Update{{
			Room:   "room@conf",
			Member: muc.Member{Nick: "nick", UID: "jid:room@conf/nick"},
			Part:   true,
		}},
	},
	4: {
		in: `<presence from="room@conf/nick"><x xmlns="http://jabber.org/protocol/muc#user"><item role="bogus" affiliation="member"/></x></presence>`,
		ok: true,
		want: []muc.Update{{
			Room:   "room@conf",
			Member: muc.Member{Nick: "nick", UID: "jid:room@conf/nick", Affiliation: muc.AffiliationMember},
		}},
	},
}

func TestParsePresence(t *testing.T) {
	for i, tc := range presenceTestCases {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			updates, ok := muc.ParsePresence(parse(t, tc.in), identity)
			if ok != tc.ok {
				t.Fatalf("wrong ok: got %t, want %t", ok, tc.ok)
			}
			if len(updates) != len(tc.want) {
				t.Fatalf("wrong number of updates: got %+v, want %+v", updates, tc.want)
			}
			for j, u := range updates {
				if u != tc.want[j] {
					t.Errorf("update %d: got %+v, want %+v", j, u, tc.want[j])
				}
			}
		})
	}
}

func TestApply(t *testing.T) {
	var r muc.Rooms
	join, _ := muc.ParsePresence(parse(t, `<presence from="room@conf/nick"><x xmlns="http://jabber.org/protocol/muc#user"><item role="participant"/></x></presence>`), identity)
	r.Apply(join)
	if m := r.Members("room@conf"); len(m) != 1 || m[0].Role != muc.RoleParticipant {
		t.Fatalf("join not applied: %+v", m)
	}
	part, _ := muc.ParsePresence(parse(t, `<presence type="unavailable" from="room@conf/nick"><x xmlns="http://jabber.org/protocol/muc#user"><item role="none"/></x></presence>`), identity)
	r.Apply(part)
	if m := r.Members("room@conf"); len(m) != 0 {
		t.Errorf("part not applied: %+v", m)
	}
}

func TestStrings(t *testing.T) {
	if s := muc.AffiliationOutcast.String(); s != "outcast" {
		t.Errorf("wrong affiliation string: %q", s)
	}
	if s := muc.Role(9).String(); s != "Role(9)" {
		t.Errorf("wrong string for unknown role: %q", s)
	}
	if muc.ParseRole("visitor") != muc.RoleVisitor || muc.ParseAffiliation("admin") != muc.AffiliationAdmin {
		t.Errorf("wrong parse results")
	}
}
