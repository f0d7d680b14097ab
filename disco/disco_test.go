// Copyright 2021 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package disco_test

import (
	"bytes"
	"encoding/xml"
	"testing"

	"mellium.im/xmlstream"

	"mellium.im/imcore/disco"
	"mellium.im/imcore/internal/xmltok"
	"mellium.im/imcore/stanza"
)

type single struct{ n *stanza.Node }

func (*single) StreamStart(string, []xmltok.Attr) {}
func (s *single) Stanza(n *stanza.Node)           { s.n = n }
func (*single) StreamEnd()                        {}

func TestParseItems(t *testing.T) {
	s := &single{}
	_, err := xmltok.New(stanza.NewBuilder(s)).Write([]byte(`<stream><query xmlns="http://jabber.org/protocol/disco#items">` +
		`<item jid="icq.example" name="ICQ Transport"/>` +
		`<item name="no address"/>` +
		`<feature var="ignored"/>` +
		`<item jid="muc.example" node="rooms"/>` +
		`</query>`))
	if err != nil {
		t.Fatalf("error parsing: %v", err)
	}
	items := disco.ParseItems(s.n, func(s string) string { return s })
	want := []disco.Item{
		{JID: "icq.example", Name: "ICQ Transport"},
		{JID: "muc.example", Node: "rooms"},
	}
	if len(items) != len(want) {
		t.Fatalf("wrong items: got %+v, want %+v", items, want)
	}
	for i := range want {
		if items[i] != want[i] {
			t.Errorf("item %d: got %+v, want %+v", i, items[i], want[i])
		}
	}
}

func TestItemsQuery(t *testing.T) {
	for node, want := range map[string]string{
		"":      `<query xmlns="http://jabber.org/protocol/disco#items"></query>`,
		"rooms": `<query xmlns="http://jabber.org/protocol/disco#items" node="rooms"></query>`,
	} {
		var buf bytes.Buffer
		e := xml.NewEncoder(&buf)
		if _, err := xmlstream.Copy(e, disco.ItemsQuery(node)); err != nil {
			t.Fatalf("error encoding: %v", err)
		}
		if err := e.Flush(); err != nil {
			t.Fatalf("error flushing: %v", err)
		}
		if got := buf.String(); got != want {
			t.Errorf("got %s, want %s", got, want)
		}
	}
}
