// Copyright 2021 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package delay_test

import (
	"strconv"
	"testing"
	"time"

	"mellium.im/imcore/delay"
	"mellium.im/imcore/internal/xmltok"
	"mellium.im/imcore/stanza"
)

type single struct{ n *stanza.Node }

func (*single) StreamStart(string, []xmltok.Attr) {}
func (s *single) Stanza(n *stanza.Node)           { s.n = n }
func (*single) StreamEnd()                        {}

var now = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

var stampTestCases = [...]struct {
	in      string
	want    time.Time
	delayed bool
}{
	0: {in: `<message/>`, want: now},
	1: {
		in:      `<message><x xmlns="jabber:x:delay" stamp="20020910T23:08:25"/></message>`,
		want:    time.Date(2002, 9, 10, 23, 8, 25, 0, time.UTC),
		delayed: true,
	},
	2: {
		in:      `<presence><delay xmlns="urn:xmpp:delay" stamp="2002-09-10T23:41:07Z"/></presence>`,
		want:    time.Date(2002, 9, 10, 23, 41, 7, 0, time.UTC),
		delayed: true,
	},
	3: {
		in:      `<message><x xmlns="jabber:x:delay" stamp="20020910T23:08:25"/><delay xmlns="urn:xmpp:delay" stamp="2002-09-10T23:41:07Z"/></message>`,
		want:    time.Date(2002, 9, 10, 23, 41, 7, 0, time.UTC),
		delayed: true,
	},
	4: {in: `<message><x xmlns="jabber:x:delay" stamp="garbage"/></message>`, want: now},
	5: {in: `<message><x xmlns="jabber:x:event" stamp="20020910T23:08:25"/></message>`, want: now},
	6: {
		in:      `<message><x xmlns="jabber:x:event"><composing/></x><x xmlns="jabber:x:delay" stamp="20020910T23:08:25"/></message>`,
		want:    time.Date(2002, 9, 10, 23, 8, 25, 0, time.UTC),
		delayed: true,
	},
}

func TestStamp(t *testing.T) {
	for i, tc := range stampTestCases {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			s := &single{}
			if _, err := xmltok.New(stanza.NewBuilder(s)).Write([]byte("<stream>" + tc.in)); err != nil {
				t.Fatalf("error parsing: %v", err)
			}
			_, delayed := delay.Stamp(s.n)
			if delayed != tc.delayed {
				t.Errorf("wrong delayed flag: got %t, want %t", delayed, tc.delayed)
			}
			if got := delay.StampOr(s.n, now); !got.Equal(tc.want) {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}
