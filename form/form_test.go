// Copyright 2017 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package form_test

import (
	"bytes"
	"encoding/xml"
	"strconv"
	"testing"

	"mellium.im/xmlstream"

	"mellium.im/imcore/form"
	"mellium.im/imcore/internal/xmltok"
	"mellium.im/imcore/stanza"
)

type single struct{ n *stanza.Node }

func (*single) StreamStart(string, []xmltok.Attr) {}
func (s *single) Stanza(n *stanza.Node)           { s.n = n }
func (*single) StreamEnd()                        {}

func parse(t *testing.T, in string) form.Data {
	t.Helper()
	s := &single{}
	if _, err := xmltok.New(stanza.NewBuilder(s)).Write([]byte("<stream>" + in)); err != nil {
		t.Fatalf("error parsing: %v", err)
	}
	return form.Parse(s.n, func(s string) string { return s })
}

const dataForm = `<query xmlns="jabber:iq:register">
<instructions>ignored when a form is present</instructions>
<x xmlns="jabber:x:data" type="form">
<title>Sign up</title>
<instructions>Fill in the form</instructions>
<field type="hidden" var="FORM_TYPE"><value>jabber:iq:register</value></field>
<field type="text-single" label="Given Name" var="first"><required/></field>
<field type="boolean" var="tos"><value>0</value></field>
<field type="list-single" var="color" label="Color"><option label="Red"><value>r</value></option><option label="Blue"><value>b</value></option></field>
</x>
</query>`

func TestParseDataForm(t *testing.T) {
	d := parse(t, dataForm)
	if !d.DataForm || d.Title != "Sign up" || d.Instructions != "Fill in the form" {
		t.Errorf("wrong form header: %+v", d)
	}
	if len(d.Fields) != 4 {
		t.Fatalf("wrong number of fields: %d", len(d.Fields))
	}
	first, ok := d.Lookup("first")
	if !ok || !first.Required || first.Label != "Given Name" {
		t.Errorf("wrong field: %+v", first)
	}
	if tos, _ := d.Lookup("tos"); tos.Choices() != "0/1" || tos.Value != "0" {
		t.Errorf("wrong boolean field: %+v", tos)
	}
	if color, _ := d.Lookup("color"); color.Choices() != "r [Red] b [Blue]" {
		t.Errorf("wrong list choices: %q", color.Choices())
	}
	if _, ok := d.Lookup("nope"); ok {
		t.Errorf("found nonexistent field")
	}
}

func TestParseLegacy(t *testing.T) {
	d := parse(t, `<query xmlns="jabber:iq:register"><instructions>Choose a name</instructions><username>juliet</username><password/><registered/></query>`)
	if d.DataForm || d.Instructions != "Choose a name" {
		t.Errorf("wrong form header: %+v", d)
	}
	if len(d.Fields) != 2 || d.Fields[0].Var != "username" || d.Fields[0].Value != "juliet" || d.Fields[1].Var != "password" {
		t.Errorf("wrong fields: %+v", d.Fields)
	}
}

var submitTestCases = [...]struct {
	data   form.Data
	values map[string]string
	want   string
}{
	0: {
		values: map[string]string{"username": "juliet", "password": "x<y"},
		want:   `<query xmlns="jabber:iq:register"><password>x&lt;y</password><username>juliet</username></query>`,
	},
	1: {
		data:   form.Data{DataForm: true},
		values: map[string]string{"first": "Juliet"},
		want:   `<query xmlns="jabber:iq:register"><x xmlns="jabber:x:data" type="submit"><field var="first"><value>Juliet</value></field></x></query>`,
	},
	2: {
		want: `<query xmlns="jabber:iq:register"></query>`,
	},
}

func TestSubmit(t *testing.T) {
	for i, tc := range submitTestCases {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			var buf bytes.Buffer
			e := xml.NewEncoder(&buf)
			if _, err := xmlstream.Copy(e, tc.data.Submit(tc.values)); err != nil {
				t.Fatalf("error encoding: %v", err)
			}
			if err := e.Flush(); err != nil {
				t.Fatalf("error flushing: %v", err)
			}
			if got := buf.String(); got != tc.want {
				t.Errorf("got %s, want %s", got, tc.want)
			}
		})
	}
}
