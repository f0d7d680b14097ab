// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package xmpp

import (
	"encoding/base64"
	"reflect"
	"strings"
	"testing"

	"mellium.im/imcore/event"
	"mellium.im/imcore/watch"
)

const (
	saslHeader   = `<?xml version="1.0" encoding="utf-8"?><stream:stream to="example.net" version="1.0" xmlns="jabber:client" xmlns:stream="http://etherx.jabber.org/streams">`
	saslStream   = `<stream:stream xmlns='jabber:client' xmlns:stream='http://etherx.jabber.org/streams' id='s1' from='example.net' version='1.0'>`
	saslFeatures = `<stream:features><mechanisms xmlns='urn:ietf:params:xml:ns:xmpp-sasl'>%s</mechanisms></stream:features>`
)

func features(mechs ...string) string {
	var b strings.Builder
	for _, m := range mechs {
		b.WriteString("<mechanism>" + m + "</mechanism>")
	}
	return strings.Replace(saslFeatures, "%s", b.String(), 1)
}

func TestSASLPlain(t *testing.T) {
	ts := newTestSession(t, Config{Auth: AuthSASL, PlaintextPassword: true})
	ts.onConnectReady(ts.fd, watch.Write)
	if got := ts.sent(t); got != saslHeader {
		t.Fatalf("wrong stream header:\ngot  %s\nwant %s", got, saslHeader)
	}

	ts.recv(saslStream + features("SCRAM-SHA-1-PLUS", "PLAIN"))
	wantAuth := `<auth xmlns="urn:ietf:params:xml:ns:xmpp-sasl" mechanism="PLAIN">` +
		base64.StdEncoding.EncodeToString([]byte("\x00romeo\x00secret")) + `</auth>`
	if got := ts.sent(t); got != wantAuth {
		t.Fatalf("wrong auth:\ngot  %s\nwant %s", got, wantAuth)
	}

	ts.recv(`<success xmlns='urn:ietf:params:xml:ns:xmpp-sasl'/>`)
	if got := ts.sent(t); got != saslHeader {
		t.Fatalf("stream not restarted:\ngot  %s\nwant %s", got, saslHeader)
	}

	ts.recv(saslStream + `<stream:features><bind xmlns='urn:ietf:params:xml:ns:xmpp-bind'/></stream:features>`)
	const wantBind = `<iq id="bind" type="set"><bind xmlns="urn:ietf:params:xml:ns:xmpp-bind"><resource>imcore</resource></bind></iq>`
	if got := ts.sent(t); got != wantBind {
		t.Fatalf("wrong bind:\ngot  %s\nwant %s", got, wantBind)
	}
	if ts.State() != Authenticating {
		t.Fatalf("wrong state before bind result: %v", ts.State())
	}

	ts.recv(`<iq type='result' id='bind'><bind xmlns='urn:ietf:params:xml:ns:xmpp-bind'><jid>romeo@example.net/imcore</jid></bind></iq>`)
	if ts.State() != Established {
		t.Fatalf("wrong state after bind: %v", ts.State())
	}
	if ts.bound != "romeo@example.net/imcore" {
		t.Errorf("wrong bound address: %q", ts.bound)
	}
	want := []event.Event{event.Connected{Header: hdr()}}
	if got := ts.rec.Events(); !reflect.DeepEqual(got, want) {
		t.Errorf("wrong events:\ngot  %+v\nwant %+v", got, want)
	}
}

func TestSASLScramFirstMessage(t *testing.T) {
	ts := newTestSession(t, Config{Auth: AuthSASL})
	ts.onConnectReady(ts.fd, watch.Write)
	ts.sent(t)

	ts.recv(saslStream + features("PLAIN", "SCRAM-SHA-1"))
	out := ts.sent(t)
	const prefix = `<auth xmlns="urn:ietf:params:xml:ns:xmpp-sasl" mechanism="SCRAM-SHA-1">`
	if !strings.HasPrefix(out, prefix) || !strings.HasSuffix(out, "</auth>") {
		t.Fatalf("wrong auth: %s", out)
	}
	first, err := base64.StdEncoding.DecodeString(strings.TrimSuffix(strings.TrimPrefix(out, prefix), "</auth>"))
	if err != nil {
		t.Fatalf("error decoding first message: %v", err)
	}
	if !strings.HasPrefix(string(first), "n,,n=romeo,r=") {
		t.Errorf("wrong first message: %q", first)
	}

	ts.recv(`<challenge xmlns='urn:ietf:params:xml:ns:xmpp-sasl'>not base64!</challenge>`)
	want := []event.Event{
		event.Notice{Header: hdr(), Code: event.NoticeConnFailed, Args: []string{"malformed SASL challenge"}},
		event.Disconnected{Header: hdr(), Reason: "authentication failed", Class: event.ClassFailure},
	}
	if got := ts.rec.Events(); !reflect.DeepEqual(got, want) {
		t.Errorf("wrong events:\ngot  %+v\nwant %+v", got, want)
	}
}

var saslFailureTestCases = [...]struct {
	name string
	in   string
	args []string
}{
	{
		name: "no usable mechanism",
		in:   saslStream + features("PLAIN", "X-OAUTH2"),
		args: []string{"no matching SASL mechanisms found"},
	},
	{
		name: "no bind",
		in:   saslStream + `<stream:features/>`,
	},
	{
		name: "rejected",
		in:   saslStream + features("PLAIN") + `<failure xmlns='urn:ietf:params:xml:ns:xmpp-sasl'><not-authorized/></failure>`,
		args: []string{"not-authorized"},
	},
	{
		name: "rejected with text",
		in:   saslStream + features("PLAIN") + `<failure xmlns='urn:ietf:params:xml:ns:xmpp-sasl'><not-authorized/><text>Bad password</text></failure>`,
		args: []string{"Bad password"},
	},
}

func TestSASLFailure(t *testing.T) {
	for _, tc := range saslFailureTestCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Config{Auth: AuthSASL}
			if strings.HasPrefix(tc.name, "rejected") {
				cfg.PlaintextPassword = true
			}
			ts := newTestSession(t, cfg)
			ts.onConnectReady(ts.fd, watch.Write)
			ts.sent(t)
			if tc.name == "no bind" {
				// Pretend authentication already succeeded.
				ts.authed = true
				tc.args = []string{"server does not offer resource binding"}
			}
			ts.recv(tc.in)
			want := []event.Event{
				event.Notice{Header: hdr(), Code: event.NoticeConnFailed, Args: tc.args},
				event.Disconnected{Header: hdr(), Reason: "authentication failed", Class: event.ClassFailure},
			}
			if got := ts.rec.Events(); !reflect.DeepEqual(got, want) {
				t.Errorf("wrong events:\ngot  %+v\nwant %+v", got, want)
			}
			if ts.State() != Disconnected {
				t.Errorf("wrong state: %v", ts.State())
			}
		})
	}
}
