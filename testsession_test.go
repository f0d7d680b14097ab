// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package xmpp

import (
	"crypto/sha1"
	"encoding/hex"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/sys/unix"

	"mellium.im/imcore/event"
	"mellium.im/imcore/internal/watchtest"
	"mellium.im/imcore/resolver"
	"mellium.im/imcore/watch"
)

var testTime = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

const (
	testHeader = `<?xml version="1.0" encoding="utf-8"?><stream:stream to="example.net" xmlns="jabber:client" xmlns:stream="http://etherx.jabber.org/streams">`
	testStream = `<stream:stream xmlns='jabber:client' xmlns:stream='http://etherx.jabber.org/streams' id='abc' from='example.net'>`
)

// testSession is a session whose descriptor is one end of a socket pair.
// The test plays the server on the other end.
type testSession struct {
	*Session
	reg  *watchtest.Registry
	rec  *event.Recorder
	clk  *clock.Mock
	peer int
}

func newTestSession(t *testing.T, cfg Config, opts ...Option) *testSession {
	t.Helper()
	ts := &testSession{
		reg: watchtest.New(),
		rec: &event.Recorder{},
		clk: clock.NewMock(),
	}
	ts.clk.Set(testTime)
	if cfg.UID == "" {
		cfg.UID = "jid:romeo@example.net"
	}
	if cfg.Password == "" {
		cfg.Password = "secret"
	}
	opts = append([]Option{Bus(ts.rec), Clock(ts.clk)}, opts...)
	e := NewEngine(ts.reg, resolver.NewStub(ts.reg, resolver.Nameservers()), opts...)
	s, err := e.AddSession(cfg)
	if err != nil {
		t.Fatalf("error adding session: %v", err)
	}

	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("error creating socket pair: %v", err)
	}
	for _, fd := range fds {
		if err := unix.SetNonblock(fd, true); err != nil {
			t.Fatalf("error setting non-blocking mode: %v", err)
		}
	}
	s.fd = fds[0]
	s.state = Connecting
	ts.Session = s
	ts.peer = fds[1]
	t.Cleanup(func() {
		s.teardown("test finished", event.ClassUser)
		unix.Close(fds[1])
	})
	return ts
}

// recv feeds server output to the session.
func (ts *testSession) recv(xml string) {
	ts.feed([]byte(xml))
}

// sent returns everything the session wrote since the last call.
func (ts *testSession) sent(t *testing.T) string {
	t.Helper()
	var out []byte
	buf := make([]byte, 4096)
	for {
		n, err := unix.Read(ts.peer, buf)
		switch {
		case err == unix.EAGAIN:
			return string(out)
		case err != nil:
			t.Fatalf("error reading session output: %v", err)
		case n == 0:
			return string(out)
		}
		out = append(out, buf[:n]...)
	}
}

func digest(streamID, password string) string {
	sum := sha1.Sum([]byte(streamID + password))
	return hex.EncodeToString(sum[:])
}

// login completes the connection and legacy authentication and forgets the
// traffic and events it produced.
func (ts *testSession) login(t *testing.T) {
	t.Helper()
	ts.onConnectReady(ts.fd, watch.Write)
	if got := ts.sent(t); got != testHeader {
		t.Fatalf("wrong stream header: got %s, want %s", got, testHeader)
	}
	ts.recv(testStream)
	ts.sent(t)
	ts.recv(`<iq type='result' id='auth'/>`)
	if ts.state != Established {
		t.Fatalf("session not established: %v", ts.state)
	}
	ts.sent(t)
	ts.rec.Reset()
}
