// Copyright 2016 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package xmpp

import (
	"encoding/xml"
	"time"

	"go.uber.org/zap"
	"mellium.im/sasl"

	"mellium.im/imcore/escape"
	"mellium.im/imcore/event"
	"mellium.im/imcore/internal/xmltok"
	"mellium.im/imcore/jid"
	"mellium.im/imcore/muc"
	"mellium.im/imcore/resolver"
	"mellium.im/imcore/roster"
	"mellium.im/imcore/watch"
)

// A Session is one account's connection to its server.
//
// The session exclusively owns its descriptor, TLS connection, tokenizer and
// write buffer. The descriptor is open exactly when the state is Connecting or
// later.
type Session struct {
	e     *Engine
	cfg   Config
	addr  jid.JID
	codec escape.Codec
	log   *zap.Logger

	state State
	// gen changes on every teardown so that callbacks and posted reads
	// belonging to an earlier connection can recognize themselves.
	gen     uint64
	fd      int
	tls     TLSConn
	resolve resolver.Handle
	readW   watch.ID
	writeW  watch.ID
	hsW     watch.ID
	hsStart time.Time

	out      []byte
	enc      *xml.Encoder
	tok      *xmltok.Tokenizer
	queue    []func()
	streamID string

	sasl     *sasl.Negotiator
	saslMore bool
	authed   bool
	bound    string

	roster          roster.Store
	rooms           *muc.Rooms
	nicks           map[string]string
	rosterRetrieved bool

	status      roster.Status
	desc        string
	newPassword string

	created      time.Time
	lastConn     time.Time
	lastActivity time.Time
}

// UID returns the "jid:" prefixed address of the account.
func (s *Session) UID() string {
	return s.cfg.UID
}

// Config returns the session configuration with defaults applied.
func (s *Session) Config() Config {
	return s.cfg
}

// State returns the current connection state.
func (s *Session) State() State {
	return s.state
}

// Roster returns the contact list of the session.
func (s *Session) Roster() roster.Store {
	return s.roster
}

// Rooms returns the multi-user chat rooms the session is in.
func (s *Session) Rooms() *muc.Rooms {
	return s.rooms
}

// StreamID returns the id the server assigned to the current stream.
func (s *Session) StreamID() string {
	return s.streamID
}

// Status returns the local presence and its description.
func (s *Session) Status() (roster.Status, string) {
	return s.status, s.desc
}

// Summary describes a session for status displays.
type Summary struct {
	UID         string
	State       State
	Server      string
	Port        int
	TLS         bool
	Status      roster.Status
	Description string
	// Since is the time of the last connection or disconnection, or the time
	// the session was created if it never connected.
	Since time.Time
}

// Summary returns the current state of the session.
func (s *Session) Summary() Summary {
	since := s.lastConn
	if since.IsZero() {
		since = s.created
	}
	return Summary{
		UID:         s.cfg.UID,
		State:       s.state,
		Server:      s.cfg.Server,
		Port:        s.cfg.port(),
		TLS:         s.cfg.TLS,
		Status:      s.status,
		Description: s.desc,
		Since:       since,
	}
}

// Idle returns the time since the last locally initiated activity.
func (s *Session) Idle() time.Duration {
	return s.e.opts.clock.Since(s.lastActivity)
}

func (s *Session) touch() {
	s.lastActivity = s.e.opts.clock.Now()
}

func (s *Session) setState(st State) {
	if ce := s.log.Check(zap.DebugLevel, "state change"); ce != nil {
		ce.Write(zap.Stringer("from", s.state), zap.Stringer("to", st))
	}
	s.state = st
}

func (s *Session) header() event.Header {
	return event.Header{Session: s.cfg.UID}
}

func (s *Session) notice(code string, args ...string) {
	s.e.emit(event.Notice{Header: s.header(), Code: code, Args: args})
}
