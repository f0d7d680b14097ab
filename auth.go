// Copyright 2016 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package xmpp

import (
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/xml"
	"strings"

	"go.uber.org/zap"
	"mellium.im/sasl"
	"mellium.im/xmlstream"

	"mellium.im/imcore/event"
	"mellium.im/imcore/internal/ns"
	"mellium.im/imcore/roster"
	"mellium.im/imcore/stanza"
)

// Reserved iq ids.
const (
	authID      = "auth"
	bindID      = "bind"
	rosterID    = "roster"
	passwdIDPre = "passwd"
)

// legacyAuth sends the jabber:iq:auth request for the stream that just opened.
func (s *Session) legacyAuth() {
	password := s.codec.Prepare(s.cfg.Password)
	var secret xml.TokenReader
	if s.cfg.PlaintextPassword {
		secret = stanza.Text("password", password)
	} else {
		sum := sha1.Sum([]byte(s.streamID + password))
		secret = stanza.Text("digest", hex.EncodeToString(sum[:]))
	}
	s.send(stanza.IQ{ID: authID, To: s.addr.Domainpart(), Type: stanza.SetIQ}.Wrap(
		stanza.Element("query", ns.Auth,
			stanza.Text("username", s.addr.Localpart()),
			secret,
			stanza.Text("resource", s.codec.Prepare(s.cfg.Resource)),
		),
	))
}

// mechanisms is the client preference order.
var mechanisms = []sasl.Mechanism{
	sasl.ScramSha256Plus,
	sasl.ScramSha1Plus,
	sasl.ScramSha256,
	sasl.ScramSha1,
	sasl.Plain,
}

func (s *Session) usable(m sasl.Mechanism) bool {
	switch m.Name {
	case sasl.ScramSha256Plus.Name, sasl.ScramSha1Plus.Name:
		return s.tls != nil && len(s.tls.ConnectionState().TLSUnique) > 0
	case sasl.Plain.Name:
		return s.tls != nil || s.cfg.PlaintextPassword
	}
	return true
}

func (s *Session) handleFeatures(n *stanza.Node) {
	if s.cfg.Auth != AuthSASL || s.state != Authenticating {
		s.log.Warn("ignoring unexpected stream features")
		return
	}
	if s.authed {
		if n.ChildNS("bind", ns.Bind) == nil {
			s.authFailed("server does not offer resource binding")
			return
		}
		s.send(stanza.IQ{ID: bindID, Type: stanza.SetIQ}.Wrap(
			stanza.Element("bind", ns.Bind, stanza.Text("resource", s.codec.Prepare(s.cfg.Resource))),
		))
		return
	}

	var remote []string
	for _, c := range n.ChildNS("mechanisms", ns.SASL).Children {
		if c.Name == "mechanism" {
			remote = append(remote, strings.TrimSpace(c.Text))
		}
	}
	var selected sasl.Mechanism
selectmechanism:
	for _, m := range mechanisms {
		if !s.usable(m) {
			continue
		}
		for _, name := range remote {
			if name == m.Name {
				selected = m
				break selectmechanism
			}
		}
	}
	if selected.Name == "" {
		s.authFailed("no matching SASL mechanisms found")
		return
	}

	opts := []sasl.Option{
		sasl.RemoteMechanisms(remote...),
		sasl.Credentials(func() ([]byte, []byte, []byte) {
			return []byte(s.addr.Localpart()), []byte(s.codec.Prepare(s.cfg.Password)), nil
		}),
	}
	if s.tls != nil {
		opts = append(opts, sasl.TLSState(s.tls.ConnectionState()))
	}
	s.sasl = sasl.NewClient(selected, opts...)
	more, resp, err := s.sasl.Step(nil)
	if err != nil {
		s.authFailed(err.Error())
		return
	}
	s.saslMore = more
	s.log.Debug("authenticating", zap.String("mechanism", selected.Name))
	s.send(xmlstream.Wrap(
		xmlstream.Token(xml.CharData(encodeSASL(resp))),
		xml.StartElement{
			Name: xml.Name{Space: ns.SASL, Local: "auth"},
			Attr: []xml.Attr{{Name: xml.Name{Local: "mechanism"}, Value: selected.Name}},
		},
	))
}

// encodeSASL encodes a response, sending an empty one as a single equals
// sign.
func encodeSASL(resp []byte) string {
	if len(resp) == 0 {
		return "="
	}
	return base64.StdEncoding.EncodeToString(resp)
}

func decodeSASL(data string) ([]byte, error) {
	data = strings.TrimSpace(data)
	if data == "=" {
		return nil, nil
	}
	return base64.StdEncoding.DecodeString(data)
}

func (s *Session) handleChallenge(n *stanza.Node) {
	if s.sasl == nil {
		s.log.Warn("ignoring unexpected SASL challenge")
		return
	}
	challenge, err := decodeSASL(n.Text)
	if err != nil {
		s.authFailed("malformed SASL challenge")
		return
	}
	more, resp, err := s.sasl.Step(challenge)
	if err != nil {
		s.authFailed(err.Error())
		return
	}
	s.saslMore = more
	s.send(stanza.Element("response", ns.SASL, xmlstream.Token(xml.CharData(encodeSASL(resp)))))
}

func (s *Session) handleSuccess(n *stanza.Node) {
	if s.sasl == nil {
		s.log.Warn("ignoring unexpected SASL success")
		return
	}
	if s.saslMore {
		data, err := decodeSASL(n.Text)
		if err == nil {
			_, _, err = s.sasl.Step(data)
		}
		if err != nil {
			s.authFailed("server failed mutual authentication")
			return
		}
	}
	s.sasl = nil
	s.saslMore = false
	s.authed = true
	s.resetStream()
	s.writeRaw(s.streamHeader())
}

func (s *Session) handleFailure(n *stanza.Node) {
	reason := "authentication failed"
	if len(n.Children) > 0 {
		reason = n.Children[0].Name
	}
	if text := n.ChildText("text"); text != "" {
		reason = s.codec.Unescape(text)
	}
	s.authFailed(reason)
}

// authFailed reports a rejected login and disconnects.
func (s *Session) authFailed(reason string) {
	s.sasl = nil
	if reason == "" {
		s.notice(event.NoticeGenericConnFailed)
	} else {
		s.notice(event.NoticeConnFailed, reason)
	}
	s.teardown("authentication failed", event.ClassFailure)
}

// established finishes login: the session is connected, idle tracking is
// reset, the roster is requested again from scratch and our presence is sent.
func (s *Session) established() {
	now := s.e.opts.clock.Now()
	s.lastConn = now
	s.lastActivity = now
	s.setState(Established)
	s.rosterRetrieved = false
	s.roster.Clear()
	s.log.Info("connected", zap.String("stream", s.streamID))
	s.e.opts.metrics.Connect(true)
	s.e.emit(event.Connected{Header: s.header()})
	if s.send(stanza.IQ{ID: rosterID, Type: stanza.GetIQ}.Wrap(roster.Query())) != nil {
		return
	}
	s.sendPresence()
}
