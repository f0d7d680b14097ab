// Copyright 2016 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package xmpp

import (
	"go.uber.org/zap"

	"mellium.im/imcore/event"
	"mellium.im/imcore/internal/ns"
	"mellium.im/imcore/internal/xmltok"
	"mellium.im/imcore/stanza"
)

// streamHandler queues stream events so that they are handled after the
// tokenizer returns.
type streamHandler struct {
	s *Session
}

func (h streamHandler) StreamStart(name string, attr []xmltok.Attr) {
	h.s.queue = append(h.s.queue, func() { h.s.streamStart(name, attr) })
}

func (h streamHandler) Stanza(n *stanza.Node) {
	h.s.queue = append(h.s.queue, func() { h.s.dispatch(n) })
}

func (h streamHandler) StreamEnd() {
	h.s.queue = append(h.s.queue, func() {
		h.s.teardown("stream closed by server", event.ClassNetwork)
	})
}

func (s *Session) streamStart(name string, attr []xmltok.Attr) {
	if name != "stream:stream" {
		s.notice(event.NoticeXMLError, "unexpected stream root "+name)
		s.teardown("unexpected stream root "+name, event.ClassProtocol)
		return
	}
	for _, a := range attr {
		if a.Name == "id" {
			s.streamID = a.Value
		}
	}
	s.log.Debug("stream opened", zap.String("id", s.streamID))
	if s.cfg.Auth == AuthLegacy && s.state == Authenticating {
		s.legacyAuth()
	}
}

// payload is the closed set of top level elements the session understands.
type payload uint8

const (
	payloadUnknown payload = iota
	payloadMessage
	payloadPresence
	payloadIQ
	payloadFeatures
	payloadChallenge
	payloadSuccess
	payloadFailure
	payloadStreamError
)

var payloadNames = [...]string{
	payloadUnknown:     "unknown",
	payloadMessage:     "message",
	payloadPresence:    "presence",
	payloadIQ:          "iq",
	payloadFeatures:    "features",
	payloadChallenge:   "challenge",
	payloadSuccess:     "success",
	payloadFailure:     "failure",
	payloadStreamError: "stream-error",
}

func (p payload) String() string {
	return payloadNames[p]
}

func classify(n *stanza.Node) payload {
	switch n.Name {
	case "message":
		return payloadMessage
	case "presence":
		return payloadPresence
	case "iq":
		return payloadIQ
	case "stream:features":
		return payloadFeatures
	case "stream:error":
		return payloadStreamError
	}
	if n.NS() != ns.SASL {
		return payloadUnknown
	}
	switch n.Name {
	case "challenge":
		return payloadChallenge
	case "success":
		return payloadSuccess
	case "failure":
		return payloadFailure
	}
	return payloadUnknown
}

func (s *Session) dispatch(n *stanza.Node) {
	p := classify(n)
	s.e.opts.metrics.Received(p.String())
	if ce := s.log.Check(zap.DebugLevel, "received"); ce != nil {
		ce.Write(zap.Stringer("payload", p), zap.Stringer("xml", n))
	}
	switch p {
	case payloadMessage:
		s.handleMessage(n)
	case payloadPresence:
		s.handlePresence(n)
	case payloadIQ:
		s.handleIQ(n)
	case payloadFeatures:
		s.handleFeatures(n)
	case payloadChallenge:
		s.handleChallenge(n)
	case payloadSuccess:
		s.handleSuccess(n)
	case payloadFailure:
		s.handleFailure(n)
	case payloadStreamError:
		s.handleStreamError(n)
	default:
		s.log.Warn("ignoring unknown element", zap.String("name", n.Name), zap.String("ns", n.NS()))
	}
}

func (s *Session) handleStreamError(n *stanza.Node) {
	var cond string
	for _, c := range n.Children {
		if c.Name != "text" {
			cond = c.Name
			break
		}
	}
	text := s.codec.Unescape(n.ChildText("text"))
	s.notice(event.NoticeStreamError, cond, text)
	s.teardown("stream error: "+cond, event.ClassProtocol)
}
