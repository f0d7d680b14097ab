// Copyright 2016 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package xmpp

import (
	"encoding/xml"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"mellium.im/xmlstream"

	"mellium.im/imcore/disco"
	"mellium.im/imcore/event"
	"mellium.im/imcore/form"
	"mellium.im/imcore/internal/ns"
	"mellium.im/imcore/jid"
	"mellium.im/imcore/roster"
	"mellium.im/imcore/stanza"
	"mellium.im/imcore/vcard"
	"mellium.im/imcore/version"
	"mellium.im/imcore/xtime"
)

func (s *Session) handleIQ(n *stanza.Node) {
	id := n.Attr("id")
	typ := stanza.IQType(n.Attr("type"))
	if typ == "" {
		s.log.Warn("ignoring iq without type", zap.String("id", id))
		return
	}

	switch {
	case id == authID && s.cfg.Auth == AuthLegacy && s.state == Authenticating:
		s.loginResult(n, typ)
		return
	case id == bindID && s.cfg.Auth == AuthSASL && s.state == Authenticating:
		if typ == stanza.ResultIQ {
			s.bound = s.codec.Unescape(n.ChildNS("bind", ns.Bind).ChildText("jid"))
		}
		s.loginResult(n, typ)
		return
	case strings.HasPrefix(id, passwdIDPre) && (typ == stanza.ResultIQ || typ == stanza.ErrorIQ):
		s.passwdResult(n, typ)
		return
	}

	from := n.Attr("from")
	query := n.Child("query")
	switch typ {
	case stanza.ResultIQ, stanza.SetIQ:
		if v := n.ChildNS("vCard", ns.VCard); v != nil && typ == stanza.ResultIQ {
			s.e.emit(event.VCard{Header: s.header(), From: s.fromUID(from), Card: vcard.Parse(v, s.codec.Unescape)})
			return
		}
		switch query.NS() {
		case ns.Roster:
			s.handleRoster(n, query, typ)
		case ns.Items:
			s.e.emit(event.Items{Header: s.header(), From: s.fromUID(from), Items: disco.ParseItems(query, s.codec.Unescape)})
		case ns.Register:
			s.e.emit(event.Registration{Header: s.header(), From: s.fromUID(from), Form: form.Parse(query, s.codec.Unescape)})
		case ns.Version:
			s.e.emit(event.Version{Header: s.header(), From: s.fromUID(from), Query: version.Parse(query, s.codec.Unescape)})
		case ns.Last:
			seconds, err := strconv.ParseInt(query.Attr("seconds"), 10, 64)
			if err != nil {
				seconds = -1
			}
			s.e.emit(event.LastActivity{Header: s.header(), From: s.fromUID(from), Seconds: seconds, Text: xtime.FormatIdle(seconds)})
		default:
			if typ == stanza.SetIQ {
				s.unsupported(n)
				return
			}
			s.log.Debug("ignoring iq result", zap.String("id", id), zap.String("ns", query.NS()))
		}
	case stanza.GetIQ:
		switch query.NS() {
		case ns.Version:
			s.send(stanza.Result(id, from).Wrap(version.Query{
				Name:    s.codec.Prepare(s.cfg.ClientName),
				Version: s.codec.Prepare(s.cfg.ClientVersion),
				OS:      s.clientOS(),
			}.TokenReader()))
		case ns.Last:
			seconds := int64(s.Idle().Seconds())
			s.send(stanza.Result(id, from).Wrap(xmlstream.Wrap(nil, xml.StartElement{
				Name: xml.Name{Space: ns.Last, Local: "query"},
				Attr: []xml.Attr{{Name: xml.Name{Local: "seconds"}, Value: strconv.FormatInt(seconds, 10)}},
			})))
		default:
			s.unsupported(n)
		}
	default:
		s.log.Debug("ignoring iq", zap.String("id", id), zap.String("type", string(typ)))
	}
}

func (s *Session) fromUID(raw string) string {
	return jid.UIDPrefix + s.codec.Unescape(raw)
}

func (s *Session) clientOS() string {
	if s.cfg.ClientOS != "" {
		return s.codec.Prepare(s.cfg.ClientOS)
	}
	if os := version.OS(); os != "" {
		return os
	}
	return "unknown"
}

// unsupported answers a request we do not understand.
func (s *Session) unsupported(n *stanza.Node) {
	id := n.Attr("id")
	if id == "" {
		return
	}
	s.send(stanza.IQ{ID: id, To: n.Attr("from"), Type: stanza.ErrorIQ}.Wrap(
		xmlstream.Wrap(
			stanza.Element("service-unavailable", ns.Stanzas),
			xml.StartElement{
				Name: xml.Name{Local: "error"},
				Attr: []xml.Attr{{Name: xml.Name{Local: "type"}, Value: "cancel"}},
			},
		),
	))
}

// loginResult handles the reply to the final login request.
func (s *Session) loginResult(n *stanza.Node, typ stanza.IQType) {
	switch typ {
	case stanza.ResultIQ:
		s.established()
	case stanza.ErrorIQ:
		var reason string
		if e := n.Child("error"); e != nil {
			reason = s.codec.Unescape(errorText(e))
		}
		s.authFailed(reason)
	}
}

func (s *Session) passwdResult(n *stanza.Node, typ stanza.IQType) {
	if typ == stanza.ResultIQ {
		s.cfg.Password = s.newPassword
		s.newPassword = ""
		s.notice(event.NoticePasswd)
		return
	}
	s.newPassword = ""
	reason := "?"
	if e := n.Child("error"); e != nil {
		if t := errorText(e); t != "" {
			reason = s.codec.Unescape(t)
		}
	}
	s.notice(event.NoticePasswdFailed, reason)
}

// handleRoster applies a roster result or push.
// Until the first roster has been retrieved items are simply added; after that
// every item replaces the existing entry and its presence is probed.
func (s *Session) handleRoster(n, query *stanza.Node, typ stanza.IQType) {
	from := n.Attr("from")
	if typ == stanza.SetIQ && from != "" {
		if j, err := jid.Parse(from); err != nil || !j.Bare().Equal(s.addr) {
			s.log.Warn("ignoring roster push from foreign sender", zap.String("from", from))
			return
		}
	}

	for _, item := range query.Children {
		if item.Name != "item" {
			continue
		}
		raw := item.Attr("jid")
		if raw == "" {
			continue
		}
		uid, _ := s.uidOf(raw)
		if s.rosterRetrieved {
			s.roster.Remove(uid)
		}
		sub := roster.Subscription(item.Attr("subscription"))
		if sub == roster.SubRemove {
			continue
		}
		if sub == "" {
			sub = roster.SubNone
		}
		name := s.codec.Unescape(item.Attr("name"))
		if name == "" {
			name = strings.TrimPrefix(uid, jid.UIDPrefix)
		}
		var groups []string
		for _, g := range item.Children {
			if g.Name == "group" {
				groups = append(groups, s.codec.Unescape(g.Text))
			}
		}
		s.roster.Add(roster.Entry{UID: uid, Name: name, Subscription: sub, Groups: groups})
		if s.rosterRetrieved {
			s.send(stanza.Presence{To: raw, Type: stanza.ProbePresence}.Wrap(nil))
		}
	}
	s.rosterRetrieved = true

	if typ == stanza.SetIQ && n.Attr("id") != "" {
		s.send(stanza.Result(n.Attr("id"), "").Wrap(nil))
	}
	s.notice(event.NoticeRosterUpdated, strconv.Itoa(s.roster.Len()))
}
