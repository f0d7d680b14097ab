// Copyright 2016 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package xmpp

import (
	"encoding/xml"
	"strconv"

	"go.uber.org/zap"
	"mellium.im/xmlstream"

	"mellium.im/imcore/delay"
	"mellium.im/imcore/event"
	"mellium.im/imcore/muc"
	"mellium.im/imcore/roster"
	"mellium.im/imcore/stanza"
)

func (s *Session) handlePresence(n *stanza.Node) {
	uid, resource := s.uidOf(n.Attr("from"))
	typ := stanza.PresenceType(n.Attr("type"))

	switch typ {
	case stanza.SubscribePresence:
		s.notice(event.NoticeSubscribe, uid)
		return
	case stanza.UnsubscribePresence:
		s.notice(event.NoticeUnsubscribe, uid)
		return
	}

	if updates, ok := muc.ParsePresence(n, s.codec.Unescape); ok {
		s.rooms.Apply(updates)
		for _, u := range updates {
			s.e.emit(event.RoomPresence{
				Header: s.header(),
				Room:   u.Room,
				Member: u.Member,
				Part:   u.Part,
			})
		}
		return
	}

	switch typ {
	case stanza.AvailablePresence, stanza.UnavailablePresence, stanza.ErrorPresence, "available":
	default:
		s.log.Debug("ignoring presence", zap.String("type", string(typ)), zap.String("from", uid))
		return
	}

	var (
		status = roster.Available
		desc   string
	)
	switch show := n.ChildText("show"); {
	case typ == stanza.UnavailablePresence:
		status = roster.NotAvail
	case show != "":
		if st, ok := roster.ParseStatus(show); ok {
			status = st
		} else {
			s.log.Warn("unknown presence show value", zap.String("show", show), zap.String("from", uid))
		}
	}
	if e := n.Child("error"); e != nil {
		status = roster.Error
		desc = "(" + e.Attr("code") + ") " + s.codec.Unescape(errorText(e))
	}
	if st := n.Child("status"); st != nil {
		desc = s.codec.Unescape(st.Text)
	}

	if entry, ok := s.roster.Find(uid); ok {
		entry.Status = status
		entry.Description = desc
		if resource != "" {
			entry.Resource = resource
		}
	}
	s.e.emit(event.Status{
		Header:      s.header(),
		UID:         uid,
		Resource:    resource,
		Status:      status,
		Description: desc,
		When:        delay.StampOr(n, s.e.opts.clock.Now()),
	})
}

// presence builds our own presence for the given status.
func (s *Session) presence(to string, st roster.Status, desc string) xml.TokenReader {
	p := stanza.Presence{To: to}
	var children []xml.TokenReader
	switch st {
	case roster.Invisible:
		p.Type = stanza.InvisiblePresence
	case roster.NotAvail:
		p.Type = stanza.UnavailablePresence
	default:
		if show := st.Show(); show != "" {
			children = append(children, stanza.Text("show", show))
		}
	}
	if desc != "" {
		children = append(children, stanza.Text("status", s.codec.Prepare(desc)))
	}
	if st != roster.NotAvail {
		children = append(children, stanza.Text("priority", strconv.Itoa(s.cfg.Priority)))
	}
	return p.Wrap(xmlstream.MultiReader(children...))
}

func (s *Session) sendPresence() error {
	return s.send(s.presence("", s.status, s.desc))
}
