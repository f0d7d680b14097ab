// Copyright 2016 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package xmpp

import (
	"encoding/xml"
	"strings"

	"mellium.im/imcore/delay"
	"mellium.im/imcore/event"
	"mellium.im/imcore/internal/ns"
	"mellium.im/imcore/jid"
	"mellium.im/imcore/receipts"
	"mellium.im/imcore/roster"
	"mellium.im/imcore/stanza"
)

// excerptLen is the number of body characters quoted in a failure notice.
const excerptLen = 15

// uidOf splits a wire address into the uid of its bare address and its
// resource, both converted to the local charset.
func (s *Session) uidOf(raw string) (uid, resource string) {
	bare, res := jid.Split(raw)
	if j, err := jid.Parse(raw); err == nil {
		bare, res = j.Bare().String(), j.Resourcepart()
	}
	return jid.UIDPrefix + s.codec.Unescape(bare), s.codec.Unescape(res)
}

// wireAddr converts a uid or a plain address in the local charset to the
// address sent on the wire.
func (s *Session) wireAddr(uid string) string {
	return s.codec.Prepare(strings.TrimPrefix(uid, jid.UIDPrefix))
}

func excerpt(text string) string {
	r := []rune(text)
	if len(r) > excerptLen {
		r = r[:excerptLen]
	}
	return strings.Map(func(c rune) rune {
		if c == '\n' || c == '\r' {
			return ' '
		}
		return c
	}, string(r))
}

// errorText returns the human readable part of an error element in either the
// legacy or the current format.
func errorText(e *stanza.Node) string {
	if t := e.ChildText("text"); t != "" {
		return t
	}
	if t := strings.TrimSpace(e.Text); t != "" {
		return t
	}
	if len(e.Children) > 0 {
		return e.Children[0].Name
	}
	return ""
}

func (s *Session) handleMessage(n *stanza.Node) {
	from := n.Attr("from")
	uid, resource := s.uidOf(from)
	id := n.Attr("id")
	body := n.Child("body")
	text := s.codec.Unescape(n.ChildText("body"))

	if e := n.Child("error"); e != nil {
		args := []string{uid, e.Attr("code"), s.codec.Unescape(errorText(e))}
		if body != nil {
			args = append(args, excerpt(text))
		}
		s.notice(event.NoticeMsgFailed, args...)
		return
	}

	subject := n.Child("subject")
	if subject != nil {
		text = "Subject: " + s.codec.Unescape(subject.Text) + "\n\n" + text
	}
	hasText := body != nil || subject != nil
	typing := false

	for _, x := range n.Children {
		if x.Name != "x" {
			continue
		}
		switch x.NS() {
		case ns.Event:
			delivered := x.Child("delivered") != nil
			displayed := x.Child("displayed") != nil
			if body != nil {
				if (delivered || displayed) && id != "" {
					s.sendEvent(from, id, delivered, displayed)
				}
				continue
			}
			var ack event.Ack
			switch {
			case delivered:
				ack = event.Delivered
			case x.Child("offline") != nil:
				ack = event.Queued
			}
			if ack != "" {
				ackID := x.ChildText("id")
				if ackID == "" {
					ackID = id
				}
				s.e.emit(event.MessageAck{Header: s.header(), UID: uid, ID: s.codec.Unescape(ackID), Ack: ack})
			}
			if x.Child("composing") != nil {
				typing = true
			}
		case ns.OOB:
			if url := x.ChildText("url"); url != "" {
				text += "\n\nURL: " + s.codec.Unescape(url) + "\n"
				if desc := x.ChildText("desc"); desc != "" {
					text += s.codec.Unescape(desc) + "\n"
				}
			}
		}
	}

	if !hasText && n.ChildNS("composing", ns.ChatState) != nil {
		typing = true
	}
	if typing && !s.cfg.DisableTyping {
		s.notice(event.NoticeTyping, uid)
	}

	if rid, ok := receipts.ReceivedID(n); ok {
		s.e.emit(event.MessageAck{Header: s.header(), UID: uid, ID: s.codec.Unescape(rid), Ack: event.Delivered})
	}
	requested := receipts.Requested(n)
	if requested && hasText && id != "" && s.status != roster.Invisible {
		s.send(stanza.Message{To: from}.Wrap(receipts.Received(id)))
	}

	if !hasText {
		return
	}
	typ := n.Attr("type")
	m := event.Message{
		Header:           s.header(),
		From:             uid,
		Resource:         resource,
		ID:               s.codec.Unescape(id),
		Type:             typ,
		Text:             text,
		Sent:             delay.StampOr(n, s.e.opts.clock.Now()),
		Beep:             true,
		ReceiptRequested: requested,
	}
	if typ == string(stanza.GroupChatMessage) {
		if resource != "" {
			m.Text = "<" + resource + "> " + text
		}
		m.Formatted = true
	}
	s.e.emit(m)
}

// sendEvent acknowledges a message that asked for jabber:x:event
// notifications. While invisible only offline storage is admitted.
func (s *Session) sendEvent(to, id string, delivered, displayed bool) {
	var children []xml.TokenReader
	if s.status == roster.Invisible {
		children = append(children, stanza.Element("offline", ""))
	} else {
		if delivered {
			children = append(children, stanza.Element("delivered", ""))
		}
		if displayed {
			children = append(children, stanza.Element("displayed", ""))
		}
	}
	children = append(children, stanza.Text("id", id))
	s.send(stanza.Message{To: to}.Wrap(stanza.Element("x", ns.Event, children...)))
}
